// Package pagination renders the page navigation below every entity list.
package pagination

import "github.com/rongsox/dashboard/internal/domain"

// Data contains pagination information for display.
type Data struct {
	CurrentPage int
	TotalPages  int
	PerPage     int
	Total       int
	Rows        int // rows actually returned for CurrentPage
	HasPrevious bool
	HasNext     bool
}

// FromPaging builds Data from a backend envelope. page and size come from
// the filter state that produced the envelope.
func FromPaging(p domain.Paging, page, size, rows int) Data {
	return Data{
		CurrentPage: page,
		TotalPages:  p.TotalPages,
		PerPage:     size,
		Total:       p.TotalElements,
		Rows:        rows,
		HasPrevious: p.HasPrevious,
		HasNext:     p.HasNext,
	}
}

// Config allows customization of pagination behavior.
type Config struct {
	TargetID string // htmx target, e.g., "list-area"
	UseHtmx  bool   // Enable htmx partial loading
	PushURL  bool   // Update browser URL with hx-push-url
}

// Links resolves the URL each navigation control points at.
type Links interface {
	PageURL(n int) string
	NextURL() string
	PreviousURL() string
}
