package listview

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/rongsox/dashboard/internal/domain"
	"github.com/rongsox/dashboard/internal/querycache"
)

// Controller owns the persisted filter state of one list view. State
// changes only through its mutators, and every mutator rewrites all keys.
type Controller struct {
	schema Schema
	query  url.Values
}

// NewController starts from the query of the current request.
func NewController(schema Schema, q url.Values) *Controller {
	return &Controller{
		schema: schema,
		query:  schema.Encode(schema.ReadFilters(q)),
	}
}

// Schema returns the list schema.
func (c *Controller) Schema() Schema {
	return c.schema
}

// ReadFilters returns the current state.
func (c *Controller) ReadFilters() FilterState {
	return c.schema.ReadFilters(c.query)
}

// Query returns a copy of the persisted state.
func (c *Controller) Query() url.Values {
	q := make(url.Values, len(c.query))
	for k, v := range c.query {
		q[k] = append([]string(nil), v...)
	}
	return q
}

// URL returns the list path for the current state.
func (c *Controller) URL() string {
	return c.schema.Path + "?" + c.query.Encode()
}

// CacheKey returns the cache key of the current state.
func (c *Controller) CacheKey() querycache.Key {
	return c.schema.CacheKey(c.ReadFilters())
}

func (c *Controller) write(state FilterState) {
	c.query = c.schema.Encode(state)
}

// SubmitSearch sets the search text and returns to the first page, since the
// old page may be out of range for the new result set.
func (c *Controller) SubmitSearch(text string) {
	state := c.ReadFilters()
	state.Search = searchText(text)
	state.Page = DefaultPage
	c.write(state)
}

// SetStatusFilter sets the status filter and returns to the first page.
func (c *Controller) SetStatusFilter(value string) error {
	value = canonical(value)
	if !c.schema.validStatus(value) {
		return domain.Invalid("listview.status", "Unknown status filter")
	}
	state := c.ReadFilters()
	state.Status = value
	state.Page = DefaultPage
	c.write(state)
	return nil
}

// SetTypeFilter sets the transaction type filter and returns to the first
// page.
func (c *Controller) SetTypeFilter(value string) error {
	value = canonical(value)
	if !c.schema.HasTypeFilter() || !c.schema.validType(value) {
		return domain.Invalid("listview.type", "Unknown transaction type filter")
	}
	state := c.ReadFilters()
	state.TransactionType = value
	state.Page = DefaultPage
	c.write(state)
	return nil
}

// SetPageSize changes the page length and returns to the first page, so the
// current page can never fall beyond the new last page.
func (c *Controller) SetPageSize(size int) error {
	if !validSize(size) {
		return domain.Invalid("listview.size", "Page size must be 5, 10 or 50")
	}
	state := c.ReadFilters()
	state.Size = size
	state.Page = DefaultPage
	c.write(state)
	return nil
}

// GoToPage sets the page verbatim. Callers only offer pages between 1 and
// the envelope's total; a non-positive page reads back as the first page.
func (c *Controller) GoToPage(n int) {
	state := c.ReadFilters()
	state.Page = n
	c.write(state)
}

// NextPage advances one page. It does not clamp; gate it on HasNext.
func (c *Controller) NextPage() {
	c.GoToPage(c.ReadFilters().Page + 1)
}

// PreviousPage goes back one page. It does not clamp; gate it on HasPrevious.
func (c *Controller) PreviousPage() {
	c.GoToPage(c.ReadFilters().Page - 1)
}

// clone returns an independent controller with the same state.
func (c *Controller) clone() *Controller {
	return &Controller{schema: c.schema, query: c.Query()}
}

// =============================================================================
// Links
// =============================================================================

// PageURL returns the URL the list would have after GoToPage(n).
func (c *Controller) PageURL(n int) string {
	next := c.clone()
	next.GoToPage(n)
	return next.URL()
}

// NextURL returns the URL after NextPage.
func (c *Controller) NextURL() string {
	next := c.clone()
	next.NextPage()
	return next.URL()
}

// PreviousURL returns the URL after PreviousPage.
func (c *Controller) PreviousURL() string {
	prev := c.clone()
	prev.PreviousPage()
	return prev.URL()
}

// =============================================================================
// Intents
// =============================================================================

// Navigation intents posted by list forms.
const (
	IntentSearch = "search"
	IntentStatus = "status"
	IntentType   = "type"
	IntentSize   = "size"
	IntentPage   = "page"
	IntentNext   = "next"
	IntentPrev   = "prev"
)

// Apply dispatches a named intent with its value.
func (c *Controller) Apply(intent, value string) error {
	switch intent {
	case IntentSearch:
		if !c.schema.HasSearch() {
			return domain.Invalid("listview.apply", "This list has no search")
		}
		c.SubmitSearch(value)
		return nil
	case IntentStatus:
		return c.SetStatusFilter(value)
	case IntentType:
		return c.SetTypeFilter(value)
	case IntentSize:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return domain.Invalid("listview.apply", "Page size must be a number")
		}
		return c.SetPageSize(n)
	case IntentPage:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 1 {
			return domain.Invalid("listview.apply", "Page must be a positive number")
		}
		c.GoToPage(n)
		return nil
	case IntentNext:
		c.NextPage()
		return nil
	case IntentPrev:
		if c.ReadFilters().Page <= DefaultPage {
			return domain.Invalid("listview.apply", "Already on the first page")
		}
		c.PreviousPage()
		return nil
	default:
		return domain.Errorf(domain.EINVALID, "listview.apply", "Unknown list action %q", intent)
	}
}
