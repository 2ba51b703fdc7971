// Package querycache caches fetched list pages keyed by their filter state.
//
// Each entity kind has a generation counter. Page entries are stored under
// the generation current when the fetch began, so bumping the generation
// drops every cached page of that kind at once and keeps late responses from
// repopulating an invalidated kind.
package querycache

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/rongsox/dashboard/internal/domain"
)

// Key uniquely identifies one fetched page.
type Key struct {
	Kind            domain.EntityKind
	Search          string
	Status          string
	TransactionType string
	Page            int
	Size            int
}

// String returns a canonical, collision-free representation of the key.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(string(k.Kind))
	for _, part := range []string{k.Search, k.Status, k.TransactionType} {
		b.WriteByte('|')
		b.WriteString(url.QueryEscape(part))
	}
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(k.Page))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(k.Size))
	return b.String()
}
