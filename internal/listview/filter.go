package listview

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/rongsox/dashboard/internal/querycache"
)

// FilterState is what page, under what filters, a list shows.
type FilterState struct {
	Search          string
	Status          string
	TransactionType string
	Page            int
	Size            int
}

// DefaultState is the state of a list opened without a query.
func DefaultState() FilterState {
	return FilterState{Page: DefaultPage, Size: DefaultSize}
}

// ReadFilters parses q. Missing or malformed values fall back to their
// defaults; it never fails.
func (s Schema) ReadFilters(q url.Values) FilterState {
	state := DefaultState()

	if s.HasSearch() {
		state.Search = searchText(q.Get(s.SearchKey))
	}
	if v := canonical(q.Get(KeyStatus)); s.validStatus(v) {
		state.Status = v
	}
	if s.HasTypeFilter() {
		if v := canonical(q.Get(KeyTransactionType)); s.validType(v) {
			state.TransactionType = v
		}
	}
	if p, err := strconv.Atoi(strings.TrimSpace(q.Get(KeyPage))); err == nil && p > 0 {
		state.Page = p
	}
	if n, err := strconv.Atoi(strings.TrimSpace(q.Get(KeySize))); err == nil && validSize(n) {
		state.Size = n
	}
	return state
}

// searchText keeps search text verbatim; only all-blank text reads as no
// search.
func searchText(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return text
}

// Encode writes every schema key, empty values included. This is the only
// way state is persisted.
func (s Schema) Encode(state FilterState) url.Values {
	q := make(url.Values, len(s.Keys()))
	if s.HasSearch() {
		q.Set(s.SearchKey, state.Search)
	}
	q.Set(KeyStatus, state.Status)
	if s.HasTypeFilter() {
		q.Set(KeyTransactionType, state.TransactionType)
	}
	q.Set(KeyPage, strconv.Itoa(state.Page))
	q.Set(KeySize, strconv.Itoa(state.Size))
	return q
}

// URL returns the list path with the fully encoded state.
func (s Schema) URL(state FilterState) string {
	return s.Path + "?" + s.Encode(state).Encode()
}

// BackendQuery returns the query for the REST list endpoint. Backend pages
// are 1-based like the UI.
func (s Schema) BackendQuery(state FilterState) url.Values {
	return s.Encode(state)
}

// CacheKey identifies the fetched page for state.
func (s Schema) CacheKey(state FilterState) querycache.Key {
	key := querycache.Key{
		Kind:   s.Kind,
		Search: state.Search,
		Status: state.Status,
		Page:   state.Page,
		Size:   state.Size,
	}
	if s.HasTypeFilter() {
		key.TransactionType = state.TransactionType
	}
	return key
}

// canonical maps every spelling of "no filter" to "".
func canonical(v string) string {
	return strings.TrimSpace(v)
}
