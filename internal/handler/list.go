package handler

import (
	"context"
	"html/template"
	"net/http"
	"net/url"

	"github.com/a-h/templ"

	"github.com/rongsox/dashboard/internal/domain"
	"github.com/rongsox/dashboard/internal/listview"
	"github.com/rongsox/dashboard/internal/querycache"
	"github.com/rongsox/dashboard/internal/templ/components/pagination"
)

// listTargetID is the element swapped by htmx list navigation.
const listTargetID = "list-area"

// ListView is the view model of an entity list page.
type ListView[T any] struct {
	Schema     listview.Schema
	State      listview.FilterState
	Rows       []T
	Paging     domain.Paging
	Pagination template.HTML
	PageSizes  []int

	// URL is the current list URL; forms post it back as return_to.
	URL string
	// FilterAction receives the filter intents of the list.
	FilterAction string
	// LoadError is set when the page could not be fetched.
	LoadError string
}

// Offset returns the row number shown before the first row of the page.
func (v ListView[T]) Offset() int {
	return (v.State.Page - 1) * v.State.Size
}

// ListFetch loads one page of a list from the backend.
type ListFetch[T any] func(ctx context.Context, q url.Values) (domain.Page[T], error)

// loadList resolves the filter state of r, loads the matching page through
// the cache and builds the view model. A fetch error is returned together
// with a usable, empty view so the page still renders its filters.
func loadList[T any](r *http.Request, lists *querycache.Lists, schema listview.Schema, fetch ListFetch[T]) (ListView[T], error) {
	ctx := r.Context()
	c := listview.NewController(schema, r.URL.Query())
	state := c.ReadFilters()

	view := ListView[T]{
		Schema:       schema,
		State:        state,
		Rows:         []T{},
		PageSizes:    listview.PageSizes,
		URL:          c.URL(),
		FilterAction: schema.Path + "/filter",
	}

	page, err := loadPage(ctx, lists, schema, state, fetch)
	if err != nil {
		view.LoadError = domain.ErrorMessage(err)
		return view, err
	}

	view.Rows = page.Data
	view.Paging = page.Paging

	bar := pagination.Compute(pagination.FromPaging(page.Paging, state.Page, state.Size, page.Rows()), c)
	html, err := templ.ToGoHTML(ctx, pagination.Component(bar, pagination.Config{
		TargetID: listTargetID,
		UseHtmx:  true,
		PushURL:  true,
	}))
	if err != nil {
		return view, domain.Internal(err, "list.pagination", "")
	}
	view.Pagination = html
	return view, nil
}

// loadPage loads the page of schema matching state through the cache.
func loadPage[T any](ctx context.Context, lists *querycache.Lists, schema listview.Schema, state listview.FilterState, fetch ListFetch[T]) (domain.Page[T], error) {
	return querycache.Load(ctx, lists, schema.CacheKey(state), func(ctx context.Context) (domain.Page[T], error) {
		return fetch(ctx, schema.BackendQuery(state))
	})
}

// renderList renders a list page. Fetch failures become an error toast on
// an empty list; an expired backend session goes back to the login page.
func renderList[T any](h *resource, w http.ResponseWriter, r *http.Request, name, title string, schema listview.Schema, fetch ListFetch[T]) {
	view, err := loadList(r, h.lists, schema, fetch)
	if err != nil && domain.ErrorCode(err) == domain.EUNAUTHORIZED {
		redirectWithToast(w, r, loginURL(r), ErrorToast(domain.ErrorMessage(err)))
		return
	}

	page := newPageData(w, r, title)
	page.Data = view
	if err != nil {
		logError(h.logger, r, err, domain.ErrorCode(err), domain.ErrorOp(err), ErrorCodeToHTTPStatus(domain.ErrorCode(err)))
		page.Toast = &Toast{Kind: ToastError, Message: view.LoadError}
	}
	h.renderer.RenderHTTP(w, name, page)
}

// =============================================================================
// POST /{list}/filter - Apply a Navigation Intent
// =============================================================================

// filterHandler applies one posted intent to the list state and redirects
// to the rewritten list URL. The current state comes from the return_to
// URL of the form, so every other filter survives the change.
func filterHandler(h *resource, schema listview.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := url.Values{}
		if back := returnTo(r, ""); back != "" {
			if u, err := url.Parse(back); err == nil && u.Path == schema.Path {
				current = u.Query()
			}
		}

		c := listview.NewController(schema, current)
		if err := c.Apply(r.FormValue("intent"), r.FormValue("value")); err != nil {
			h.logger.Info("list intent rejected", "list", schema.Kind, "intent", r.FormValue("intent"), "error", err)
			redirectWithToast(w, r, c.URL(), ErrorToast(domain.ErrorMessage(err)))
			return
		}
		http.Redirect(w, r, c.URL(), http.StatusSeeOther)
	}
}
