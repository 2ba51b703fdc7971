package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/rongsox/dashboard/internal/auth"
	"github.com/rongsox/dashboard/internal/domain"
	"github.com/rongsox/dashboard/internal/listview"
	"github.com/rongsox/dashboard/internal/querycache"
)

// DashboardBackend is the subset of the backend client used for the
// dashboard summary.
type DashboardBackend interface {
	ListBanks(ctx context.Context, q url.Values) (domain.Page[domain.Bank], error)
	ListStuffs(ctx context.Context, q url.Values) (domain.Page[domain.Stuff], error)
	ListAdmins(ctx context.Context, q url.Values) (domain.Page[domain.Admin], error)
	ListCustomers(ctx context.Context, q url.Values) (domain.Page[domain.Customer], error)
	ListTransactions(ctx context.Context, q url.Values) (domain.Page[domain.Transaction], error)
}

// Stat is one summary tile of the dashboard.
type Stat struct {
	Kind  domain.EntityKind
	Label string
	Path  string
	Total int
	// Failed is set when the count could not be loaded.
	Failed bool
}

// DashboardView is the view model of the dashboard.
type DashboardView struct {
	Stats  []Stat
	Recent []domain.Transaction
}

// DashboardHandler renders the landing page after login.
type DashboardHandler struct {
	resource
	backend DashboardBackend
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(backend DashboardBackend, lists *querycache.Lists, renderer TemplateRenderer, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		resource: resource{lists: lists, renderer: renderer, logger: logger},
		backend:  backend,
	}
}

// Show renders the totals of every list and the latest transactions. The
// counts come from the first page of each list in its default state, so
// they share cache entries with the list screens.
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := auth.GetIdentity(ctx)

	view := DashboardView{}
	var unauthorized error

	add := func(schema listview.Schema, total int, err error) {
		stat := Stat{Kind: schema.Kind, Label: schema.Kind.Label(), Path: schema.Path, Total: total}
		if err != nil {
			stat.Failed = true
			if domain.ErrorCode(err) == domain.EUNAUTHORIZED {
				unauthorized = err
			}
			h.logger.Warn("dashboard count failed", "kind", schema.Kind, "error", err)
		}
		view.Stats = append(view.Stats, stat)
	}

	banks, err := firstPage(ctx, h.lists, listview.Banks, h.backend.ListBanks)
	add(listview.Banks, banks.Paging.TotalElements, err)
	stuffs, err := firstPage(ctx, h.lists, listview.Stuffs, h.backend.ListStuffs)
	add(listview.Stuffs, stuffs.Paging.TotalElements, err)
	if identity.IsSuperAdmin() {
		admins, err := firstPage(ctx, h.lists, listview.Admins, h.backend.ListAdmins)
		add(listview.Admins, admins.Paging.TotalElements, err)
	}
	customers, err := firstPage(ctx, h.lists, listview.Customers, h.backend.ListCustomers)
	add(listview.Customers, customers.Paging.TotalElements, err)
	transactions, err := firstPage(ctx, h.lists, listview.Transactions, h.backend.ListTransactions)
	add(listview.Transactions, transactions.Paging.TotalElements, err)
	view.Recent = transactions.Data

	if unauthorized != nil {
		redirectWithToast(w, r, loginURL(r), ErrorToast(domain.ErrorMessage(unauthorized)))
		return
	}

	page := newPageData(w, r, "Dashboard")
	page.Data = view
	h.renderer.RenderHTTP(w, "dashboard", page)
}

func firstPage[T any](ctx context.Context, lists *querycache.Lists, schema listview.Schema, fetch ListFetch[T]) (domain.Page[T], error) {
	return loadPage(ctx, lists, schema, listview.DefaultState(), fetch)
}

// RegisterRoutes registers the dashboard routes, each wrapped by protect.
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("GET /dashboard", protect(http.HandlerFunc(h.Show)))
	mux.Handle("GET /{$}", protect(http.RedirectHandler("/dashboard", http.StatusSeeOther)))
}
