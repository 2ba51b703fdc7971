// Package handler contains HTTP handlers for the Rongsox dashboard.
//
// This file implements the bank list and its create, update and status
// forms.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/rongsox/dashboard/internal/domain"
	"github.com/rongsox/dashboard/internal/listview"
	"github.com/rongsox/dashboard/internal/querycache"
	"github.com/rongsox/dashboard/internal/validate"
)

// BankBackend is the subset of the backend client used for banks.
type BankBackend interface {
	ListBanks(ctx context.Context, q url.Values) (domain.Page[domain.Bank], error)
	GetBank(ctx context.Context, id string) (domain.Bank, error)
	CreateBank(ctx context.Context, in domain.BankInput) (domain.Bank, error)
	UpdateBank(ctx context.Context, in domain.BankInput) (domain.Bank, error)
	SetBankStatus(ctx context.Context, id string, active bool) error
}

// BankHandler handles the bank pages.
//
// Routes handled:
// - GET  /banks              -> Index
// - POST /banks/filter       -> list intent, 303 to the rewritten list URL
// - GET  /banks/new          -> New
// - POST /banks              -> Create
// - GET  /banks/{id}/edit    -> Edit
// - POST /banks/{id}         -> Update
// - POST /banks/{id}/status  -> SetStatus
type BankHandler struct {
	resource
	backend BankBackend
}

// NewBankHandler creates a new BankHandler.
func NewBankHandler(
	backend BankBackend,
	lists *querycache.Lists,
	validator *validate.Validator,
	renderer TemplateRenderer,
	logger *slog.Logger,
) *BankHandler {
	return &BankHandler{
		resource: resource{
			lists:     lists,
			validator: validator,
			renderer:  renderer,
			logger:    logger,
		},
		backend: backend,
	}
}

// Index renders the bank list.
func (h *BankHandler) Index(w http.ResponseWriter, r *http.Request) {
	renderList(&h.resource, w, r, "banks/index", "Banks", listview.Banks, h.backend.ListBanks)
}

// New renders the empty bank form.
func (h *BankHandler) New(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "banks/form", "Add Bank", domain.BankInput{}, nil, nil)
}

// Edit renders the bank form prefilled from the backend.
func (h *BankHandler) Edit(w http.ResponseWriter, r *http.Request) {
	bank, err := h.backend.GetBank(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, listview.Banks.Path, err)
		return
	}
	h.renderForm(w, r, "banks/form", "Edit Bank", domain.BankInput{
		ID:       bank.ID,
		BankName: bank.BankName,
		BankCode: bank.BankCode,
	}, nil, nil)
}

// Create adds a bank.
func (h *BankHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "")
}

// Update replaces a bank.
func (h *BankHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, r.PathValue("id"))
}

func (h *BankHandler) save(w http.ResponseWriter, r *http.Request, id string) {
	in := domain.BankInput{
		ID:       id,
		BankName: strings.TrimSpace(r.FormValue("bankName")),
		BankCode: strings.TrimSpace(r.FormValue("bankCode")),
	}
	title, op, success := "Add Bank", "bank.create", "Add bank success, bank created !"
	if id != "" {
		title, op, success = "Edit Bank", "bank.update", "Update bank success !"
	}

	if err := h.validator.Struct(op, in); err != nil {
		h.renderForm(w, r, "banks/form", title, in, nil, err)
		return
	}

	var err error
	if id == "" {
		_, err = h.backend.CreateBank(r.Context(), in)
	} else {
		_, err = h.backend.UpdateBank(r.Context(), in)
	}
	if err != nil {
		h.renderForm(w, r, "banks/form", title, in, nil, err)
		return
	}

	h.invalidate(r.Context(), domain.KindBank)
	h.logger.Info("bank saved", "op", op, "bank_name", in.BankName)
	redirectWithToast(w, r, returnTo(r, listview.Banks.Path), SuccessToast(success))
}

// SetStatus activates or deactivates a bank.
func (h *BankHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	back := returnTo(r, listview.Banks.Path)
	active, err := parseStatus(r)
	if err != nil {
		h.fail(w, r, back, err)
		return
	}
	if err := h.backend.SetBankStatus(r.Context(), r.PathValue("id"), active); err != nil {
		h.fail(w, r, back, err)
		return
	}
	h.invalidate(r.Context(), domain.KindBank)
	redirectWithToast(w, r, back, SuccessToast("Update bank status success !"))
}

// RegisterRoutes registers the bank routes, each wrapped by protect.
func (h *BankHandler) RegisterRoutes(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("GET /banks", protect(http.HandlerFunc(h.Index)))
	mux.Handle("POST /banks/filter", protect(filterHandler(&h.resource, listview.Banks)))
	mux.Handle("GET /banks/new", protect(http.HandlerFunc(h.New)))
	mux.Handle("POST /banks", protect(http.HandlerFunc(h.Create)))
	mux.Handle("GET /banks/{id}/edit", protect(http.HandlerFunc(h.Edit)))
	mux.Handle("POST /banks/{id}", protect(http.HandlerFunc(h.Update)))
	mux.Handle("POST /banks/{id}/status", protect(http.HandlerFunc(h.SetStatus)))
}
