package handler

// This file implements the admin and customer pages. Admin pages are for
// super admins only; the routes are wrapped accordingly in main.

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

// AdminBackend is the subset of the backend client used for admins.
type AdminBackend interface {
	ListAdmins(ctx context.Context, q url.Values) (domain.Page[domain.Admin], error)
	GetAdmin(ctx context.Context, id string) (domain.Admin, error)
	UpdateAdmin(ctx context.Context, in domain.AdminInput) (domain.Admin, error)
	SetAdminStatus(ctx context.Context, id string, active bool) error
	RegisterAdmin(ctx context.Context, in domain.AdminInput) error
}

// CustomerBackend is the subset of the backend client used for customers.
type CustomerBackend interface {
	ListCustomers(ctx context.Context, q url.Values) (domain.Page[domain.Customer], error)
	GetCustomer(ctx context.Context, id string) (domain.Customer, error)
	UpdateCustomer(ctx context.Context, in domain.CustomerInput) (domain.Customer, error)
	SetCustomerStatus(ctx context.Context, id string, active bool) error
	RegisterCustomer(ctx context.Context, in domain.CustomerInput) error
}

// =============================================================================
// Admins
// =============================================================================

// AdminHandler handles the admin pages.
type AdminHandler struct {
	resource
	backend AdminBackend
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	backend AdminBackend,
	lists *querycache.Lists,
	validator *validate.Validator,
	renderer TemplateRenderer,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		resource: resource{lists: lists, validator: validator, renderer: renderer, logger: logger},
		backend:  backend,
	}
}

// Index renders the admin list.
func (h *AdminHandler) Index(w http.ResponseWriter, r *http.Request) {
	renderList(&h.resource, w, r, "admins/index", "Admins", listview.Admins, h.backend.ListAdmins)
}

// New renders the admin registration form.
func (h *AdminHandler) New(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "admins/form", "Register Admin", domain.AdminInput{}, nil, nil)
}

// Edit renders the admin form. The seeded super admin cannot be edited.
func (h *AdminHandler) Edit(w http.ResponseWriter, r *http.Request) {
	admin, err := h.backend.GetAdmin(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, listview.Admins.Path, err)
		return
	}
	if admin.Locked() {
		redirectWithToast(w, r, listview.Admins.Path, ErrorToast("The super admin account cannot be changed !"))
		return
	}
	h.renderForm(w, r, "admins/form", "Edit Admin", domain.AdminInput{
		ID:          admin.ID,
		Username:    admin.Username,
		Email:       admin.Email,
		Name:        admin.Name,
		PhoneNumber: admin.PhoneNumber,
		Address:     admin.Address,
	}, nil, nil)
}

// Create registers a new admin account.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	in := adminInput(r, "")
	if err := h.validator.Struct("admin.register", in); err != nil {
		h.renderForm(w, r, "admins/form", "Register Admin", redactPassword(in), nil, err)
		return
	}
	if err := h.backend.RegisterAdmin(r.Context(), in); err != nil {
		h.renderForm(w, r, "admins/form", "Register Admin", redactPassword(in), nil, err)
		return
	}

	h.invalidate(r.Context(), domain.KindAdmin)
	h.logger.Info("admin registered", "username", in.Username)
	redirectWithToast(w, r, returnTo(r, listview.Admins.Path), SuccessToast("Register admin success, account created !"))
}

// Update replaces an admin's profile. A blank password keeps the old one.
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	in := adminInput(r, r.PathValue("id"))
	if err := h.validator.Struct("admin.update", in); err != nil {
		h.renderForm(w, r, "admins/form", "Edit Admin", redactPassword(in), nil, err)
		return
	}
	if _, err := h.backend.UpdateAdmin(r.Context(), in); err != nil {
		h.renderForm(w, r, "admins/form", "Edit Admin", redactPassword(in), nil, err)
		return
	}

	h.invalidate(r.Context(), domain.KindAdmin)
	redirectWithToast(w, r, returnTo(r, listview.Admins.Path), SuccessToast("Update admin success !"))
}

// SetStatus activates or deactivates an admin.
func (h *AdminHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	back := returnTo(r, listview.Admins.Path)
	active, err := parseStatus(r)
	if err != nil {
		h.fail(w, r, back, err)
		return
	}
	if err := h.backend.SetAdminStatus(r.Context(), r.PathValue("id"), active); err != nil {
		h.fail(w, r, back, err)
		return
	}
	h.invalidate(r.Context(), domain.KindAdmin)
	redirectWithToast(w, r, back, SuccessToast("Update admin status success !"))
}

// RegisterRoutes registers the admin routes, each wrapped by protect.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("GET /admins", protect(http.HandlerFunc(h.Index)))
	mux.Handle("POST /admins/filter", protect(filterHandler(&h.resource, listview.Admins)))
	mux.Handle("GET /admins/new", protect(http.HandlerFunc(h.New)))
	mux.Handle("POST /admins", protect(http.HandlerFunc(h.Create)))
	mux.Handle("GET /admins/{id}/edit", protect(http.HandlerFunc(h.Edit)))
	mux.Handle("POST /admins/{id}", protect(http.HandlerFunc(h.Update)))
	mux.Handle("POST /admins/{id}/status", protect(http.HandlerFunc(h.SetStatus)))
}

func adminInput(r *http.Request, id string) domain.AdminInput {
	return domain.AdminInput{
		ID:          id,
		Username:    strings.TrimSpace(r.FormValue("username")),
		Password:    r.FormValue("password"),
		Email:       strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
		Name:        strings.TrimSpace(r.FormValue("name")),
		PhoneNumber: strings.TrimSpace(r.FormValue("phoneNumber")),
		Address:     strings.TrimSpace(r.FormValue("address")),
	}
}

func redactPassword(in domain.AdminInput) domain.AdminInput {
	in.Password = ""
	return in
}

// =============================================================================
// Customers
// =============================================================================

// CustomerHandler handles the customer pages.
type CustomerHandler struct {
	resource
	backend CustomerBackend
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(
	backend CustomerBackend,
	lists *querycache.Lists,
	validator *validate.Validator,
	renderer TemplateRenderer,
	logger *slog.Logger,
) *CustomerHandler {
	return &CustomerHandler{
		resource: resource{lists: lists, validator: validator, renderer: renderer, logger: logger},
		backend:  backend,
	}
}

// Index renders the customer list.
func (h *CustomerHandler) Index(w http.ResponseWriter, r *http.Request) {
	renderList(&h.resource, w, r, "customers/index", "Customers", listview.Customers, h.backend.ListCustomers)
}

// New renders the customer registration form.
func (h *CustomerHandler) New(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "customers/form", "Register Customer", domain.CustomerInput{}, nil, nil)
}

// Edit renders the customer form prefilled from the backend.
func (h *CustomerHandler) Edit(w http.ResponseWriter, r *http.Request) {
	c, err := h.backend.GetCustomer(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, listview.Customers.Path, err)
		return
	}
	h.renderForm(w, r, "customers/form", "Edit Customer", domain.CustomerInput{
		ID:          c.ID,
		Username:    c.Username,
		Email:       c.Email,
		Name:        c.Name,
		PhoneNumber: c.PhoneNumber,
		Address:     c.Address,
		BirthDate:   dateOnly(c.BirthDate),
		KtpNumber:   c.KtpNumber,
	}, nil, nil)
}

// Create registers a new customer account.
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	in := customerInput(r, "")
	if err := h.validator.Struct("customer.register", in); err != nil {
		h.renderForm(w, r, "customers/form", "Register Customer", redactCustomerPassword(in), nil, err)
		return
	}
	if err := h.backend.RegisterCustomer(r.Context(), in); err != nil {
		h.renderForm(w, r, "customers/form", "Register Customer", redactCustomerPassword(in), nil, err)
		return
	}

	h.invalidate(r.Context(), domain.KindCustomer)
	h.logger.Info("customer registered", "username", in.Username)
	redirectWithToast(w, r, returnTo(r, listview.Customers.Path), SuccessToast("Register customer success, account created !"))
}

// Update replaces a customer's profile.
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	in := customerInput(r, r.PathValue("id"))
	if err := h.validator.Struct("customer.update", in); err != nil {
		h.renderForm(w, r, "customers/form", "Edit Customer", redactCustomerPassword(in), nil, err)
		return
	}
	if _, err := h.backend.UpdateCustomer(r.Context(), in); err != nil {
		h.renderForm(w, r, "customers/form", "Edit Customer", redactCustomerPassword(in), nil, err)
		return
	}

	h.invalidate(r.Context(), domain.KindCustomer)
	redirectWithToast(w, r, returnTo(r, listview.Customers.Path), SuccessToast("Update customer success !"))
}

// SetStatus activates or deactivates a customer.
func (h *CustomerHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	back := returnTo(r, listview.Customers.Path)
	active, err := parseStatus(r)
	if err != nil {
		h.fail(w, r, back, err)
		return
	}
	if err := h.backend.SetCustomerStatus(r.Context(), r.PathValue("id"), active); err != nil {
		h.fail(w, r, back, err)
		return
	}
	h.invalidate(r.Context(), domain.KindCustomer)
	redirectWithToast(w, r, back, SuccessToast("Update customer status success !"))
}

// RegisterRoutes registers the customer routes, each wrapped by protect.
func (h *CustomerHandler) RegisterRoutes(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("GET /customers", protect(http.HandlerFunc(h.Index)))
	mux.Handle("POST /customers/filter", protect(filterHandler(&h.resource, listview.Customers)))
	mux.Handle("GET /customers/new", protect(http.HandlerFunc(h.New)))
	mux.Handle("POST /customers", protect(http.HandlerFunc(h.Create)))
	mux.Handle("GET /customers/{id}/edit", protect(http.HandlerFunc(h.Edit)))
	mux.Handle("POST /customers/{id}", protect(http.HandlerFunc(h.Update)))
	mux.Handle("POST /customers/{id}/status", protect(http.HandlerFunc(h.SetStatus)))
}

func customerInput(r *http.Request, id string) domain.CustomerInput {
	return domain.CustomerInput{
		ID:          id,
		Username:    strings.TrimSpace(r.FormValue("username")),
		Password:    r.FormValue("password"),
		Email:       strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
		Name:        strings.TrimSpace(r.FormValue("name")),
		PhoneNumber: strings.TrimSpace(r.FormValue("phoneNumber")),
		Address:     strings.TrimSpace(r.FormValue("address")),
		BirthDate:   strings.TrimSpace(r.FormValue("birthDate")),
		KtpNumber:   strings.TrimSpace(r.FormValue("ktpNumber")),
	}
}

func redactCustomerPassword(in domain.CustomerInput) domain.CustomerInput {
	in.Password = ""
	return in
}

// dateOnly trims a backend timestamp to the yyyy-mm-dd a date input expects.
func dateOnly(s string) string {
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}
