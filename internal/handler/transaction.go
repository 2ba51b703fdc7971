package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rongsox/dashboard/internal/auth"
	"github.com/rongsox/dashboard/internal/domain"
	"github.com/rongsox/dashboard/internal/listview"
	"github.com/rongsox/dashboard/internal/querycache"
	"github.com/rongsox/dashboard/internal/validate"
)

// optionPageSize bounds the customers and stuffs offered by the deposit form.
const optionPageSize = 50

// TransactionBackend is the subset of the backend client used for
// transactions and the deposit form options.
type TransactionBackend interface {
	ListTransactions(ctx context.Context, q url.Values) (domain.Page[domain.Transaction], error)
	CreateDeposit(ctx context.Context, in domain.DepositInput) error
	SetDepositStatus(ctx context.Context, id string, status domain.TransactionStatus) error
	CompleteWithdrawal(ctx context.Context, id string, receipt *domain.Upload) error
	ListCustomers(ctx context.Context, q url.Values) (domain.Page[domain.Customer], error)
	ListStuffs(ctx context.Context, q url.Values) (domain.Page[domain.Stuff], error)
}

// ReceiptArchiver keeps a local copy of withdrawal receipts.
type ReceiptArchiver interface {
	Archive(ctx context.Context, transactionID string, upload *domain.Upload) (*domain.Receipt, error)
	ListByTransaction(ctx context.Context, transactionID string) ([]domain.Receipt, error)
}

// DepositRow is one submitted line of the deposit form.
type DepositRow struct {
	StuffID string
	Weight  string
}

// DepositForm holds the submitted deposit values for re-rendering.
type DepositForm struct {
	CustomerID string
	Rows       []DepositRow
}

// DepositOptions are the active customers and stuffs offered by the form.
type DepositOptions struct {
	Customers []domain.Customer
	Stuffs    []domain.Stuff
}

// WithdrawalView is the view model of the withdrawal completion form.
type WithdrawalView struct {
	ID string
	// Receipts are copies archived by earlier attempts.
	Receipts []domain.Receipt
}

// TransactionHandler handles the transaction list, deposits and withdrawal
// completion.
type TransactionHandler struct {
	resource
	backend  TransactionBackend
	receipts ReceiptArchiver
}

// NewTransactionHandler creates a new TransactionHandler. receipts may be nil.
func NewTransactionHandler(
	backend TransactionBackend,
	receipts ReceiptArchiver,
	lists *querycache.Lists,
	validator *validate.Validator,
	renderer TemplateRenderer,
	logger *slog.Logger,
) *TransactionHandler {
	return &TransactionHandler{
		resource: resource{lists: lists, validator: validator, renderer: renderer, logger: logger},
		backend:  backend,
		receipts: receipts,
	}
}

// Index renders the transaction list.
func (h *TransactionHandler) Index(w http.ResponseWriter, r *http.Request) {
	renderList(&h.resource, w, r, "transactions/index", "Transactions", listview.Transactions, h.backend.ListTransactions)
}

// =============================================================================
// Deposit
// =============================================================================

// NewDeposit renders the deposit form.
func (h *TransactionHandler) NewDeposit(w http.ResponseWriter, r *http.Request) {
	opts, err := h.depositOptions(r.Context())
	if err != nil {
		h.fail(w, r, listview.Transactions.Path, err)
		return
	}
	form := DepositForm{Rows: []DepositRow{{}}}
	h.renderForm(w, r, "transactions/deposit", "Add Deposit", form, opts, nil)
}

// CreateDeposit prices and records a deposit. Each detail is priced with the
// stuff's current buying price; the browser's numbers are never trusted.
func (h *TransactionHandler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "transaction.deposit"

	identity := auth.GetIdentity(ctx)
	if identity == nil {
		h.fail(w, r, listview.Transactions.Path, domain.Unauthorized(op, ""))
		return
	}

	opts, err := h.depositOptions(ctx)
	if err != nil {
		h.fail(w, r, listview.Transactions.Path, err)
		return
	}

	form, in := depositInput(r, identity.AdminID)
	if err := h.validator.Struct(op, in); err != nil {
		h.renderForm(w, r, "transactions/deposit", "Add Deposit", form, opts, err)
		return
	}

	prices := make(map[string]int64, len(opts.Stuffs))
	for _, s := range opts.Stuffs {
		prices[s.ID] = s.BuyingPrice
	}
	if err := domain.PriceDeposit(&in, prices); err != nil {
		h.renderForm(w, r, "transactions/deposit", "Add Deposit", form, opts, err)
		return
	}

	if err := h.backend.CreateDeposit(ctx, in); err != nil {
		h.renderForm(w, r, "transactions/deposit", "Add Deposit", form, opts, err)
		return
	}

	// A deposit changes the customer's balance too.
	h.invalidate(ctx, domain.KindTransaction)
	h.invalidate(ctx, domain.KindCustomer)
	h.logger.Info("deposit created",
		"customer_id", in.CustomerID,
		"admin_id", in.AdminID,
		"details", len(in.TransactionDetails),
		"amount", in.Amount,
	)
	redirectWithToast(w, r, returnTo(r, listview.Transactions.Path), SuccessToast("Add transaction success, transaction created !"))
}

// SetDepositStatus moves a deposit to the posted status.
func (h *TransactionHandler) SetDepositStatus(w http.ResponseWriter, r *http.Request) {
	back := returnTo(r, listview.Transactions.Path)
	status := domain.TransactionStatus(r.FormValue("status"))
	if !status.Valid() {
		h.fail(w, r, back, domain.Invalid("transaction.deposit_status", "Unknown transaction status"))
		return
	}
	if err := h.backend.SetDepositStatus(r.Context(), r.PathValue("id"), status); err != nil {
		h.fail(w, r, back, err)
		return
	}
	h.invalidate(r.Context(), domain.KindTransaction)
	redirectWithToast(w, r, back, SuccessToast("Update transaction deposit status success !"))
}

// depositOptions loads the active customers and stuffs through the list
// cache, so the form shares pages with the list screens.
func (h *TransactionHandler) depositOptions(ctx context.Context) (DepositOptions, error) {
	customers, err := activeRows(ctx, h.lists, listview.Customers, h.backend.ListCustomers)
	if err != nil {
		return DepositOptions{}, err
	}
	stuffs, err := activeRows(ctx, h.lists, listview.Stuffs, h.backend.ListStuffs)
	if err != nil {
		return DepositOptions{}, err
	}
	return DepositOptions{Customers: customers, Stuffs: stuffs}, nil
}

func activeRows[T any](ctx context.Context, lists *querycache.Lists, schema listview.Schema, fetch ListFetch[T]) ([]T, error) {
	state := listview.FilterState{Status: "true", Page: 1, Size: optionPageSize}
	page, err := loadPage(ctx, lists, schema, state, fetch)
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

// depositInput reads the parallel stuffId and weight fields of the form.
// Rows left completely blank are skipped.
func depositInput(r *http.Request, adminID string) (DepositForm, domain.DepositInput) {
	_ = r.ParseForm()
	form := DepositForm{CustomerID: strings.TrimSpace(r.PostForm.Get("customerId"))}
	in := domain.DepositInput{AdminID: adminID, CustomerID: form.CustomerID}

	stuffIDs := r.PostForm["stuffId"]
	weights := r.PostForm["weight"]
	for i, id := range stuffIDs {
		row := DepositRow{StuffID: strings.TrimSpace(id)}
		if i < len(weights) {
			row.Weight = strings.TrimSpace(weights[i])
		}
		if row.StuffID == "" && row.Weight == "" {
			continue
		}
		form.Rows = append(form.Rows, row)
		in.TransactionDetails = append(in.TransactionDetails, domain.DepositDetail{
			StuffID: row.StuffID,
			Weight:  parseWeight(row.Weight),
		})
	}
	if len(form.Rows) == 0 {
		form.Rows = []DepositRow{{}}
	}
	return form, in
}

// parseWeight reads a weight in kilograms. Both "2.5" and "2,5" are
// accepted; anything unparsable reads as 0 and fails validation.
func parseWeight(s string) float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

// =============================================================================
// Withdrawal
// =============================================================================

// EditWithdrawal renders the withdrawal completion form.
func (h *TransactionHandler) EditWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "transactions/withdrawal", "Complete Withdrawal", nil, h.withdrawalView(r.Context(), r.PathValue("id")), nil)
}

func (h *TransactionHandler) withdrawalView(ctx context.Context, id string) WithdrawalView {
	view := WithdrawalView{ID: id}
	if h.receipts == nil {
		return view
	}
	receipts, err := h.receipts.ListByTransaction(ctx, id)
	if err != nil {
		h.logger.Warn("failed to list archived receipts", "transaction_id", id, "error", err)
		return view
	}
	view.Receipts = receipts
	return view
}

// CompleteWithdrawal marks a withdrawal as paid with its transfer receipt.
// The receipt is archived locally first; a failed archive does not block
// the payout.
func (h *TransactionHandler) CompleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "transaction.withdrawal"
	id := r.PathValue("id")
	view := h.withdrawalView(ctx, id)

	receipt, err := formUpload(r, "image")
	if err == nil && receipt == nil {
		err = domain.NewValidationError(op, "image", "Receipt image is required")
	}
	if err == nil {
		err = h.validator.Image(op, "image", receipt)
	}
	if err != nil {
		h.renderForm(w, r, "transactions/withdrawal", "Complete Withdrawal", nil, view, err)
		return
	}

	if h.receipts != nil {
		if rec, err := h.receipts.Archive(ctx, id, receipt); err != nil {
			h.logger.Warn("failed to archive withdrawal receipt", "transaction_id", id, "error", err)
		} else {
			h.logger.Debug("withdrawal receipt archived", "transaction_id", id, "receipt_id", rec.ID)
		}
	}

	if err := h.backend.CompleteWithdrawal(ctx, id, receipt); err != nil {
		h.renderForm(w, r, "transactions/withdrawal", "Complete Withdrawal", nil, view, err)
		return
	}

	h.invalidate(ctx, domain.KindTransaction)
	h.invalidate(ctx, domain.KindCustomer)
	h.logger.Info("withdrawal completed", "transaction_id", id)
	redirectWithToast(w, r, returnTo(r, listview.Transactions.Path), SuccessToast("Update transaction withdraw status success !"))
}

// RegisterRoutes registers the transaction routes, each wrapped by protect.
func (h *TransactionHandler) RegisterRoutes(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("GET /transactions", protect(http.HandlerFunc(h.Index)))
	mux.Handle("POST /transactions/filter", protect(filterHandler(&h.resource, listview.Transactions)))
	mux.Handle("GET /transactions/deposit/new", protect(http.HandlerFunc(h.NewDeposit)))
	mux.Handle("POST /transactions/deposit", protect(http.HandlerFunc(h.CreateDeposit)))
	mux.Handle("POST /transactions/deposit/{id}/status", protect(http.HandlerFunc(h.SetDepositStatus)))
	mux.Handle("GET /transactions/withdrawal/{id}", protect(http.HandlerFunc(h.EditWithdrawal)))
	mux.Handle("POST /transactions/withdrawal/{id}", protect(http.HandlerFunc(h.CompleteWithdrawal)))
}
