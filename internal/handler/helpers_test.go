package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rongsox/dashboard/internal/auth"
	"github.com/rongsox/dashboard/internal/domain"
	"github.com/rongsox/dashboard/internal/querycache"
	"github.com/rongsox/dashboard/internal/session"
	"github.com/rongsox/dashboard/internal/validate"
)

// =============================================================================
// Test Helpers
// =============================================================================

// newTestLogger creates a logger that discards output for testing.
func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLists(t *testing.T) *querycache.Lists {
	t.Helper()
	lists := querycache.NewLists(querycache.NewMemoryStore(time.Minute), time.Minute, newTestLogger())
	t.Cleanup(func() { _ = lists.Close() })
	return lists
}

// renderCall records one template render.
type renderCall struct {
	Status int
	Name   string
	Data   PageData
}

// fakeRenderer records what a handler rendered instead of executing
// templates.
type fakeRenderer struct {
	calls []renderCall
}

func (f *fakeRenderer) RenderHTTP(w http.ResponseWriter, name string, data interface{}) {
	f.RenderHTTPStatus(w, http.StatusOK, name, data)
}

func (f *fakeRenderer) RenderHTTPStatus(w http.ResponseWriter, status int, name string, data interface{}) {
	page, _ := data.(PageData)
	f.calls = append(f.calls, renderCall{Status: status, Name: name, Data: page})
	w.WriteHeader(status)
}

func (f *fakeRenderer) last(t *testing.T) renderCall {
	t.Helper()
	require.NotEmpty(t, f.calls, "nothing was rendered")
	return f.calls[len(f.calls)-1]
}

// postForm builds a urlencoded POST request.
func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// postMultipart builds a multipart POST request with an optional file.
func postMultipart(t *testing.T, target string, form url.Values, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, values := range form {
		for _, v := range values {
			require.NoError(t, mw.WriteField(key, v))
		}
	}
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// signedIn attaches a session for identity to req.
func signedIn(req *http.Request, identity domain.Identity) *http.Request {
	sess := &domain.Session{Identity: identity, BackendToken: "backend-token", ExpiresAt: time.Now().Add(time.Hour)}
	return req.WithContext(auth.SetSession(req.Context(), sess))
}

var (
	staff      = domain.Identity{Email: "staff@rongsox.id", Name: "Staff", Roles: []string{domain.RoleAdmin}, AdminID: "adm-1"}
	superAdmin = domain.Identity{Email: "root@rongsox.id", Name: "Root", Roles: []string{domain.RoleSuperAdmin}, AdminID: "adm-0"}
)

// toastOf decodes the toast cookie set on rec, or returns nil.
func toastOf(rec *httptest.ResponseRecorder) *Toast {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.ToastCookieName && c.MaxAge >= 0 {
			req.AddCookie(c)
		}
	}
	return PopToast(httptest.NewRecorder(), req)
}

// counter counts backend calls.
type counter map[string]int

func (c counter) hit(name string) { c[name]++ }

func pageOf[T any](rows ...T) domain.Page[T] {
	return domain.Page[T]{
		Data:   rows,
		Paging: domain.Paging{TotalElements: len(rows), TotalPages: 1},
	}
}

// =============================================================================
// Fake Backend
// =============================================================================

// fakeBackend implements every backend interface the handlers consume.
// Unset funcs return an empty page or nil.
type fakeBackend struct {
	calls counter

	banks     []domain.Bank
	stuffs    []domain.Stuff
	admins    []domain.Admin
	customers []domain.Customer
	txs       []domain.Transaction

	listErr error
	saveErr error

	lastBank     domain.BankInput
	lastStuff    domain.StuffInput
	lastImage    *domain.Upload
	lastAdmin    domain.AdminInput
	lastCustomer domain.CustomerInput
	lastDeposit  domain.DepositInput
	lastStatus   any
	lastReceipt  *domain.Upload
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: counter{}}
}

func (f *fakeBackend) ListBanks(ctx context.Context, q url.Values) (domain.Page[domain.Bank], error) {
	f.calls.hit("ListBanks")
	return pageOf(f.banks...), f.listErr
}

func (f *fakeBackend) GetBank(ctx context.Context, id string) (domain.Bank, error) {
	for _, b := range f.banks {
		if b.ID == id {
			return b, nil
		}
	}
	return domain.Bank{}, domain.NotFound("bank.get", "bank", id)
}

func (f *fakeBackend) CreateBank(ctx context.Context, in domain.BankInput) (domain.Bank, error) {
	f.calls.hit("CreateBank")
	f.lastBank = in
	return domain.Bank{ID: "new", BankName: in.BankName, BankCode: in.BankCode}, f.saveErr
}

func (f *fakeBackend) UpdateBank(ctx context.Context, in domain.BankInput) (domain.Bank, error) {
	f.calls.hit("UpdateBank")
	f.lastBank = in
	return domain.Bank{ID: in.ID}, f.saveErr
}

func (f *fakeBackend) SetBankStatus(ctx context.Context, id string, active bool) error {
	f.calls.hit("SetBankStatus")
	f.lastStatus = active
	return f.saveErr
}

func (f *fakeBackend) ListStuffs(ctx context.Context, q url.Values) (domain.Page[domain.Stuff], error) {
	f.calls.hit("ListStuffs")
	return pageOf(f.stuffs...), f.listErr
}

func (f *fakeBackend) GetStuff(ctx context.Context, id string) (domain.Stuff, error) {
	for _, s := range f.stuffs {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Stuff{}, domain.NotFound("stuff.get", "stuff", id)
}

func (f *fakeBackend) CreateStuff(ctx context.Context, in domain.StuffInput, image *domain.Upload) (domain.Stuff, error) {
	f.calls.hit("CreateStuff")
	f.lastStuff, f.lastImage = in, image
	return domain.Stuff{ID: "new"}, f.saveErr
}

func (f *fakeBackend) UpdateStuff(ctx context.Context, in domain.StuffInput, image *domain.Upload) (domain.Stuff, error) {
	f.calls.hit("UpdateStuff")
	f.lastStuff, f.lastImage = in, image
	return domain.Stuff{ID: in.ID}, f.saveErr
}

func (f *fakeBackend) SetStuffStatus(ctx context.Context, id string, active bool) error {
	f.calls.hit("SetStuffStatus")
	f.lastStatus = active
	return f.saveErr
}

func (f *fakeBackend) ListAdmins(ctx context.Context, q url.Values) (domain.Page[domain.Admin], error) {
	f.calls.hit("ListAdmins")
	return pageOf(f.admins...), f.listErr
}

func (f *fakeBackend) GetAdmin(ctx context.Context, id string) (domain.Admin, error) {
	for _, a := range f.admins {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Admin{}, domain.NotFound("admin.get", "admin", id)
}

func (f *fakeBackend) UpdateAdmin(ctx context.Context, in domain.AdminInput) (domain.Admin, error) {
	f.calls.hit("UpdateAdmin")
	f.lastAdmin = in
	return domain.Admin{ID: in.ID}, f.saveErr
}

func (f *fakeBackend) SetAdminStatus(ctx context.Context, id string, active bool) error {
	f.calls.hit("SetAdminStatus")
	f.lastStatus = active
	return f.saveErr
}

func (f *fakeBackend) RegisterAdmin(ctx context.Context, in domain.AdminInput) error {
	f.calls.hit("RegisterAdmin")
	f.lastAdmin = in
	return f.saveErr
}

func (f *fakeBackend) ListCustomers(ctx context.Context, q url.Values) (domain.Page[domain.Customer], error) {
	f.calls.hit("ListCustomers")
	return pageOf(f.customers...), f.listErr
}

func (f *fakeBackend) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	for _, c := range f.customers {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Customer{}, domain.NotFound("customer.get", "customer", id)
}

func (f *fakeBackend) UpdateCustomer(ctx context.Context, in domain.CustomerInput) (domain.Customer, error) {
	f.calls.hit("UpdateCustomer")
	f.lastCustomer = in
	return domain.Customer{ID: in.ID}, f.saveErr
}

func (f *fakeBackend) SetCustomerStatus(ctx context.Context, id string, active bool) error {
	f.calls.hit("SetCustomerStatus")
	f.lastStatus = active
	return f.saveErr
}

func (f *fakeBackend) RegisterCustomer(ctx context.Context, in domain.CustomerInput) error {
	f.calls.hit("RegisterCustomer")
	f.lastCustomer = in
	return f.saveErr
}

func (f *fakeBackend) ListTransactions(ctx context.Context, q url.Values) (domain.Page[domain.Transaction], error) {
	f.calls.hit("ListTransactions")
	return pageOf(f.txs...), f.listErr
}

func (f *fakeBackend) CreateDeposit(ctx context.Context, in domain.DepositInput) error {
	f.calls.hit("CreateDeposit")
	f.lastDeposit = in
	return f.saveErr
}

func (f *fakeBackend) SetDepositStatus(ctx context.Context, id string, status domain.TransactionStatus) error {
	f.calls.hit("SetDepositStatus")
	f.lastStatus = status
	return f.saveErr
}

func (f *fakeBackend) CompleteWithdrawal(ctx context.Context, id string, receipt *domain.Upload) error {
	f.calls.hit("CompleteWithdrawal")
	f.lastReceipt = receipt
	return f.saveErr
}

func newValidator() *validate.Validator {
	return validate.New()
}
