package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rongsox/dashboard/internal/domain"
	"github.com/rongsox/dashboard/internal/listview"
)

func newTestBankHandler(t *testing.T) (*BankHandler, *fakeBackend, *fakeRenderer) {
	t.Helper()
	backend := newFakeBackend()
	renderer := &fakeRenderer{}
	h := NewBankHandler(backend, newTestLists(t), newValidator(), renderer, newTestLogger())
	return h, backend, renderer
}

func TestBankIndex_RendersPageFromCache(t *testing.T) {
	h, backend, renderer := newTestBankHandler(t)
	backend.banks = []domain.Bank{{ID: "b1", BankName: "BCA", BankCode: "014", Status: true}}

	for i := 0; i < 2; i++ {
		req := signedIn(httptest.NewRequest(http.MethodGet, "/banks?name=&status=&page=1&size=5", nil), staff)
		h.Index(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 1, backend.calls["ListBanks"], "second render should hit the cache")

	call := renderer.last(t)
	assert.Equal(t, "banks/index", call.Name)
	view, ok := call.Data.Data.(ListView[domain.Bank])
	require.True(t, ok)
	assert.Len(t, view.Rows, 1)
	assert.Equal(t, "/banks/filter", view.FilterAction)
	assert.Equal(t, "/banks?name=&page=1&size=5&status=", view.URL)
	assert.Contains(t, string(view.Pagination), "Showing")
}

func TestBankIndex_LoadErrorShowsToast(t *testing.T) {
	h, backend, renderer := newTestBankHandler(t)
	backend.listErr = domain.Unavailable(nil, "bank.list")

	rec := httptest.NewRecorder()
	h.Index(rec, signedIn(httptest.NewRequest(http.MethodGet, "/banks", nil), staff))

	call := renderer.last(t)
	require.NotNil(t, call.Data.Toast)
	assert.Equal(t, ToastError, call.Data.Toast.Kind)
	view := call.Data.Data.(ListView[domain.Bank])
	assert.Empty(t, view.Rows)
	assert.NotEmpty(t, view.LoadError)
}

func TestBankIndex_ExpiredTokenGoesToLogin(t *testing.T) {
	h, backend, _ := newTestBankHandler(t)
	backend.listErr = domain.Unauthorized("bank.list", "Session expired, please login again !")

	rec := httptest.NewRecorder()
	h.Index(rec, signedIn(httptest.NewRequest(http.MethodGet, "/banks?page=2", nil), staff))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?return_to="+url.QueryEscape("/banks?page=2"), rec.Header().Get("Location"))
}

func TestBankCreate_ValidationRendersForm(t *testing.T) {
	h, backend, renderer := newTestBankHandler(t)

	rec := httptest.NewRecorder()
	h.Create(rec, signedIn(postForm("/banks", url.Values{"bankName": {"B"}, "bankCode": {""}}), staff))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, backend.calls["CreateBank"], "invalid forms never reach the backend")

	call := renderer.last(t)
	assert.Equal(t, "banks/form", call.Name)
	assert.True(t, call.Data.HasError("bankName"))
	assert.True(t, call.Data.HasError("bankCode"))
	assert.Equal(t, domain.BankInput{BankName: "B"}, call.Data.Form)
}

func TestBankCreate_ConflictShowsToast(t *testing.T) {
	h, backend, renderer := newTestBankHandler(t)
	backend.saveErr = domain.Conflict("bank.create", "Bank Name already exists, please choose another !")

	rec := httptest.NewRecorder()
	h.Create(rec, signedIn(postForm("/banks", url.Values{"bankName": {"BCA"}, "bankCode": {"014"}}), staff))

	assert.Equal(t, http.StatusConflict, rec.Code)
	call := renderer.last(t)
	require.NotNil(t, call.Data.Toast)
	assert.Equal(t, "Bank Name already exists, please choose another !", call.Data.Toast.Message)
}

func TestBankCreate_SuccessInvalidatesAndRedirects(t *testing.T) {
	h, backend, _ := newTestBankHandler(t)

	list := func() {
		h.Index(httptest.NewRecorder(), signedIn(httptest.NewRequest(http.MethodGet, "/banks", nil), staff))
	}
	list()
	list()
	require.Equal(t, 1, backend.calls["ListBanks"])

	form := url.Values{"bankName": {" BCA "}, "bankCode": {"014"}, "return_to": {"/banks?name=b&page=2&size=5&status="}}
	rec := httptest.NewRecorder()
	h.Create(rec, signedIn(postForm("/banks", form), staff))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/banks?name=b&page=2&size=5&status=", rec.Header().Get("Location"))
	assert.Equal(t, "BCA", backend.lastBank.BankName)
	toast := toastOf(rec)
	require.NotNil(t, toast)
	assert.Equal(t, "Add bank success, bank created !", toast.Message)

	list()
	assert.Equal(t, 2, backend.calls["ListBanks"], "write should drop cached bank pages")
}

func TestBankUpdate_UsesPathID(t *testing.T) {
	h, backend, _ := newTestBankHandler(t)

	req := signedIn(postForm("/banks/b1", url.Values{"bankName": {"Mandiri"}, "bankCode": {"008"}}), staff)
	req.SetPathValue("id", "b1")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/banks", rec.Header().Get("Location"))
	assert.Equal(t, "b1", backend.lastBank.ID)
	assert.Equal(t, "Update bank success !", toastOf(rec).Message)
}

func TestBankSetStatus(t *testing.T) {
	h, backend, _ := newTestBankHandler(t)

	req := signedIn(postForm("/banks/b1/status", url.Values{"status": {"false"}}), staff)
	req.SetPathValue("id", "b1")
	rec := httptest.NewRecorder()
	h.SetStatus(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, false, backend.lastStatus)
	assert.Equal(t, ToastSuccess, toastOf(rec).Kind)

	req = signedIn(postForm("/banks/b1/status", url.Values{"status": {"maybe"}}), staff)
	req.SetPathValue("id", "b1")
	rec = httptest.NewRecorder()
	h.SetStatus(rec, req)

	assert.Equal(t, 1, backend.calls["SetBankStatus"])
	assert.Equal(t, ToastError, toastOf(rec).Kind)
}

func TestBankFilter_RewritesURL(t *testing.T) {
	h, _, _ := newTestBankHandler(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, func(next http.Handler) http.Handler { return next })

	tests := []struct {
		name     string
		form     url.Values
		location string
	}{
		{
			name:     "status resets page and keeps search",
			form:     url.Values{"intent": {"status"}, "value": {"true"}, "return_to": {"/banks?name=bca&page=3&size=10&status="}},
			location: "/banks?name=bca&page=1&size=10&status=true",
		},
		{
			name:     "next page",
			form:     url.Values{"intent": {"next"}, "return_to": {"/banks?name=&page=1&size=5&status="}},
			location: "/banks?name=&page=2&size=5&status=",
		},
		{
			name:     "foreign return_to is ignored",
			form:     url.Values{"intent": {"search"}, "value": {"bri"}, "return_to": {"/stuffs?name=x&page=4"}},
			location: "/banks?name=bri&page=1&size=5&status=",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, postForm("/banks/filter", tt.form))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestBankFilter_UnknownIntent(t *testing.T) {
	h, _, _ := newTestBankHandler(t)

	rec := httptest.NewRecorder()
	filterHandler(&h.resource, listview.Banks)(rec, postForm("/banks/filter", url.Values{"intent": {"sort"}}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, ToastError, toastOf(rec).Kind)
}
