package backend

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rongsox/dashboard/internal/auth"
	"github.com/rongsox/dashboard/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig(srv.URL + "/api/v1")
	cfg.BreakerFailures = 2
	cfg.BreakerTimeout = time.Minute
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := New(cfg, logger)
	require.NoError(t, err)
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := New(Config{}, logger)
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "ftp://example.com"}, logger)
	assert.Error(t, err)
}

func TestListBanks_ForwardsQueryAndToken(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery url.Values
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		writeJSON(w, http.StatusOK, map[string]any{
			"data": []map[string]any{
				{"id": "b1", "bankName": "BCA", "bankCode": "014", "status": true},
			},
			"paging": map[string]any{
				"totalElement": 6, "totalPages": 2, "page": 2, "size": 5,
				"hasPrevious": true, "hasNext": false,
			},
		})
	})

	ctx := auth.WithToken(context.Background(), "tok")
	q := url.Values{"name": {"bca"}, "status": {""}, "page": {"2"}, "size": {"5"}}
	page, err := c.ListBanks(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/banks", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "bca", gotQuery.Get("name"))
	assert.True(t, gotQuery.Has("status"), "empty filters are still sent")
	require.Len(t, page.Data, 1)
	assert.Equal(t, "BCA", page.Data[0].BankName)
	assert.Equal(t, 6, page.Paging.TotalElements)
	assert.Equal(t, 2, page.Paging.TotalPages)
	assert.True(t, page.Paging.HasPrevious)
	assert.False(t, page.Paging.HasNext)
}

func TestList_NullDataBecomesEmpty(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": nil, "paging": map[string]any{"totalElement": 0}})
	})

	page, err := c.ListCustomers(context.Background(), url.Values{})
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.True(t, page.Empty())
}

func TestCreateBank_ConflictMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var in domain.BankInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Mandiri", in.BankName)
		writeJSON(w, http.StatusConflict, map[string]any{"message": "Bank Name already exists"})
	})

	_, err := c.CreateBank(context.Background(), domain.BankInput{BankName: "Mandiri", BankCode: "008"})
	require.Error(t, err)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
	assert.Equal(t, "Bank Name already exists, please choose another !", domain.ErrorMessage(err))
}

func TestUpdateBank_GenericFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/banks", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"errors": "NullPointerException"})
	})

	_, err := c.UpdateBank(context.Background(), domain.BankInput{ID: "b1", BankName: "BNI", BankCode: "009"})
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
	assert.Equal(t, "Update bank failed, please try again !", domain.ErrorMessage(err))
}

func TestFieldErrorsBecomeValidationError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"errors": map[string]string{"phoneNumber": "Phone number is invalid"},
		})
	})

	_, err := c.UpdateCustomer(context.Background(), domain.CustomerInput{ID: "c1"})
	require.Error(t, err)
	assert.Equal(t, map[string]string{"phoneNumber": "Phone number is invalid"}, domain.FieldErrors(err))
}

func TestSetStatus_PathAndQuery(t *testing.T) {
	var gotMethod, gotPath, gotStatus string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotStatus = r.Method, r.URL.Path, r.URL.Query().Get("status")
		writeJSON(w, http.StatusOK, map[string]any{"data": nil})
	})

	require.NoError(t, c.SetAdminStatus(context.Background(), "a 1", false))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/v1/admins/a 1", gotPath)
	assert.Equal(t, "false", gotStatus)

	require.NoError(t, c.SetDepositStatus(context.Background(), "t1", domain.StatusOnProcess))
	assert.Equal(t, "/api/v1/transactions/deposit/t1", gotPath)
	assert.Equal(t, "OnProcess", gotStatus)

	err := c.SetDepositStatus(context.Background(), "t1", "Shipped")
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestGetStuff_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Stuff not found"})
	})

	_, err := c.GetStuff(context.Background(), "missing")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	_, err = c.GetStuff(context.Background(), "")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestCreateStuff_Multipart(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		var in domain.StuffInput
		require.NoError(t, json.Unmarshal([]byte(r.MultipartForm.Value["stuff"][0]), &in))
		assert.Equal(t, "Kardus", in.StuffName)
		assert.EqualValues(t, 1500, in.BuyingPrice)

		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "kardus.png", hdr.Filename)
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
		assert.Equal(t, []byte("png-bytes"), data)

		writeJSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"id": "s1", "stuffName": "Kardus"}})
	})

	stuff, err := c.CreateStuff(context.Background(),
		domain.StuffInput{StuffName: "Kardus", BuyingPrice: 1500, SellingPrice: 2000},
		&domain.Upload{Filename: "kardus.png", ContentType: "image/png", Data: []byte("png-bytes")},
	)
	require.NoError(t, err)
	assert.Equal(t, "s1", stuff.ID)
}

func TestUpdateStuff_WithoutImage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Empty(t, r.MultipartForm.File["image"])
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": "s1"}})
	})

	_, err := c.UpdateStuff(context.Background(), domain.StuffInput{ID: "s1", StuffName: "Botol"}, nil)
	require.NoError(t, err)
}

func TestCompleteWithdrawal(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/transactions/withdrawal", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		var in domain.WithdrawalInput
		require.NoError(t, json.Unmarshal([]byte(r.MultipartForm.Value["withdrawal"][0]), &in))
		assert.Equal(t, "w1", in.ID)
		assert.Equal(t, domain.StatusSuccess, in.Status)
		assert.Len(t, r.MultipartForm.File["image"], 1)
		writeJSON(w, http.StatusOK, map[string]any{"data": nil})
	})

	err := c.CompleteWithdrawal(context.Background(), "w1",
		&domain.Upload{Filename: "receipt.jpg", ContentType: "image/jpeg", Data: []byte("jpeg")})
	require.NoError(t, err)

	err = c.CompleteWithdrawal(context.Background(), "w1", nil)
	assert.Contains(t, domain.FieldErrors(err), "image")
}

func TestCreateDeposit(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/transactions/deposit", r.URL.Path)
		var in domain.DepositInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.EqualValues(t, 3000, in.Amount)
		require.Len(t, in.TransactionDetails, 1)
		writeJSON(w, http.StatusCreated, map[string]any{"data": nil})
	})

	in := domain.DepositInput{
		AdminID:    "a1",
		CustomerID: "c1",
		TransactionDetails: []domain.DepositDetail{
			{StuffID: "s1", Weight: 2, Amount: 3000},
		},
		Amount: 3000,
	}
	require.NoError(t, c.CreateDeposit(context.Background(), in))
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 2; i++ {
		_, err := c.ListBanks(context.Background(), url.Values{})
		assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
	}

	_, err := c.ListBanks(context.Background(), url.Values{})
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	assert.EqualValues(t, 2, hits.Load(), "open breaker must not reach the backend")
}

func TestBreakerIgnoresRejectedRequests(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusConflict, map[string]any{"message": "Username already exists"})
	})

	for i := 0; i < 5; i++ {
		err := c.RegisterAdmin(context.Background(), domain.AdminInput{Username: "ops"})
		assert.Equal(t, "Username already exists, please choose another !", domain.ErrorMessage(err))
	}
	assert.EqualValues(t, 5, hits.Load())
}

func TestTransportErrorIsUnavailable(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.ListTransactions(context.Background(), url.Values{})
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
}

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestLogin(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "superadmin",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Roles:   []string{domain.RoleSuperAdmin},
		AdminID: "adm-1",
	})

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		var creds domain.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "Secret123" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Bad credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"token": token}})
	})

	got, identity, err := c.Login(context.Background(), domain.Credentials{Email: "root@rongsox.id", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, token, got)
	assert.Equal(t, "superadmin", identity.Subject)
	assert.Equal(t, "adm-1", identity.AdminID)
	assert.Equal(t, "root@rongsox.id", identity.Email)
	assert.True(t, identity.IsSuperAdmin())
	assert.True(t, exp.Equal(identity.ExpiresAt))

	_, _, err = c.Login(context.Background(), domain.Credentials{Email: "root@rongsox.id", Password: "wrong-pass"})
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
	assert.Equal(t, "Login failed, please check your email and password !", domain.ErrorMessage(err))
}

func TestParseIdentity(t *testing.T) {
	token := signToken(t, Claims{Role: "ROLE_ADMIN, ROLE_USER", Name: "Siti"})
	identity, err := ParseIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_ADMIN", "ROLE_USER"}, identity.Roles)
	assert.Equal(t, "Siti", identity.DisplayName())
	assert.True(t, identity.ExpiresAt.IsZero())

	_, err = ParseIdentity("not-a-token")
	assert.Error(t, err)
}

func TestConflictMessage(t *testing.T) {
	tests := []struct {
		status  int
		message string
		want    string
		ok      bool
	}{
		{409, "Bank Name already exists", "Bank Name already exists, please choose another !", true},
		{400, "username already exist", "Username already exists, please choose another !", true},
		{400, "Email already exists", "Email already exists, please choose another !", true},
		{400, "Phone number already exists", "Phone number already exists, please choose another !", true},
		{400, "Ktp number already exists", "KTP number already exists, please choose another !", true},
		{409, "", "Data already exists, please choose another !", true},
		{400, "Invalid request", "", false},
		{500, "Internal error", "", false},
	}
	for _, tt := range tests {
		got, ok := ConflictMessage(tt.status, tt.message)
		assert.Equal(t, tt.ok, ok, tt.message)
		assert.Equal(t, tt.want, got, tt.message)
	}
}

func TestNewStatusError(t *testing.T) {
	se := newStatusError(400, []byte(`{"errors":["a","b"]}`))
	assert.Equal(t, "a; b", se.Message)

	se = newStatusError(502, []byte(`<html>bad gateway</html>`))
	assert.Equal(t, "<html>bad gateway</html>", se.Message)
	assert.Contains(t, se.Error(), "502")
}

func TestNewStatusError_TruncatesOnRuneBoundary(t *testing.T) {
	// 199 ASCII bytes then a 3-byte rune straddling the 200 byte limit.
	body := strings.Repeat("x", maxRawMessage-1) + "€ gagal"
	se := newStatusError(503, []byte(body))

	assert.True(t, utf8.ValidString(se.Message))
	assert.LessOrEqual(t, len(se.Message), maxRawMessage)
	assert.Equal(t, strings.Repeat("x", maxRawMessage-1), se.Message)

	short := newStatusError(503, []byte("Layanan tidak tersedia €"))
	assert.Equal(t, "Layanan tidak tersedia €", short.Message)
}
