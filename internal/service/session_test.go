package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rongsox/dashboard/internal/domain"
	"github.com/rongsox/dashboard/internal/repository"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeSessionQueries struct {
	mu       sync.Mutex
	sessions map[string]repository.Session
	touched  int
}

func newFakeSessionQueries() *fakeSessionQueries {
	return &fakeSessionQueries{sessions: make(map[string]repository.Session)}
}

func (f *fakeSessionQueries) CreateSession(ctx context.Context, arg repository.CreateSessionParams) (repository.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := repository.Session{
		ID:           uuid.New(),
		TokenHash:    arg.TokenHash,
		BackendToken: arg.BackendToken,
		Identity:     arg.Identity,
		ExpiresAt:    arg.ExpiresAt,
		CreatedAt:    time.Now(),
		LastSeenAt:   time.Now(),
	}
	f.sessions[arg.TokenHash] = row
	return row, nil
}

func (f *fakeSessionQueries) GetSessionByTokenHash(ctx context.Context, tokenHash string) (repository.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.sessions[tokenHash]
	if !ok {
		return repository.Session{}, sql.ErrNoRows
	}
	return row, nil
}

func (f *fakeSessionQueries) TouchSession(ctx context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched++
	return nil
}

func (f *fakeSessionQueries) DeleteSession(ctx context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, tokenHash)
	return nil
}

func (f *fakeSessionQueries) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, row := range f.sessions {
		if !row.ExpiresAt.After(time.Now()) {
			delete(f.sessions, k)
			n++
		}
	}
	return n, nil
}

type fakeAuthenticator struct {
	token    string
	identity domain.Identity
	err      error
}

func (f *fakeAuthenticator) Login(ctx context.Context, creds domain.Credentials) (string, domain.Identity, error) {
	return f.token, f.identity, f.err
}

func newTestSessionService(q SessionQueries, a Authenticator, d time.Duration) *sessionService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSessionService(q, a, SessionServiceConfig{SessionDuration: d}, logger).(*sessionService)
}

// =============================================================================
// Session Duration Configuration Tests
// =============================================================================

func TestNormalizeSessionDuration(t *testing.T) {
	tests := []struct {
		name  string
		input time.Duration
		want  time.Duration
	}{
		{"zero uses default", 0, DefaultSessionDuration},
		{"below minimum uses minimum", 5 * time.Minute, MinSessionDuration},
		{"at minimum uses input", 15 * time.Minute, 15 * time.Minute},
		{"within range uses input", 8 * time.Hour, 8 * time.Hour},
		{"above maximum uses maximum", 30 * 24 * time.Hour, MaxSessionDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeSessionDuration(tt.input))
		})
	}
}

// =============================================================================
// Login / Resolve / Logout
// =============================================================================

func TestLogin_CreatesSession(t *testing.T) {
	q := newFakeSessionQueries()
	a := &fakeAuthenticator{
		token: "backend-jwt",
		identity: domain.Identity{
			Email:   "ops@rongsox.id",
			Roles:   []string{domain.RoleAdmin},
			AdminID: "adm-7",
		},
	}
	svc := newTestSessionService(q, a, 2*time.Hour)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	sess, token, err := svc.Login(context.Background(), domain.Credentials{Email: " ops@rongsox.id ", Password: "Secret123"})
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Equal(t, "backend-jwt", sess.BackendToken)
	assert.Equal(t, "adm-7", sess.Identity.AdminID)
	assert.Equal(t, now.Add(2*time.Hour), sess.ExpiresAt)

	require.Len(t, q.sessions, 1)
	_, stored := q.sessions[hashSessionToken(token)]
	assert.True(t, stored, "only the token hash is stored")
}

func TestLogin_CapsExpiryAtTokenExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := &fakeAuthenticator{
		token:    "jwt",
		identity: domain.Identity{Roles: []string{domain.RoleSuperAdmin}, ExpiresAt: now.Add(30 * time.Minute)},
	}
	svc := newTestSessionService(newFakeSessionQueries(), a, 12*time.Hour)
	svc.now = func() time.Time { return now }

	sess, _, err := svc.Login(context.Background(), domain.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), sess.ExpiresAt)
}

func TestLogin_RejectsNonStaff(t *testing.T) {
	a := &fakeAuthenticator{token: "jwt", identity: domain.Identity{Roles: []string{"ROLE_CUSTOMER"}}}
	svc := newTestSessionService(newFakeSessionQueries(), a, 0)

	_, _, err := svc.Login(context.Background(), domain.Credentials{})
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
}

func TestLogin_PassesBackendError(t *testing.T) {
	backendErr := domain.Unauthorized("auth.login", "Login failed, please check your email and password !")
	svc := newTestSessionService(newFakeSessionQueries(), &fakeAuthenticator{err: backendErr}, 0)

	_, _, err := svc.Login(context.Background(), domain.Credentials{})
	assert.True(t, errors.Is(err, backendErr))
}

func TestResolveAndLogout(t *testing.T) {
	q := newFakeSessionQueries()
	a := &fakeAuthenticator{token: "jwt", identity: domain.Identity{Name: "Siti", Roles: []string{domain.RoleAdmin}}}
	svc := newTestSessionService(q, a, time.Hour)

	_, token, err := svc.Login(context.Background(), domain.Credentials{})
	require.NoError(t, err)

	sess, err := svc.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "Siti", sess.Identity.DisplayName())
	assert.Equal(t, 1, q.touched)

	require.NoError(t, svc.Logout(context.Background(), token))
	_, err = svc.Resolve(context.Background(), token)
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))

	// Idempotent.
	assert.NoError(t, svc.Logout(context.Background(), token))
	assert.NoError(t, svc.Logout(context.Background(), "short"))
}

func TestResolve_RejectsMalformedAndExpired(t *testing.T) {
	q := newFakeSessionQueries()
	a := &fakeAuthenticator{token: "jwt", identity: domain.Identity{Roles: []string{domain.RoleAdmin}}}
	svc := newTestSessionService(q, a, time.Hour)

	_, err := svc.Resolve(context.Background(), "not-a-token")
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))

	_, token, err := svc.Login(context.Background(), domain.Credentials{})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Resolve(context.Background(), token)
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
}

func TestPurgeExpired(t *testing.T) {
	q := newFakeSessionQueries()
	q.sessions["old"] = repository.Session{TokenHash: "old", ExpiresAt: time.Now().Add(-time.Minute)}
	q.sessions["live"] = repository.Session{TokenHash: "live", ExpiresAt: time.Now().Add(time.Hour)}
	svc := newTestSessionService(q, &fakeAuthenticator{}, 0)

	n, err := svc.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Len(t, q.sessions, 1)
}
