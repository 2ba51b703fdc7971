// Package service contains the business logic layer.
//
// Services orchestrate interactions between the backend API, the local
// Postgres store and object storage. They are responsible for:
// - Business rule enforcement
// - Error translation (database errors -> domain errors)
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sqlc-dev/pqtype"

	"github.com/rongsox/dashboard/internal/auth"
	"github.com/rongsox/dashboard/internal/domain"
	"github.com/rongsox/dashboard/internal/metrics"
	"github.com/rongsox/dashboard/internal/repository"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// SessionTokenBytes is the number of random bytes for session tokens.
	// The token is hex-encoded to 64 characters for the cookie.
	SessionTokenBytes = 32

	// DefaultSessionDuration applies when no duration is configured.
	DefaultSessionDuration = 12 * time.Hour

	// MinSessionDuration and MaxSessionDuration bound the configured duration.
	MinSessionDuration = 15 * time.Minute
	MaxSessionDuration = 7 * 24 * time.Hour
)

// =============================================================================
// Interface Definition
// =============================================================================

// SessionService signs staff in against the backend and keeps the resulting
// token server-side, keyed by an opaque cookie token.
type SessionService interface {
	// Login authenticates with the backend and creates a local session.
	// Returns the session and the raw cookie token (only returned once).
	// Returns domain.EUNAUTHORIZED for bad credentials and domain.EFORBIDDEN
	// for accounts without a staff role.
	Login(ctx context.Context, creds domain.Credentials) (*domain.Session, string, error)

	// Resolve returns the live session for a raw cookie token.
	// Returns domain.EUNAUTHORIZED if the token is unknown or expired.
	Resolve(ctx context.Context, token string) (*domain.Session, error)

	// Logout deletes the session. It is idempotent.
	Logout(ctx context.Context, token string) error

	// PurgeExpired removes expired sessions and returns how many were removed.
	PurgeExpired(ctx context.Context) (int64, error)
}

// Authenticator exchanges credentials for a backend token.
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (string, domain.Identity, error)
}

// SessionQueries is the subset of repository.Queries used for sessions.
type SessionQueries interface {
	CreateSession(ctx context.Context, arg repository.CreateSessionParams) (repository.Session, error)
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (repository.Session, error)
	TouchSession(ctx context.Context, tokenHash string) error
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// SessionServiceConfig configures a SessionService.
type SessionServiceConfig struct {
	// SessionDuration is how long a session lives, capped by the backend
	// token's own expiry.
	SessionDuration time.Duration
}

// =============================================================================
// Implementation
// =============================================================================

type sessionService struct {
	queries  SessionQueries
	backend  Authenticator
	duration time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionService creates a new SessionService.
func NewSessionService(queries SessionQueries, backend Authenticator, cfg SessionServiceConfig, logger *slog.Logger) SessionService {
	return &sessionService{
		queries:  queries,
		backend:  backend,
		duration: normalizeSessionDuration(cfg.SessionDuration),
		logger:   logger,
		now:      time.Now,
	}
}

// Login authenticates against the backend and stores the resulting token.
func (s *sessionService) Login(ctx context.Context, creds domain.Credentials) (*domain.Session, string, error) {
	const op = "SessionService.Login"

	creds.Email = strings.TrimSpace(creds.Email)

	backendToken, identity, err := s.backend.Login(ctx, creds)
	if err != nil {
		metrics.LoginFailed()
		return nil, "", err
	}

	if !identity.HasRole(domain.RoleAdmin) && !identity.HasRole(domain.RoleSuperAdmin) {
		metrics.LoginFailed()
		s.logger.Warn("login rejected for non-staff account", "email", identity.Email, "roles", identity.Roles)
		return nil, "", domain.Forbidden(op, "Your account is not allowed to use the dashboard !")
	}

	now := s.now()
	expiresAt := now.Add(s.duration)
	if !identity.ExpiresAt.IsZero() && identity.ExpiresAt.Before(expiresAt) {
		expiresAt = identity.ExpiresAt
	}
	if !expiresAt.After(now) {
		metrics.LoginFailed()
		return nil, "", domain.Unauthorized(op, "Your session has expired, please sign in again !")
	}

	token, err := generateSessionToken()
	if err != nil {
		return nil, "", domain.Internal(err, op, "Failed to generate session token")
	}

	identityJSON, err := json.Marshal(identity)
	if err != nil {
		return nil, "", domain.Internal(err, op, "Failed to encode identity")
	}

	row, err := s.queries.CreateSession(ctx, repository.CreateSessionParams{
		TokenHash:    hashSessionToken(token),
		BackendToken: backendToken,
		Identity:     pqtype.NullRawMessage{RawMessage: identityJSON, Valid: true},
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		return nil, "", domain.Internal(err, op, "Failed to create session")
	}

	metrics.LoginSucceeded()
	s.logger.Info("staff signed in", "email", identity.Email, "super_admin", identity.IsSuperAdmin())

	sess, err := repoSessionToDomain(row)
	if err != nil {
		return nil, "", domain.Internal(err, op, "Failed to decode session")
	}
	return sess, token, nil
}

// Resolve looks up a session by its raw cookie token.
func (s *sessionService) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	const op = "SessionService.Resolve"

	if len(token) != SessionTokenBytes*2 {
		return nil, domain.Unauthorized(op, "Invalid or expired session")
	}

	tokenHash := hashSessionToken(token)
	row, err := s.queries.GetSessionByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Unauthorized(op, "Invalid or expired session")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve session")
	}

	sess, err := repoSessionToDomain(row)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to decode session")
	}
	if sess.Expired(s.now()) {
		return nil, domain.Unauthorized(op, "Invalid or expired session")
	}

	if err := s.queries.TouchSession(ctx, tokenHash); err != nil {
		s.logger.Warn("failed to touch session", "error", err)
	}
	return sess, nil
}

// Logout deletes the session for token.
func (s *sessionService) Logout(ctx context.Context, token string) error {
	if len(token) != SessionTokenBytes*2 {
		return nil
	}

	if err := s.queries.DeleteSession(ctx, hashSessionToken(token)); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to delete session", "error", err)
		}
	}

	if ident := auth.GetIdentity(ctx); ident != nil {
		s.logger.Info("staff signed out", "email", ident.Email)
	}
	return nil
}

// PurgeExpired removes expired sessions.
func (s *sessionService) PurgeExpired(ctx context.Context) (int64, error) {
	const op = "SessionService.PurgeExpired"

	count, err := s.queries.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, domain.Internal(err, op, "Failed to delete expired sessions")
	}
	if count > 0 {
		s.logger.Info("expired sessions purged", "count", count)
	}
	return count, nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// normalizeSessionDuration applies the default and clamps to the allowed range.
func normalizeSessionDuration(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultSessionDuration
	case d < MinSessionDuration:
		return MinSessionDuration
	case d > MaxSessionDuration:
		return MaxSessionDuration
	}
	return d
}

// generateSessionToken returns 32 random bytes, hex-encoded.
func generateSessionToken() (string, error) {
	b := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// hashSessionToken is the lookup key for a raw cookie token. Only the hash is
// stored.
func hashSessionToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func repoSessionToDomain(row repository.Session) (*domain.Session, error) {
	sess := &domain.Session{
		ID:           row.ID,
		BackendToken: row.BackendToken,
		ExpiresAt:    row.ExpiresAt,
		CreatedAt:    row.CreatedAt,
	}
	if row.Identity.Valid {
		if err := json.Unmarshal(row.Identity.RawMessage, &sess.Identity); err != nil {
			return nil, err
		}
	}
	return sess, nil
}
