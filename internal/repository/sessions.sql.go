// source: sessions.sql

package repository

import (
	"context"
	"time"

	"github.com/sqlc-dev/pqtype"
)

const createSession = `-- name: CreateSession :one
INSERT INTO sessions (token_hash, backend_token, identity, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING id, token_hash, backend_token, identity, expires_at, created_at, last_seen_at
`

type CreateSessionParams struct {
	TokenHash    string                `json:"token_hash"`
	BackendToken string                `json:"backend_token"`
	Identity     pqtype.NullRawMessage `json:"identity"`
	ExpiresAt    time.Time             `json:"expires_at"`
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	row := q.db.QueryRowContext(ctx, createSession,
		arg.TokenHash,
		arg.BackendToken,
		arg.Identity,
		arg.ExpiresAt,
	)
	var i Session
	err := row.Scan(
		&i.ID,
		&i.TokenHash,
		&i.BackendToken,
		&i.Identity,
		&i.ExpiresAt,
		&i.CreatedAt,
		&i.LastSeenAt,
	)
	return i, err
}

const getSessionByTokenHash = `-- name: GetSessionByTokenHash :one
SELECT id, token_hash, backend_token, identity, expires_at, created_at, last_seen_at
FROM sessions
WHERE token_hash = $1 AND expires_at > NOW()
`

func (q *Queries) GetSessionByTokenHash(ctx context.Context, tokenHash string) (Session, error) {
	row := q.db.QueryRowContext(ctx, getSessionByTokenHash, tokenHash)
	var i Session
	err := row.Scan(
		&i.ID,
		&i.TokenHash,
		&i.BackendToken,
		&i.Identity,
		&i.ExpiresAt,
		&i.CreatedAt,
		&i.LastSeenAt,
	)
	return i, err
}

const touchSession = `-- name: TouchSession :exec
UPDATE sessions SET last_seen_at = NOW() WHERE token_hash = $1
`

func (q *Queries) TouchSession(ctx context.Context, tokenHash string) error {
	_, err := q.db.ExecContext(ctx, touchSession, tokenHash)
	return err
}

const deleteSession = `-- name: DeleteSession :exec
DELETE FROM sessions WHERE token_hash = $1
`

func (q *Queries) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := q.db.ExecContext(ctx, deleteSession, tokenHash)
	return err
}

const deleteExpiredSessions = `-- name: DeleteExpiredSessions :execrows
DELETE FROM sessions WHERE expires_at <= NOW()
`

func (q *Queries) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpiredSessions)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
