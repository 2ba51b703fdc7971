package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type Job struct {
	ID           uuid.UUID       `json:"id"`
	JobType      string          `json:"job_type"`
	Payload      json.RawMessage `json:"payload"`
	Status       string          `json:"status"`
	Priority     int32           `json:"priority"`
	Attempts     int32           `json:"attempts"`
	MaxAttempts  int32           `json:"max_attempts"`
	ScheduledAt  time.Time       `json:"scheduled_at"`
	StartedAt    sql.NullTime    `json:"started_at"`
	CompletedAt  sql.NullTime    `json:"completed_at"`
	ErrorMessage sql.NullString  `json:"error_message"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Receipt struct {
	ID            uuid.UUID      `json:"id"`
	TransactionID string         `json:"transaction_id"`
	StorageKey    string         `json:"storage_key"`
	ThumbnailKey  sql.NullString `json:"thumbnail_key"`
	ContentType   string         `json:"content_type"`
	SizeBytes     int64          `json:"size_bytes"`
	UploadedBy    string         `json:"uploaded_by"`
	CreatedAt     time.Time      `json:"created_at"`
}

type Session struct {
	ID           uuid.UUID             `json:"id"`
	TokenHash    string                `json:"token_hash"`
	BackendToken string                `json:"backend_token"`
	Identity     pqtype.NullRawMessage `json:"identity"`
	ExpiresAt    time.Time             `json:"expires_at"`
	CreatedAt    time.Time             `json:"created_at"`
	LastSeenAt   time.Time             `json:"last_seen_at"`
}
