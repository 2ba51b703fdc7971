// source: receipts.sql

package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

const createReceipt = `-- name: CreateReceipt :one
INSERT INTO receipts (transaction_id, storage_key, content_type, size_bytes, uploaded_by)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, transaction_id, storage_key, thumbnail_key, content_type, size_bytes, uploaded_by, created_at
`

type CreateReceiptParams struct {
	TransactionID string `json:"transaction_id"`
	StorageKey    string `json:"storage_key"`
	ContentType   string `json:"content_type"`
	SizeBytes     int64  `json:"size_bytes"`
	UploadedBy    string `json:"uploaded_by"`
}

func (q *Queries) CreateReceipt(ctx context.Context, arg CreateReceiptParams) (Receipt, error) {
	row := q.db.QueryRowContext(ctx, createReceipt,
		arg.TransactionID,
		arg.StorageKey,
		arg.ContentType,
		arg.SizeBytes,
		arg.UploadedBy,
	)
	var i Receipt
	err := row.Scan(
		&i.ID,
		&i.TransactionID,
		&i.StorageKey,
		&i.ThumbnailKey,
		&i.ContentType,
		&i.SizeBytes,
		&i.UploadedBy,
		&i.CreatedAt,
	)
	return i, err
}

const getReceiptByID = `-- name: GetReceiptByID :one
SELECT id, transaction_id, storage_key, thumbnail_key, content_type, size_bytes, uploaded_by, created_at
FROM receipts
WHERE id = $1
`

func (q *Queries) GetReceiptByID(ctx context.Context, id uuid.UUID) (Receipt, error) {
	row := q.db.QueryRowContext(ctx, getReceiptByID, id)
	var i Receipt
	err := row.Scan(
		&i.ID,
		&i.TransactionID,
		&i.StorageKey,
		&i.ThumbnailKey,
		&i.ContentType,
		&i.SizeBytes,
		&i.UploadedBy,
		&i.CreatedAt,
	)
	return i, err
}

const updateReceiptThumbnail = `-- name: UpdateReceiptThumbnail :exec
UPDATE receipts SET thumbnail_key = $2 WHERE id = $1
`

type UpdateReceiptThumbnailParams struct {
	ID           uuid.UUID      `json:"id"`
	ThumbnailKey sql.NullString `json:"thumbnail_key"`
}

func (q *Queries) UpdateReceiptThumbnail(ctx context.Context, arg UpdateReceiptThumbnailParams) error {
	_, err := q.db.ExecContext(ctx, updateReceiptThumbnail, arg.ID, arg.ThumbnailKey)
	return err
}

const listReceiptsByTransaction = `-- name: ListReceiptsByTransaction :many
SELECT id, transaction_id, storage_key, thumbnail_key, content_type, size_bytes, uploaded_by, created_at
FROM receipts
WHERE transaction_id = $1
ORDER BY created_at DESC
`

func (q *Queries) ListReceiptsByTransaction(ctx context.Context, transactionID string) ([]Receipt, error) {
	rows, err := q.db.QueryContext(ctx, listReceiptsByTransaction, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Receipt
	for rows.Next() {
		var i Receipt
		if err := rows.Scan(
			&i.ID,
			&i.TransactionID,
			&i.StorageKey,
			&i.ThumbnailKey,
			&i.ContentType,
			&i.SizeBytes,
			&i.UploadedBy,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
