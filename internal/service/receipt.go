package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rongsox/dashboard/internal/auth"
	"github.com/rongsox/dashboard/internal/domain"
	"github.com/rongsox/dashboard/internal/metrics"
	"github.com/rongsox/dashboard/internal/repository"
	"github.com/rongsox/dashboard/internal/storage"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ReceiptService keeps a local copy of images forwarded to the backend:
// withdrawal receipts (tracked in Postgres, thumbnailed in the background)
// and stuff pictures.
type ReceiptService interface {
	// Archive stores a withdrawal receipt and queues its thumbnail.
	Archive(ctx context.Context, transactionID string, upload *domain.Upload) (*domain.Receipt, error)

	// ArchiveStuffImage stores a stuff picture and returns its storage key.
	ArchiveStuffImage(ctx context.Context, upload *domain.Upload) (string, error)

	// GenerateThumbnail renders and stores the thumbnail of an archived receipt.
	// Returns domain.ENOTFOUND if the receipt no longer exists.
	GenerateThumbnail(ctx context.Context, receiptID uuid.UUID) error

	// ListByTransaction returns the receipts archived for a transaction,
	// newest first.
	ListByTransaction(ctx context.Context, transactionID string) ([]domain.Receipt, error)

	// URL returns a short-lived link to a receipt or, when thumbnail is set
	// and one exists, to its thumbnail.
	// Returns domain.ENOTFOUND if the receipt doesn't exist.
	URL(ctx context.Context, receiptID uuid.UUID, thumbnail bool) (string, error)
}

// ReceiptQueries is the subset of repository.Queries used for receipts.
type ReceiptQueries interface {
	CreateReceipt(ctx context.Context, arg repository.CreateReceiptParams) (repository.Receipt, error)
	GetReceiptByID(ctx context.Context, id uuid.UUID) (repository.Receipt, error)
	UpdateReceiptThumbnail(ctx context.Context, arg repository.UpdateReceiptThumbnailParams) error
	ListReceiptsByTransaction(ctx context.Context, transactionID string) ([]repository.Receipt, error)
}

// receiptURLExpiry is how long a receipt link stays valid.
const receiptURLExpiry = 15 * time.Minute

// EnqueueThumbnail queues a thumbnail job for a receipt.
type EnqueueThumbnail func(ctx context.Context, receiptID uuid.UUID) error

// =============================================================================
// Implementation
// =============================================================================

type receiptService struct {
	queries   ReceiptQueries
	storage   storage.Storage
	thumbnail ThumbnailProcessor
	enqueue   EnqueueThumbnail
	logger    *slog.Logger
}

// NewReceiptService creates a new ReceiptService. enqueue may be nil when
// no worker runs; thumbnails are then never generated.
func NewReceiptService(
	queries ReceiptQueries,
	store storage.Storage,
	thumbnail ThumbnailProcessor,
	enqueue EnqueueThumbnail,
	logger *slog.Logger,
) ReceiptService {
	return &receiptService{
		queries:   queries,
		storage:   store,
		thumbnail: thumbnail,
		enqueue:   enqueue,
		logger:    logger,
	}
}

func (s *receiptService) Archive(ctx context.Context, transactionID string, upload *domain.Upload) (*domain.Receipt, error) {
	const op = "ReceiptService.Archive"

	if upload == nil || len(upload.Data) == 0 {
		return nil, domain.NewValidationError(op, "image", "Receipt image is required")
	}

	contentType := storage.DetectContentType(upload.ContentType, upload.Filename, bytes.NewReader(upload.Data))
	key := storage.ReceiptKey(transactionID, upload.Filename)
	if err := s.storage.Put(ctx, key, bytes.NewReader(upload.Data), storage.PutOptions{
		ContentType: contentType,
		MaxSize:     domain.MaxImageSize,
	}); err != nil {
		if storage.IsTooLarge(err) {
			return nil, domain.NewValidationError(op, "image", "Image must be at most 5 MB")
		}
		return nil, domain.Internal(err, op, "Failed to store receipt")
	}

	uploadedBy := ""
	if ident := auth.GetIdentity(ctx); ident != nil {
		uploadedBy = ident.AdminID
	}

	row, err := s.queries.CreateReceipt(ctx, repository.CreateReceiptParams{
		TransactionID: transactionID,
		StorageKey:    key,
		ContentType:   contentType,
		SizeBytes:     int64(len(upload.Data)),
		UploadedBy:    uploadedBy,
	})
	if err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned receipt", "key", key, "error", delErr)
		}
		return nil, domain.Internal(err, op, "Failed to record receipt")
	}
	metrics.ReceiptsArchived.Inc()

	if s.enqueue != nil {
		if err := s.enqueue(ctx, row.ID); err != nil {
			s.logger.Error("failed to queue receipt thumbnail", "receipt_id", row.ID, "error", err)
		}
	}

	s.logger.Info("receipt archived", "transaction_id", transactionID, "receipt_id", row.ID, "key", key)
	return repoReceiptToDomain(row), nil
}

func (s *receiptService) ArchiveStuffImage(ctx context.Context, upload *domain.Upload) (string, error) {
	const op = "ReceiptService.ArchiveStuffImage"

	if upload == nil || len(upload.Data) == 0 {
		return "", nil
	}
	key := storage.StuffImageKey(upload.Filename)
	contentType := storage.DetectContentType(upload.ContentType, upload.Filename, bytes.NewReader(upload.Data))
	if err := s.storage.Put(ctx, key, bytes.NewReader(upload.Data), storage.PutOptions{
		ContentType: contentType,
		MaxSize:     domain.MaxImageSize,
	}); err != nil {
		return "", domain.Internal(err, op, "Failed to store image")
	}
	return key, nil
}

func (s *receiptService) GenerateThumbnail(ctx context.Context, receiptID uuid.UUID) error {
	const op = "ReceiptService.GenerateThumbnail"

	row, err := s.queries.GetReceiptByID(ctx, receiptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "receipt", receiptID.String())
		}
		return domain.Internal(err, op, "Failed to retrieve receipt")
	}
	if row.ThumbnailKey.Valid {
		return nil
	}

	rc, _, err := s.storage.Get(ctx, row.StorageKey)
	if err != nil {
		if storage.IsNotFound(err) {
			return domain.NotFound(op, "receipt image", row.StorageKey)
		}
		return domain.Internal(err, op, "Failed to read receipt")
	}
	defer rc.Close()

	thumb, width, height, err := s.thumbnail.GenerateThumbnail(io.LimitReader(rc, domain.MaxImageSize+1), domain.ThumbnailMaxWidth, domain.ThumbnailMaxHeight)
	if err != nil {
		return domain.Invalid(op, fmt.Sprintf("receipt %s is not a decodable image: %v", receiptID, err))
	}

	thumbKey := storage.ThumbnailKey(row.StorageKey)
	if err := s.storage.Put(ctx, thumbKey, bytes.NewReader(thumb), storage.PutOptions{ContentType: "image/jpeg"}); err != nil {
		return domain.Internal(err, op, "Failed to store thumbnail")
	}

	if err := s.queries.UpdateReceiptThumbnail(ctx, repository.UpdateReceiptThumbnailParams{
		ID:           receiptID,
		ThumbnailKey: sql.NullString{String: thumbKey, Valid: true},
	}); err != nil {
		return domain.Internal(err, op, "Failed to record thumbnail")
	}

	s.logger.Info("receipt thumbnail generated",
		"receipt_id", receiptID,
		"original_width", width,
		"original_height", height,
	)
	return nil
}

func (s *receiptService) ListByTransaction(ctx context.Context, transactionID string) ([]domain.Receipt, error) {
	rows, err := s.queries.ListReceiptsByTransaction(ctx, transactionID)
	if err != nil {
		return nil, domain.Internal(err, "ReceiptService.ListByTransaction", "Failed to load receipts")
	}
	receipts := make([]domain.Receipt, 0, len(rows))
	for _, row := range rows {
		receipts = append(receipts, *repoReceiptToDomain(row))
	}
	return receipts, nil
}

func (s *receiptService) URL(ctx context.Context, receiptID uuid.UUID, thumbnail bool) (string, error) {
	const op = "ReceiptService.URL"

	row, err := s.queries.GetReceiptByID(ctx, receiptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.NotFound(op, "receipt", receiptID.String())
		}
		return "", domain.Internal(err, op, "Failed to retrieve receipt")
	}

	key := row.StorageKey
	if thumbnail && row.ThumbnailKey.Valid {
		key = row.ThumbnailKey.String
	}
	url, err := s.storage.URL(ctx, key, receiptURLExpiry)
	if err != nil {
		return "", domain.Internal(err, op, "Failed to link receipt")
	}
	return url, nil
}

func repoReceiptToDomain(r repository.Receipt) *domain.Receipt {
	return &domain.Receipt{
		ID:            r.ID,
		TransactionID: r.TransactionID,
		StorageKey:    r.StorageKey,
		ThumbnailKey:  r.ThumbnailKey.String,
		ContentType:   r.ContentType,
		SizeBytes:     r.SizeBytes,
		UploadedBy:    r.UploadedBy,
		CreatedAt:     r.CreatedAt,
	}
}
