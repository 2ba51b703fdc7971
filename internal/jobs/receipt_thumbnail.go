package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rongsox/dashboard/internal/domain"
	"github.com/rongsox/dashboard/internal/worker"
)

// ThumbnailGenerator renders the thumbnail of an archived receipt.
type ThumbnailGenerator interface {
	GenerateThumbnail(ctx context.Context, receiptID uuid.UUID) error
}

// ReceiptThumbnailHandler processes jobs that thumbnail archived withdrawal
// receipts for the transaction list.
type ReceiptThumbnailHandler struct {
	receipts ThumbnailGenerator
	logger   *slog.Logger
}

// NewReceiptThumbnailHandler creates a new handler for receipt thumbnail jobs.
func NewReceiptThumbnailHandler(receipts ThumbnailGenerator, logger *slog.Logger) *ReceiptThumbnailHandler {
	return &ReceiptThumbnailHandler{
		receipts: receipts,
		logger:   logger,
	}
}

// Type returns the job type identifier.
func (h *ReceiptThumbnailHandler) Type() string {
	return worker.JobTypeGenerateReceiptThumbnail
}

// Handle generates the thumbnail. Missing receipts and undecodable images are
// permanent failures; storage and database errors are retried.
func (h *ReceiptThumbnailHandler) Handle(ctx context.Context, payload []byte) error {
	var p worker.GenerateReceiptThumbnailPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.NewPermanentError(fmt.Errorf("invalid payload: %w", err))
	}
	if p.ReceiptID == uuid.Nil {
		return worker.NewPermanentError(fmt.Errorf("payload has no receipt id"))
	}

	h.logger.Info("Generating receipt thumbnail", "receipt_id", p.ReceiptID)

	if err := h.receipts.GenerateThumbnail(ctx, p.ReceiptID); err != nil {
		switch domain.ErrorCode(err) {
		case domain.ENOTFOUND, domain.EINVALID:
			return worker.NewPermanentError(err)
		}
		return fmt.Errorf("generate thumbnail: %w", err)
	}
	return nil
}
