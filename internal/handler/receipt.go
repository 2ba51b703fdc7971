package handler

// This file serves archived withdrawal receipts.

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/rongsox/dashboard/internal/domain"
)

// ReceiptLinker resolves archived receipts to storage links.
type ReceiptLinker interface {
	URL(ctx context.Context, receiptID uuid.UUID, thumbnail bool) (string, error)
}

// ReceiptHandler redirects to archived receipt images.
//
// Routes handled:
// - GET /receipts/{id}/thumbnail -> ServeThumbnail
// - GET /receipts/{id}/original  -> ServeOriginal
type ReceiptHandler struct {
	receipts ReceiptLinker
	logger   *slog.Logger
}

// NewReceiptHandler creates a new ReceiptHandler.
func NewReceiptHandler(receipts ReceiptLinker, logger *slog.Logger) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts, logger: logger}
}

// ServeThumbnail redirects to the receipt thumbnail, or to the original
// while the thumbnail job has not run yet.
func (h *ReceiptHandler) ServeThumbnail(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, true)
}

// ServeOriginal redirects to the receipt as uploaded.
func (h *ReceiptHandler) ServeOriginal(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, false)
}

func (h *ReceiptHandler) serve(w http.ResponseWriter, r *http.Request, thumbnail bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid receipt ID", http.StatusBadRequest)
		return
	}

	url, err := h.receipts.URL(r.Context(), id, thumbnail)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			NotFoundResponse(w, r, h.logger)
			return
		}
		ErrorResponse(w, r, h.logger, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

// RegisterRoutes registers the receipt routes, each wrapped by protect.
func (h *ReceiptHandler) RegisterRoutes(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("GET /receipts/{id}/thumbnail", protect(http.HandlerFunc(h.ServeThumbnail)))
	mux.Handle("GET /receipts/{id}/original", protect(http.HandlerFunc(h.ServeOriginal)))
}
