package domain

import (
	"time"

	"github.com/google/uuid"
)

// Thumbnail settings for archived images.
const (
	ThumbnailMaxWidth    = 400
	ThumbnailMaxHeight   = 400
	ThumbnailJPEGQuality = 85
)

// MaxImageSize caps uploaded stuff images and receipts.
const MaxImageSize = 5 << 20

// Receipt is an archived copy of a withdrawal transfer receipt.
type Receipt struct {
	ID            uuid.UUID
	TransactionID string
	StorageKey    string
	ThumbnailKey  string
	ContentType   string
	SizeBytes     int64
	UploadedBy    string
	CreatedAt     time.Time
}

// HasThumbnail reports whether the thumbnail job has finished.
func (r Receipt) HasThumbnail() bool {
	return r.ThumbnailKey != ""
}
