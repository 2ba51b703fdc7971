package service

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"

	"github.com/rongsox/dashboard/internal/domain"
)

// ThumbnailProcessor renders receipt previews for the transaction pages.
type ThumbnailProcessor interface {
	// GenerateThumbnail returns a JPEG that fits maxWidth x maxHeight and
	// the source dimensions after orientation is applied.
	GenerateThumbnail(data io.Reader, maxWidth, maxHeight int) ([]byte, int, int, error)
}

type imagingProcessor struct{}

func NewImagingProcessor() ThumbnailProcessor {
	return imagingProcessor{}
}

// GenerateThumbnail honours the EXIF orientation written by phone cameras,
// since most receipts are photographed rather than scanned. Transparent
// areas of PNG uploads become white. Images already inside the box are
// re-encoded at their own size.
func (imagingProcessor) GenerateThumbnail(data io.Reader, maxWidth, maxHeight int) ([]byte, int, int, error) {
	img, err := imaging.Decode(data, imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode receipt: %w", err)
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	paper := imaging.New(w, h, color.White)
	flat := imaging.Overlay(paper, img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	thumb := imaging.Fit(flat, maxWidth, maxHeight, imaging.Lanczos)
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(domain.ThumbnailJPEGQuality)); err != nil {
		return nil, 0, 0, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), w, h, nil
}
