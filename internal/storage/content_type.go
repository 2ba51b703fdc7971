package storage

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// DetectContentType determines the MIME type of a file: the provided type
// wins, then the file extension, then sniffing the first 512 bytes of data,
// then application/octet-stream.
func DetectContentType(providedType, filename string, data io.Reader) string {
	if providedType != "" && providedType != "application/octet-stream" {
		return providedType
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}

	if data != nil {
		buffer := make([]byte, 512)
		n, err := io.ReadFull(data, buffer)
		if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
			return http.DetectContentType(buffer[:n])
		}
	}

	return "application/octet-stream"
}

// AllowedImageTypes are the formats accepted for receipts and stuff pictures.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true, // Some browsers send this instead of image/jpeg
	"image/png":  true,
}

// IsAllowedImageType checks a content type against AllowedImageTypes,
// ignoring parameters like charset.
func IsAllowedImageType(contentType string) bool {
	return AllowedImageTypes[baseType(contentType)]
}

func baseType(contentType string) string {
	return strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
}
