package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/rongsox/dashboard/internal/domain"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartRequest builds a body with a JSON part named field and an optional
// "image" file part, the shape the backend expects for stuff and withdrawals.
func multipartRequest(method, field string, payload any, image *domain.Upload, path ...string) (request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	body, err := json.Marshal(payload)
	if err != nil {
		return request{}, eris.Wrap(err, "encode "+field+" part")
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(field)))
	h.Set("Content-Type", "application/json")
	part, err := w.CreatePart(h)
	if err != nil {
		return request{}, eris.Wrap(err, "create "+field+" part")
	}
	if _, err := part.Write(body); err != nil {
		return request{}, eris.Wrap(err, "write "+field+" part")
	}

	if image != nil && len(image.Data) > 0 {
		contentType := image.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, quoteEscaper.Replace(image.Filename)))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return request{}, eris.Wrap(err, "create image part")
		}
		if _, err := part.Write(image.Data); err != nil {
			return request{}, eris.Wrap(err, "write image part")
		}
	}

	if err := w.Close(); err != nil {
		return request{}, eris.Wrap(err, "close multipart body")
	}
	return request{
		method:      method,
		path:        path,
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
	}, nil
}
