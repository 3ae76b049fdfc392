package catalog

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// File is one photo attached to a product request.
type File struct {
	Filename string
	MimeType string
	Body     io.Reader
}

// Payload is an encoded multipart product request.
type Payload struct {
	Body        *bytes.Buffer
	ContentType string
}

// BuildPayload encodes fields plus an optional display photo (field
// photoDisplay) and the detail photos (repeated field photoDetails).
func BuildPayload(fields Fields, display *File, details []File) (*Payload, error) {
	if len(details) > MaxDetailPhotos {
		return nil, ErrTooManyDetailPhotos
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for _, kv := range fields.values() {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, fmt.Errorf("write field %s: %w", kv[0], err)
		}
	}
	if display != nil {
		if err := writeFile(w, "photoDisplay", *display); err != nil {
			return nil, err
		}
	}
	for _, f := range details {
		if err := writeFile(w, "photoDetails", f); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}
	return &Payload{Body: body, ContentType: w.FormDataContentType()}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// writeFile is multipart.Writer.CreateFormFile with the real content type
// instead of application/octet-stream.
func writeFile(w *multipart.Writer, field string, f File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(f.Filename)))
	mimeType := f.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	h.Set("Content-Type", mimeType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part %s: %w", field, err)
	}
	if _, err := io.Copy(part, f.Body); err != nil {
		return fmt.Errorf("write part %s: %w", field, err)
	}
	return nil
}
