// Package documents adapts the opaque blob store holding supporting
// documents. The store's mechanics are out of scope; this service only
// validates upload metadata and carries the returned reference.
package documents

import (
	"context"
	"io"
	"strings"

	dErrors "wasmember/pkg/domain-errors"
)

// MaxSize is the upload size ceiling, 10 MB.
const MaxSize = 10 << 20

var allowedContentTypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/jpg":       {},
	"image/png":       {},
}

// Ref is the opaque reference returned by the blob store.
type Ref struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// Upload describes a file about to be stored.
type Upload struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// Store uploads a document and returns its reference.
type Store interface {
	Put(ctx context.Context, up Upload) (Ref, error)
}

// ValidateUpload enforces the size and content-type rules before anything is
// sent to the blob store.
func ValidateUpload(up Upload) error {
	if up.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "document name is required")
	}
	if up.Size <= 0 {
		return dErrors.New(dErrors.CodeValidation, "document is empty")
	}
	if up.Size > MaxSize {
		return dErrors.New(dErrors.CodeValidation, "document exceeds the 10 MB limit")
	}
	ct := strings.ToLower(strings.TrimSpace(up.ContentType))
	if _, ok := allowedContentTypes[ct]; !ok {
		return dErrors.New(dErrors.CodeValidation, "document must be PDF, JPG, JPEG or PNG")
	}
	return nil
}
