package object

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"
	"time"
)

// ErrPresignUnsupported is returned by stores that cannot hand out URLs.
var ErrPresignUnsupported = errors.New("presigned urls not supported")

// ObjectStore saves and opens binary objects by key. Results are mirrored
// through it after each generation.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Presigner is implemented by stores that can issue download URLs.
type Presigner interface {
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// ContentType guesses the content type of a result file from its name.
func ContentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == ".docx" {
		return docxContentType
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
