package documents

import (
	"errors"
	"time"
)

var (
	// ErrInvalidInput indicates a bad file name or an unreadable upload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound indicates the file does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoMirror indicates links were requested without a presigning mirror.
	ErrNoMirror = errors.New("no presigning results mirror configured")
)

// Document is a file in the base-résumé or results directory.
type Document struct {
	FileName   string    `json:"fileName"`
	MimeType   string    `json:"mimeType"`
	SizeBytes  int64     `json:"sizeBytes"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// Link is a time-limited download URL for a mirrored result.
type Link struct {
	FileName  string    `json:"fileName"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
