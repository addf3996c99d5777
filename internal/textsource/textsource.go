// Package textsource extracts report text from uploaded documents.
package textsource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrUnsupported indicates no extractor exists for the given content type.
var ErrUnsupported = errors.New("unsupported document content type")

// ErrNotText indicates the document bytes are not valid text.
var ErrNotText = errors.New("document is not valid text")

// System extracts plain text from an uploaded document.
type System interface {
	Extract(ctx context.Context, data []byte, contentType string) (string, error)
}

type plainText struct{}

// NewPlainText creates an extractor for text documents. It accepts any
// text/* content type plus application/octet-stream when the bytes are
// valid UTF-8.
func NewPlainText() System {
	return &plainText{}
}

func (p *plainText) Extract(_ context.Context, data []byte, contentType string) (string, error) {
	mediaType := contentType
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))

	switch {
	case strings.HasPrefix(mediaType, "text/"):
	case mediaType == "application/octet-stream" || mediaType == "":
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, contentType)
	}

	if !utf8.Valid(data) {
		return "", ErrNotText
	}

	return string(data), nil
}
