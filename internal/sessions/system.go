package sessions

import (
	"context"
	"io"

	"github.com/JaimeStill/caduceus/internal/redaction"
	"github.com/JaimeStill/caduceus/internal/textsource"
)

// CreateCommand carries an uploaded lab report into session creation.
type CreateCommand struct {
	Data         []byte
	Filename     string
	ContentType  string
	PageCount    *int
	RawText      string
	RedactedText string
	PatientZip   string
}

// System defines the public contract for session state operations.
type System interface {
	Handler(maxUploadSize int64, source textsource.System, redactor redaction.System) *Handler

	Create(ctx context.Context, cmd CreateCommand) (*Session, error)
	Find(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Document(ctx context.Context, id string) (io.ReadCloser, string, error)
}
