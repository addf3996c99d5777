package sessions

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/JaimeStill/caduceus/internal/redaction"
	"github.com/JaimeStill/caduceus/internal/textsource"
	"github.com/JaimeStill/caduceus/pkg/repository"
	"github.com/JaimeStill/caduceus/pkg/storage"
)

type repo struct {
	db      *sql.DB
	storage storage.System
	logger  *slog.Logger
}

// New creates a session repository implementing the System interface,
// backed by Postgres for state and blob storage for the original document.
func New(db *sql.DB, store storage.System, logger *slog.Logger) System {
	return &repo{
		db:      db,
		storage: store,
		logger:  logger.With("system", "sessions"),
	}
}

func (r *repo) Handler(maxUploadSize int64, source textsource.System, redactor redaction.System) *Handler {
	return NewHandler(r, source, redactor, r.logger, maxUploadSize)
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Session, error) {
	session := NewSession(cmd.RawText, cmd.RedactedText, cmd.PatientZip)
	session.PageCount = cmd.PageCount
	session.DocumentContentType = cmd.ContentType
	session.StorageKey = buildStorageKey(session.SessionID, sanitizeFilename(cmd.Filename))

	if err := r.storage.Upload(ctx, session.StorageKey, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload session document: %w", err)
	}

	if err := r.insert(ctx, session); err != nil {
		if delErr := r.storage.Delete(ctx, session.StorageKey); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", session.StorageKey, "error", delErr)
		}
		return nil, err
	}

	r.logger.Info("session created", "id", session.SessionID, "pages", cmd.PageCount)
	return session, nil
}

func (r *repo) Find(ctx context.Context, id string) (*Session, error) {
	q := `SELECT state FROM sessions WHERE session_id = $1`

	state, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanState)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	var session Session
	if err := json.Unmarshal(state, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

func (r *repo) Save(ctx context.Context, session *Session) error {
	state, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.SessionID, err)
	}

	q := `UPDATE sessions SET state = $2, updated_at = $3 WHERE session_id = $1`

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, q, session.SessionID, state, session.UpdatedAt)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return nil
}

func (r *repo) Document(ctx context.Context, id string) (io.ReadCloser, string, error) {
	session, err := r.Find(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if session.StorageKey == "" {
		return nil, "", ErrNotFound
	}

	reader, err := r.storage.Download(ctx, session.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}

	return reader, session.DocumentContentType, nil
}

func (r *repo) insert(ctx context.Context, session *Session) error {
	state, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.SessionID, err)
	}

	q := `
		INSERT INTO sessions(session_id, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		_, execErr := tx.ExecContext(ctx, q, session.SessionID, state, session.CreatedAt, session.UpdatedAt)
		return struct{}{}, execErr
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return nil
}

func scanState(s repository.Scanner) ([]byte, error) {
	var state []byte
	if err := s.Scan(&state); err != nil {
		return nil, err
	}
	return state, nil
}

func buildStorageKey(id, filename string) string {
	return fmt.Sprintf("sessions/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" {
		name = "report"
	}
	return url.PathEscape(name)
}
