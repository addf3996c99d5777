package sessions

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/JaimeStill/caduceus/internal/redaction"
	"github.com/JaimeStill/caduceus/internal/textsource"
)

type memory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	blobs    map[string][]byte
	logger   *slog.Logger
}

// NewMemory creates an in-memory session store. Sessions are deep-copied
// on every read and write so callers never share mutable state with the
// store.
func NewMemory(logger *slog.Logger) System {
	return &memory{
		sessions: map[string]*Session{},
		blobs:    map[string][]byte{},
		logger:   logger.With("system", "sessions"),
	}
}

func (m *memory) Handler(maxUploadSize int64, source textsource.System, redactor redaction.System) *Handler {
	return NewHandler(m, source, redactor, m.logger, maxUploadSize)
}

func (m *memory) Create(_ context.Context, cmd CreateCommand) (*Session, error) {
	session := NewSession(cmd.RawText, cmd.RedactedText, cmd.PatientZip)
	session.PageCount = cmd.PageCount
	session.DocumentContentType = cmd.ContentType
	session.StorageKey = buildStorageKey(session.SessionID, sanitizeFilename(cmd.Filename))

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.SessionID]; exists {
		return nil, ErrDuplicate
	}

	m.sessions[session.SessionID] = session.Clone()
	m.blobs[session.StorageKey] = append([]byte(nil), cmd.Data...)

	return session, nil
}

func (m *memory) Find(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return session.Clone(), nil
}

func (m *memory) Save(_ context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[session.SessionID]; !ok {
		return ErrNotFound
	}

	m.sessions[session.SessionID] = session.Clone()
	return nil
}

func (m *memory) Document(_ context.Context, id string) (io.ReadCloser, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, "", ErrNotFound
	}

	data, ok := m.blobs[session.StorageKey]
	if !ok {
		return nil, "", ErrNotFound
	}

	return io.NopCloser(bytes.NewReader(data)), session.DocumentContentType, nil
}
