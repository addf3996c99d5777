package sessions

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/caduceus/internal/redaction"
	"github.com/JaimeStill/caduceus/internal/textsource"
	"github.com/JaimeStill/caduceus/pkg/handlers"
	"github.com/JaimeStill/caduceus/pkg/routes"
)

// Handler provides HTTP endpoints for session state operations.
type Handler struct {
	sys           System
	source        textsource.System
	redactor      redaction.System
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, collaborators, and upload size limit.
func NewHandler(
	sys System,
	source textsource.System,
	redactor redaction.System,
	logger *slog.Logger,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		source:        source,
		redactor:      redactor,
		logger:        logger.With("handler", "sessions"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for session endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/sessions",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Upload},
			{Method: "GET", Pattern: "/{id}", Handler: h.Get},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Put},
			{Method: "GET", Pattern: "/{id}/document", Handler: h.Document},
		},
	}
}

// Upload processes a multipart form containing a lab report. Text is
// extracted from the file, or taken from an optional "text" field for
// formats the extractor cannot read (PDF uploads supply their text this
// way). PII is redacted before the session is created.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidUpload)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidUpload)
		return
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), data)
	pageCount := extractPDFPageCount(h.logger, data, contentType)

	rawText := r.FormValue("text")
	if rawText == "" {
		rawText, err = h.source.Extract(r.Context(), data, contentType)
		if err != nil {
			if errors.Is(err, textsource.ErrUnsupported) || errors.Is(err, textsource.ErrNotText) {
				handlers.RespondError(w, h.logger, http.StatusUnsupportedMediaType, err)
				return
			}
			handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidUpload)
			return
		}
	}

	redacted, entities := h.redactor.Redact(rawText)
	if len(entities) > 0 {
		h.logger.Info("upload redacted", "entities", len(entities))
	}

	cmd := CreateCommand{
		Data:         data,
		Filename:     header.Filename,
		ContentType:  contentType,
		PageCount:    pageCount,
		RawText:      rawText,
		RedactedText: redacted,
		PatientZip:   r.FormValue("patient_zip"),
	}

	session, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, session)
}

// Get returns the session record by its path id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.sys.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, session)
}

// Put overwrites the session record without advancing workflow stages.
// The path id always wins over any id in the body.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	var session Session
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidUpload)
		return
	}

	session.SessionID = r.PathValue("id")
	session.Touch()

	if err := h.sys.Save(r.Context(), &session); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, &session)
}

// Document streams the stored original document for the session.
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	reader, contentType, err := h.sys.Document(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer reader.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("document stream interrupted", "error", err)
	}
}

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}

func extractPDFPageCount(logger *slog.Logger, data []byte, contentType string) *int {
	if contentType != "application/pdf" {
		return nil
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("failed to extract PDF page count", "error", err)
		return nil
	}

	return &count
}
