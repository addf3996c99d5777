package triage

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/caduceus/pkg/handlers"
	"github.com/JaimeStill/caduceus/pkg/routes"
)

// Handler provides HTTP endpoints for triage pipeline operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// ChatRequest is the body for the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the model's answer.
type ChatResponse struct {
	Message string `json:"message"`
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "triage"),
	}
}

// Routes returns the route group definition for triage endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/triage",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/{id}/run", Handler: h.Run},
			{Method: "POST", Pattern: "/{id}/approve", Handler: h.Approve},
			{Method: "POST", Pattern: "/{id}/submit", Handler: h.Submit},
			{Method: "POST", Pattern: "/{id}/chat", Handler: h.Chat},
		},
	}
}

// Run advances the triage workflow for the session.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.Run(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Approve records human approval for the specialist search.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.ApproveSpecialistSearch(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Submit posts the session's biomarkers as FHIR Observations.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.Submit(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Chat answers a question about the session's lab results.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrValidation)
		return
	}

	answer, err := h.sys.Chat(r.Context(), r.PathValue("id"), req.Message)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, ChatResponse{Message: answer})
}
