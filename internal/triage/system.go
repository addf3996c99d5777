package triage

import (
	"context"

	"github.com/JaimeStill/caduceus/internal/sessions"
)

// Run statuses reported to callers.
const (
	StatusCompleted        = "completed"
	StatusAlreadyCompleted = "already_completed"
	StatusApproved         = "approved"
	StatusSaved            = "saved"
)

// RunResult reports the outcome of a pipeline operation.
type RunResult struct {
	SessionID string            `json:"session_id"`
	Status    string            `json:"status"`
	Message   string            `json:"message,omitempty"`
	Session   *sessions.Session `json:"state,omitempty"`
}

// SubmitResult reports the outcome of a clinical submission.
type SubmitResult struct {
	SessionID      string   `json:"session_id"`
	Status         string   `json:"status"`
	ObservationIDs []string `json:"observation_ids"`
}

// System defines the public contract for the triage pipeline.
type System interface {
	Handler() *Handler

	// Run advances a session through interpretation, conditional lookup,
	// and audit. Idempotent: an already-interpreted session yields an
	// already_completed no-op result.
	Run(ctx context.Context, sessionID string) (*RunResult, error)
	// ApproveSpecialistSearch records the human approval and, when the
	// session is interpreted, executes lookup and audit.
	ApproveSpecialistSearch(ctx context.Context, sessionID string) (*RunResult, error)
	// Submit posts one FHIR Observation per biomarker and stores the
	// joined resource ids on the session.
	Submit(ctx context.Context, sessionID string) (*SubmitResult, error)
	// Chat answers a patient question with biomarker context.
	Chat(ctx context.Context, sessionID, message string) (string, error)
}
