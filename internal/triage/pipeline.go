package triage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/caduceus/internal/biomarkers"
	"github.com/JaimeStill/caduceus/internal/fhir"
	"github.com/JaimeStill/caduceus/internal/scout"
	"github.com/JaimeStill/caduceus/internal/sessions"
)

type pipeline struct {
	store       sessions.System
	model       ModelClient
	scout       scout.System
	fhir        fhir.System
	logger      *slog.Logger
	submitLimit int
	locks       sync.Map
}

// New creates the triage pipeline over the given collaborators.
// submitLimit bounds concurrent FHIR submissions per Submit call.
func New(
	store sessions.System,
	model ModelClient,
	finder scout.System,
	clinical fhir.System,
	logger *slog.Logger,
	submitLimit int,
) System {
	if submitLimit < 1 {
		submitLimit = 1
	}
	return &pipeline{
		store:       store,
		model:       model,
		scout:       finder,
		fhir:        clinical,
		logger:      logger.With("system", "triage"),
		submitLimit: submitLimit,
	}
}

func (p *pipeline) Handler() *Handler {
	return NewHandler(p, p.logger)
}

// lock serializes pipeline operations per session id. Different
// sessions proceed independently.
func (p *pipeline) lock(sessionID string) func() {
	entry, _ := p.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := entry.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (p *pipeline) Run(ctx context.Context, sessionID string) (*RunResult, error) {
	defer p.lock(sessionID)()

	session, err := p.store.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.LabInterpreted {
		p.logger.Info("lab already interpreted, skipping", "id", sessionID)
		return &RunResult{
			SessionID: sessionID,
			Status:    StatusAlreadyCompleted,
			Message:   "Lab results already interpreted",
			Session:   session,
		}, nil
	}

	if err := p.interpret(ctx, session); err != nil {
		return nil, err
	}
	if err := p.lookup(ctx, session); err != nil {
		return nil, err
	}
	if err := p.audit(ctx, session); err != nil {
		return nil, err
	}

	return &RunResult{
		SessionID: sessionID,
		Status:    StatusCompleted,
		Session:   session,
	}, nil
}

func (p *pipeline) ApproveSpecialistSearch(ctx context.Context, sessionID string) (*RunResult, error) {
	defer p.lock(sessionID)()

	session, err := p.store.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.SpecialistSearchApproved = true
	session.Touch()
	if err := p.store.Save(ctx, session); err != nil {
		return nil, err
	}

	// lookup and audit only make sense once an interpretation pass
	// exists; approval ahead of interpretation just records the flag
	if session.LabInterpreted {
		if err := p.lookup(ctx, session); err != nil {
			return nil, err
		}
		if err := p.audit(ctx, session); err != nil {
			return nil, err
		}
	}

	return &RunResult{
		SessionID: sessionID,
		Status:    StatusApproved,
		Message:   "Specialist search approved",
		Session:   session,
	}, nil
}

// interpret runs the model over the redacted report and writes the full
// interpretation result as one persisted mutation. A failed model call
// leaves the session untouched.
func (p *pipeline) interpret(ctx context.Context, session *sessions.Session) error {
	text := preprocessReport(session.RedactedText)
	p.logger.Info("running interpretation",
		"id", session.SessionID,
		"chars", len(text),
		"original_chars", len(session.RedactedText),
	)

	response, err := p.model.Complete(ctx, buildInterpretPrompt(text))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrModelCall, err)
	}

	extracted := biomarkers.Extract(p.logger, response)
	p.logger.Info("parsed biomarkers", "id", session.SessionID, "count", len(extracted))

	session.Biomarkers = extracted
	session.LabInterpreted = true
	session.SpecialistNeeded = biomarkers.AnyAbnormal(extracted)
	session.SpecialistType = ""
	session.SpecialistCondition = ""
	if session.SpecialistNeeded {
		session.SpecialistType, session.SpecialistCondition = biomarkers.Classify(extracted)
	}
	session.InterpretationSummary = summarize(extracted, response)
	session.Touch()

	return p.store.Save(ctx, session)
}

// lookup overwrites specialist results when the search is approved and
// the referral is actionable. Scout failures are logged and swallowed;
// the session stays valid either way.
func (p *pipeline) lookup(ctx context.Context, session *sessions.Session) error {
	if !session.SpecialistNeeded || !session.SpecialistSearchApproved {
		return nil
	}
	if session.SpecialistType == "" || session.PatientZip == "" {
		p.logger.Warn("missing specialist type or zip code", "id", session.SessionID)
		return nil
	}

	results, err := p.scout.Search(ctx, session.SpecialistType, session.PatientZip, session.SpecialistCondition)
	if err != nil {
		p.logger.Error("specialist search failed", "id", session.SessionID, "error", err)
		return nil
	}

	session.SpecialistResults = results
	session.Touch()
	return p.store.Save(ctx, session)
}

// audit stamps the disclaimer and safety approval. Always the final
// stage of a pass.
func (p *pipeline) audit(ctx context.Context, session *sessions.Session) error {
	session.MedicalDisclaimer = disclaimer
	session.SafetyApproved = true
	session.Touch()
	return p.store.Save(ctx, session)
}

func (p *pipeline) Submit(ctx context.Context, sessionID string) (*SubmitResult, error) {
	defer p.lock(sessionID)()

	session, err := p.store.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(session.Biomarkers) == 0 {
		return nil, fmt.Errorf("%w: no biomarkers to submit", ErrValidation)
	}

	keys := make([]string, 0, len(session.Biomarkers))
	for key := range session.Biomarkers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	ids := make([]string, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.submitLimit)

	for i, key := range keys {
		g.Go(func() error {
			id, err := p.fhir.CreateObservation(gctx, key, session.Biomarkers[key], session.FHIRPatientID)
			if err != nil {
				return fmt.Errorf("observation %s: %w", key, err)
			}
			ids[i] = id
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmit, err)
	}

	session.FHIRObservationID = strings.Join(ids, ",")
	session.Touch()
	if err := p.store.Save(ctx, session); err != nil {
		return nil, err
	}

	p.logger.Info("submitted observations", "id", sessionID, "count", len(ids))
	return &SubmitResult{
		SessionID:      sessionID,
		Status:         StatusSaved,
		ObservationIDs: ids,
	}, nil
}

func (p *pipeline) Chat(ctx context.Context, sessionID, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("%w: message is required", ErrValidation)
	}

	session, err := p.store.Find(ctx, sessionID)
	if err != nil {
		return "", err
	}

	response, err := p.model.Complete(ctx, buildChatPrompt(session, message))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrModelCall, err)
	}

	return response, nil
}

func summarize(extracted map[string]sessions.Biomarker, response string) string {
	if len(extracted) == 0 {
		// parsing failed; keep a short excerpt of the raw response
		if len(response) > 200 {
			return response[:200] + "..."
		}
		return response
	}

	abnormal := 0
	for _, b := range extracted {
		if biomarkers.Abnormal(b.Status) {
			abnormal++
		}
	}

	summary := fmt.Sprintf("Successfully analyzed %d biomarker(s). ", len(extracted))
	if abnormal == 0 {
		return summary + "All values are within normal ranges."
	}
	return summary + fmt.Sprintf("%d value(s) require attention.", abnormal)
}
