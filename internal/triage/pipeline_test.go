package triage_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/JaimeStill/caduceus/internal/scout"
	"github.com/JaimeStill/caduceus/internal/sessions"
	"github.com/JaimeStill/caduceus/internal/triage"
)

type fakeModel struct {
	response string
	err      error
	calls    int
}

func (m *fakeModel) Complete(_ context.Context, _ string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

type fakeFHIR struct{}

func (fakeFHIR) CreateObservation(_ context.Context, name string, _ sessions.Biomarker, _ string) (string, error) {
	return "obs-" + name, nil
}

type failingScout struct{}

func (failingScout) Search(context.Context, string, string, string) ([]sessions.SpecialistResult, error) {
	return nil, errors.New("directory unavailable")
}

const abnormalResponse = `{
	"Glucose": {"Value": "110 mg/dL", "Normal_range": "70-100 mg/dL", "Status": "high", "Interpretation": "Slightly elevated."},
	"Sodium": {"Value": "141 mmol/L", "Normal_range": "135-145 mmol/L", "Status": "normal", "Interpretation": "Within range."}
}`

const normalResponse = `{
	"Sodium": {"Value": "141 mmol/L", "Normal_range": "135-145 mmol/L", "Status": "normal", "Interpretation": "Within range."}
}`

func newPipeline(t *testing.T, model triage.ModelClient, finder scout.System) (triage.System, sessions.System) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	store := sessions.NewMemory(logger)
	if finder == nil {
		finder = scout.NewStub(logger)
	}
	return triage.New(store, model, finder, fakeFHIR{}, logger, 2), store
}

func seedSession(t *testing.T, store sessions.System, zip string) *sessions.Session {
	t.Helper()
	session, err := store.Create(t.Context(), sessions.CreateCommand{
		RawText:      "Glucose: 110 mg/dL (70-100)\nSodium: 141 mmol/L (135-145)",
		RedactedText: "Glucose: 110 mg/dL (70-100)\nSodium: 141 mmol/L (135-145)",
		PatientZip:   zip,
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return session
}

func TestRun(t *testing.T) {
	model := &fakeModel{response: abnormalResponse}
	pipe, store := newPipeline(t, model, nil)
	seed := seedSession(t, store, "30301")

	result, err := pipe.Run(t.Context(), seed.SessionID)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != triage.StatusCompleted {
		t.Errorf("status = %q", result.Status)
	}

	session, err := store.Find(t.Context(), seed.SessionID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	if !session.LabInterpreted {
		t.Error("LabInterpreted not set")
	}
	if len(session.Biomarkers) != 2 {
		t.Fatalf("biomarkers = %d, want 2", len(session.Biomarkers))
	}
	if session.Biomarkers["Glucose"].Status != sessions.StatusHigh {
		t.Errorf("glucose status = %q", session.Biomarkers["Glucose"].Status)
	}
	if !session.SpecialistNeeded {
		t.Error("SpecialistNeeded not set for abnormal glucose")
	}
	if session.SpecialistType != "Endocrinologist" {
		t.Errorf("specialist = %q", session.SpecialistType)
	}
	if session.SpecialistCondition != "Diabetes/Glucose Management" {
		t.Errorf("condition = %q", session.SpecialistCondition)
	}
	if session.InterpretationSummary != "Successfully analyzed 2 biomarker(s). 1 value(s) require attention." {
		t.Errorf("summary = %q", session.InterpretationSummary)
	}

	// approval gate: no specialist results until a human approves
	if len(session.SpecialistResults) != 0 {
		t.Error("specialist results populated before approval")
	}

	if !session.SafetyApproved {
		t.Error("SafetyApproved not set")
	}
	if !strings.Contains(session.MedicalDisclaimer, "MEDICAL DISCLAIMER") {
		t.Errorf("disclaimer = %q", session.MedicalDisclaimer)
	}
}

func TestRunAllNormal(t *testing.T) {
	model := &fakeModel{response: normalResponse}
	pipe, store := newPipeline(t, model, nil)
	seed := seedSession(t, store, "30301")

	if _, err := pipe.Run(t.Context(), seed.SessionID); err != nil {
		t.Fatalf("run: %v", err)
	}

	session, _ := store.Find(t.Context(), seed.SessionID)
	if session.SpecialistNeeded {
		t.Error("SpecialistNeeded set for an all-normal panel")
	}
	if session.SpecialistType != "" {
		t.Errorf("specialist = %q, want empty", session.SpecialistType)
	}
	if session.InterpretationSummary != "Successfully analyzed 1 biomarker(s). All values are within normal ranges." {
		t.Errorf("summary = %q", session.InterpretationSummary)
	}
}

func TestRunIdempotent(t *testing.T) {
	model := &fakeModel{response: abnormalResponse}
	pipe, store := newPipeline(t, model, nil)
	seed := seedSession(t, store, "30301")

	if _, err := pipe.Run(t.Context(), seed.SessionID); err != nil {
		t.Fatalf("first run: %v", err)
	}
	callsAfterFirst := model.calls

	result, err := pipe.Run(t.Context(), seed.SessionID)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.Status != triage.StatusAlreadyCompleted {
		t.Errorf("status = %q, want %q", result.Status, triage.StatusAlreadyCompleted)
	}
	if model.calls != callsAfterFirst {
		t.Error("second run re-invoked the model")
	}
}

func TestRunUnknownSession(t *testing.T) {
	pipe, _ := newPipeline(t, &fakeModel{response: normalResponse}, nil)

	if _, err := pipe.Run(t.Context(), "session_missing"); !errors.Is(err, sessions.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRunModelFailure(t *testing.T) {
	model := &fakeModel{err: fmt.Errorf("provider timeout")}
	pipe, store := newPipeline(t, model, nil)
	seed := seedSession(t, store, "30301")

	_, err := pipe.Run(t.Context(), seed.SessionID)
	if !errors.Is(err, triage.ErrModelCall) {
		t.Fatalf("err = %v, want ErrModelCall", err)
	}

	// a failed model call must leave no partial state behind
	session, _ := store.Find(t.Context(), seed.SessionID)
	if session.LabInterpreted {
		t.Error("LabInterpreted set after model failure")
	}
	if len(session.Biomarkers) != 0 {
		t.Error("biomarkers written after model failure")
	}
	if session.InterpretationSummary != "" {
		t.Error("summary written after model failure")
	}
	if !session.UpdatedAt.Equal(seed.UpdatedAt) {
		t.Error("UpdatedAt advanced after model failure")
	}
}

func TestApproveAfterRun(t *testing.T) {
	model := &fakeModel{response: abnormalResponse}
	pipe, store := newPipeline(t, model, nil)
	seed := seedSession(t, store, "30301")

	if _, err := pipe.Run(t.Context(), seed.SessionID); err != nil {
		t.Fatalf("run: %v", err)
	}

	result, err := pipe.ApproveSpecialistSearch(t.Context(), seed.SessionID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.Status != triage.StatusApproved {
		t.Errorf("status = %q", result.Status)
	}

	session, _ := store.Find(t.Context(), seed.SessionID)
	if !session.SpecialistSearchApproved {
		t.Error("approval flag not persisted")
	}
	if len(session.SpecialistResults) != 3 {
		t.Fatalf("specialist results = %d, want 3", len(session.SpecialistResults))
	}
	for _, r := range session.SpecialistResults {
		if r.Specialty != "Endocrinologist" {
			t.Errorf("specialty = %q", r.Specialty)
		}
		if r.Location != "30301 Area" {
			t.Errorf("location = %q", r.Location)
		}
	}
}

func TestApproveBeforeRun(t *testing.T) {
	model := &fakeModel{response: abnormalResponse}
	pipe, store := newPipeline(t, model, nil)
	seed := seedSession(t, store, "30301")

	if _, err := pipe.ApproveSpecialistSearch(t.Context(), seed.SessionID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	session, _ := store.Find(t.Context(), seed.SessionID)
	if !session.SpecialistSearchApproved {
		t.Error("approval flag not persisted")
	}
	if len(session.SpecialistResults) != 0 {
		t.Error("results populated before interpretation")
	}
	if model.calls != 0 {
		t.Error("approval invoked the model")
	}

	// a later run picks the approval up and completes the search
	if _, err := pipe.Run(t.Context(), seed.SessionID); err != nil {
		t.Fatalf("run: %v", err)
	}
	session, _ = store.Find(t.Context(), seed.SessionID)
	if len(session.SpecialistResults) != 3 {
		t.Errorf("specialist results = %d, want 3", len(session.SpecialistResults))
	}
}

func TestApproveMissingZip(t *testing.T) {
	model := &fakeModel{response: abnormalResponse}
	pipe, store := newPipeline(t, model, nil)
	seed := seedSession(t, store, "")

	if _, err := pipe.Run(t.Context(), seed.SessionID); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := pipe.ApproveSpecialistSearch(t.Context(), seed.SessionID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	session, _ := store.Find(t.Context(), seed.SessionID)
	if len(session.SpecialistResults) != 0 {
		t.Error("results populated without a zip code")
	}
	if !session.SafetyApproved {
		t.Error("audit skipped when lookup was not actionable")
	}
}

func TestScoutFailureSwallowed(t *testing.T) {
	model := &fakeModel{response: abnormalResponse}
	pipe, store := newPipeline(t, model, failingScout{})
	seed := seedSession(t, store, "30301")

	if _, err := pipe.Run(t.Context(), seed.SessionID); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := pipe.ApproveSpecialistSearch(t.Context(), seed.SessionID); err != nil {
		t.Fatalf("approve despite scout failure: %v", err)
	}

	session, _ := store.Find(t.Context(), seed.SessionID)
	if len(session.SpecialistResults) != 0 {
		t.Error("results present after scout failure")
	}
	if !session.SafetyApproved {
		t.Error("audit not reached after scout failure")
	}
}

func TestSubmit(t *testing.T) {
	model := &fakeModel{response: abnormalResponse}
	pipe, store := newPipeline(t, model, nil)
	seed := seedSession(t, store, "30301")

	if _, err := pipe.Run(t.Context(), seed.SessionID); err != nil {
		t.Fatalf("run: %v", err)
	}

	result, err := pipe.Submit(t.Context(), seed.SessionID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Status != triage.StatusSaved {
		t.Errorf("status = %q", result.Status)
	}

	// ids follow sorted biomarker key order
	want := []string{"obs-Glucose", "obs-Sodium"}
	if len(result.ObservationIDs) != len(want) {
		t.Fatalf("ids = %v", result.ObservationIDs)
	}
	for i, id := range want {
		if result.ObservationIDs[i] != id {
			t.Errorf("ids[%d] = %q, want %q", i, result.ObservationIDs[i], id)
		}
	}

	session, _ := store.Find(t.Context(), seed.SessionID)
	if session.FHIRObservationID != "obs-Glucose,obs-Sodium" {
		t.Errorf("observation id = %q", session.FHIRObservationID)
	}
}

func TestSubmitWithoutBiomarkers(t *testing.T) {
	pipe, store := newPipeline(t, &fakeModel{response: normalResponse}, nil)
	seed := seedSession(t, store, "30301")

	if _, err := pipe.Submit(t.Context(), seed.SessionID); !errors.Is(err, triage.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestChat(t *testing.T) {
	model := &fakeModel{response: "Your glucose is slightly elevated."}
	pipe, store := newPipeline(t, model, nil)
	seed := seedSession(t, store, "30301")

	t.Run("empty message rejected", func(t *testing.T) {
		if _, err := pipe.Chat(t.Context(), seed.SessionID, "  "); !errors.Is(err, triage.ErrValidation) {
			t.Errorf("err = %v, want ErrValidation", err)
		}
		if model.calls != 0 {
			t.Error("model invoked for an empty message")
		}
	})

	t.Run("answers with model response", func(t *testing.T) {
		answer, err := pipe.Chat(t.Context(), seed.SessionID, "What do my results mean?")
		if err != nil {
			t.Fatalf("chat: %v", err)
		}
		if answer != "Your glucose is slightly elevated." {
			t.Errorf("answer = %q", answer)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		if _, err := pipe.Chat(t.Context(), "session_missing", "hello"); !errors.Is(err, sessions.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}
