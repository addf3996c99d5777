package sessions

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status classifies a biomarker reading relative to its normal range.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusHigh     Status = "high"
	StatusLow      Status = "low"
	StatusCritical Status = "critical"
)

// Biomarker is a single structured lab reading. Status is fixed at
// extraction time and never recomputed from the range bounds.
// A nil range bound means the bound does not exist, never zero.
type Biomarker struct {
	Name           string   `json:"name"`
	Value          float64  `json:"value"`
	Unit           string   `json:"unit"`
	NormalRangeMin *float64 `json:"normal_range_min"`
	NormalRangeMax *float64 `json:"normal_range_max"`
	Status         Status   `json:"status"`
	Interpretation string   `json:"interpretation"`
}

// SpecialistResult is one provider candidate from a specialist lookup.
// Results are immutable; each lookup produces a fresh ordered slice.
type SpecialistResult struct {
	Name      string   `json:"name"`
	Specialty string   `json:"specialty"`
	Location  string   `json:"location"`
	Distance  string   `json:"distance"`
	Rating    *float64 `json:"rating"`
	URL       string   `json:"url"`
}

// Session is the durable per-report workflow record. Workflow fields are
// written exclusively by the triage pipeline; SessionID, RawText and
// RedactedText are immutable after creation.
type Session struct {
	SessionID           string `json:"session_id"`
	RawText             string `json:"raw_text"`
	RedactedText        string `json:"redacted_text"`
	DocumentContentType string `json:"document_content_type,omitempty"`
	PageCount           *int   `json:"page_count,omitempty"`
	StorageKey          string `json:"storage_key,omitempty"`

	LabInterpreted        bool                 `json:"lab_interpreted"`
	Biomarkers            map[string]Biomarker `json:"biomarkers"`
	InterpretationSummary string               `json:"interpretation_summary"`

	SpecialistNeeded         bool               `json:"specialist_needed"`
	SpecialistCondition      string             `json:"specialist_condition"`
	SpecialistType           string             `json:"specialist_type"`
	PatientZip               string             `json:"patient_zip"`
	SpecialistSearchApproved bool               `json:"specialist_search_approved"`
	SpecialistResults        []SpecialistResult `json:"specialist_results"`

	SafetyApproved    bool   `json:"safety_approved"`
	MedicalDisclaimer string `json:"medical_disclaimer"`

	FHIRObservationID string `json:"fhir_observation_id,omitempty"`
	FHIRPatientID     string `json:"fhir_patient_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a session in the uploaded state with a generated id.
func NewSession(rawText, redactedText, patientZip string) *Session {
	now := time.Now().UTC()
	return &Session{
		SessionID:    newSessionID(),
		RawText:      rawText,
		RedactedText: redactedText,
		PatientZip:   patientZip,
		Biomarkers:   map[string]Biomarker{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Touch stamps UpdatedAt. The timestamp is monotone non-decreasing even
// if the wall clock steps backward.
func (s *Session) Touch() {
	now := time.Now().UTC()
	if now.After(s.UpdatedAt) {
		s.UpdatedAt = now
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	data, err := json.Marshal(s)
	if err != nil {
		cp := *s
		return &cp
	}
	var cp Session
	if err := json.Unmarshal(data, &cp); err != nil {
		cp = *s
	}
	return &cp
}

func newSessionID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "session_" + hex[:8]
}
