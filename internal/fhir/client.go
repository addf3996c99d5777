// Package fhir submits lab observations to a FHIR R4 server.
package fhir

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JaimeStill/caduceus/internal/sessions"
)

// System creates FHIR Observation resources from biomarker readings.
type System interface {
	CreateObservation(ctx context.Context, name string, b sessions.Biomarker, patientID string) (string, error)
}

type client struct {
	base   string
	http   *http.Client
	logger *slog.Logger
}

// New creates a FHIR client against the configured base URL.
func New(cfg *Config, logger *slog.Logger) System {
	return &client{
		base: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout: cfg.TimeoutDuration(),
		},
		logger: logger.With("system", "fhir"),
	}
}

// CreateObservation POSTs one laboratory Observation for the biomarker
// and returns the server-assigned resource id.
func (c *client) CreateObservation(ctx context.Context, name string, b sessions.Biomarker, patientID string) (string, error) {
	observation := map[string]any{
		"resourceType": "Observation",
		"status":       "final",
		"category": []map[string]any{
			{
				"coding": []map[string]any{
					{
						"system":  "http://terminology.hl7.org/CodeSystem/observation-category",
						"code":    "laboratory",
						"display": "Laboratory",
					},
				},
			},
		},
		"code": map[string]any{
			"coding": []map[string]any{
				{
					"system":  "http://loinc.org",
					"code":    LoincCode(name),
					"display": b.Name,
				},
			},
			"text": b.Name,
		},
		"valueQuantity": map[string]any{
			"value":  b.Value,
			"unit":   b.Unit,
			"system": "http://unitsofmeasure.org",
			"code":   b.Unit,
		},
		"effectiveDateTime": time.Now().UTC().Format(time.RFC3339),
		"interpretation": []map[string]any{
			{
				"coding": []map[string]any{
					{
						"system":  "http://terminology.hl7.org/CodeSystem/v3-ObservationInterpretation",
						"code":    interpretationCode(b.Status),
						"display": strings.ToUpper(string(b.Status)),
					},
				},
			},
		},
	}

	if patientID != "" {
		observation["subject"] = map[string]any{
			"reference": "Patient/" + patientID,
		}
	}

	body, err := json.Marshal(observation)
	if err != nil {
		return "", fmt.Errorf("encode observation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/Observation", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build observation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/fhir+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("post observation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("fhir server returned %d: %s", resp.StatusCode, detail)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode observation response: %w", err)
	}

	c.logger.Info("created fhir observation", "id", created.ID, "biomarker", name)
	return created.ID, nil
}

func interpretationCode(status sessions.Status) string {
	switch status {
	case sessions.StatusHigh:
		return "H"
	case sessions.StatusLow:
		return "L"
	case sessions.StatusCritical:
		return "HH"
	default:
		return "N"
	}
}
