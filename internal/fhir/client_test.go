package fhir_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/caduceus/internal/fhir"
	"github.com/JaimeStill/caduceus/internal/sessions"
)

func glucoseReading() sessions.Biomarker {
	min, max := 70.0, 100.0
	return sessions.Biomarker{
		Name:           "Glucose",
		Value:          110,
		Unit:           "mg/dL",
		NormalRangeMin: &min,
		NormalRangeMax: &max,
		Status:         sessions.StatusHigh,
	}
}

func newClient(t *testing.T, baseURL string) fhir.System {
	t.Helper()
	cfg := fhir.Config{BaseURL: baseURL, Timeout: "5s", SubmitConcurrency: 1}
	return fhir.New(&cfg, slog.New(slog.DiscardHandler))
}

func TestCreateObservation(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Observation" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/fhir+json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "obs-42"})
	}))
	defer server.Close()

	id, err := newClient(t, server.URL).CreateObservation(t.Context(), "Glucose", glucoseReading(), "patient-7")
	if err != nil {
		t.Fatalf("create observation: %v", err)
	}
	if id != "obs-42" {
		t.Errorf("id = %q", id)
	}

	if captured["resourceType"] != "Observation" || captured["status"] != "final" {
		t.Errorf("resource = %v / %v", captured["resourceType"], captured["status"])
	}

	code := captured["code"].(map[string]any)
	coding := code["coding"].([]any)[0].(map[string]any)
	if coding["code"] != "2339-0" {
		t.Errorf("loinc = %v", coding["code"])
	}

	quantity := captured["valueQuantity"].(map[string]any)
	if quantity["value"].(float64) != 110 || quantity["unit"] != "mg/dL" {
		t.Errorf("quantity = %v", quantity)
	}

	interp := captured["interpretation"].([]any)[0].(map[string]any)
	interpCoding := interp["coding"].([]any)[0].(map[string]any)
	if interpCoding["code"] != "H" {
		t.Errorf("interpretation = %v", interpCoding["code"])
	}

	subject := captured["subject"].(map[string]any)
	if subject["reference"] != "Patient/patient-7" {
		t.Errorf("subject = %v", subject)
	}
}

func TestCreateObservationNoPatient(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]string{"id": "obs-1"})
	}))
	defer server.Close()

	if _, err := newClient(t, server.URL).CreateObservation(t.Context(), "Glucose", glucoseReading(), ""); err != nil {
		t.Fatalf("create observation: %v", err)
	}
	if _, ok := captured["subject"]; ok {
		t.Error("subject present without a patient id")
	}
}

func TestCreateObservationServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := newClient(t, server.URL).CreateObservation(t.Context(), "Glucose", glucoseReading(), ""); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestLoincCode(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Glucose", "2339-0"},
		{"Total Cholesterol", "2093-3"},
		{"HDL Cholesterol", "2093-3"},
		{"Serum Creatinine", "2160-0"},
		{"HEMOGLOBIN", "718-7"},
		{"TSH", "3016-3"},
		{"Platelets", "33747-0"},
		{"", "33747-0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fhir.LoincCode(tt.name); got != tt.want {
				t.Errorf("LoincCode(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}
