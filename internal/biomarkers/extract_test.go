package biomarkers_test

import (
	"log/slog"
	"testing"

	"github.com/JaimeStill/caduceus/internal/biomarkers"
	"github.com/JaimeStill/caduceus/internal/sessions"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestExtract(t *testing.T) {
	t.Run("plain JSON object", func(t *testing.T) {
		response := `{
			"Glucose": {
				"Name": "Glucose",
				"Value": "110 mg/dL",
				"Normal_range": "70-100 mg/dL",
				"Status": "high",
				"Interpretation": "Glucose is elevated."
			}
		}`

		got := biomarkers.Extract(discard(), response)
		if len(got) != 1 {
			t.Fatalf("extracted %d biomarkers, want 1", len(got))
		}

		g := got["Glucose"]
		if g.Value != 110 || g.Unit != "mg/dL" {
			t.Errorf("value = %v %q, want 110 mg/dL", g.Value, g.Unit)
		}
		if g.Status != sessions.StatusHigh {
			t.Errorf("status = %q, want high", g.Status)
		}
	})

	t.Run("fenced payload with trailing comma", func(t *testing.T) {
		response := "Here are the results:\n```json\n" +
			`{
				"Na": {
					"Name": "Na",
					"Value": "141 mmol/L",
					"Normal_range": "135-145 mmol/L",
					"Status": "normal",
					"Interpretation": "Within range.",
				},
			}` + "\n```"

		got := biomarkers.Extract(discard(), response)
		if len(got) != 1 {
			t.Fatalf("extracted %d biomarkers, want 1", len(got))
		}

		na := got["Na"]
		if na.Value != 141 || na.Unit != "mmol/L" {
			t.Errorf("value = %v %q, want 141 mmol/L", na.Value, na.Unit)
		}
		if na.NormalRangeMin == nil || na.NormalRangeMax == nil {
			t.Fatal("range bounds are nil, want 135-145")
		}
		if *na.NormalRangeMin != 135 || *na.NormalRangeMax != 145 {
			t.Errorf("range = %v-%v, want 135-145", *na.NormalRangeMin, *na.NormalRangeMax)
		}
		if na.Status != sessions.StatusNormal {
			t.Errorf("status = %q, want normal", na.Status)
		}
	})

	t.Run("truncated payload recovers prior entries", func(t *testing.T) {
		response := `{
			"K": {
				"Name": "K",
				"Value": "4.1 mmol/L",
				"Normal_range": "3.5-5.1 mmol/L",
				"Status": "normal",
				"Interpretation": "Within range."
			},
			"Cl": {
				"Name": "Cl",
				"Value": "99 mmo`

		got := biomarkers.Extract(discard(), response)
		if _, ok := got["K"]; !ok {
			t.Fatalf("complete entry K not recovered, got %v", got)
		}
	})

	t.Run("truncation never errors", func(t *testing.T) {
		inputs := []string{
			`{"K": {"Name": "K", "Value": "4.1`,
			`{"K": {`,
			`{"K"`,
			"```json\n{\"K\": {\"Name\":",
		}

		for _, input := range inputs {
			got := biomarkers.Extract(discard(), input)
			if got == nil {
				t.Errorf("Extract(%q) returned nil map", input)
			}
		}
	})

	t.Run("no payload yields empty map", func(t *testing.T) {
		got := biomarkers.Extract(discard(), "I could not find any biomarkers in this report.")
		if len(got) != 0 {
			t.Errorf("extracted %d biomarkers, want 0", len(got))
		}
	})

	t.Run("lowercase field names accepted", func(t *testing.T) {
		response := `{
			"TSH": {
				"name": "TSH",
				"value": "6.2 mIU/L",
				"normal_range": "0.4-4.0 mIU/L",
				"status": "HIGH",
				"interpretation": "Elevated."
			}
		}`

		got := biomarkers.Extract(discard(), response)
		tsh, ok := got["TSH"]
		if !ok {
			t.Fatal("TSH not extracted")
		}
		if tsh.Status != sessions.StatusHigh {
			t.Errorf("status = %q, want high (lowercased)", tsh.Status)
		}
		if tsh.Value != 6.2 {
			t.Errorf("value = %v, want 6.2", tsh.Value)
		}
	})

	t.Run("missing status defaults to normal", func(t *testing.T) {
		response := `{"Hb": {"Name": "Hb", "Value": "14.5 g/dL"}}`

		got := biomarkers.Extract(discard(), response)
		if got["Hb"].Status != sessions.StatusNormal {
			t.Errorf("status = %q, want normal", got["Hb"].Status)
		}
	})

	t.Run("non-object entries skipped", func(t *testing.T) {
		response := `{"note": "no abnormalities", "Na": {"Name": "Na", "Value": "140 mmol/L"}}`

		got := biomarkers.Extract(discard(), response)
		if len(got) != 1 {
			t.Fatalf("extracted %d biomarkers, want 1", len(got))
		}
		if _, ok := got["Na"]; !ok {
			t.Error("Na not extracted")
		}
	})

	t.Run("missing value falls back to raw string", func(t *testing.T) {
		response := `{"Na": {"Name": "Na", "Value": "pending"}}`

		got := biomarkers.Extract(discard(), response)
		na := got["Na"]
		if na.Value != 0.0 {
			t.Errorf("value = %v, want 0.0", na.Value)
		}
		if na.Unit != "pending" {
			t.Errorf("unit = %q, want raw string fallback", na.Unit)
		}
	})
}
