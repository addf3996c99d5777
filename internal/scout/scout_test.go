package scout_test

import (
	"log/slog"
	"testing"

	"github.com/JaimeStill/caduceus/internal/scout"
)

func TestStubSearch(t *testing.T) {
	finder := scout.NewStub(slog.New(slog.DiscardHandler))

	results, err := finder.Search(t.Context(), "Endocrinologist", "30301", "Thyroid Function")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}

	for _, r := range results {
		if r.Specialty != "Endocrinologist" {
			t.Errorf("specialty = %q", r.Specialty)
		}
		if r.Location != "30301 Area" {
			t.Errorf("location = %q", r.Location)
		}
		if r.Name == "" || r.Distance == "" || r.URL == "" {
			t.Errorf("incomplete result: %+v", r)
		}
		if r.Rating == nil {
			t.Error("rating missing")
		}
	}
}
