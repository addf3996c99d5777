package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/caduceus/pkg/routes"
)

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()

	ok := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}

	routes.Register(mux, "/api",
		routes.Group{
			Prefix: "/items",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: ok},
				{Method: "GET", Pattern: "/{id}", Handler: ok},
				{Method: "POST", Pattern: "", Handler: ok},
			},
		},
		routes.Group{
			Prefix: "/other",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: ok},
			},
		},
	)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"list route", "GET", "/api/items", http.StatusOK},
		{"path value route", "GET", "/api/items/123", http.StatusOK},
		{"post route", "POST", "/api/items", http.StatusOK},
		{"second group", "GET", "/api/other", http.StatusOK},
		{"method mismatch", "DELETE", "/api/items", http.StatusMethodNotAllowed},
		{"unregistered path", "GET", "/api/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
