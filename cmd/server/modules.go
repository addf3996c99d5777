package main

import (
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/caduceus/internal/api"
	"github.com/JaimeStill/caduceus/internal/config"
	"github.com/JaimeStill/caduceus/internal/infrastructure"
)

// buildHandler assembles the root handler: health endpoints plus the
// API surface mounted under its base path.
func buildHandler(cfg *config.Config, infra *infrastructure.Infrastructure) (http.Handler, error) {
	apiHandler, err := api.New(cfg, infra)
	if err != nil {
		return nil, err
	}

	root := http.NewServeMux()
	root.Handle(cfg.API.BasePath+"/", apiHandler)

	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	root.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !infra.Lifecycle.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	return root, nil
}
