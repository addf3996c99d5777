package api

import (
	"net/http"

	"github.com/JaimeStill/caduceus/internal/config"
	"github.com/JaimeStill/caduceus/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) {
	routes.Register(
		mux,
		cfg.API.BasePath,
		domain.Sessions.Handler(cfg.API.MaxUploadSizeBytes(), domain.Source, domain.Redactor).Routes(),
		domain.Triage.Handler().Routes(),
	)
}
