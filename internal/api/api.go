// Package api assembles the API surface with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/caduceus/internal/config"
	"github.com/JaimeStill/caduceus/internal/infrastructure"
	"github.com/JaimeStill/caduceus/pkg/middleware"
)

// New creates the API handler with all domain routes and middleware applied.
func New(cfg *config.Config, infra *infrastructure.Infrastructure) (http.Handler, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg)

	stack := middleware.New()
	stack.Use(middleware.CORS(&cfg.API.CORS))
	stack.Use(middleware.Logger(runtime.Logger))

	return stack.Apply(mux), nil
}
