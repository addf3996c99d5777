package api

import (
	"github.com/JaimeStill/caduceus/internal/fhir"
	"github.com/JaimeStill/caduceus/internal/redaction"
	"github.com/JaimeStill/caduceus/internal/scout"
	"github.com/JaimeStill/caduceus/internal/sessions"
	"github.com/JaimeStill/caduceus/internal/textsource"
	"github.com/JaimeStill/caduceus/internal/triage"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Sessions sessions.System
	Triage   triage.System
	Source   textsource.System
	Redactor redaction.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	sessionsSystem := sessions.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
	)

	triageSystem := triage.New(
		sessionsSystem,
		triage.NewAgentClient(&runtime.Agent),
		scout.NewStub(runtime.Logger),
		fhir.New(&runtime.FHIR, runtime.Logger),
		runtime.Logger,
		runtime.FHIR.SubmitConcurrency,
	)

	return &Domain{
		Sessions: sessionsSystem,
		Triage:   triageSystem,
		Source:   textsource.NewPlainText(),
		Redactor: redaction.New(runtime.Logger),
	}
}
