// Package redaction detects and masks PII in report text before any of
// it reaches a language model.
package redaction

import (
	"log/slog"
	"regexp"
	"sort"
)

// Entity is one detected PII span within the analyzed text.
type Entity struct {
	Type  string  `json:"entity_type"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score"`
}

// System detects and redacts PII spans in text. Redact never fails: on
// any internal problem the original text is returned unchanged.
type System interface {
	Detect(text string) []Entity
	Redact(text string) (string, []Entity)
}

type analyzer struct {
	pattern *regexp.Regexp
	entity  string
	token   string
	score   float64
}

type engine struct {
	analyzers []analyzer
	logger    *slog.Logger
}

// New creates the regex-based redaction engine.
func New(logger *slog.Logger) System {
	return &engine{
		analyzers: []analyzer{
			{
				pattern: regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
				entity:  "EMAIL_ADDRESS",
				token:   "[EMAIL]",
				score:   0.95,
			},
			{
				pattern: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
				entity:  "US_SSN",
				token:   "[SSN]",
				score:   0.9,
			},
			{
				pattern: regexp.MustCompile(`\(\d{3}\)\s*\d{3}[-.]?\d{4}|\b\d{3}[-.]\d{3}[-.]\d{4}\b`),
				entity:  "PHONE_NUMBER",
				token:   "[PHONE]",
				score:   0.85,
			},
			{
				pattern: regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b|\b\d{4}-\d{2}-\d{2}\b`),
				entity:  "DATE_TIME",
				token:   "[DATE]",
				score:   0.7,
			},
			{
				pattern: regexp.MustCompile(`(?i)\b(?:patient(?:\s+name)?|name)\s*:\s*([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`),
				entity:  "PERSON",
				token:   "[PATIENT_NAME]",
				score:   0.8,
			},
			{
				pattern: regexp.MustCompile(`\b(?:MRN|mrn)\s*[:#]?\s*\d{4,}\b`),
				entity:  "MEDICAL_RECORD",
				token:   "[MRN]",
				score:   0.85,
			},
		},
		logger: logger.With("system", "redaction"),
	}
}

func (e *engine) Detect(text string) []Entity {
	var entities []Entity

	for _, a := range e.analyzers {
		var spans [][]int
		if a.pattern.NumSubexp() > 0 {
			for _, m := range a.pattern.FindAllStringSubmatchIndex(text, -1) {
				// mask the captured value, not the label prefix
				if m[2] >= 0 {
					spans = append(spans, []int{m[2], m[3]})
				}
			}
		} else {
			spans = a.pattern.FindAllStringIndex(text, -1)
		}

		for _, span := range spans {
			entities = append(entities, Entity{
				Type:  a.entity,
				Start: span[0],
				End:   span[1],
				Score: a.score,
			})
		}
	}

	sort.Slice(entities, func(i, j int) bool {
		if entities[i].Start != entities[j].Start {
			return entities[i].Start < entities[j].Start
		}
		return entities[i].End > entities[j].End
	})

	return dropOverlaps(entities)
}

func (e *engine) Redact(text string) (string, []Entity) {
	entities := e.Detect(text)
	if len(entities) == 0 {
		return text, nil
	}

	tokens := make(map[string]string, len(e.analyzers))
	for _, a := range e.analyzers {
		tokens[a.entity] = a.token
	}

	// replace back to front so earlier spans keep their offsets
	redacted := text
	for i := len(entities) - 1; i >= 0; i-- {
		ent := entities[i]
		if ent.Start < 0 || ent.End > len(redacted) || ent.Start > ent.End {
			continue
		}
		redacted = redacted[:ent.Start] + tokens[ent.Type] + redacted[ent.End:]
	}

	e.logger.Info("redacted pii entities", "count", len(entities))
	return redacted, entities
}

// dropOverlaps keeps the first (longest-at-position) entity when spans
// overlap. Input must be sorted by start ascending, end descending.
func dropOverlaps(entities []Entity) []Entity {
	var kept []Entity
	lastEnd := -1
	for _, ent := range entities {
		if ent.Start < lastEnd {
			continue
		}
		kept = append(kept, ent)
		lastEnd = ent.End
	}
	return kept
}
