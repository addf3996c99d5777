// Package biomarkers recovers structured lab readings from model output
// and classifies referrals from abnormal values.
package biomarkers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/JaimeStill/caduceus/internal/sessions"
	"github.com/JaimeStill/caduceus/pkg/formatting"
)

var (
	fenceMarker = regexp.MustCompile("(?i)```(?:json)?\\s*")

	trailingSeparator  = regexp.MustCompile(`,\s*([}\]])`)
	stackedSeparator   = regexp.MustCompile(`,+([}\]])`)
	aggressiveStripper = regexp.MustCompile(`,+(\s*[}\]])`)
)

// Extract recovers a biomarker set from raw model output. Models return
// valid JSON, fenced JSON, chatty prose around JSON, and truncated or
// comma-damaged payloads; every shape is either repaired or degraded to
// an empty set. Extract never returns an error.
func Extract(logger *slog.Logger, response string) map[string]sessions.Biomarker {
	if data, err := formatting.Parse[map[string]any](response); err == nil {
		return mapEntries(data)
	}

	payload, ok := locatePayload(response)
	if !ok {
		logger.Warn("no json payload found in model response", "preview", preview(response, 200))
		return map[string]sessions.Biomarker{}
	}

	payload = strings.TrimSpace(payload)
	payload = trailingSeparator.ReplaceAllString(payload, "$1")
	payload = stackedSeparator.ReplaceAllString(payload, "$1")
	payload = balanceBraces(payload)

	data, err := decode(payload)
	if err != nil {
		payload = aggressiveStripper.ReplaceAllString(payload, "$1")
		data, err = decode(payload)
	}
	if err != nil {
		data, err = repairDangling(payload, err)
	}
	if err != nil {
		logger.Warn("biomarker payload unrecoverable", "error", err, "preview", preview(payload, 200))
		return map[string]sessions.Biomarker{}
	}

	return mapEntries(data)
}

// locatePayload finds the JSON object within the response: the first
// brace after a code fence marker when one exists, otherwise the first
// brace anywhere. The object boundary is found by a string- and
// escape-aware brace scan; a truncated object yields the remainder of
// the response.
func locatePayload(response string) (string, bool) {
	start := 0
	if loc := fenceMarker.FindStringIndex(response); loc != nil {
		start = loc[1]
	}

	offset := strings.Index(response[start:], "{")
	if offset < 0 {
		return "", false
	}
	start += offset

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(response); i++ {
		c := response[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return response[start : i+1], true
			}
		}
	}

	// truncated object: take the remainder and let the repairs close it
	if depth > 0 {
		return response[start:], true
	}
	return "", false
}

// repairDangling handles payloads cut off inside a string value: first
// close the string before the next brace, and failing that drop the
// dangling entry at the last separator and re-balance.
func repairDangling(payload string, cause error) (map[string]any, error) {
	pos := len(payload)
	var syntaxErr *json.SyntaxError
	if errors.As(cause, &syntaxErr) && int(syntaxErr.Offset) <= len(payload) {
		pos = int(syntaxErr.Offset)
	}

	lastQuote := strings.LastIndex(payload[:pos], `"`)
	if lastQuote <= 0 || payload[lastQuote-1] == '\\' {
		return nil, cause
	}

	if nextBrace := strings.Index(payload[pos:], "}"); nextBrace >= 0 {
		closed := payload[:pos+nextBrace] + `"` + payload[pos+nextBrace:]
		if data, err := decode(closed); err == nil {
			return data, nil
		}
	}

	lastComma := strings.LastIndex(payload[:lastQuote], ",")
	if lastComma < 0 {
		return nil, cause
	}

	trimmed := balanceBraces(payload[:lastComma] + "}")
	if data, err := decode(trimmed); err == nil {
		return data, nil
	}

	return nil, cause
}

func decode(payload string) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, err
	}
	return data, nil
}

func balanceBraces(payload string) string {
	open := strings.Count(payload, "{")
	closed := strings.Count(payload, "}")
	if open > closed {
		payload += strings.Repeat("}", open-closed)
	}
	return payload
}

// mapEntries converts decoded payload entries into biomarker records.
// Both field-name casings are accepted; non-object entries are skipped.
func mapEntries(data map[string]any) map[string]sessions.Biomarker {
	biomarkers := make(map[string]sessions.Biomarker, len(data))

	for key, raw := range data {
		fields, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		value, unit := ParseValue(stringField(fields, "Value", "value"))
		if unit == "" {
			unit = stringField(fields, "unit", "Unit")
		}

		rangeMin, rangeMax := ParseRange(stringField(fields, "Normal_range", "normal_range"))

		status := strings.ToLower(stringField(fields, "Status", "status"))
		if status == "" {
			status = string(sessions.StatusNormal)
		}

		name := stringField(fields, "Name", "name")
		if name == "" {
			name = key
		}

		biomarkers[key] = sessions.Biomarker{
			Name:           name,
			Value:          value,
			Unit:           unit,
			NormalRangeMin: rangeMin,
			NormalRangeMax: rangeMax,
			Status:         sessions.Status(status),
			Interpretation: stringField(fields, "Interpretation", "interpretation"),
		}
	}

	return biomarkers
}

func stringField(fields map[string]any, names ...string) string {
	for _, name := range names {
		if v, ok := fields[name].(string); ok {
			return v
		}
	}
	return ""
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
