package triage

import (
	"strings"
	"unicode"
)

const (
	// preprocessThreshold is the report length above which biomarker-line
	// filtering kicks in.
	preprocessThreshold = 2000
	// maxPromptChars caps the filtered text sent to the model, leaving
	// token headroom for the response.
	maxPromptChars = 7000
)

var sectionKeywords = []string{
	"ANALYTES", "RESULTS", "TEST", "BIOMARKER", "LAB",
	"SODIUM", "POTASSIUM", "GLUCOSE", "HEMOGLOBIN", "RBC",
	"CREATININE", "CHOLESTEROL", "ALT", "AST", "HBA1C",
	"COMPLETE BLOOD COUNT", "BIOCHEMISTRY", "CHEMISTRY",
	"HEMATOLOGY", "CBC", "LIPID", "LIVER", "KIDNEY", "THYROID",
}

var unitMarkers = []string{
	"mmol/L", "g/dL", "U/L", "%", "mg/L",
	"/cmm", "/hpf", "fL", "pg", "ng/mL", "mIU/L",
}

// preprocessReport reduces a long report to the lines likely to hold
// biomarker data. Short reports pass through untouched; long ones are
// filtered to section and measurement lines and capped at maxPromptChars.
func preprocessReport(text string) string {
	if len(text) <= preprocessThreshold {
		return text
	}

	var relevant []string
	inSection := false

	for _, line := range strings.Split(text, "\n") {
		upper := strings.ToUpper(line)
		for _, keyword := range sectionKeywords {
			if strings.Contains(upper, keyword) {
				inSection = true
				break
			}
		}

		if !inSection && !containsDigit(line) {
			continue
		}

		switch {
		case containsUnit(line):
			relevant = append(relevant, line)
		case strings.TrimSpace(line) != "" && !strings.HasPrefix(strings.TrimSpace(line), "#"):
			// tabular lines without explicit units still carry data
			if strings.ContainsAny(line, "|\t") || containsDigit(line) {
				relevant = append(relevant, line)
			}
		}
	}

	if len(relevant) == 0 {
		return text
	}

	processed := strings.Join(relevant, "\n")
	if len(processed) > maxPromptChars {
		processed = processed[:maxPromptChars]
	}
	return processed
}

func containsDigit(s string) bool {
	return strings.ContainsFunc(s, unicode.IsDigit)
}

func containsUnit(s string) bool {
	for _, unit := range unitMarkers {
		if strings.Contains(s, unit) {
			return true
		}
	}
	return false
}
