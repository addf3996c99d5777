package fhir

import "strings"

// defaultLoinc is the generic laboratory studies code used when no
// specific mapping exists.
const defaultLoinc = "33747-0"

var loincTable = []struct {
	keyword string
	code    string
}{
	{"glucose", "2339-0"},
	{"cholesterol", "2093-3"},
	{"hdl", "2085-9"},
	{"ldl", "2089-1"},
	{"triglycerides", "2571-8"},
	{"creatinine", "2160-0"},
	{"hemoglobin", "718-7"},
	{"tsh", "3016-3"},
}

// LoincCode maps a biomarker name to its LOINC code by case-insensitive
// keyword match, falling back to the generic laboratory code.
func LoincCode(name string) string {
	lower := strings.ToLower(name)
	for _, entry := range loincTable {
		if strings.Contains(lower, entry.keyword) {
			return entry.code
		}
	}
	return defaultLoinc
}
