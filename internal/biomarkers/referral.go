package biomarkers

import (
	"sort"
	"strings"

	"github.com/JaimeStill/caduceus/internal/sessions"
)

// DefaultSpecialist is the referral when no table entry matches an
// abnormal biomarker.
const (
	DefaultSpecialist = "Primary Care Physician"
	DefaultCondition  = "Abnormal Lab Values"
)

type referral struct {
	keyword    string
	specialist string
	condition  string
}

// referralTable is evaluated in order; the first matching entry for an
// abnormal biomarker wins.
var referralTable = []referral{
	{"glucose", "Endocrinologist", "Diabetes/Glucose Management"},
	{"cholesterol", "Cardiologist", "High Cholesterol"},
	{"creatinine", "Nephrologist", "Kidney Function"},
	{"hemoglobin", "Hematologist", "Blood Disorders"},
	{"tsh", "Endocrinologist", "Thyroid Function"},
	{"alt", "Hepatologist", "Liver Function"},
	{"ast", "Hepatologist", "Liver Function"},
}

// Abnormal reports whether a status is outside the normal range.
func Abnormal(status sessions.Status) bool {
	switch status {
	case sessions.StatusHigh, sessions.StatusLow, sessions.StatusCritical:
		return true
	default:
		return false
	}
}

// AnyAbnormal reports whether any biomarker in the set is abnormal.
func AnyAbnormal(biomarkers map[string]sessions.Biomarker) bool {
	for _, b := range biomarkers {
		if Abnormal(b.Status) {
			return true
		}
	}
	return false
}

// Classify determines the specialist referral for a biomarker set.
// Biomarkers are scanned in sorted-key order so the result is
// deterministic; the first abnormal entry whose name contains a table
// keyword (case-insensitive) decides the referral. When no abnormal
// biomarker matches, the default primary-care referral is returned.
func Classify(biomarkers map[string]sessions.Biomarker) (specialist, condition string) {
	keys := make([]string, 0, len(biomarkers))
	for key := range biomarkers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !Abnormal(biomarkers[key].Status) {
			continue
		}

		lower := strings.ToLower(key)
		for _, r := range referralTable {
			if strings.Contains(lower, r.keyword) {
				return r.specialist, r.condition
			}
		}
	}

	return DefaultSpecialist, DefaultCondition
}
