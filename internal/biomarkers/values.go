package biomarkers

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	leadingOperators = regexp.MustCompile(`^[<>=]+`)
	numberPattern    = regexp.MustCompile(`[\d.]+(?:[eE][+-]?\d+)?`)
	rangePattern     = regexp.MustCompile(`([\d.]+)\s*-\s*([\d.]+)`)
	boundPattern     = regexp.MustCompile(`([<>=]+)?\s*([\d.]+)`)
)

// ParseValue splits a reported reading like "141 mmol/L" or "< 41 U/L"
// into magnitude and trailing unit. Leading comparison operators are
// stripped before the number is located. When no number is present the
// magnitude is 0.0 and the raw string is preserved as the unit.
func ParseValue(raw string) (float64, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0.0, ""
	}

	stripped := leadingOperators.ReplaceAllString(raw, "")

	loc := numberPattern.FindStringIndex(stripped)
	if loc != nil {
		if value, err := strconv.ParseFloat(stripped[loc[0]:loc[1]], 64); err == nil {
			unit := strings.TrimSpace(stripped[loc[1]:])
			return value, unit
		}
	}

	return 0.0, stripped
}

// ParseRange parses a reference range into optional bounds:
// "135-145 mmol/L" gives (135, 145), "< 41 U/L" gives (nil, 41),
// "> 7.0" gives (7, nil), a bare number gives (x, x), anything
// unparseable gives (nil, nil). A nil bound means no bound, never zero.
func ParseRange(raw string) (*float64, *float64) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if m := rangePattern.FindStringSubmatch(raw); m != nil {
		minVal, minErr := strconv.ParseFloat(m[1], 64)
		maxVal, maxErr := strconv.ParseFloat(m[2], 64)
		if minErr == nil && maxErr == nil {
			return &minVal, &maxVal
		}
	}

	if m := boundPattern.FindStringSubmatch(raw); m != nil {
		if value, err := strconv.ParseFloat(m[2], 64); err == nil {
			switch m[1] {
			case "<":
				return nil, &value
			case ">":
				return &value, nil
			default:
				return &value, &value
			}
		}
	}

	return nil, nil
}
