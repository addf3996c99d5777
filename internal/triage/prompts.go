package triage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JaimeStill/caduceus/internal/sessions"
)

const interpretInstructions = `You are a medical lab interpreter. Extract biomarkers from lab reports.

Lab reports may be in various formats:
- Tables with columns: Test Name, Result, Unit, Reference Range
- Lists with biomarker names and values
- Mixed formats with headers and data

For each biomarker found, extract:
1. Name (e.g., "Glucose", "Cholesterol", "Hemoglobin", "RBC Count")
2. Value and unit (e.g., "141 mmol/L", "14.5 g/dL", "4.79 million/cmm")
3. Normal range (e.g., "135-145 mmol/L", "< 41 U/L", "13.0 - 16.5")
4. Status: Compare value to normal range and set to "normal", "high", "low", or "critical"
5. Brief interpretation

Important:
- Extract ALL biomarkers you find in the report
- Handle different units (mmol/L, g/dL, %, U/L, etc.)
- Handle different range formats (135-145, < 41, >= 7.0, etc.)
- If a value is within range, status is "normal"
- If value is above range, status is "high"
- If value is below range, status is "low"
- If value is critically outside range, status is "critical"

Return ONLY a valid JSON object with biomarkers as keys. Each biomarker should have:
- "Name": string
- "Value": string with number and unit (e.g., "141 mmol/L")
- "Normal_range": string (e.g., "135-145 mmol/L")
- "Status": "normal", "high", "low", or "critical"
- "Interpretation": string

Example format:
{
  "Sodium": {
    "Name": "Sodium",
    "Value": "141 mmol/L",
    "Normal_range": "135-145 mmol/L",
    "Status": "normal",
    "Interpretation": "Sodium level is within the normal range."
  }
}

Return ONLY the JSON, no additional text, no markdown code blocks, no explanations.`

const chatInstructions = `You are a knowledgeable and empathetic medical assistant helping a patient understand their lab results. Your goal is to provide clear, accurate, and reassuring information.

GUIDELINES:
1. Be Clear and Simple: Explain medical terms in plain language that anyone can understand
2. Be Specific: Reference the actual values from their lab results when answering
3. Be Reassuring: For normal values, acknowledge that's good news. For abnormal values, explain what it means without causing unnecessary alarm
4. Be Educational: Help them understand what each biomarker means and why it matters
5. Be Actionable: Suggest appropriate next steps (e.g., "discuss with your doctor", "monitor over time", "consider lifestyle changes")

Start with a direct answer to the question, keep the response structured and easy to read, and do not interrupt the response with disclaimers or follow-up questions.`

const disclaimer = `MEDICAL DISCLAIMER

This interpretation is for informational purposes only and does not constitute medical advice.
The results provided are based on automated analysis and should be reviewed by a licensed healthcare provider.

1. This tool is not a substitute for professional medical diagnosis or treatment.
2. Always consult with a qualified healthcare provider for medical decisions.
3. In case of emergency, contact emergency services immediately.
4. Lab values may vary based on individual circumstances and testing methods.

Generated by Caduceus Agentic Triage - For Informational Purposes Only.`

func buildInterpretPrompt(labText string) string {
	return fmt.Sprintf(
		"%s\n\nInterpret this lab report and extract all biomarkers:\n\n%s",
		interpretInstructions, labText,
	)
}

func buildChatPrompt(session *sessions.Session, question string) string {
	context := biomarkerContext(session.Biomarkers)
	if context == "" {
		context = "No biomarkers available yet."
	}

	return fmt.Sprintf(
		"%s\n\nCONTEXT - Patient's Lab Results:\n%s\n\nQuestion: %s",
		chatInstructions, context, question,
	)
}

func biomarkerContext(biomarkers map[string]sessions.Biomarker) string {
	if len(biomarkers) == 0 {
		return ""
	}

	keys := make([]string, 0, len(biomarkers))
	for key := range biomarkers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		b := biomarkers[key]
		lines = append(lines, fmt.Sprintf(
			"- %s: %g %s (Normal: %s-%s %s, Status: %s)",
			key, b.Value, b.Unit,
			formatBound(b.NormalRangeMin), formatBound(b.NormalRangeMax),
			b.Unit, b.Status,
		))
	}

	return strings.Join(lines, "\n")
}

func formatBound(bound *float64) string {
	if bound == nil {
		return "N/A"
	}
	return fmt.Sprintf("%g", *bound)
}
