package medparse

import (
	"fmt"
	"strings"

	"github.com/medreport/companion/internal/core/domain"
)

var normalIndicators = []string{"normal", "intact", "no evidence"}

// IsNormalFinding reports whether a radiology finding reads as a healthy
// result. Drives the tone of the explanation prompt.
func IsNormalFinding(f domain.Finding) bool {
	combined := strings.ToLower(f.Name + " " + f.Descriptor)
	for _, ind := range normalIndicators {
		if strings.Contains(combined, ind) {
			return true
		}
	}
	return false
}

// ExplainPrompt builds the model prompt for a single finding.
func ExplainPrompt(f domain.Finding, kbContext string) string {
	cleanName := CleanFindingName(f.Name)

	if f.Type == domain.FindingLabValue {
		return fmt.Sprintf(`You are a medical assistant. Explain this lab result briefly and clearly.

Lab: %s
Value: %s %s
Medical Info: %s

Provide ONLY a 1-2 sentence explanation in simple terms. Be direct and clear.`,
			cleanName, f.Value, f.Unit, kbContext)
	}

	if IsNormalFinding(f) {
		return fmt.Sprintf(`You are a medical assistant. This is a NORMAL finding.

Finding: %s - %s
Medical Info: %s

Provide ONLY a 1-2 sentence explanation confirming this is normal/healthy. Be reassuring and direct.`,
			cleanName, f.Descriptor, kbContext)
	}

	return fmt.Sprintf(`You are a medical assistant. This finding needs attention.

Finding: %s - %s
Medical Info: %s

Provide ONLY a 1-2 sentence explanation of what this means. Be clear but not alarming.`,
		cleanName, f.Descriptor, kbContext)
}

var labFallbacks = map[string]string{
	"hemoglobin":        "Hemoglobin level of %s %s. This protein in red blood cells carries oxygen throughout your body. Normal ranges vary by gender and age.",
	"hba1c":             "HbA1c level of %s%s. This test shows your average blood sugar over 2-3 months. Values under 5.7%% are normal, 5.7-6.4%% indicate prediabetes, and 6.5%% or higher suggests diabetes.",
	"total cholesterol": "Total cholesterol of %s %s. This includes all types of cholesterol in your blood. Levels under 200 mg/dL are desirable.",
	"hdl cholesterol":   "HDL (good) cholesterol of %s %s. Higher levels are better for heart health. Aim for 40+ mg/dL (men) or 50+ mg/dL (women).",
	"ldl cholesterol":   "LDL (bad) cholesterol of %s %s. Lower levels reduce heart disease risk. Generally aim for under 100 mg/dL.",
	"triglycerides":     "Triglyceride level of %s %s. These are blood fats that can affect heart health. Normal is under 150 mg/dL.",
	"creatinine":        "Creatinine level of %s %s. This waste product indicates kidney function. Normal ranges vary but are typically 0.6-1.2 mg/dL.",
	"tsh":               "TSH level of %s %s. This hormone regulates thyroid function. Normal range is typically 0.4-4.0 mIU/L.",
	"vitamin d":         "Vitamin D level of %s %s. This vitamin is important for bone health. Levels above 20 ng/mL are generally adequate.",
	"vitamin b12":       "Vitamin B12 level of %s %s. This vitamin is essential for nerve function and blood formation. Low levels can cause fatigue and neurological symptoms.",
}

var normalFallbacks = map[string]string{
	"menisci":              "The menisci (cartilage cushions) in your joint appear normal and intact, which is good news for joint stability.",
	"cruciate ligaments":   "The cruciate ligaments that provide knee stability appear normal with no tears or damage.",
	"collateral ligaments": "The collateral ligaments that provide side-to-side knee stability appear normal.",
	"joint space":          "The joint space appears normal, indicating healthy cartilage thickness and no significant arthritis.",
	"osteochondral":        "No osteochondral changes were detected, suggesting healthy joint surfaces without early arthritis signs.",
}

var concerningFallbacks = map[string]string{
	"osteochondral changes":      "Osteochondral changes may indicate early arthritis or cartilage damage in the joint area.",
	"chondromalacia":             "Chondromalacia refers to softening of cartilage, often behind the kneecap, which can cause pain and stiffness.",
	"joint effusion":             "Joint effusion means fluid has accumulated in the joint space, often due to injury, inflammation, or infection.",
	"subchondral cystic changes": "Subchondral cystic changes can indicate joint degeneration, appearing as fluid-filled spaces in bone under cartilage.",
	"disc herniation":            "Disc herniation occurs when spinal disc material moves out of its normal position, potentially causing pain or nerve compression.",
}

var concerningIndicators = []string{"changes", "effusion", "cystic", "herniation", "tear"}

// FallbackExplanation produces a canned explanation used when the model
// is unavailable.
func FallbackExplanation(f domain.Finding, kbContext string) string {
	if f.Type == domain.FindingLabValue {
		if tmpl, ok := labFallbacks[strings.ToLower(f.Name)]; ok {
			return fmt.Sprintf(tmpl, f.Value, f.Unit)
		}
		if kbContext != "" {
			return fmt.Sprintf("Lab test result: %s %s. %s", f.Value, f.Unit, kbContext)
		}
		return fmt.Sprintf("Lab value of %s %s detected. This test measures specific substances in your blood to assess organ function and overall health.", f.Value, f.Unit)
	}

	cleanName := CleanFindingName(f.Name)
	lowerName := strings.ToLower(cleanName)
	combined := strings.ToLower(f.Name + " " + f.Descriptor)

	isNormal := IsNormalFinding(f) || strings.Contains(combined, "unremarkable")
	isConcerning := false
	for _, ind := range concerningIndicators {
		if strings.Contains(combined, ind) {
			isConcerning = true
			break
		}
	}

	switch {
	case isNormal:
		for key, text := range normalFallbacks {
			if strings.Contains(lowerName, key) {
				return text
			}
		}
		return fmt.Sprintf("The %s appears normal, which is a positive finding indicating healthy structures.", cleanName)
	case isConcerning:
		for key, text := range concerningFallbacks {
			if strings.Contains(lowerName, key) {
				return text
			}
		}
		return fmt.Sprintf("Changes noted in %s. This finding may require follow-up with your healthcare provider.", cleanName)
	default:
		if kbContext != "" {
			return fmt.Sprintf("Finding: %s. %s", cleanName, kbContext)
		}
		return fmt.Sprintf("Finding: %s. This finding was identified during radiological examination and may provide important information about your health status.", cleanName)
	}
}
