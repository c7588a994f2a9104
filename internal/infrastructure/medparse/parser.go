// Package medparse extracts structured findings from the plain text of a
// medical report. Two report families are supported: laboratory reports
// with numeric test rows, and radiology reports with descriptive findings.
package medparse

import (
	"strings"

	"github.com/medreport/companion/internal/core/domain"
	"github.com/medreport/companion/internal/core/ports"
)

type Parser struct{}

var _ ports.ReportParser = (*Parser)(nil)

func NewParser() *Parser {
	return &Parser{}
}

// DetectType scores keyword hits for each report family and picks the
// winner. A tie means the text gave no usable signal.
func (p *Parser) DetectType(text string) domain.ReportType {
	lower := strings.ToLower(text)

	radiologyScore := 0
	for _, kw := range radiologyKeywords {
		if strings.Contains(lower, kw) {
			radiologyScore++
		}
	}
	labScore := 0
	for _, kw := range labKeywords {
		if strings.Contains(lower, kw) {
			labScore++
		}
	}

	switch {
	case radiologyScore > labScore:
		return domain.ReportRadiology
	case labScore > radiologyScore:
		return domain.ReportLaboratory
	default:
		return domain.ReportUnknown
	}
}

func (p *Parser) Parse(text string, kind domain.ReportType) []domain.Finding {
	switch kind {
	case domain.ReportLaboratory:
		return parseLabs(text)
	case domain.ReportRadiology:
		return parseRadiology(text)
	default:
		return append(parseLabs(text), parseRadiology(text)...)
	}
}

func parseLabs(text string) []domain.Finding {
	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	var findings []domain.Finding

	testIdx := tablePattern.SubexpIndex("test")
	valIdx := tablePattern.SubexpIndex("val")
	unitIdx := tablePattern.SubexpIndex("unit")

	for _, m := range tablePattern.FindAllStringSubmatch(lower, -1) {
		test := m[testIdx]
		if seen[test] {
			continue
		}
		seen[test] = true
		findings = append(findings, domain.Finding{
			Type:    domain.FindingLabValue,
			Name:    test,
			Value:   m[valIdx],
			Unit:    m[unitIdx],
			Snippet: strings.TrimSpace(m[0]),
		})
	}

	for _, lp := range specificLabPatterns {
		if seen[lp.test] {
			continue
		}
		m := lp.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		seen[lp.test] = true
		findings = append(findings, domain.Finding{
			Type:    domain.FindingLabValue,
			Name:    lp.test,
			Value:   m[1],
			Unit:    m[2],
			Snippet: strings.TrimSpace(m[0]),
		})
	}

	return findings
}

func parseRadiology(text string) []domain.Finding {
	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	var findings []domain.Finding

	for _, rp := range radiologyPatterns {
		for _, loc := range rp.trigger.FindAllStringIndex(lower, -1) {
			// Extraction runs over a window around the trigger so the
			// descriptive pattern can pick up surrounding context.
			start := loc[0] - 100
			if start < 0 {
				start = 0
			}
			end := loc[1] + 100
			if end > len(lower) {
				end = len(lower)
			}
			snippet := lower[start:end]

			m := rp.extract.FindStringSubmatch(snippet)
			if m == nil {
				continue
			}

			name := group(rp.extract, m, "finding")
			if name == "" {
				name = lower[loc[0]:loc[1]]
			}
			key := strings.ToLower(strings.TrimSpace(name))
			if seen[key] {
				continue
			}
			seen[key] = true

			findings = append(findings, domain.Finding{
				Type:       domain.FindingRadiology,
				Name:       name,
				Descriptor: group(rp.extract, m, "descriptor"),
				Snippet:    strings.TrimSpace(snippet),
			})
		}
	}

	findings = append(findings, parseObservations(text, seen)...)
	return findings
}

// parseObservations scans the free-text observations section for
// sentences that describe a result but matched none of the structured
// patterns. The section window is cut from the original text so an
// uppercase follow-on header terminates it.
func parseObservations(text string, seen map[string]bool) []domain.Finding {
	m := observationsSection.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	var findings []domain.Finding
	for _, sent := range sentenceSplit.Split(strings.ToLower(m[1]), -1) {
		sent = strings.TrimSpace(sent)
		if len(sent) <= 10 {
			continue
		}
		relevant := false
		for _, kw := range observationKeywords {
			if strings.Contains(sent, kw) {
				relevant = true
				break
			}
		}
		if !relevant {
			continue
		}
		key := strings.ToLower(sent)
		if seen[key] {
			continue
		}
		seen[key] = true
		findings = append(findings, domain.Finding{
			Type:    domain.FindingClinicalObservation,
			Name:    sent,
			Snippet: sent,
		})
	}
	return findings
}

// CleanFindingName normalizes a raw finding into a display name.
func CleanFindingName(finding string) string {
	finding = whitespaceRun.ReplaceAllString(strings.TrimSpace(finding), " ")
	lower := strings.ToLower(finding)

	switch {
	case strings.Contains(lower, "menisci"):
		return "Menisci"
	case strings.Contains(lower, "cruciate ligament"):
		return "Cruciate Ligaments"
	case strings.Contains(lower, "collateral ligament"):
		return "Collateral Ligaments"
	case strings.Contains(lower, "joint space"):
		return "Joint Space"
	case strings.Contains(lower, "osteochondral"):
		return "Osteochondral Changes"
	case strings.Contains(lower, "chondromalacia"):
		return "Chondromalacia Patella"
	case finding == "":
		return "Unknown Finding"
	default:
		return titleCase(finding)
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func group(re interface{ SubexpIndex(string) int }, match []string, name string) string {
	idx := re.SubexpIndex(name)
	if idx < 0 || idx >= len(match) {
		return ""
	}
	return match[idx]
}
