// File path: internal/weld/compare.go
package weld

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	reasonExactMatch  = "Values match exactly"
	reasonCompatible  = "Values are compatible"
	reasonMismatch    = "Values do not match"
	reasonNoData      = "No data available for comparison"
	reasonSectionGone = "Section missing in document"
)

// ParameterResult records the outcome of comparing one weighted field.
type ParameterResult struct {
	Name       string      `json:"name"`
	WPSValue   interface{} `json:"wps_value"`
	PQRValue   interface{} `json:"pqr_value"`
	Compliance bool        `json:"compliance"`
	Reason     string      `json:"reason"`
}

// SectionResult aggregates the parameter outcomes for one catalog section.
type SectionResult struct {
	Name       string            `json:"name"`
	Compliance bool              `json:"compliance"`
	Score      int               `json:"score"`
	Issues     []string          `json:"issues,omitempty"`
	Parameters []ParameterResult `json:"parameters"`
}

// DocumentInfo carries the identifying header fields of the compared pair.
type DocumentInfo struct {
	WPSNumber string `json:"wps_number"`
	PQRNumber string `json:"pqr_number"`
	WPSDate   string `json:"wps_date"`
	PQRDate   string `json:"pqr_date"`
	Company   string `json:"company"`
}

// Report is the complete comparison outcome, shaped for direct JSON
// serialization. It references values from both documents but neither
// aliases nor mutates them.
type Report struct {
	OverallCompliance bool                      `json:"overall_compliance"`
	OverallScore      int                       `json:"overall_score"`
	DocumentInfo      DocumentInfo              `json:"document_info"`
	Sections          map[string]*SectionResult `json:"sections"`
	CriticalIssues    []string                  `json:"critical_issues"`
}

// Compare evaluates a WPS document against a PQR document using the weighted
// section catalog. It is read-only with respect to its inputs and always
// returns a complete report; data problems surface as per-parameter reasons
// and scores, never as errors.
func Compare(wps, pqr Document, catalog []SectionSpec) *Report {
	report := &Report{
		OverallCompliance: true,
		OverallScore:      100,
		DocumentInfo:      buildDocumentInfo(wps, pqr),
		Sections:          make(map[string]*SectionResult, len(catalog)),
		CriticalIssues:    []string{},
	}

	totalWeightedScore := 0
	totalWeight := 0

	for _, section := range catalog {
		totalWeight += section.Weight
		result := &SectionResult{
			Name:       section.Name,
			Compliance: true,
			Score:      100,
			Parameters: []ParameterResult{},
		}
		report.Sections[section.ID] = result

		wpsSection := sectionMapping(wps, section.ID)
		pqrSection := sectionMapping(pqr, section.ID)

		// Absent and present-but-empty sections are equally terminal.
		if len(wpsSection) == 0 || len(pqrSection) == 0 {
			result.Compliance = false
			result.Score = 0
			result.Issues = []string{reasonSectionGone}
			report.OverallCompliance = false
			continue
		}

		if section.SpecialHandling {
			// Shape varies too much for field-by-field comparison; both
			// documents carrying the section at all is the check.
			result.Parameters = append(result.Parameters, ParameterResult{
				Name:       section.Name,
				WPSValue:   "Present",
				PQRValue:   "Present",
				Compliance: true,
				Reason:     "Both documents carry this section",
			})
			totalWeightedScore += result.Score * section.Weight
			continue
		}

		achievedWeight := 0
		parameterWeight := 0
		for _, param := range section.Parameters {
			parameterWeight += param.Weight
			outcome := compareParameter(wpsSection, pqrSection, param)
			if outcome.Compliance {
				achievedWeight += param.Weight
			} else {
				result.Compliance = false
			}
			result.Parameters = append(result.Parameters, outcome)
		}

		if parameterWeight > 0 {
			result.Score = roundHalfUp(float64(achievedWeight) / float64(parameterWeight) * 100)
		}
		if !result.Compliance {
			report.OverallCompliance = false
		}
		totalWeightedScore += result.Score * section.Weight
	}

	if totalWeight > 0 {
		report.OverallScore = roundHalfUp(float64(totalWeightedScore) / float64(totalWeight))
	}
	return report
}

func compareParameter(wpsSection, pqrSection map[string]interface{}, param ParameterSpec) ParameterResult {
	pqrField := param.PQRField
	if pqrField == "" {
		pqrField = param.ID
	}
	wpsValue := wpsSection[param.ID]
	pqrValue := pqrSection[pqrField]

	result := ParameterResult{
		Name:     param.Name,
		WPSValue: wpsValue,
		PQRValue: pqrValue,
	}

	wpsEmpty := isEmptyValue(wpsValue)
	pqrEmpty := isEmptyValue(pqrValue)
	switch {
	case wpsEmpty && pqrEmpty:
		// Deliberate policy: unknown on both sides is not penalized, the
		// parameter keeps its full weight.
		result.Compliance = true
		result.Reason = reasonNoData
	case wpsEmpty:
		result.Reason = "WPS value is missing"
	case pqrEmpty:
		result.Reason = "PQR value is missing"
	default:
		wpsText := normalizeComparisonText(wpsValue)
		pqrText := normalizeComparisonText(pqrValue)
		switch {
		case wpsText == pqrText:
			result.Compliance = true
			result.Reason = reasonExactMatch
		case Compatible(wpsValue, pqrValue, param.ID):
			result.Compliance = true
			result.Reason = reasonCompatible
		default:
			result.Reason = reasonMismatch
		}
	}
	return result
}

// Compatible decides whether an observed PQR value satisfies a WPS
// specification value for the given field. It is total: unparseable input
// yields false, never an error.
func Compatible(specValue, observedValue interface{}, fieldID string) bool {
	specText := normalizeComparisonText(specValue)
	observedText := normalizeComparisonText(observedValue)
	if specText == observedText {
		return true
	}
	if _, ranged := rangeFields[fieldID]; ranged {
		if min, max, ok := extractRange(specText); ok {
			if observed, ok := extractNumber(observedText); ok {
				return observed >= min && observed <= max
			}
		}
	}
	if fieldID == "position" {
		return positionsSubset(specText, observedText)
	}
	return strings.Contains(specText, observedText) || strings.Contains(observedText, specText)
}

// positionsSubset reports whether every observed position token matches at
// least one allowed position token by substring.
func positionsSubset(specText, observedText string) bool {
	allowed := splitPositions(specText)
	observed := splitPositions(observedText)
	for _, token := range observed {
		matched := false
		for _, spec := range allowed {
			if strings.Contains(spec, token) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func splitPositions(text string) []string {
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

var (
	dashRangePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)`)
	toRangePattern   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*to\s*(\d+(?:\.\d+)?)`)
	numberPattern    = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// extractRange parses "100-150", "100 to 150", or a bare number (treated as a
// zero-width range) out of surrounding text.
func extractRange(text string) (min, max float64, ok bool) {
	if match := dashRangePattern.FindStringSubmatch(text); match != nil {
		min, errMin := strconv.ParseFloat(match[1], 64)
		max, errMax := strconv.ParseFloat(match[2], 64)
		if errMin == nil && errMax == nil {
			return min, max, true
		}
	}
	if match := toRangePattern.FindStringSubmatch(text); match != nil {
		min, errMin := strconv.ParseFloat(match[1], 64)
		max, errMax := strconv.ParseFloat(match[2], 64)
		if errMin == nil && errMax == nil {
			return min, max, true
		}
	}
	if value, ok := extractNumber(text); ok {
		return value, value, true
	}
	return 0, 0, false
}

// extractNumber pulls the first numeric token out of text, forgiving units
// and qualifiers around it ("approximately 120A" yields 120).
func extractNumber(text string) (float64, bool) {
	match := numberPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func normalizeComparisonText(value interface{}) string {
	return strings.ToLower(strings.TrimSpace(stringifyValue(value)))
}

// roundHalfUp rounds to the nearest integer with ties away from zero, the
// documented scoring rule.
func roundHalfUp(value float64) int {
	return int(math.Floor(value + 0.5))
}

func sectionMapping(doc Document, id string) map[string]interface{} {
	if doc == nil {
		return map[string]interface{}{}
	}
	value, ok := doc[id]
	if !ok {
		return map[string]interface{}{}
	}
	if mapping, ok := asMapping(value); ok {
		return mapping
	}
	return map[string]interface{}{}
}

func buildDocumentInfo(wps, pqr Document) DocumentInfo {
	wpsInfo := sectionMapping(wps, "document_info")
	pqrInfo := sectionMapping(pqr, "document_info")
	company := stringifyValue(wpsInfo["company"])
	if company == "" {
		company = stringifyValue(pqrInfo["company"])
	}
	return DocumentInfo{
		WPSNumber: stringifyValue(wpsInfo["wps_number"]),
		PQRNumber: stringifyValue(pqrInfo["pqr_number"]),
		WPSDate:   stringifyValue(wpsInfo["date"]),
		PQRDate:   stringifyValue(pqrInfo["date"]),
		Company:   company,
	}
}
