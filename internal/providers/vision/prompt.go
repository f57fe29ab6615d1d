package vision

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/zishinew/Hearth-AI/internal/domain"
)

// auditPayload is the JSON shape the vision models are asked to return.
// Numeric extraction is the model's responsibility: accessibility_score
// arrives as an integer and cost_estimate as an opaque range string, so
// nothing downstream parses dollar amounts out of free text.
type auditPayload struct {
	BarrierDescription string `json:"barrier_description"`
	RecommendedFix     string `json:"recommended_fix"`
	CostEstimate       string `json:"cost_estimate"`
	ComplianceNotes    string `json:"compliance_notes"`
	AccessibilityScore int    `json:"accessibility_score"`
	GenerationPrompt   string `json:"generation_prompt"`
	MaskPrompt         string `json:"mask_prompt"`
}

func (p auditPayload) toDomain() domain.AuditData {
	score := p.AccessibilityScore
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return domain.AuditData{
		BarrierDescription: strings.TrimSpace(p.BarrierDescription),
		RecommendedFix:     strings.TrimSpace(p.RecommendedFix),
		CostEstimate:       strings.TrimSpace(p.CostEstimate),
		ComplianceNotes:    strings.TrimSpace(p.ComplianceNotes),
		AccessibilityScore: score,
		GenerationPrompt:   strings.TrimSpace(p.GenerationPrompt),
		MaskPrompt:         strings.TrimSpace(p.MaskPrompt),
	}
}

func buildAuditPrompt(wheelchairAccessible bool) string {
	sb := &strings.Builder{}
	sb.WriteString("You are an expert accessibility architect (AODA compliant). Analyze this real estate photo. ")
	sb.WriteString("First assess whether the room actually has accessibility barriers. If it does, identify the single most critical one (stairs, narrow doorway, high tub, raised threshold). ")
	if wheelchairAccessible {
		sb.WriteString("The buyer uses a wheelchair: every recommended fix must keep the space fully wheelchair-accessible, prioritizing ramps, widened doorways, and roll-in fixtures. ")
	}
	sb.WriteString("Respond strictly with JSON matching this schema: ")
	sb.WriteString(`{"barrier_description":string,"recommended_fix":string,"cost_estimate":string,"compliance_notes":string,"accessibility_score":integer,"generation_prompt":string,"mask_prompt":string}`)
	sb.WriteString(". accessibility_score is an integer 0-100 where 100 means fully accessible. ")
	sb.WriteString(`cost_estimate is a conservative USD range string such as "$1,500 - $3,000". `)
	sb.WriteString("compliance_notes cites standard codes such as a 1:12 ramp slope ratio. ")
	sb.WriteString("mask_prompt visually describes the exact area to replace for inpainting, e.g. 'the concrete stairs leading to the porch'. ")
	sb.WriteString("generation_prompt tells an image generator what to render in that area, photorealistic, keeping the original finishes. ")
	sb.WriteString("If the room has no barrier worth visualizing, return empty strings for generation_prompt and mask_prompt.")
	return sb.String()
}

func parseAuditPayload(raw string) (auditPayload, error) {
	var zero auditPayload
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return zero, errors.New("empty model payload")
	}
	var decoded auditPayload
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return zero, err
	}
	return decoded, nil
}

// extractJSONFragment pulls the JSON object out of a model reply that
// may be wrapped in prose or a markdown code fence.
func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
