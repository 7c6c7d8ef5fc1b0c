package entity

// Citation is a source reference returned by the answer backend alongside a
// generated answer. The backend owns it; we only carry it on the message.
type Citation struct {
	SourceId     string  `json:"source_id"`
	Title        string  `json:"title"`
	Excerpt      string  `json:"excerpt"`
	Relevance    float64 `json:"relevance"`
	DocumentType string  `json:"document_type"`
}

// ConfidenceScore holds the backend's overall confidence plus the top and
// average retrieval scores, each in [0.0, 1.0].
type ConfidenceScore struct {
	Overall  float64 `json:"overall"`
	TopScore float64 `json:"top_score"`
	AvgScore float64 `json:"avg_score"`
}

type HallucinationRisk string

const (
	RiskLow     HallucinationRisk = "low"
	RiskMedium  HallucinationRisk = "medium"
	RiskHigh    HallucinationRisk = "high"
	RiskRefused HallucinationRisk = "refused"
)

// ValidationResult is the backend's verdict on a completed answer.
// RiskRefused means the content is a refusal notice, not a substantive answer.
type ValidationResult struct {
	IsValid           bool              `json:"is_valid"`
	HallucinationRisk HallucinationRisk `json:"hallucination_risk"`
	CitationCoverage  float64           `json:"citation_coverage"`
	GroundingScore    *float64          `json:"grounding_score,omitempty"`
	Warnings          []string          `json:"warnings,omitempty"`
	UngroundedClaims  []string          `json:"ungrounded_claims,omitempty"`
}

// Refused reports whether the validation marks the answer as a refusal.
func (v *ValidationResult) Refused() bool {
	return v != nil && v.HallucinationRisk == RiskRefused
}
