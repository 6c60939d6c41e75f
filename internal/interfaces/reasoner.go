package interfaces

import (
	"context"

	"github.com/ternarybob/geolex/internal/models"
)

// ReasoningRequest carries everything a reasoning collaborator may consult
// when enriching one feature's record.
type ReasoningRequest struct {
	// Pack is the validated evidence for the feature.
	Pack *models.EvidencePack

	// Result is the deterministic rule evaluation outcome. MatchedRules and
	// MissingControls are authoritative; the collaborator must not alter them.
	Result *models.RulesResult

	// Snippets are the locally-known regulation excerpts mapped to the
	// matched rules, for citation in the reasoning narrative.
	Snippets []models.PolicySnippet
}

// Enrichment is the collaborator's contribution to a final record. The
// synthesizer merges it with the authoritative rule outcome; fields the
// collaborator leaves empty fall back to deterministic values. Confidence
// and NeedsReview are pointers so an omitted field is distinguishable from
// an explicit zero or false.
type Enrichment struct {
	Reasoning          string   `json:"reasoning"`
	RelatedRegulations []string `json:"related_regulations"`
	EvidenceRefs       []string `json:"evidence_refs"`
	CodeRefs           []string `json:"code_refs"`
	RuntimeObservation string   `json:"runtime_observation"`
	Confidence         *float64 `json:"confidence,omitempty"`
	NeedsReview        *bool    `json:"needs_review,omitempty"`
	Severity           string   `json:"severity"`
}

// Reasoner is the external reasoning collaborator. Any failure (transport,
// rate limit exhaustion, unparseable response) must surface as an error so
// the synthesizer can fall back deterministically; a Reasoner may refine
// confidence, severity, and needs_review, but never decides
// requires_geo_logic, matched rules, or missing controls.
type Reasoner interface {
	// Enrich produces a narrative enrichment for one evaluated feature.
	Enrich(ctx context.Context, req *ReasoningRequest) (*Enrichment, error)

	// Name identifies the provider for logging and record provenance.
	Name() string

	// HealthCheck verifies the provider is reachable and authenticated.
	HealthCheck(ctx context.Context) error

	// Close releases provider resources.
	Close() error
}
