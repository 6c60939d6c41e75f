package synth

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/geolex/internal/interfaces"
	"github.com/ternarybob/geolex/internal/models"
	"github.com/ternarybob/geolex/internal/policy"
)

// Synthesizer builds the final record for one evaluated feature. The rule
// outcome is authoritative for requires_geo_logic, matched_rules, and
// missing_controls, which are carried onto the record verbatim regardless of
// how the narrative was produced. The collaborator contributes the
// explanation and may refine confidence, severity, and needs_review; when it
// fails or is absent, the deterministic fallback does.
type Synthesizer struct {
	reasoner interfaces.Reasoner
	policy   *policy.Manager
	logger   arbor.ILogger
}

// New creates a synthesizer. reasoner may be nil for fallback-only operation.
func New(reasoner interfaces.Reasoner, policyMgr *policy.Manager, logger arbor.ILogger) *Synthesizer {
	return &Synthesizer{
		reasoner: reasoner,
		policy:   policyMgr,
		logger:   logger,
	}
}

// Synthesize produces the final record for one feature.
func (s *Synthesizer) Synthesize(ctx context.Context, pack *models.EvidencePack, result *models.RulesResult) *models.FinalRecord {
	enrichment := s.enrich(ctx, pack, result)

	severity := enrichment.Severity
	if severity == "" || !models.ValidSeverity(severity) {
		if result.RequiresGeoLogic {
			severity = models.SeverityHigh
		} else {
			severity = models.SeverityMedium
		}
	}

	related := enrichment.RelatedRegulations
	if len(related) == 0 {
		related = s.policy.ForRules(result.MatchedRules)
	}
	if related == nil {
		related = []string{}
	}

	codeRefs := enrichment.CodeRefs
	if len(codeRefs) > maxCodeRefs {
		codeRefs = codeRefs[:maxCodeRefs]
	}
	if codeRefs == nil {
		codeRefs = []string{}
	}
	evidenceRefs := enrichment.EvidenceRefs
	if evidenceRefs == nil {
		evidenceRefs = []string{}
	}

	confidence := result.Confidence
	if enrichment.Confidence != nil {
		confidence = *enrichment.Confidence
	}

	// A collaborator that stays silent on review inherits the threshold.
	needsReview := confidence < reviewThreshold
	if enrichment.NeedsReview != nil {
		needsReview = *enrichment.NeedsReview
	}

	return &models.FinalRecord{
		FeatureID:          pack.FeatureID,
		RequiresGeoLogic:   result.RequiresGeoLogic,
		Reasoning:          enrichment.Reasoning,
		RelatedRegulations: related,
		Confidence:         confidence,
		MatchedRules:       result.MatchedRules,
		MissingControls:    result.MissingControls,
		EvidenceRefs:       evidenceRefs,
		CodeRefs:           codeRefs,
		RuntimeObservation: enrichment.RuntimeObservation,
		NeedsReview:        needsReview,
		Severity:           severity,
		CreatedAt:          time.Now().UTC(),
	}
}

func (s *Synthesizer) enrich(ctx context.Context, pack *models.EvidencePack, result *models.RulesResult) *interfaces.Enrichment {
	if s.reasoner == nil {
		return fallbackEnrichment(pack, result)
	}

	req := &interfaces.ReasoningRequest{
		Pack:     pack,
		Result:   result,
		Snippets: s.policy.SnippetsForRules(result.MatchedRules),
	}
	enrichment, err := s.reasoner.Enrich(ctx, req)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("feature_id", pack.FeatureID).
			Str("provider", s.reasoner.Name()).
			Msg("Collaborator failed, using deterministic fallback")
		return fallbackEnrichment(pack, result)
	}

	s.logger.Debug().
		Str("feature_id", pack.FeatureID).
		Str("provider", s.reasoner.Name()).
		Msg("Record enriched by collaborator")
	return enrichment
}

// ErrorRecord builds the record written when a feature's evaluation could not
// complete at all (missing or malformed evidence). It is maximally
// conservative: zero confidence, critical severity, flagged for review.
func ErrorRecord(featureID string, evalErr error) *models.FinalRecord {
	return &models.FinalRecord{
		FeatureID:          featureID,
		RequiresGeoLogic:   false,
		Reasoning:          "Evaluation failed: " + evalErr.Error(),
		RelatedRegulations: []string{},
		Confidence:         0.0,
		MatchedRules:       []string{},
		MissingControls:    []string{},
		EvidenceRefs:       []string{},
		CodeRefs:           []string{},
		NeedsReview:        true,
		Severity:           models.SeverityCritical,
		CreatedAt:          time.Now().UTC(),
	}
}
