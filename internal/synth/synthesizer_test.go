package synth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/geolex/internal/interfaces"
	"github.com/ternarybob/geolex/internal/models"
	"github.com/ternarybob/geolex/internal/policy"
)

type stubReasoner struct {
	enrichment *interfaces.Enrichment
	err        error
	requests   []*interfaces.ReasoningRequest
}

func (s *stubReasoner) Enrich(_ context.Context, req *interfaces.ReasoningRequest) (*interfaces.Enrichment, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.enrichment, nil
}

func (s *stubReasoner) Name() string                        { return "stub" }
func (s *stubReasoner) HealthCheck(_ context.Context) error { return nil }
func (s *stubReasoner) Close() error                        { return nil }

func newTestSynthesizer(reasoner interfaces.Reasoner) *Synthesizer {
	return New(reasoner, policy.NewFromSnippets(policy.DefaultSnippets()), arbor.NewLogger())
}

func TestSynthesize_FallbackOnly(t *testing.T) {
	s := newTestSynthesizer(nil)

	record := s.Synthesize(context.Background(), flaggedPack(), flaggedResult())

	assert.Equal(t, "feat-1", record.FeatureID)
	assert.True(t, record.RequiresGeoLogic)
	assert.Equal(t, []string{"UT_MINORS_CURFEW"}, record.MatchedRules)
	assert.Equal(t, []string{"curfew_enforcement", "age_verification"}, record.MissingControls)
	assert.Equal(t, 0.1, record.Confidence)
	assert.Equal(t, models.SeverityHigh, record.Severity)
	assert.True(t, record.NeedsReview)
	assert.Equal(t, []string{"Utah Social Media Regulation Act"}, record.RelatedRegulations)
	assert.NotEmpty(t, record.Reasoning)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestSynthesize_ReasonerFailureFallsBack(t *testing.T) {
	reasoner := &stubReasoner{err: errors.New("rate limit exhausted")}
	s := newTestSynthesizer(reasoner)

	record := s.Synthesize(context.Background(), flaggedPack(), flaggedResult())

	require.Len(t, reasoner.requests, 1)
	// Fallback narrative, authoritative outcome intact
	assert.Contains(t, record.Reasoning, "UT_MINORS_CURFEW")
	assert.Equal(t, []string{"UT_MINORS_CURFEW"}, record.MatchedRules)
	assert.Equal(t, 0.1, record.Confidence)
}

func TestSynthesize_ReasonerEnrichmentUsed(t *testing.T) {
	reasoner := &stubReasoner{
		enrichment: &interfaces.Enrichment{
			Reasoning:          "Feature gates Utah minors after curfew hours.",
			RelatedRegulations: []string{"Utah Social Media Regulation Act"},
			EvidenceRefs:       []string{"geo_branching"},
			CodeRefs:           []string{"geo.go:42"},
			RuntimeObservation: "Posting blocked for the minor persona.",
			NeedsReview:        boolPtr(false),
			Severity:           models.SeverityCritical,
		},
	}
	s := newTestSynthesizer(reasoner)

	result := flaggedResult()
	result.Confidence = 0.9
	record := s.Synthesize(context.Background(), flaggedPack(), result)

	assert.Equal(t, "Feature gates Utah minors after curfew hours.", record.Reasoning)
	assert.Equal(t, models.SeverityCritical, record.Severity)
	assert.False(t, record.NeedsReview)
	assert.Equal(t, []string{"geo.go:42"}, record.CodeRefs)

	// Snippets for the matched rules rode along on the request
	require.Len(t, reasoner.requests, 1)
	require.Len(t, reasoner.requests[0].Snippets, 1)
	assert.Equal(t, "utah-smra-2023", reasoner.requests[0].Snippets[0].RegulationID)
}

func TestSynthesize_CollaboratorRefinesConfidence(t *testing.T) {
	reasoner := &stubReasoner{
		enrichment: &interfaces.Enrichment{
			Reasoning:   "Strong evidence for the curfew requirement.",
			Confidence:  floatPtr(0.95),
			NeedsReview: boolPtr(false),
			Severity:    models.SeverityHigh,
		},
	}
	s := newTestSynthesizer(reasoner)

	record := s.Synthesize(context.Background(), flaggedPack(), flaggedResult())

	assert.Equal(t, 0.95, record.Confidence)
	assert.False(t, record.NeedsReview)
	// Rule-derived facts stay verbatim
	assert.Equal(t, []string{"UT_MINORS_CURFEW"}, record.MatchedRules)
	assert.Equal(t, []string{"curfew_enforcement", "age_verification"}, record.MissingControls)
}

func TestSynthesize_CollaboratorReviewDecisionStands(t *testing.T) {
	reasoner := &stubReasoner{
		enrichment: &interfaces.Enrichment{
			Reasoning:   "Looks fine despite the low rule score.",
			NeedsReview: boolPtr(false),
			Severity:    models.SeverityLow,
		},
	}
	s := newTestSynthesizer(reasoner)

	record := s.Synthesize(context.Background(), flaggedPack(), flaggedResult())
	assert.False(t, record.NeedsReview)
	assert.Equal(t, 0.1, record.Confidence)
}

func TestSynthesize_ReviewDefaultsToThresholdWhenOmitted(t *testing.T) {
	reasoner := &stubReasoner{
		enrichment: &interfaces.Enrichment{Reasoning: "ok", Severity: models.SeverityLow},
	}
	s := newTestSynthesizer(reasoner)

	record := s.Synthesize(context.Background(), flaggedPack(), flaggedResult())
	assert.True(t, record.NeedsReview)

	// The threshold applies to the refined confidence when one is given
	reasoner.enrichment.Confidence = floatPtr(0.9)
	record = s.Synthesize(context.Background(), flaggedPack(), flaggedResult())
	assert.False(t, record.NeedsReview)
	assert.Equal(t, 0.9, record.Confidence)
}

func TestSynthesize_InvalidSeverityDefaulted(t *testing.T) {
	reasoner := &stubReasoner{
		enrichment: &interfaces.Enrichment{Reasoning: "ok", Severity: "catastrophic"},
	}
	s := newTestSynthesizer(reasoner)

	record := s.Synthesize(context.Background(), flaggedPack(), flaggedResult())
	assert.Equal(t, models.SeverityHigh, record.Severity)

	unflagged := &models.RulesResult{FeatureID: "feat-2"}
	record = s.Synthesize(context.Background(), &models.EvidencePack{FeatureID: "feat-2"}, unflagged)
	assert.Equal(t, models.SeverityMedium, record.Severity)
}

func TestSynthesize_EmptyRelatedFilledFromPolicy(t *testing.T) {
	reasoner := &stubReasoner{
		enrichment: &interfaces.Enrichment{Reasoning: "ok", Severity: models.SeverityHigh},
	}
	s := newTestSynthesizer(reasoner)

	record := s.Synthesize(context.Background(), flaggedPack(), flaggedResult())
	assert.Equal(t, []string{"Utah Social Media Regulation Act"}, record.RelatedRegulations)
}

func TestSynthesize_CodeRefsRecapped(t *testing.T) {
	refs := make([]string, maxCodeRefs+5)
	for i := range refs {
		refs[i] = "a.go:1"
	}
	reasoner := &stubReasoner{
		enrichment: &interfaces.Enrichment{Reasoning: "ok", Severity: models.SeverityHigh, CodeRefs: refs},
	}
	s := newTestSynthesizer(reasoner)

	record := s.Synthesize(context.Background(), flaggedPack(), flaggedResult())
	assert.Len(t, record.CodeRefs, maxCodeRefs)
}

func TestErrorRecord(t *testing.T) {
	record := ErrorRecord("feat-err", errors.New("evidence file not found"))

	assert.Equal(t, "feat-err", record.FeatureID)
	assert.False(t, record.RequiresGeoLogic)
	assert.Equal(t, 0.0, record.Confidence)
	assert.Equal(t, models.SeverityCritical, record.Severity)
	assert.True(t, record.NeedsReview)
	assert.Contains(t, record.Reasoning, "evidence file not found")
	assert.Empty(t, record.MatchedRules)
	assert.Empty(t, record.MissingControls)
	assert.NotNil(t, record.RelatedRegulations)
	assert.NotNil(t, record.CodeRefs)
}
