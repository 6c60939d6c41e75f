package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/geolex/internal/models"
)

func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }

func flaggedPack() *models.EvidencePack {
	return &models.EvidencePack{
		FeatureID: "feat-1",
		Signals: models.EvidenceSignals{
			Static: &models.StaticSignals{
				GeoBranching: []models.GeoSignal{
					{File: "geo.go", Line: 42, Countries: []string{"UT"}},
				},
				AgeChecks: []models.AgeCheckSignal{
					{File: "age.go", Line: 10, Lib: "agegate"},
				},
				ReportingClients: []string{"NCMEC"},
			},
			Runtime: &models.RuntimeSignals{
				Persona:        &models.Persona{Country: "US", Age: intPtr(15)},
				BlockedActions: []string{"late_night_post"},
			},
		},
	}
}

func flaggedResult() *models.RulesResult {
	return &models.RulesResult{
		FeatureID:        "feat-1",
		RequiresGeoLogic: true,
		MatchedRules:     []string{"UT_MINORS_CURFEW"},
		MissingControls:  []string{"curfew_enforcement", "age_verification"},
		Confidence:       0.1,
	}
}

func TestFallbackEnrichment_Deterministic(t *testing.T) {
	first := fallbackEnrichment(flaggedPack(), flaggedResult())
	second := fallbackEnrichment(flaggedPack(), flaggedResult())

	assert.Equal(t, first, second)
}

func TestFallbackEnrichment_FlaggedFeature(t *testing.T) {
	e := fallbackEnrichment(flaggedPack(), flaggedResult())

	assert.Equal(t, models.SeverityHigh, e.Severity)
	require.NotNil(t, e.NeedsReview)
	assert.True(t, *e.NeedsReview)
	assert.Nil(t, e.Confidence)
	assert.Contains(t, e.Reasoning, "UT_MINORS_CURFEW")
	assert.Contains(t, e.Reasoning, "curfew_enforcement")
	assert.Contains(t, e.Reasoning, "agegate")
	assert.Equal(t, []string{"geo_branching", "age_checks", "reporting_clients", "persona", "blocked_actions"}, e.EvidenceRefs)
	assert.Equal(t, []string{"geo.go:42", "age.go:10"}, e.CodeRefs)
	assert.Contains(t, e.RuntimeObservation, "age 15")
	assert.Contains(t, e.RuntimeObservation, "late_night_post")
}

func TestFallbackEnrichment_UnflaggedFeature(t *testing.T) {
	pack := &models.EvidencePack{FeatureID: "feat-2"}
	result := &models.RulesResult{FeatureID: "feat-2", Confidence: 0.0}

	e := fallbackEnrichment(pack, result)

	assert.Equal(t, models.SeverityMedium, e.Severity)
	require.NotNil(t, e.NeedsReview)
	assert.True(t, *e.NeedsReview)
	assert.Contains(t, e.Reasoning, "No compliance rules matched")
	assert.Empty(t, e.CodeRefs)
	assert.Empty(t, e.EvidenceRefs)
	assert.Empty(t, e.RuntimeObservation)
}

func TestFallbackEnrichment_HighConfidenceSkipsReview(t *testing.T) {
	result := flaggedResult()
	result.Confidence = 0.85

	e := fallbackEnrichment(flaggedPack(), result)
	require.NotNil(t, e.NeedsReview)
	assert.False(t, *e.NeedsReview)
}

func TestFallbackReasoning_NamesLibrariesAndRegions(t *testing.T) {
	pack := &models.EvidencePack{
		FeatureID: "feat-5",
		Signals: models.EvidenceSignals{
			Static: &models.StaticSignals{
				AgeChecks: []models.AgeCheckSignal{
					{File: "age.go", Line: 10, Lib: "agegate"},
					{File: "age.go", Line: 22, Lib: "kidsafe"},
					{File: "signup.go", Line: 7, Lib: "agegate"},
				},
				DataResidency: []models.DataResidencySignal{
					{File: "store.go", Line: 3, Region: "EU"},
					{File: "store.go", Line: 9, Region: "US"},
				},
			},
		},
	}
	result := &models.RulesResult{FeatureID: "feat-5"}

	reasoning := fallbackReasoning(pack, result)

	assert.Contains(t, reasoning, "3 age verification check(s) using agegate, kidsafe")
	assert.Contains(t, reasoning, "2 data residency constraint(s) for regions EU, US")
}

func TestCodeRefs_CappedAndOrdered(t *testing.T) {
	static := &models.StaticSignals{}
	for i := 0; i < 6; i++ {
		static.GeoBranching = append(static.GeoBranching, models.GeoSignal{File: "geo.go", Line: i})
	}
	for i := 0; i < 6; i++ {
		static.AgeChecks = append(static.AgeChecks, models.AgeCheckSignal{File: "age.go", Line: i})
	}
	static.DataResidency = []models.DataResidencySignal{{File: "store.go", Line: 1}}
	pack := &models.EvidencePack{
		FeatureID: "feat-3",
		Signals:   models.EvidenceSignals{Static: static},
	}

	refs := codeRefs(pack)

	require.Len(t, refs, maxCodeRefs)
	assert.Equal(t, "geo.go:0", refs[0])
	assert.Equal(t, "geo.go:5", refs[5])
	assert.Equal(t, "age.go:0", refs[6])
	// Residency entry falls past the cap
	assert.NotContains(t, refs, "store.go:1")
}

func TestRuntimeObservation_NoPersona(t *testing.T) {
	pack := &models.EvidencePack{
		FeatureID: "feat-4",
		Signals: models.EvidenceSignals{
			Runtime: &models.RuntimeSignals{
				BlockedActions: []string{"upload"},
			},
		},
	}

	obs := runtimeObservation(pack)
	assert.Contains(t, obs, "blocked actions observed: upload")
}
