package engine

import (
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/geolex/internal/catalog"
	"github.com/ternarybob/geolex/internal/evidence"
	"github.com/ternarybob/geolex/internal/logic"
	"github.com/ternarybob/geolex/internal/models"
)

// RuleFailure records one rule that could not be evaluated during a run.
// Failures never abort the feature; the run continues with remaining rules.
type RuleFailure struct {
	RuleID string `json:"rule_id"`
	Reason string `json:"reason"`
}

// Engine evaluates evidence packs against a read-only rule catalog view.
// It performs no I/O and holds no mutable state, so a single instance is
// safe for concurrent use across pipeline workers.
type Engine struct {
	catalog *catalog.Catalog
	logger  arbor.ILogger
}

// New creates an engine over the given catalog.
func New(cat *catalog.Catalog, logger arbor.ILogger) *Engine {
	return &Engine{catalog: cat, logger: logger}
}

// Evaluate runs every enabled rule against the pack's normalized context and
// returns the aggregate result plus any per-rule failures.
//
// Confidence accumulates severity weights over matched rules and divides by
// the total catalog size, counting disabled rules, then clamps to 1.0.
func (e *Engine) Evaluate(pack *models.EvidencePack) (*models.RulesResult, []RuleFailure) {
	ctx := evidence.Normalize(pack)

	result := &models.RulesResult{
		FeatureID:           pack.FeatureID,
		MatchedRules:        []string{},
		MissingControls:     []string{},
		EvaluationTimestamp: time.Now().UTC(),
	}

	var failures []RuleFailure
	var accumulator float64
	seenControls := make(map[string]bool)

	for _, rule := range e.catalog.Enabled() {
		if rule.CompileErr != nil {
			failures = append(failures, RuleFailure{RuleID: rule.ID, Reason: rule.CompileErr.Error()})
			e.logger.Warn().Err(rule.CompileErr).
				Str("feature_id", pack.FeatureID).
				Str("rule_id", rule.ID).
				Msg("Skipping rule with invalid logic")
			continue
		}

		matched, err := logic.EvalBool(rule.Expr, ctx)
		if err != nil {
			failures = append(failures, RuleFailure{RuleID: rule.ID, Reason: err.Error()})
			e.logger.Warn().Err(err).
				Str("feature_id", pack.FeatureID).
				Str("rule_id", rule.ID).
				Msg("Rule evaluation failed")
			continue
		}
		if !matched {
			continue
		}

		result.MatchedRules = append(result.MatchedRules, rule.ID)
		accumulator += models.SeverityWeight(rule.Severity)
		for _, control := range rule.RequiresControls {
			if !seenControls[control] {
				seenControls[control] = true
				result.MissingControls = append(result.MissingControls, control)
			}
		}
	}

	result.RequiresGeoLogic = len(result.MatchedRules) > 0
	if size := e.catalog.Size(); size > 0 {
		result.Confidence = accumulator / float64(size)
		if result.Confidence > 1.0 {
			result.Confidence = 1.0
		}
	}

	e.logger.Info().
		Str("feature_id", pack.FeatureID).
		Bool("requires_geo_logic", result.RequiresGeoLogic).
		Float64("confidence", result.Confidence).
		Int("matched", len(result.MatchedRules)).
		Int("failures", len(failures)).
		Msg("Evaluated feature against rule catalog")

	return result, failures
}
