package models

import (
	"encoding/json"
	"time"
)

// Severity levels used by rules and final records.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// SeverityWeight maps a rule severity to its confidence contribution.
// Unknown severities fall back to the medium weight.
func SeverityWeight(severity string) float64 {
	switch severity {
	case SeverityLow:
		return 0.1
	case SeverityMedium:
		return 0.3
	case SeverityHigh:
		return 0.5
	case SeverityCritical:
		return 0.7
	default:
		return 0.3
	}
}

// ValidSeverity reports whether s is one of the four known severity levels.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ComplianceRule is one declarative catalog entry. Logic holds the raw
// json-logic style expression tree; the catalog compiles it into a typed
// expression at load time (see internal/logic).
type ComplianceRule struct {
	ID               string          `json:"id" yaml:"id" validate:"required"`
	Name             string          `json:"name" yaml:"name"`
	Logic            json.RawMessage `json:"logic" yaml:"logic" validate:"required"`
	RequiresControls []string        `json:"requires_controls" yaml:"requires_controls"`
	Regulations      []string        `json:"regulations" yaml:"regulations"`
	Severity         string          `json:"severity" yaml:"severity"`
	Description      string          `json:"description,omitempty" yaml:"description,omitempty"`
	Enabled          bool            `json:"enabled" yaml:"enabled"`
}

// RulesResult is the evaluation engine's output for one feature.
//
// Invariants maintained by the engine:
//   - RequiresGeoLogic == (len(MatchedRules) > 0)
//   - MissingControls is exactly the union of RequiresControls over MatchedRules
//   - MatchedRules preserves catalog order
type RulesResult struct {
	FeatureID           string    `json:"feature_id"`
	RequiresGeoLogic    bool      `json:"requires_geo_logic"`
	Confidence          float64   `json:"confidence"`
	MatchedRules        []string  `json:"matched_rules"`
	MissingControls     []string  `json:"missing_controls"`
	EvaluationTimestamp time.Time `json:"evaluation_timestamp"`
}

// FinalRecord is the decision synthesizer's output. It is constructed once
// per feature per pipeline pass and never mutated afterwards; re-running the
// pipeline supersedes it with a new record.
type FinalRecord struct {
	FeatureID          string    `json:"feature_id"`
	RequiresGeoLogic   bool      `json:"requires_geo_logic"`
	Reasoning          string    `json:"reasoning"`
	RelatedRegulations []string  `json:"related_regulations"`
	Confidence         float64   `json:"confidence"`
	MatchedRules       []string  `json:"matched_rules"`
	MissingControls    []string  `json:"missing_controls"`
	EvidenceRefs       []string  `json:"evidence_refs"`
	CodeRefs           []string  `json:"code_refs"`
	RuntimeObservation string    `json:"runtime_observation"`
	NeedsReview        bool      `json:"needs_review"`
	Severity           string    `json:"severity"`
	CreatedAt          time.Time `json:"created_at"`
}

// PolicySnippet is a locally-known regulation excerpt used to attach
// regulation titles to matched rules without any network access.
type PolicySnippet struct {
	RegulationID  string   `json:"regulation_id" yaml:"regulation_id" validate:"required"`
	Title         string   `json:"title" yaml:"title"`
	Content       string   `json:"content" yaml:"content"`
	SourceURL     string   `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	Jurisdiction  string   `json:"jurisdiction,omitempty" yaml:"jurisdiction,omitempty"`
	RuleIDs       []string `json:"rule_ids" yaml:"rule_ids"`
	EffectiveDate string   `json:"effective_date,omitempty" yaml:"effective_date,omitempty"`
}
