package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/geolex/internal/catalog"
	"github.com/ternarybob/geolex/internal/engine"
	"github.com/ternarybob/geolex/internal/models"
)

// formatRulesResult formats a rule evaluation outcome as markdown
func formatRulesResult(result *models.RulesResult, failures []engine.RuleFailure) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Rule Evaluation: %s\n\n", result.FeatureID))
	sb.WriteString(fmt.Sprintf("**Requires geo logic:** %t\n", result.RequiresGeoLogic))
	sb.WriteString(fmt.Sprintf("**Confidence:** %.2f\n", result.Confidence))
	sb.WriteString(fmt.Sprintf("**Evaluated:** %s\n\n", result.EvaluationTimestamp.Format(time.RFC3339)))

	if len(result.MatchedRules) == 0 {
		sb.WriteString("No rules matched.\n")
	} else {
		sb.WriteString("### Matched rules\n")
		for _, ruleID := range result.MatchedRules {
			sb.WriteString(fmt.Sprintf("- %s\n", ruleID))
		}
		sb.WriteString("\n### Missing controls\n")
		for _, control := range result.MissingControls {
			sb.WriteString(fmt.Sprintf("- %s\n", control))
		}
	}

	if len(failures) > 0 {
		sb.WriteString("\n### Rule failures\n")
		for _, f := range failures {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", f.RuleID, f.Reason))
		}
	}

	return sb.String()
}

// formatFinalRecord formats a synthesized record as markdown
func formatFinalRecord(record *models.FinalRecord) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Compliance Record: %s\n\n", record.FeatureID))
	sb.WriteString(fmt.Sprintf("**Requires geo logic:** %t\n", record.RequiresGeoLogic))
	sb.WriteString(fmt.Sprintf("**Confidence:** %.2f\n", record.Confidence))
	sb.WriteString(fmt.Sprintf("**Severity:** %s\n", record.Severity))
	sb.WriteString(fmt.Sprintf("**Needs review:** %t\n", record.NeedsReview))
	sb.WriteString(fmt.Sprintf("**Created:** %s\n\n", record.CreatedAt.Format(time.RFC3339)))

	sb.WriteString("## Reasoning\n\n")
	sb.WriteString(record.Reasoning)
	sb.WriteString("\n\n")

	if len(record.MatchedRules) > 0 {
		sb.WriteString(fmt.Sprintf("**Matched rules:** %s\n", strings.Join(record.MatchedRules, ", ")))
	}
	if len(record.MissingControls) > 0 {
		sb.WriteString(fmt.Sprintf("**Missing controls:** %s\n", strings.Join(record.MissingControls, ", ")))
	}
	if len(record.RelatedRegulations) > 0 {
		sb.WriteString(fmt.Sprintf("**Related regulations:** %s\n", strings.Join(record.RelatedRegulations, ", ")))
	}
	if len(record.EvidenceRefs) > 0 {
		sb.WriteString(fmt.Sprintf("**Evidence:** %s\n", strings.Join(record.EvidenceRefs, ", ")))
	}
	if len(record.CodeRefs) > 0 {
		sb.WriteString(fmt.Sprintf("**Code references:** %s\n", strings.Join(record.CodeRefs, ", ")))
	}
	if record.RuntimeObservation != "" {
		sb.WriteString(fmt.Sprintf("**Runtime:** %s\n", record.RuntimeObservation))
	}

	return sb.String()
}

// formatRules formats the catalog as a markdown table
func formatRules(rules []catalog.CompiledRule) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Rule Catalog (%d rules)\n\n", len(rules)))
	sb.WriteString("| ID | Severity | Enabled | Name |\n")
	sb.WriteString("|----|----------|---------|------|\n")
	for _, rule := range rules {
		name := rule.Name
		if rule.CompileErr != nil {
			name += " (invalid logic)"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %t | %s |\n", rule.ID, rule.Severity, rule.Enabled, name))
	}
	return sb.String()
}
