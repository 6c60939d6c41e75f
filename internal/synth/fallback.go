package synth

import (
	"fmt"
	"strings"

	"github.com/ternarybob/geolex/internal/interfaces"
	"github.com/ternarybob/geolex/internal/models"
)

const (
	// reviewThreshold flags records below this confidence for human review.
	reviewThreshold = 0.7

	// maxCodeRefs caps the code references carried on one record.
	maxCodeRefs = 10
)

// fallbackEnrichment builds a deterministic enrichment from the evidence and
// rule outcome alone. It is used whenever no collaborator is configured or
// the collaborator fails, and always produces the same record for the same
// inputs.
func fallbackEnrichment(pack *models.EvidencePack, result *models.RulesResult) *interfaces.Enrichment {
	severity := models.SeverityMedium
	if result.RequiresGeoLogic {
		severity = models.SeverityHigh
	}
	needsReview := result.Confidence < reviewThreshold

	return &interfaces.Enrichment{
		Reasoning:          fallbackReasoning(pack, result),
		EvidenceRefs:       evidenceRefs(pack),
		CodeRefs:           codeRefs(pack),
		RuntimeObservation: runtimeObservation(pack),
		NeedsReview:        &needsReview,
		Severity:           severity,
	}
}

// fallbackReasoning walks evidence categories in a fixed order so the
// narrative is reproducible across runs.
func fallbackReasoning(pack *models.EvidencePack, result *models.RulesResult) string {
	var parts []string

	if result.RequiresGeoLogic {
		parts = append(parts, fmt.Sprintf("Matched %d compliance rule(s): %s.",
			len(result.MatchedRules), strings.Join(result.MatchedRules, ", ")))
	} else {
		parts = append(parts, "No compliance rules matched the collected evidence.")
	}

	static := pack.Static()
	if n := len(static.GeoBranching); n > 0 {
		countries := collectStrings(static.GeoBranching, func(s models.GeoSignal) []string { return s.Countries })
		parts = append(parts, fmt.Sprintf("Static analysis found %d geo-branching location(s) targeting %s.",
			n, strings.Join(countries, ", ")))
	}
	if n := len(static.AgeChecks); n > 0 {
		sentence := fmt.Sprintf("Found %d age verification check(s)", n)
		libs := collectStrings(static.AgeChecks, func(s models.AgeCheckSignal) []string { return []string{s.Lib} })
		if len(libs) > 0 {
			sentence += " using " + strings.Join(libs, ", ")
		}
		parts = append(parts, sentence+".")
	}
	if n := len(static.DataResidency); n > 0 {
		sentence := fmt.Sprintf("Found %d data residency constraint(s)", n)
		regions := collectStrings(static.DataResidency, func(s models.DataResidencySignal) []string { return []string{s.Region} })
		if len(regions) > 0 {
			sentence += " for regions " + strings.Join(regions, ", ")
		}
		parts = append(parts, sentence+".")
	}
	if len(static.ReportingClients) > 0 {
		parts = append(parts, fmt.Sprintf("Reporting integrations present: %s.",
			strings.Join(static.ReportingClients, ", ")))
	}

	if len(result.MissingControls) > 0 {
		parts = append(parts, fmt.Sprintf("Required controls to verify: %s.",
			strings.Join(result.MissingControls, ", ")))
	}

	return strings.Join(parts, " ")
}

// evidenceRefs lists the evidence categories present in the pack, in a fixed
// category order.
func evidenceRefs(pack *models.EvidencePack) []string {
	var refs []string
	static := pack.Static()
	if len(static.GeoBranching) > 0 {
		refs = append(refs, "geo_branching")
	}
	if len(static.AgeChecks) > 0 {
		refs = append(refs, "age_checks")
	}
	if len(static.DataResidency) > 0 {
		refs = append(refs, "data_residency")
	}
	if len(static.ReportingClients) > 0 {
		refs = append(refs, "reporting_clients")
	}
	if len(static.Flags) > 0 {
		refs = append(refs, "flags")
	}
	runtime := pack.Runtime()
	if runtime.Persona != nil {
		refs = append(refs, "persona")
	}
	if len(runtime.BlockedActions) > 0 {
		refs = append(refs, "blocked_actions")
	}
	if len(runtime.Network) > 0 {
		refs = append(refs, "network")
	}
	return refs
}

// codeRefs collects file:line references in geo, age, residency order,
// capped at maxCodeRefs.
func codeRefs(pack *models.EvidencePack) []string {
	var refs []string
	static := pack.Static()
	for _, sig := range static.GeoBranching {
		refs = append(refs, fmt.Sprintf("%s:%d", sig.File, sig.Line))
	}
	for _, sig := range static.AgeChecks {
		refs = append(refs, fmt.Sprintf("%s:%d", sig.File, sig.Line))
	}
	for _, sig := range static.DataResidency {
		refs = append(refs, fmt.Sprintf("%s:%d", sig.File, sig.Line))
	}
	if len(refs) > maxCodeRefs {
		refs = refs[:maxCodeRefs]
	}
	return refs
}

// runtimeObservation summarizes the runtime probe in one sentence, or
// returns empty when no runtime evidence exists.
func runtimeObservation(pack *models.EvidencePack) string {
	runtime := pack.Runtime()
	if runtime.Persona == nil && len(runtime.BlockedActions) == 0 && len(runtime.UIStates) == 0 {
		return ""
	}

	var parts []string
	if p := runtime.Persona; p != nil {
		age := "unknown age"
		if p.Age != nil {
			age = fmt.Sprintf("age %d", *p.Age)
		}
		parts = append(parts, fmt.Sprintf("Probed as %s persona in %s", age, p.Country))
	}
	if len(runtime.BlockedActions) > 0 {
		parts = append(parts, fmt.Sprintf("blocked actions observed: %s",
			strings.Join(runtime.BlockedActions, ", ")))
	}
	if len(runtime.UIStates) > 0 {
		parts = append(parts, fmt.Sprintf("UI states: %s", strings.Join(runtime.UIStates, ", ")))
	}
	return strings.Join(parts, "; ") + "."
}

// collectStrings deduplicates the non-empty values extracted from a signal
// slice, preserving first-seen order.
func collectStrings[S any](signals []S, extract func(S) []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, sig := range signals {
		for _, v := range extract(sig) {
			if v != "" && !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}
