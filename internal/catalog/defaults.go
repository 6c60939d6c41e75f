package catalog

import (
	"encoding/json"

	"github.com/ternarybob/geolex/internal/models"
)

// DefaultRules returns the baseline catalog installed when no catalog
// document exists (or the existing one is unreadable). Order matters: it is
// the evaluation order and the order of matched_rules in every result.
func DefaultRules() []models.ComplianceRule {
	return []models.ComplianceRule{
		{
			ID:   "UT_MINORS_CURFEW",
			Name: "Utah Minors Curfew Enforcement",
			Logic: json.RawMessage(`{
				"and": [
					{"<": [{"var": "runtime.persona.age"}, 18]},
					{"==": [{"var": "runtime.persona.country"}, "US"]},
					{"in": ["UT", {"var": "static.geo_branching.*.countries"}]}
				]
			}`),
			RequiresControls: []string{"curfew_enforcement", "age_verification"},
			Regulations:      []string{"Utah Social Media Regulation Act"},
			Severity:         models.SeverityHigh,
			Description:      "Minors in Utah require curfew enforcement when geo branching targets UT.",
			Enabled:          true,
		},
		{
			ID:   "NCMEC_REPORTING",
			Name: "NCMEC Mandatory Reporting",
			Logic: json.RawMessage(`{
				"or": [
					{"in": ["NCMEC", {"var": "static.reporting_clients"}]},
					{"in": ["csam_detection", {"var": "static.tags"}]},
					{"==": [{"var": "static.reco_system"}, true]}
				]
			}`),
			RequiresControls: []string{"ncmec_report_pipeline", "content_moderation"},
			Regulations:      []string{"US NCMEC reporting requirements"},
			Severity:         models.SeverityCritical,
			Description:      "Reporting integrations or recommendation surfaces trigger mandatory reporting obligations.",
			Enabled:          true,
		},
		{
			ID:   "DSA_TRANSPARENCY",
			Name: "EU Digital Services Act Transparency",
			Logic: json.RawMessage(`{
				"and": [
					{"==": [{"var": "runtime.persona.country"}, "EU"]},
					{"or": [
						{"==": [{"var": "static.reco_system"}, true]},
						{"in": ["content_moderation", {"var": "static.tags"}]}
					]}
				]
			}`),
			RequiresControls: []string{"transparency_reports", "user_flagging", "appeal_process"},
			Regulations:      []string{"EU Digital Services Act"},
			Severity:         models.SeverityHigh,
			Description:      "EU personas on recommendation or moderation surfaces need DSA transparency controls.",
			Enabled:          true,
		},
		{
			ID:   "STATE_MINORS_PF_DEFAULT_OFF",
			Name: "State Minors Parental Features Default Off",
			Logic: json.RawMessage(`{
				"and": [
					{"<": [{"var": "runtime.persona.age"}, 18]},
					{"==": [{"var": "static.pf_controls"}, true]},
					{"in": ["US", {"var": "static.geo_branching.*.countries"}]}
				]
			}`),
			RequiresControls: []string{"parental_consent", "default_privacy_settings"},
			Regulations:      []string{"Various US state minors privacy laws"},
			Severity:         models.SeverityMedium,
			Description:      "US minors with parental-control code paths need consent and privacy defaults.",
			Enabled:          true,
		},
		{
			ID:   "GDPR_DATA_PROCESSING",
			Name: "GDPR Lawful Basis for Processing",
			Logic: json.RawMessage(`{
				"and": [
					{"in": [{"var": "runtime.persona.country"}, ["EU", "GB", "CH"]]},
					{"or": [
						{"in": ["user_data", {"var": "static.tags"}]},
						{"in": ["eu-west", {"var": "static.data_residency.*.region"}]}
					]}
				]
			}`),
			RequiresControls: []string{"consent_management", "data_portability", "right_to_erasure"},
			Regulations:      []string{"EU GDPR"},
			Severity:         models.SeverityHigh,
			Description:      "European personas touching user data or EU residency regions need a lawful processing basis.",
			Enabled:          true,
		},
	}
}
