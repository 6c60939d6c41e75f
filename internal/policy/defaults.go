package policy

import "github.com/ternarybob/geolex/internal/models"

// DefaultSnippets returns the baseline regulation excerpts installed when no
// snippet document exists. Each snippet lists the catalog rules it supports.
func DefaultSnippets() []models.PolicySnippet {
	return []models.PolicySnippet{
		{
			RegulationID: "utah-smra-2023",
			Title:        "Utah Social Media Regulation Act",
			Content: "Requires social media companies to verify the age of Utah account holders " +
				"and enforce a default curfew blocking minor access between 10:30pm and 6:30am " +
				"unless a parent or guardian adjusts the setting.",
			Jurisdiction:  "US-UT",
			RuleIDs:       []string{"UT_MINORS_CURFEW"},
			EffectiveDate: "2024-03-01",
		},
		{
			RegulationID: "us-ncmec-2258a",
			Title:        "US NCMEC reporting requirements",
			Content: "18 U.S.C. 2258A obligates providers to report apparent child sexual abuse " +
				"material to the National Center for Missing and Exploited Children CyberTipline " +
				"as soon as reasonably possible after obtaining actual knowledge.",
			Jurisdiction: "US",
			RuleIDs:      []string{"NCMEC_REPORTING"},
		},
		{
			RegulationID: "eu-dsa-2022",
			Title:        "EU Digital Services Act",
			Content: "Platforms serving EU users must publish transparency reports on content " +
				"moderation, provide user notice-and-action flagging mechanisms, and offer an " +
				"internal complaint handling and appeal process.",
			Jurisdiction:  "EU",
			RuleIDs:       []string{"DSA_TRANSPARENCY"},
			EffectiveDate: "2024-02-17",
		},
		{
			RegulationID: "eu-gdpr-2016",
			Title:        "EU GDPR",
			Content: "Processing of personal data of European data subjects requires a lawful " +
				"basis, consent management where consent is the basis, data portability on " +
				"request, and erasure of personal data under the right to be forgotten.",
			Jurisdiction:  "EU",
			RuleIDs:       []string{"GDPR_DATA_PROCESSING"},
			EffectiveDate: "2018-05-25",
		},
		{
			RegulationID: "us-coppa-1998",
			Title:        "US COPPA",
			Content: "Operators of services directed to children under 13 must obtain verifiable " +
				"parental consent before collecting personal information and must honor parental " +
				"review and deletion requests.",
			Jurisdiction: "US",
			RuleIDs:      []string{"STATE_MINORS_PF_DEFAULT_OFF"},
		},
	}
}
