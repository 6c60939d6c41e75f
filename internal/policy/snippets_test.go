package policy

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/geolex/internal/models"
)

func TestLoad_BootstrapsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy_snippets.json")

	m, err := Load(path, arbor.NewLogger())
	require.NoError(t, err)
	assert.Len(t, m.All(), len(DefaultSnippets()))

	// Bootstrap is persisted back
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		Snippets []models.PolicySnippet `json:"snippets"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc.Snippets, len(DefaultSnippets()))
}

func TestLoad_BootstrapsOnEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy_snippets.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"snippets": []}`), 0644))

	m, err := Load(path, arbor.NewLogger())
	require.NoError(t, err)
	assert.Len(t, m.All(), len(DefaultSnippets()))
}

func TestLoad_ReadsExistingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy_snippets.json")
	doc := `{
		"snippets": [
			{
				"regulation_id": "custom-reg",
				"title": "Custom Regulation",
				"content": "Some obligation.",
				"rule_ids": ["CUSTOM_RULE"]
			}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	m, err := Load(path, arbor.NewLogger())
	require.NoError(t, err)
	require.Len(t, m.All(), 1)
	assert.Equal(t, []string{"Custom Regulation"}, m.ForRules([]string{"CUSTOM_RULE"}))
}

func TestForRules_MapsDefaults(t *testing.T) {
	m := NewFromSnippets(DefaultSnippets())

	assert.Equal(t, []string{"Utah Social Media Regulation Act"}, m.ForRules([]string{"UT_MINORS_CURFEW"}))
	assert.Equal(t, []string{"US NCMEC reporting requirements"}, m.ForRules([]string{"NCMEC_REPORTING"}))
	assert.Empty(t, m.ForRules([]string{"UNKNOWN_RULE"}))
	assert.Empty(t, m.ForRules(nil))
}

func TestForRules_FirstMatchOrderAndDedup(t *testing.T) {
	snippets := []models.PolicySnippet{
		{RegulationID: "a", Title: "Reg A", RuleIDs: []string{"R1", "R2"}},
		{RegulationID: "b", Title: "Reg B", RuleIDs: []string{"R2"}},
	}
	m := NewFromSnippets(snippets)

	// R2 matches both; R1's snippet already claimed Reg A
	assert.Equal(t, []string{"Reg A", "Reg B"}, m.ForRules([]string{"R1", "R2"}))
	assert.Equal(t, []string{"Reg A", "Reg B"}, m.ForRules([]string{"R2", "R1"}))
}

func TestForRules_CappedAtFive(t *testing.T) {
	var snippets []models.PolicySnippet
	for i := 0; i < 8; i++ {
		snippets = append(snippets, models.PolicySnippet{
			RegulationID: string(rune('a' + i)),
			Title:        "Reg " + string(rune('A'+i)),
			RuleIDs:      []string{"R1"},
		})
	}
	m := NewFromSnippets(snippets)

	titles := m.ForRules([]string{"R1"})
	require.Len(t, titles, maxRelatedRegulations)
	assert.Equal(t, "Reg A", titles[0])
	assert.Equal(t, "Reg E", titles[4])
}

func TestSnippetsForRules_DedupByRegulation(t *testing.T) {
	snippets := []models.PolicySnippet{
		{RegulationID: "a", Title: "Reg A", RuleIDs: []string{"R1", "R2"}},
		{RegulationID: "b", Title: "Reg B", RuleIDs: []string{"R2"}},
	}
	m := NewFromSnippets(snippets)

	out := m.SnippetsForRules([]string{"R1", "R2"})
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].RegulationID)
	assert.Equal(t, "b", out[1].RegulationID)
}

func TestDefaultSnippets_CoverCatalogRules(t *testing.T) {
	m := NewFromSnippets(DefaultSnippets())

	for _, ruleID := range []string{
		"UT_MINORS_CURFEW",
		"NCMEC_REPORTING",
		"DSA_TRANSPARENCY",
		"STATE_MINORS_PF_DEFAULT_OFF",
		"GDPR_DATA_PROCESSING",
	} {
		assert.NotEmpty(t, m.ForRules([]string{ruleID}), "rule %s has no snippet", ruleID)
	}
}
