package catalog

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
	path := filepath.Join(t.TempDir(), "catalog.json")

	cat, err := Load(path, arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, len(DefaultRules()), cat.Size())

	// Bootstrap is persisted back
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		Rules []models.ComplianceRule `json:"rules"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc.Rules, len(DefaultRules()))
}

func TestLoad_BootstrapsOnEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))

	cat, err := Load(path, arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, len(DefaultRules()), cat.Size())
}

func TestLoad_BootstrapsOnCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rules": [`), 0644))

	cat, err := Load(path, arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, len(DefaultRules()), cat.Size())
}

func TestLoad_PersistedCatalogReloadsWithoutRebootstrap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	logger := arbor.NewLogger()

	first, err := Load(path, logger)
	require.NoError(t, err)
	require.NoError(t, first.SetEnabled("NCMEC_REPORTING", false))

	second, err := Load(path, logger)
	require.NoError(t, err)
	assert.Equal(t, first.Size(), second.Size())

	rule, ok := second.Get("NCMEC_REPORTING")
	require.True(t, ok)
	assert.False(t, rule.Enabled)
	assert.Len(t, second.Enabled(), len(DefaultRules())-1)
}

func TestLoad_YAMLCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `version: "1.0"
rules:
  - id: TEST_RULE
    name: Test Rule
    logic:
      "==":
        - var: runtime.persona.country
        - "US"
    requires_controls: [some_control]
    regulations: [Some Act]
    severity: high
    enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cat, err := Load(path, arbor.NewLogger())
	require.NoError(t, err)
	require.Equal(t, 1, cat.Size())

	rule, ok := cat.Get("TEST_RULE")
	require.True(t, ok)
	assert.NoError(t, rule.CompileErr)
	assert.NotNil(t, rule.Expr)
	assert.Equal(t, models.SeverityHigh, rule.Severity)
}

func TestYAMLCatalog_IsReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `rules:
  - id: TEST_RULE
    logic:
      "==": [1, 1]
    severity: low
    enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cat, err := Load(path, arbor.NewLogger())
	require.NoError(t, err)

	err = cat.SetEnabled("TEST_RULE", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")

	// The in-memory rule did not flip
	rule, ok := cat.Get("TEST_RULE")
	require.True(t, ok)
	assert.True(t, rule.Enabled)

	// The file is untouched
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc, string(data))

	assert.Error(t, cat.Upsert(rule.ComplianceRule))
	assert.Equal(t, 1, cat.Size())
}

func TestCatalog_InvalidLogicCarriesCompileErr(t *testing.T) {
	rules := []models.ComplianceRule{
		{
			ID:       "BROKEN",
			Logic:    json.RawMessage(`{"frobnicate": []}`),
			Severity: models.SeverityLow,
			Enabled:  true,
		},
		{
			ID:       "OK",
			Logic:    json.RawMessage(`{"==": [1, 1]}`),
			Severity: models.SeverityLow,
			Enabled:  true,
		},
	}

	cat := NewFromRules(rules, arbor.NewLogger())
	assert.Equal(t, 2, cat.Size())

	broken, ok := cat.Get("BROKEN")
	require.True(t, ok)
	assert.Error(t, broken.CompileErr)
	assert.Nil(t, broken.Expr)

	good, ok := cat.Get("OK")
	require.True(t, ok)
	assert.NoError(t, good.CompileErr)
	assert.NotNil(t, good.Expr)
}

func TestCatalog_PreservesDocumentOrder(t *testing.T) {
	cat := NewFromRules(DefaultRules(), arbor.NewLogger())

	var ids []string
	for _, rule := range cat.Rules() {
		ids = append(ids, rule.ID)
	}
	assert.Equal(t, []string{
		"UT_MINORS_CURFEW",
		"NCMEC_REPORTING",
		"DSA_TRANSPARENCY",
		"STATE_MINORS_PF_DEFAULT_OFF",
		"GDPR_DATA_PROCESSING",
	}, ids)
}

func TestCatalog_UpsertAppendsAndReplaces(t *testing.T) {
	cat := NewFromRules(DefaultRules(), arbor.NewLogger())

	newRule := models.ComplianceRule{
		ID:       "CUSTOM_RULE",
		Logic:    json.RawMessage(`{"==": [1, 1]}`),
		Severity: models.SeverityLow,
		Enabled:  true,
	}
	require.NoError(t, cat.Upsert(newRule))
	assert.Equal(t, len(DefaultRules())+1, cat.Size())

	newRule.Severity = models.SeverityCritical
	require.NoError(t, cat.Upsert(newRule))
	assert.Equal(t, len(DefaultRules())+1, cat.Size())

	rule, ok := cat.Get("CUSTOM_RULE")
	require.True(t, ok)
	assert.Equal(t, models.SeverityCritical, rule.Severity)
}

func TestSetEnabled_UnknownRule(t *testing.T) {
	cat := NewFromRules(DefaultRules(), arbor.NewLogger())
	assert.Error(t, cat.SetEnabled("NOT_A_RULE", true))
}
