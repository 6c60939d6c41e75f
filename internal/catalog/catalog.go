package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/geolex/internal/logic"
	"github.com/ternarybob/geolex/internal/models"
)

// CompiledRule pairs a catalog rule with its pre-parsed logic tree. A rule
// whose document failed to compile carries CompileErr and evaluates as a
// per-rule failure rather than aborting the run.
type CompiledRule struct {
	models.ComplianceRule
	Expr       logic.Expr
	CompileErr error
}

// document is the on-disk catalog form.
type document struct {
	Version string                  `json:"version" yaml:"version"`
	Rules   []models.ComplianceRule `json:"rules" yaml:"rules"`
}

const documentVersion = "1.0"

// Catalog holds the ordered rule set. Rules keep their document order, which
// is the evaluation order and the order of matched_rules in every result.
type Catalog struct {
	mu    sync.RWMutex
	path  string
	rules []CompiledRule
	index map[string]int
	log   arbor.ILogger
}

// Load reads the catalog document at path, bootstrapping the default rules
// when the file is missing, unreadable, or contains no rules. A bootstrap is
// persisted back so later runs see the same catalog.
func Load(path string, logger arbor.ILogger) (*Catalog, error) {
	c := &Catalog{path: path, log: logger}

	rules, err := readDocument(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Catalog unreadable, bootstrapping defaults")
		rules = nil
	}
	if len(rules) == 0 {
		rules = DefaultRules()
		c.setRules(rules)
		if persistable(path) {
			if err := c.Persist(); err != nil {
				return nil, fmt.Errorf("failed to persist bootstrapped catalog: %w", err)
			}
		}
		logger.Info().Str("path", path).Int("rules", len(rules)).Msg("Bootstrapped default rule catalog")
		return c, nil
	}

	c.setRules(rules)
	logger.Info().Str("path", path).Int("rules", len(rules)).Msg("Loaded rule catalog")
	return c, nil
}

// NewFromRules builds an in-memory catalog without a backing file. Used by
// tests and by callers that manage persistence themselves.
func NewFromRules(rules []models.ComplianceRule, logger arbor.ILogger) *Catalog {
	c := &Catalog{log: logger}
	c.setRules(rules)
	return c
}

func readDocument(path string) ([]models.ComplianceRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		return parseYAML(data)
	}
	return parseJSON(data)
}

func parseJSON(data []byte) ([]models.ComplianceRule, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	return doc.Rules, nil
}

// parseYAML accepts the same document shape in YAML. Logic trees are
// re-encoded through JSON so the compiler sees one representation.
func parseYAML(data []byte) ([]models.ComplianceRule, error) {
	var raw struct {
		Version string `yaml:"version"`
		Rules   []struct {
			ID               string      `yaml:"id"`
			Name             string      `yaml:"name"`
			Logic            interface{} `yaml:"logic"`
			RequiresControls []string    `yaml:"requires_controls"`
			Regulations      []string    `yaml:"regulations"`
			Severity         string      `yaml:"severity"`
			Description      string      `yaml:"description"`
			Enabled          bool        `yaml:"enabled"`
		} `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	rules := make([]models.ComplianceRule, 0, len(raw.Rules))
	for _, r := range raw.Rules {
		logicJSON, err := json.Marshal(normalizeYAML(r.Logic))
		if err != nil {
			return nil, fmt.Errorf("failed to encode logic for rule %s: %w", r.ID, err)
		}
		rules = append(rules, models.ComplianceRule{
			ID:               r.ID,
			Name:             r.Name,
			Logic:            logicJSON,
			RequiresControls: r.RequiresControls,
			Regulations:      r.Regulations,
			Severity:         r.Severity,
			Description:      r.Description,
			Enabled:          r.Enabled,
		})
	}
	return rules, nil
}

// normalizeYAML converts yaml.v3's map[string]interface{} values recursively;
// yaml.v3 already decodes mapping keys as strings, but nested sequences still
// need the walk so json.Marshal accepts the tree.
func normalizeYAML(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = normalizeYAML(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return v
	}
}

func (c *Catalog) setRules(rules []models.ComplianceRule) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rules = make([]CompiledRule, 0, len(rules))
	c.index = make(map[string]int, len(rules))
	for _, rule := range rules {
		compiled := CompiledRule{ComplianceRule: rule}
		expr, err := logic.ParseLogic(rule.Logic)
		if err != nil {
			compiled.CompileErr = err
			if c.log != nil {
				c.log.Warn().Err(err).Str("rule_id", rule.ID).Msg("Rule logic failed to compile")
			}
		} else {
			compiled.Expr = expr
		}
		c.index[rule.ID] = len(c.rules)
		c.rules = append(c.rules, compiled)
	}
}

// Rules returns all rules in document order, including disabled ones.
func (c *Catalog) Rules() []CompiledRule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]CompiledRule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Enabled returns only the enabled rules, in document order.
func (c *Catalog) Enabled() []CompiledRule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]CompiledRule, 0, len(c.rules))
	for _, r := range c.rules {
		if r.ComplianceRule.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// Size returns the total catalog size, counting disabled rules. This is the
// confidence denominator: disabling rules must not inflate confidence.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rules)
}

// Get returns a rule by id.
func (c *Catalog) Get(id string) (CompiledRule, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[id]
	if !ok {
		return CompiledRule{}, false
	}
	return c.rules[i], true
}

// SetEnabled toggles a rule and persists the catalog when file-backed.
// Read-only catalogs are rejected before the in-memory state changes so
// memory and file never diverge.
func (c *Catalog) SetEnabled(id string, enabled bool) error {
	if c.path != "" && !persistable(c.path) {
		return fmt.Errorf("yaml catalogs are read-only, cannot persist to %s", c.path)
	}

	c.mu.Lock()
	i, ok := c.index[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("unknown rule: %s", id)
	}
	c.rules[i].ComplianceRule.Enabled = enabled
	c.mu.Unlock()

	if c.path == "" {
		return nil
	}
	return c.Persist()
}

// Upsert adds or replaces a rule, recompiling its logic, and persists when
// file-backed. New rules append in order.
func (c *Catalog) Upsert(rule models.ComplianceRule) error {
	if c.path != "" && !persistable(c.path) {
		return fmt.Errorf("yaml catalogs are read-only, cannot persist to %s", c.path)
	}

	compiled := CompiledRule{ComplianceRule: rule}
	expr, err := logic.ParseLogic(rule.Logic)
	if err != nil {
		compiled.CompileErr = err
	} else {
		compiled.Expr = expr
	}

	c.mu.Lock()
	if i, ok := c.index[rule.ID]; ok {
		c.rules[i] = compiled
	} else {
		c.index[rule.ID] = len(c.rules)
		c.rules = append(c.rules, compiled)
	}
	c.mu.Unlock()

	if c.path == "" {
		return nil
	}
	return c.Persist()
}

// persistable reports whether a catalog path accepts writes. The persisted
// form is always JSON; YAML-backed catalogs are read-only.
func persistable(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext != ".yaml" && ext != ".yml"
}

// Persist writes the catalog document back to its file.
func (c *Catalog) Persist() error {
	if c.path == "" {
		return fmt.Errorf("catalog has no backing file")
	}
	if !persistable(c.path) {
		return fmt.Errorf("yaml catalogs are read-only, cannot persist to %s", c.path)
	}

	c.mu.RLock()
	doc := document{Version: documentVersion, Rules: make([]models.ComplianceRule, len(c.rules))}
	for i, r := range c.rules {
		doc.Rules[i] = r.ComplianceRule
	}
	c.mu.RUnlock()

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}
