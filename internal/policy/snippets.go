package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/geolex/internal/models"
)

// maxRelatedRegulations caps the regulation titles attached to one record.
const maxRelatedRegulations = 5

// Manager serves locally-known regulation excerpts. Snippets are loaded once
// from a JSON document and matched to rules by explicit rule id lists; no
// network access is ever involved.
type Manager struct {
	mu       sync.RWMutex
	path     string
	snippets []models.PolicySnippet
	byRule   map[string][]int
	logger   arbor.ILogger
}

// Load reads the snippet document at path, bootstrapping the default set when
// the file is missing or unreadable and persisting the bootstrap back.
func Load(path string, logger arbor.ILogger) (*Manager, error) {
	m := &Manager{path: path, logger: logger}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var doc struct {
			Snippets []models.PolicySnippet `json:"snippets"`
		}
		if jsonErr := json.Unmarshal(data, &doc); jsonErr != nil || len(doc.Snippets) == 0 {
			logger.Warn().Str("path", path).Msg("Policy snippets unreadable or empty, bootstrapping defaults")
			m.setSnippets(DefaultSnippets())
			if err := m.persist(); err != nil {
				return nil, err
			}
		} else {
			m.setSnippets(doc.Snippets)
			logger.Info().Str("path", path).Int("snippets", len(doc.Snippets)).Msg("Loaded policy snippets")
		}
	case os.IsNotExist(err):
		m.setSnippets(DefaultSnippets())
		if err := m.persist(); err != nil {
			return nil, err
		}
		logger.Info().Str("path", path).Int("snippets", len(m.snippets)).Msg("Bootstrapped default policy snippets")
	default:
		return nil, fmt.Errorf("failed to read policy snippets: %w", err)
	}

	return m, nil
}

// NewFromSnippets builds an in-memory manager without a backing file.
func NewFromSnippets(snippets []models.PolicySnippet) *Manager {
	m := &Manager{}
	m.setSnippets(snippets)
	return m
}

func (m *Manager) setSnippets(snippets []models.PolicySnippet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snippets = snippets
	m.byRule = make(map[string][]int)
	for i, s := range snippets {
		for _, ruleID := range s.RuleIDs {
			m.byRule[ruleID] = append(m.byRule[ruleID], i)
		}
	}
}

// All returns every snippet.
func (m *Manager) All() []models.PolicySnippet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.PolicySnippet, len(m.snippets))
	copy(out, m.snippets)
	return out
}

// ForRules returns the deduplicated regulation titles mapped to the given
// rule ids, in first-match order, capped at maxRelatedRegulations.
func (m *Manager) ForRules(ruleIDs []string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	titles := make([]string, 0, maxRelatedRegulations)
	for _, ruleID := range ruleIDs {
		for _, i := range m.byRule[ruleID] {
			title := m.snippets[i].Title
			if title == "" || seen[title] {
				continue
			}
			seen[title] = true
			titles = append(titles, title)
			if len(titles) == maxRelatedRegulations {
				return titles
			}
		}
	}
	return titles
}

// SnippetsForRules returns full snippets for the given rule ids, deduplicated
// by regulation id, for prompt construction.
func (m *Manager) SnippetsForRules(ruleIDs []string) []models.PolicySnippet {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var out []models.PolicySnippet
	for _, ruleID := range ruleIDs {
		for _, i := range m.byRule[ruleID] {
			s := m.snippets[i]
			if seen[s.RegulationID] {
				continue
			}
			seen[s.RegulationID] = true
			out = append(out, s)
		}
	}
	return out
}

func (m *Manager) persist() error {
	if m.path == "" {
		return nil
	}
	m.mu.RLock()
	doc := struct {
		Snippets []models.PolicySnippet `json:"snippets"`
	}{Snippets: m.snippets}
	m.mu.RUnlock()

	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create policy directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal policy snippets: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write policy snippets: %w", err)
	}
	return nil
}
