package evidence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/geolex/internal/models"
)

// Typed document errors. Both are fatal for the single feature only; the
// pipeline records an error record and continues the batch.
var (
	// ErrNotFound indicates the referenced evidence document does not exist.
	ErrNotFound = errors.New("evidence document not found")
	// ErrMalformed indicates the evidence document failed to parse or validate.
	ErrMalformed = errors.New("evidence document malformed")
)

// Store reads and writes the file-resident documents of one artifacts
// directory, keyed by feature id:
//
//	{feature_id}.json               evidence pack (input)
//	{feature_id}_rules_result.json  rules result (intermediate)
//	{feature_id}_final_record.json  final record (output)
type Store struct {
	dir    string
	logger arbor.ILogger
}

// NewStore creates a store rooted at dir, creating the directory on first write.
func NewStore(dir string, logger arbor.ILogger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Dir returns the artifacts directory this store is rooted at.
func (s *Store) Dir() string {
	return s.dir
}

// EvidencePath returns the evidence document path for a feature.
func (s *Store) EvidencePath(featureID string) string {
	return filepath.Join(s.dir, featureID+".json")
}

// LoadEvidence reads and validates the evidence pack for a feature.
// Returns ErrNotFound or ErrMalformed wrapped with detail.
func (s *Store) LoadEvidence(featureID string) (*models.EvidencePack, error) {
	return s.LoadEvidenceFile(s.EvidencePath(featureID))
}

// LoadEvidenceFile reads and validates an evidence pack from an explicit path.
func (s *Store) LoadEvidenceFile(path string) (*models.EvidencePack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}

	var pack models.EvidencePack
	if err := json.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	if err := pack.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}

	s.logger.Debug().Str("feature_id", pack.FeatureID).Str("path", path).Msg("Loaded evidence pack")
	return &pack, nil
}

// SaveRulesResult writes the rules result document alongside the evidence.
func (s *Store) SaveRulesResult(result *models.RulesResult) error {
	path := filepath.Join(s.dir, result.FeatureID+"_rules_result.json")
	return s.writeJSON(path, result)
}

// LoadRulesResult reads a previously written rules result for a feature.
func (s *Store) LoadRulesResult(featureID string) (*models.RulesResult, error) {
	path := filepath.Join(s.dir, featureID+"_rules_result.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	var result models.RulesResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	return &result, nil
}

// SaveFinalRecord writes the final record document alongside the evidence.
func (s *Store) SaveFinalRecord(record *models.FinalRecord) error {
	path := filepath.Join(s.dir, record.FeatureID+"_final_record.json")
	return s.writeJSON(path, record)
}

func (s *Store) writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	s.logger.Debug().Str("path", path).Msg("Wrote artifact document")
	return nil
}
