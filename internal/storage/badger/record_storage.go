package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/geolex/internal/interfaces"
	"github.com/ternarybob/geolex/internal/models"
)

// RecordStorage implements the RecordStorage interface for Badger. Final
// records are keyed by feature id, so each pipeline pass supersedes the
// previous record; rules results are keyed by feature id plus timestamp to
// keep the evaluation history.
type RecordStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRecordStorage creates a new RecordStorage instance
func NewRecordStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RecordStorage {
	return &RecordStorage{
		db:     db,
		logger: logger,
	}
}

func (s *RecordStorage) SaveRulesResult(result *models.RulesResult) error {
	if result.FeatureID == "" {
		return fmt.Errorf("rules result feature ID is required")
	}
	if result.EvaluationTimestamp.IsZero() {
		result.EvaluationTimestamp = time.Now().UTC()
	}

	key := fmt.Sprintf("%s|%s", result.FeatureID, result.EvaluationTimestamp.Format(time.RFC3339Nano))
	if err := s.db.Store().Upsert(key, result); err != nil {
		return fmt.Errorf("failed to save rules result: %w", err)
	}
	return nil
}

func (s *RecordStorage) SaveFinalRecord(record *models.FinalRecord) error {
	if record.FeatureID == "" {
		return fmt.Errorf("final record feature ID is required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	if err := s.db.Store().Upsert(record.FeatureID, record); err != nil {
		return fmt.Errorf("failed to save final record: %w", err)
	}
	return nil
}

func (s *RecordStorage) GetFinalRecord(featureID string) (*models.FinalRecord, error) {
	var record models.FinalRecord
	if err := s.db.Store().Get(featureID, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("final record not found: %s", featureID)
		}
		return nil, fmt.Errorf("failed to get final record: %w", err)
	}
	return &record, nil
}

func (s *RecordStorage) ListFinalRecords(needsReviewOnly bool) ([]*models.FinalRecord, error) {
	query := badgerhold.Where("FeatureID").Ne("")
	if needsReviewOnly {
		query = query.And("NeedsReview").Eq(true)
	}
	query = query.SortBy("CreatedAt").Reverse()

	var records []models.FinalRecord
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list final records: %w", err)
	}

	result := make([]*models.FinalRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

func (s *RecordStorage) ListRulesResults(featureID string) ([]*models.RulesResult, error) {
	var results []models.RulesResult
	query := badgerhold.Where("FeatureID").Eq(featureID).SortBy("EvaluationTimestamp").Reverse()
	if err := s.db.Store().Find(&results, query); err != nil {
		return nil, fmt.Errorf("failed to list rules results: %w", err)
	}

	result := make([]*models.RulesResult, len(results))
	for i := range results {
		result[i] = &results[i]
	}
	return result, nil
}

// Close closes the underlying database connection.
func (s *RecordStorage) Close() error {
	return s.db.Close()
}
