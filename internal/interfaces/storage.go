package interfaces

import (
	"github.com/ternarybob/geolex/internal/models"
)

// RecordStorage archives evaluation outcomes across pipeline runs. The file
// documents under the artifacts directory remain the source of truth for the
// latest run; the archive adds history and indexed queries on top.
type RecordStorage interface {
	// SaveRulesResult archives one rule evaluation outcome.
	SaveRulesResult(result *models.RulesResult) error

	// SaveFinalRecord archives one synthesized record, superseding any
	// previous record for the same feature.
	SaveFinalRecord(record *models.FinalRecord) error

	// GetFinalRecord returns the archived record for a feature, or an error
	// when none exists.
	GetFinalRecord(featureID string) (*models.FinalRecord, error)

	// ListFinalRecords returns archived records, optionally filtered to those
	// flagged for human review.
	ListFinalRecords(needsReviewOnly bool) ([]*models.FinalRecord, error)

	// ListRulesResults returns archived rule outcomes for a feature, newest first.
	ListRulesResults(featureID string) ([]*models.RulesResult, error)

	// Close releases the underlying database.
	Close() error
}
