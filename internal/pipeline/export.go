package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ternarybob/geolex/internal/models"
)

// exportColumns is the fixed CSV column order; downstream consumers depend
// on it, so new columns append at the end.
var exportColumns = []string{
	"feature_id",
	"requires_geo_logic",
	"confidence",
	"severity",
	"needs_review",
	"matched_rules",
	"missing_controls",
	"related_regulations",
	"code_refs",
	"runtime_observation",
	"reasoning",
	"created_at",
}

// ExportCSV writes the final records to a CSV file. List fields are joined
// with "; " to keep one row per feature.
func ExportCSV(records []*models.FinalRecord, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file %s: %w", path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(exportColumns); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}

	for _, record := range records {
		if record == nil {
			continue
		}
		row := []string{
			record.FeatureID,
			strconv.FormatBool(record.RequiresGeoLogic),
			strconv.FormatFloat(record.Confidence, 'f', 4, 64),
			record.Severity,
			strconv.FormatBool(record.NeedsReview),
			strings.Join(record.MatchedRules, "; "),
			strings.Join(record.MissingControls, "; "),
			strings.Join(record.RelatedRegulations, "; "),
			strings.Join(record.CodeRefs, "; "),
			record.RuntimeObservation,
			record.Reasoning,
			record.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write export row for %s: %w", record.FeatureID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush export: %w", err)
	}
	return nil
}
