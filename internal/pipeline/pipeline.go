package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/geolex/internal/common"
	"github.com/ternarybob/geolex/internal/engine"
	"github.com/ternarybob/geolex/internal/evidence"
	"github.com/ternarybob/geolex/internal/interfaces"
	"github.com/ternarybob/geolex/internal/models"
	"github.com/ternarybob/geolex/internal/synth"
)

// DatasetEntry is one row of the batch dataset.
type DatasetEntry struct {
	FeatureID string
	RepoPath  string // optional; requires a Scanner when set
}

// RunSummary aggregates one pipeline pass.
type RunSummary struct {
	RunID     string                `json:"run_id"`
	Total     int                   `json:"total"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
	Duration  time.Duration         `json:"duration"`
	Records   []*models.FinalRecord `json:"records"`
}

// Pipeline runs the full evaluate-and-explain pass over a dataset of
// features. A failing feature yields an error record and never aborts the
// batch. Scan results are memoized by resolved repository path so features
// sharing a repo trigger one scan.
type Pipeline struct {
	store       *evidence.Store
	engine      *engine.Engine
	synthesizer *synth.Synthesizer
	scanner     interfaces.Scanner       // optional
	archive     interfaces.RecordStorage // optional
	logger      arbor.ILogger
	concurrency int

	scanMu    sync.Mutex
	scanCache map[string][]*models.EvidencePack
}

// New creates a pipeline. scanner and archive may be nil.
func New(store *evidence.Store, eng *engine.Engine, synthesizer *synth.Synthesizer, scanner interfaces.Scanner, archive interfaces.RecordStorage, concurrency int, logger arbor.ILogger) *Pipeline {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pipeline{
		store:       store,
		engine:      eng,
		synthesizer: synthesizer,
		scanner:     scanner,
		archive:     archive,
		logger:      logger,
		concurrency: concurrency,
		scanCache:   make(map[string][]*models.EvidencePack),
	}
}

// LoadDataset reads the batch dataset CSV. The first column is feature_id,
// the optional second column a repository path. A header row naming
// feature_id is skipped.
func LoadDataset(path string) ([]DatasetEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}

	var entries []DatasetEntry
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		featureID := strings.TrimSpace(row[0])
		if featureID == "" {
			continue
		}
		if i == 0 && strings.EqualFold(featureID, "feature_id") {
			continue
		}
		entry := DatasetEntry{FeatureID: featureID}
		if len(row) > 1 {
			entry.RepoPath = strings.TrimSpace(row[1])
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("dataset %s contains no features", path)
	}
	return entries, nil
}

// Run evaluates every dataset entry and returns the pass summary. Records
// appear in dataset order.
func (p *Pipeline) Run(ctx context.Context, entries []DatasetEntry) (*RunSummary, error) {
	runID := common.NewRunID()
	startTime := time.Now()

	p.logger.Info().
		Str("run_id", runID).
		Int("features", len(entries)).
		Int("concurrency", p.concurrency).
		Msg("Starting pipeline run")

	records := make([]*models.FinalRecord, len(entries))
	var failed int
	var mu sync.Mutex

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.concurrency; w++ {
		wg.Add(1)
		common.SafeGo(p.logger, "pipeline-worker", func() {
			defer wg.Done()
			for i := range jobs {
				record, evalErr := p.evaluateEntry(ctx, entries[i])
				mu.Lock()
				records[i] = record
				if evalErr != nil {
					failed++
				}
				mu.Unlock()
			}
		})
	}

	for i := range entries {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	summary := &RunSummary{
		RunID:     runID,
		Total:     len(entries),
		Succeeded: len(entries) - failed,
		Failed:    failed,
		Duration:  time.Since(startTime),
		Records:   records,
	}

	p.logger.Info().
		Str("run_id", runID).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Dur("duration", summary.Duration).
		Msg("Pipeline run completed")

	return summary, nil
}

// evaluateEntry runs one feature end to end. Any failure produces an error
// record; the returned error only marks the entry failed in the summary.
func (p *Pipeline) evaluateEntry(ctx context.Context, entry DatasetEntry) (*models.FinalRecord, error) {
	pack, err := p.loadOrScan(ctx, entry)
	if err != nil {
		p.logger.Warn().Err(err).Str("feature_id", entry.FeatureID).Msg("Evidence unavailable, writing error record")
		record := synth.ErrorRecord(entry.FeatureID, err)
		p.persistRecord(record)
		return record, err
	}

	result, failures := p.engine.Evaluate(pack)
	for _, f := range failures {
		p.logger.Warn().
			Str("feature_id", entry.FeatureID).
			Str("rule_id", f.RuleID).
			Str("reason", f.Reason).
			Msg("Rule failed during pipeline evaluation")
	}
	if err := p.store.SaveRulesResult(result); err != nil {
		p.logger.Warn().Err(err).Str("feature_id", entry.FeatureID).Msg("Failed to write rules result document")
	}
	if p.archive != nil {
		if err := p.archive.SaveRulesResult(result); err != nil {
			p.logger.Warn().Err(err).Str("feature_id", entry.FeatureID).Msg("Failed to archive rules result")
		}
	}

	record := p.synthesizer.Synthesize(ctx, pack, result)
	p.persistRecord(record)
	return record, nil
}

// loadOrScan resolves evidence for one entry: a scanner-backed entry scans
// its repository (memoized), otherwise the artifacts directory is read.
func (p *Pipeline) loadOrScan(ctx context.Context, entry DatasetEntry) (*models.EvidencePack, error) {
	if entry.RepoPath == "" || p.scanner == nil {
		return p.store.LoadEvidence(entry.FeatureID)
	}

	packs, err := p.scanRepo(ctx, entry.RepoPath)
	if err != nil {
		return nil, fmt.Errorf("scan failed for %s: %w", entry.RepoPath, err)
	}
	for _, pack := range packs {
		if pack.FeatureID == entry.FeatureID {
			return pack, nil
		}
	}
	return nil, fmt.Errorf("%w: scanner produced no evidence for feature %s", evidence.ErrNotFound, entry.FeatureID)
}

func (p *Pipeline) scanRepo(ctx context.Context, repoPath string) ([]*models.EvidencePack, error) {
	resolved, err := filepath.Abs(repoPath)
	if err != nil {
		resolved = repoPath
	}

	p.scanMu.Lock()
	if packs, ok := p.scanCache[resolved]; ok {
		p.scanMu.Unlock()
		return packs, nil
	}
	p.scanMu.Unlock()

	packs, err := p.scanner.Scan(ctx, resolved)
	if err != nil {
		return nil, err
	}

	p.scanMu.Lock()
	p.scanCache[resolved] = packs
	p.scanMu.Unlock()

	p.logger.Debug().Str("repo", resolved).Int("features", len(packs)).Msg("Scanned repository")
	return packs, nil
}

func (p *Pipeline) persistRecord(record *models.FinalRecord) {
	if err := p.store.SaveFinalRecord(record); err != nil {
		p.logger.Warn().Err(err).Str("feature_id", record.FeatureID).Msg("Failed to write final record document")
	}
	if p.archive != nil {
		if err := p.archive.SaveFinalRecord(record); err != nil {
			p.logger.Warn().Err(err).Str("feature_id", record.FeatureID).Msg("Failed to archive final record")
		}
	}
}
