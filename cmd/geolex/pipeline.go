package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/geolex/internal/common"
	"github.com/ternarybob/geolex/internal/pipeline"
	"github.com/ternarybob/geolex/internal/scheduler"
	badgerstorage "github.com/ternarybob/geolex/internal/storage/badger"
)

// runPipeline runs the batch pipeline once, or on a cron schedule with -watch.
func runPipeline(config *common.Config, logger arbor.ILogger, args []string) int {
	fs := flag.NewFlagSet("pipeline", flag.ExitOnError)
	datasetPath := fs.String("dataset", config.Pipeline.DatasetPath, "Dataset CSV path")
	exportPath := fs.String("export", config.Pipeline.ExportPath, "CSV export path (empty to skip)")
	reportPath := fs.String("report", config.Pipeline.ReportPath, "HTML report path (empty to skip)")
	watch := fs.Bool("watch", false, "Keep running and re-run on the configured cron schedule")
	_ = fs.Parse(args)

	svc, err := buildServices(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize services")
		return 1
	}
	defer svc.Close()

	// The archive gives pipeline runs history; evaluate/explain stay file-only.
	db, err := badgerstorage.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open record archive")
		return 1
	}
	archive := badgerstorage.NewRecordStorage(db, logger)
	defer archive.Close()

	p := pipeline.New(svc.store, svc.engine, svc.synthesizer, nil, archive, config.Pipeline.Concurrency, logger)

	runOnce := func(ctx context.Context) error {
		entries, err := pipeline.LoadDataset(*datasetPath)
		if err != nil {
			return err
		}
		summary, err := p.Run(ctx, entries)
		if err != nil {
			return err
		}
		if *exportPath != "" {
			if err := pipeline.ExportCSV(summary.Records, *exportPath); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			logger.Info().Str("path", *exportPath).Msg("Exported records CSV")
		}
		if *reportPath != "" {
			if err := pipeline.WriteReport(summary, *reportPath); err != nil {
				return fmt.Errorf("report failed: %w", err)
			}
			logger.Info().Str("path", *reportPath).Msg("Wrote HTML report")
		}
		if err := db.RunGC(); err != nil {
			logger.Warn().Err(err).Msg("Record archive GC failed")
		}
		return nil
	}

	if err := runOnce(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Pipeline run failed")
		return 1
	}

	if !*watch && !config.Scheduler.Enabled {
		return 0
	}

	schedConfig := config.Scheduler
	schedConfig.Enabled = true
	sched := scheduler.New(&schedConfig, runOnce, logger)
	if err := sched.Start(); err != nil {
		logger.Error().Err(err).Msg("Failed to start scheduler")
		return 1
	}

	logger.Info().Str("schedule", schedConfig.Schedule).Msg("Watching for scheduled runs - Press Ctrl+C to stop")
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Interrupt signal received")
	sched.Stop()
	return 0
}
