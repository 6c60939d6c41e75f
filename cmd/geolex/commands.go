package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/geolex/internal/common"
	"github.com/ternarybob/geolex/internal/models"
)

func jsonMarshalIndent(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// runEvaluate evaluates one feature's evidence and prints the rules result.
func runEvaluate(config *common.Config, logger arbor.ILogger, args []string) int {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	featureID := fs.String("feature", "", "Feature ID to evaluate (required)")
	evidencePath := fs.String("evidence", "", "Explicit evidence file path (overrides artifacts dir lookup)")
	_ = fs.Parse(args)

	if *featureID == "" && *evidencePath == "" {
		fmt.Fprintln(os.Stderr, "Error: -feature or -evidence is required")
		return 2
	}

	svc, err := buildServices(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize services")
		return 1
	}
	defer svc.Close()

	pack, err := loadPack(svc, *featureID, *evidencePath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load evidence")
		return 1
	}

	result, failures := svc.engine.Evaluate(pack)
	for _, f := range failures {
		logger.Warn().Str("rule_id", f.RuleID).Str("reason", f.Reason).Msg("Rule failed")
	}
	if err := svc.store.SaveRulesResult(result); err != nil {
		logger.Warn().Err(err).Msg("Failed to write rules result document")
	}

	if err := printJSON(result); err != nil {
		logger.Error().Err(err).Msg("Failed to render result")
		return 1
	}
	return 0
}

// runExplain evaluates one feature and synthesizes its final record.
func runExplain(config *common.Config, logger arbor.ILogger, args []string) int {
	fs := flag.NewFlagSet("explain", flag.ExitOnError)
	featureID := fs.String("feature", "", "Feature ID to explain (required)")
	evidencePath := fs.String("evidence", "", "Explicit evidence file path (overrides artifacts dir lookup)")
	_ = fs.Parse(args)

	if *featureID == "" && *evidencePath == "" {
		fmt.Fprintln(os.Stderr, "Error: -feature or -evidence is required")
		return 2
	}

	svc, err := buildServices(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize services")
		return 1
	}
	defer svc.Close()

	pack, err := loadPack(svc, *featureID, *evidencePath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load evidence")
		return 1
	}

	result, failures := svc.engine.Evaluate(pack)
	for _, f := range failures {
		logger.Warn().Str("rule_id", f.RuleID).Str("reason", f.Reason).Msg("Rule failed")
	}
	if err := svc.store.SaveRulesResult(result); err != nil {
		logger.Warn().Err(err).Msg("Failed to write rules result document")
	}

	record := svc.synthesizer.Synthesize(context.Background(), pack, result)
	if err := svc.store.SaveFinalRecord(record); err != nil {
		logger.Warn().Err(err).Msg("Failed to write final record document")
	}

	if err := printJSON(record); err != nil {
		logger.Error().Err(err).Msg("Failed to render record")
		return 1
	}
	return 0
}

func loadPack(svc *services, featureID, evidencePath string) (*models.EvidencePack, error) {
	if evidencePath != "" {
		return svc.store.LoadEvidenceFile(evidencePath)
	}
	return svc.store.LoadEvidence(featureID)
}

// runRules lists or toggles catalog rules.
func runRules(config *common.Config, logger arbor.ILogger, args []string) int {
	fs := flag.NewFlagSet("rules", flag.ExitOnError)
	enable := fs.String("enable", "", "Rule ID to enable")
	disable := fs.String("disable", "", "Rule ID to disable")
	_ = fs.Parse(args)

	svc, err := buildServices(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize services")
		return 1
	}
	defer svc.Close()

	if *enable != "" {
		if err := svc.catalog.SetEnabled(*enable, true); err != nil {
			logger.Error().Err(err).Msg("Failed to enable rule")
			return 1
		}
		logger.Info().Str("rule_id", *enable).Msg("Rule enabled")
	}
	if *disable != "" {
		if err := svc.catalog.SetEnabled(*disable, false); err != nil {
			logger.Error().Err(err).Msg("Failed to disable rule")
			return 1
		}
		logger.Info().Str("rule_id", *disable).Msg("Rule disabled")
	}

	fmt.Printf("%-32s %-10s %-9s %s\n", "ID", "SEVERITY", "ENABLED", "NAME")
	for _, rule := range svc.catalog.Rules() {
		status := ""
		if rule.CompileErr != nil {
			status = " (invalid logic)"
		}
		fmt.Printf("%-32s %-10s %-9t %s%s\n", rule.ID, rule.Severity, rule.Enabled, rule.Name, status)
	}
	return 0
}
