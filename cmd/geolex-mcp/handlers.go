package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/geolex/internal/catalog"
	"github.com/ternarybob/geolex/internal/engine"
	"github.com/ternarybob/geolex/internal/evidence"
	"github.com/ternarybob/geolex/internal/interfaces"
	"github.com/ternarybob/geolex/internal/synth"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// handleEvaluateFeature implements the evaluate_feature tool
func handleEvaluateFeature(store *evidence.Store, eng *engine.Engine, archive interfaces.RecordStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		featureID, err := request.RequireString("feature_id")
		if err != nil || featureID == "" {
			return textResult("Error: feature_id parameter is required"), nil
		}

		pack, err := store.LoadEvidence(featureID)
		if err != nil {
			logger.Error().Err(err).Str("feature_id", featureID).Msg("Evidence load failed")
			return textResult(fmt.Sprintf("Evidence error: %v", err)), nil
		}

		result, failures := eng.Evaluate(pack)
		if err := store.SaveRulesResult(result); err != nil {
			logger.Warn().Err(err).Str("feature_id", featureID).Msg("Failed to write rules result")
		}
		if err := archive.SaveRulesResult(result); err != nil {
			logger.Warn().Err(err).Str("feature_id", featureID).Msg("Failed to archive rules result")
		}

		return textResult(formatRulesResult(result, failures)), nil
	}
}

// handleExplainFeature implements the explain_feature tool
func handleExplainFeature(store *evidence.Store, eng *engine.Engine, synthesizer *synth.Synthesizer, archive interfaces.RecordStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		featureID, err := request.RequireString("feature_id")
		if err != nil || featureID == "" {
			return textResult("Error: feature_id parameter is required"), nil
		}

		pack, err := store.LoadEvidence(featureID)
		if err != nil {
			logger.Error().Err(err).Str("feature_id", featureID).Msg("Evidence load failed")
			return textResult(fmt.Sprintf("Evidence error: %v", err)), nil
		}

		result, _ := eng.Evaluate(pack)
		if err := store.SaveRulesResult(result); err != nil {
			logger.Warn().Err(err).Str("feature_id", featureID).Msg("Failed to write rules result")
		}

		record := synthesizer.Synthesize(ctx, pack, result)
		if err := store.SaveFinalRecord(record); err != nil {
			logger.Warn().Err(err).Str("feature_id", featureID).Msg("Failed to write final record")
		}
		if err := archive.SaveFinalRecord(record); err != nil {
			logger.Warn().Err(err).Str("feature_id", featureID).Msg("Failed to archive final record")
		}

		return textResult(formatFinalRecord(record)), nil
	}
}

// handleListRules implements the list_rules tool
func handleListRules(cat *catalog.Catalog, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		enabledOnly := request.GetBool("enabled_only", false)

		rules := cat.Rules()
		if enabledOnly {
			rules = cat.Enabled()
		}

		return textResult(formatRules(rules)), nil
	}
}

// handleGetRecord implements the get_record tool
func handleGetRecord(archive interfaces.RecordStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		featureID, err := request.RequireString("feature_id")
		if err != nil || featureID == "" {
			return textResult("Error: feature_id parameter is required"), nil
		}

		record, err := archive.GetFinalRecord(featureID)
		if err != nil {
			logger.Error().Err(err).Str("feature_id", featureID).Msg("Record lookup failed")
			return textResult(fmt.Sprintf("Record not found: %v", err)), nil
		}

		return textResult(formatFinalRecord(record)), nil
	}
}
