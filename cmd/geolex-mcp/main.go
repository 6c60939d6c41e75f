package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/geolex/internal/catalog"
	"github.com/ternarybob/geolex/internal/common"
	"github.com/ternarybob/geolex/internal/engine"
	"github.com/ternarybob/geolex/internal/evidence"
	"github.com/ternarybob/geolex/internal/policy"
	badgerstorage "github.com/ternarybob/geolex/internal/storage/badger"
	"github.com/ternarybob/geolex/internal/synth"
)

func main() {
	common.InstallCrashHandler("")
	defer common.RecoverWithCrashFile()
	common.LoadVersionFromFile()

	// Load configuration
	configPath := os.Getenv("GEOLEX_CONFIG")
	if configPath == "" {
		configPath = "geolex.toml"
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = ""
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logging to avoid cluttering MCP stdio
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	cat, err := catalog.Load(config.Rules.CatalogPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load rule catalog")
	}

	policyMgr, err := policy.Load(config.Policy.SnippetsPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load policy snippets")
	}

	db, err := badgerstorage.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open record archive")
	}
	archive := badgerstorage.NewRecordStorage(db, logger)
	defer archive.Close()

	store := evidence.NewStore(config.Artifacts.Dir, logger)
	eng := engine.New(cat, logger)
	// Deterministic synthesis only; MCP clients do their own reasoning.
	synthesizer := synth.New(nil, policyMgr, logger)

	mcpServer := server.NewMCPServer(
		"geolex",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createEvaluateFeatureTool(), handleEvaluateFeature(store, eng, archive, logger))
	mcpServer.AddTool(createExplainFeatureTool(), handleExplainFeature(store, eng, synthesizer, archive, logger))
	mcpServer.AddTool(createListRulesTool(), handleListRules(cat, logger))
	mcpServer.AddTool(createGetRecordTool(), handleGetRecord(archive, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
