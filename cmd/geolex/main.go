package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/geolex/internal/catalog"
	"github.com/ternarybob/geolex/internal/common"
	"github.com/ternarybob/geolex/internal/engine"
	"github.com/ternarybob/geolex/internal/evidence"
	"github.com/ternarybob/geolex/internal/llm"
	"github.com/ternarybob/geolex/internal/policy"
	"github.com/ternarybob/geolex/internal/synth"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

const usage = `Usage: geolex [flags] <command> [command flags]

Commands:
  evaluate   Evaluate one feature's evidence against the rule catalog
  explain    Evaluate and synthesize the explainable final record
  pipeline   Run the batch pipeline over a dataset CSV
  rules      List, enable, or disable catalog rules
  version    Print version information

Flags:
  -config, -c   Configuration file path (repeatable)
  -version, -v  Print version information
`

func main() {
	common.InstallCrashHandler("")
	defer common.RecoverWithCrashFile()
	common.LoadVersionFromFile()

	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Geolex version %s\n", common.GetVersion())
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	command, commandArgs := args[0], args[1:]

	if command == "version" {
		fmt.Printf("Geolex version %s\n", common.GetFullVersion())
		return
	}

	// Startup sequence: config (defaults -> files -> env), logger, banner.
	if len(configFiles) == 0 {
		if _, err := os.Stat("geolex.toml"); err == nil {
			configFiles = append(configFiles, "geolex.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	if err := config.Validate(); err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Debug().
		Str("artifacts_dir", config.Artifacts.Dir).
		Str("catalog_path", config.Rules.CatalogPath).
		Str("llm_provider", string(config.LLM.Provider)).
		Str("log_level", config.Logging.Level).
		Msg("Resolved configuration")

	var exitCode int
	switch command {
	case "evaluate":
		exitCode = runEvaluate(config, logger, commandArgs)
	case "explain":
		exitCode = runExplain(config, logger, commandArgs)
	case "pipeline":
		exitCode = runPipeline(config, logger, commandArgs)
	case "rules":
		exitCode = runRules(config, logger, commandArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		flag.Usage()
		exitCode = 2
	}
	os.Exit(exitCode)
}

// services bundles the evaluation stack shared by the commands.
type services struct {
	store       *evidence.Store
	catalog     *catalog.Catalog
	engine      *engine.Engine
	policy      *policy.Manager
	synthesizer *synth.Synthesizer
	closers     []func() error
}

func buildServices(config *common.Config, logger arbor.ILogger) (*services, error) {
	cat, err := catalog.Load(config.Rules.CatalogPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule catalog: %w", err)
	}

	policyMgr, err := policy.Load(config.Policy.SnippetsPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy snippets: %w", err)
	}

	reasoner, err := llm.NewReasoner(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize reasoning collaborator: %w", err)
	}

	svc := &services{
		store:       evidence.NewStore(config.Artifacts.Dir, logger),
		catalog:     cat,
		engine:      engine.New(cat, logger),
		policy:      policyMgr,
		synthesizer: synth.New(reasoner, policyMgr, logger),
	}
	if reasoner != nil {
		svc.closers = append(svc.closers, reasoner.Close)
	}
	return svc, nil
}

func (s *services) Close() {
	for _, close := range s.closers {
		_ = close()
	}
}

func printJSON(v interface{}) error {
	data, err := jsonMarshalIndent(v)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
