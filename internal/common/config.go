package common

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig   `toml:"logging"`
	Artifacts   ArtifactsConfig `toml:"artifacts"`
	Rules       RulesConfig     `toml:"rules"`
	Policy      PolicyConfig    `toml:"policy"`
	Storage     StorageConfig   `toml:"storage"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	Pipeline    PipelineConfig  `toml:"pipeline"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// ArtifactsConfig locates the file-resident evidence and record documents
type ArtifactsConfig struct {
	Dir string `toml:"dir"` // Directory holding {feature_id}.json and derived documents
}

// RulesConfig locates the rule catalog document
type RulesConfig struct {
	CatalogPath string `toml:"catalog_path"` // JSON or YAML catalog file; bootstrapped with defaults when missing
}

// PolicyConfig locates the local regulation snippet document
type PolicyConfig struct {
	SnippetsPath string `toml:"snippets_path"` // JSON snippets file; bootstrapped with defaults when missing
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration for the record archive
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for reasoning calls (default: "gemini-2.0-flash")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key (falls back to ANTHROPIC_API_KEY)
	Model       string  `toml:"model"`       // Model for reasoning calls (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 4096)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// LLMProvider represents the reasoning provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderNone disables the reasoning collaborator; every record is
	// synthesized by the deterministic fallback.
	LLMProviderNone LLMProvider = "none"
)

// LLMConfig selects the reasoning collaborator
type LLMConfig struct {
	Provider   LLMProvider `toml:"provider"`    // "gemini", "claude", or "none" (default: "none")
	MaxRetries int         `toml:"max_retries"` // Retry attempts on rate limit errors (default: 3)
}

// PipelineConfig controls batch evaluation runs
type PipelineConfig struct {
	DatasetPath string `toml:"dataset_path"` // CSV dataset of features to evaluate
	ExportPath  string `toml:"export_path"`  // CSV export of final records (default: "./artifacts/records.csv")
	ReportPath  string `toml:"report_path"`  // HTML report path (default: "./artifacts/report.html")
	Concurrency int    `toml:"concurrency"`  // Parallel feature evaluations (default: 4)
}

// SchedulerConfig controls periodic pipeline runs
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`  // Disabled by default; user must opt in
	Schedule string `toml:"schedule"` // Cron schedule format (default: "0 0 */6 * * *")
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in geolex.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Artifacts: ArtifactsConfig{
			Dir: "./artifacts",
		},
		Rules: RulesConfig{
			CatalogPath: "./rules/catalog.json",
		},
		Policy: PolicyConfig{
			SnippetsPath: "./rules/policy_snippets.json",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Gemini: GeminiConfig{
			APIKey:      "", // User must provide API key (no fallback)
			Model:       "gemini-2.0-flash",
			Timeout:     "2m",
			RateLimit:   "4s", // 15 RPM for free tier
			Temperature: 0.2,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   4096,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.2,
		},
		LLM: LLMConfig{
			Provider:   LLMProviderNone, // Deterministic fallback unless a provider is configured
			MaxRetries: 3,
		},
		Pipeline: PipelineConfig{
			DatasetPath: "./dataset.csv",
			ExportPath:  "./artifacts/records.csv",
			ReportPath:  "./artifacts/report.html",
			Concurrency: 4,
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Schedule: "0 0 */6 * * *", // Every 6 hours (cron format)
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files, later files
// overriding earlier files. Priority: Environment variables > Last config
// file > ... > First config file > Defaults.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("GEOLEX_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("GEOLEX_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if dir := os.Getenv("GEOLEX_ARTIFACTS_DIR"); dir != "" {
		config.Artifacts.Dir = dir
	}
	if path := os.Getenv("GEOLEX_RULES_CATALOG"); path != "" {
		config.Rules.CatalogPath = path
	}
	if path := os.Getenv("GEOLEX_POLICY_SNIPPETS"); path != "" {
		config.Policy.SnippetsPath = path
	}

	if path := os.Getenv("GEOLEX_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	if key := os.Getenv("GEOLEX_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	} else if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if model := os.Getenv("GEOLEX_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	if key := os.Getenv("GEOLEX_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if model := os.Getenv("GEOLEX_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	if provider := os.Getenv("GEOLEX_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = LLMProvider(provider)
	}

	if dataset := os.Getenv("GEOLEX_PIPELINE_DATASET"); dataset != "" {
		config.Pipeline.DatasetPath = dataset
	}
	if concurrency := os.Getenv("GEOLEX_PIPELINE_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil && c > 0 {
			config.Pipeline.Concurrency = c
		}
	}

	if schedule := os.Getenv("GEOLEX_SCHEDULER_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
}

// Validate checks configuration consistency before services start.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case LLMProviderGemini, LLMProviderClaude, LLMProviderNone:
	default:
		return fmt.Errorf("invalid llm provider '%s': must be 'gemini', 'claude', or 'none'", c.LLM.Provider)
	}
	if c.Artifacts.Dir == "" {
		return fmt.Errorf("artifacts.dir is required")
	}
	if c.Rules.CatalogPath == "" {
		return fmt.Errorf("rules.catalog_path is required")
	}
	if c.Pipeline.Concurrency <= 0 {
		return fmt.Errorf("pipeline.concurrency must be greater than 0, got %d", c.Pipeline.Concurrency)
	}
	return nil
}
