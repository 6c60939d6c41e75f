package llm

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/geolex/internal/common"
	"github.com/ternarybob/geolex/internal/interfaces"
)

// NewReasoner creates the reasoning collaborator selected by configuration.
// Provider "none" returns nil; callers treat a nil Reasoner as fallback-only
// synthesis.
func NewReasoner(cfg *common.Config, logger arbor.ILogger) (interfaces.Reasoner, error) {
	retry := NewDefaultRetryConfig()
	if cfg.LLM.MaxRetries > 0 {
		retry.MaxRetries = cfg.LLM.MaxRetries
	}

	switch cfg.LLM.Provider {
	case common.LLMProviderNone, "":
		logger.Info().Msg("No reasoning collaborator configured, using deterministic synthesis only")
		return nil, nil

	case common.LLMProviderClaude:
		logger.Info().Str("provider", "claude").Msg("Initializing reasoning collaborator")
		p, err := newClaudeProvider(&cfg.Claude, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Claude provider: %w", err)
		}
		return newReasoner(p, parseInterval(cfg.Claude.RateLimit), retry, logger), nil

	case common.LLMProviderGemini:
		logger.Info().Str("provider", "gemini").Msg("Initializing reasoning collaborator")
		p, err := newGeminiProvider(&cfg.Gemini, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini provider: %w", err)
		}
		return newReasoner(p, parseInterval(cfg.Gemini.RateLimit), retry, logger), nil

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.LLM.Provider)
	}
}

func parseInterval(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
