package llm

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/geolex/internal/interfaces"
)

// provider is the completion backend behind a Reasoner.
type provider interface {
	name() string
	complete(ctx context.Context, system, user string) (string, error)
	healthCheck(ctx context.Context) error
	close() error
}

// Reasoner adapts a completion provider to the reasoning collaborator
// contract: rate limiting, rate-limit retries, prompt construction, and
// response parsing. Every failure path returns a CollaboratorFailure.
type Reasoner struct {
	provider provider
	limiter  *rate.Limiter
	retry    *RetryConfig
	logger   arbor.ILogger
}

func newReasoner(p provider, minInterval time.Duration, retry *RetryConfig, logger arbor.ILogger) *Reasoner {
	if retry == nil {
		retry = NewDefaultRetryConfig()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if minInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return &Reasoner{
		provider: p,
		limiter:  limiter,
		retry:    retry,
		logger:   logger,
	}
}

// Name identifies the underlying provider.
func (r *Reasoner) Name() string {
	return r.provider.name()
}

// Enrich builds the reasoning prompt, calls the provider with rate limiting
// and retries, and parses the JSON enrichment from the response.
func (r *Reasoner) Enrich(ctx context.Context, req *interfaces.ReasoningRequest) (*interfaces.Enrichment, error) {
	userPrompt, err := BuildPrompt(req)
	if err != nil {
		return nil, failure(r.Name(), "request", err)
	}

	startTime := time.Now()
	response, err := r.completeWithRetry(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, failure(r.Name(), "response", err)
	}

	enrichment, err := parseEnrichment(response)
	if err != nil {
		r.logger.Warn().Err(err).
			Str("provider", r.Name()).
			Str("feature_id", req.Pack.FeatureID).
			Msg("Collaborator response unparseable")
		return nil, failure(r.Name(), "parse", err)
	}

	r.logger.Debug().
		Str("provider", r.Name()).
		Str("feature_id", req.Pack.FeatureID).
		Dur("duration", time.Since(startTime)).
		Msg("Collaborator enrichment completed")

	return enrichment, nil
}

// completeWithRetry retries rate-limited calls with backoff; other errors
// surface immediately.
func (r *Reasoner) completeWithRetry(ctx context.Context, system, user string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.retry.MaxRetries; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", err
		}

		response, err := r.provider.complete(ctx, system, user)
		if err == nil {
			return response, nil
		}
		if !IsRateLimitError(err) {
			return "", err
		}
		lastErr = err

		if attempt == r.retry.MaxRetries {
			break
		}
		backoff := r.retry.CalculateBackoff(attempt, ExtractRetryDelay(err))
		r.logger.Warn().Err(err).
			Str("provider", r.Name()).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("Rate limited, backing off")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}
	return "", lastErr
}

// HealthCheck probes the underlying provider.
func (r *Reasoner) HealthCheck(ctx context.Context) error {
	return r.provider.healthCheck(ctx)
}

// Close releases provider resources.
func (r *Reasoner) Close() error {
	return r.provider.close()
}
