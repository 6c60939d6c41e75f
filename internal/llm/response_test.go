package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/geolex/internal/models"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain JSON",
			input:    `{"reasoning": "ok"}`,
			expected: `{"reasoning": "ok"}`,
		},
		{
			name:     "json code fence",
			input:    "```json\n{\"reasoning\": \"ok\"}\n```",
			expected: `{"reasoning": "ok"}`,
		},
		{
			name:     "bare code fence",
			input:    "```\n{\"reasoning\": \"ok\"}\n```",
			expected: `{"reasoning": "ok"}`,
		},
		{
			name:     "surrounding prose",
			input:    "Here is my assessment:\n{\"reasoning\": \"ok\"}\nLet me know if you need more.",
			expected: `{"reasoning": "ok"}`,
		},
		{
			name:     "leading whitespace",
			input:    "\n\n  {\"reasoning\": \"ok\"}  \n",
			expected: `{"reasoning": "ok"}`,
		},
		{
			name:     "no JSON at all",
			input:    "I cannot answer that.",
			expected: "I cannot answer that.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSON(tt.input))
		})
	}
}

func TestParseEnrichment_Valid(t *testing.T) {
	response := "```json\n" + `{
		"reasoning": "Feature gates Utah minors after curfew hours.",
		"related_regulations": ["Utah Social Media Regulation Act"],
		"evidence_refs": ["geo_branching"],
		"code_refs": ["geo.go:42"],
		"runtime_observation": "Posting blocked.",
		"needs_review": false,
		"severity": "high"
	}` + "\n```"

	e, err := parseEnrichment(response)
	require.NoError(t, err)
	assert.Equal(t, "Feature gates Utah minors after curfew hours.", e.Reasoning)
	assert.Equal(t, []string{"Utah Social Media Regulation Act"}, e.RelatedRegulations)
	assert.Equal(t, models.SeverityHigh, e.Severity)
	require.NotNil(t, e.NeedsReview)
	assert.False(t, *e.NeedsReview)
	assert.Nil(t, e.Confidence)
}

func TestParseEnrichment_Confidence(t *testing.T) {
	e, err := parseEnrichment(`{"reasoning": "ok", "confidence": 0.95}`)
	require.NoError(t, err)
	require.NotNil(t, e.Confidence)
	assert.InDelta(t, 0.95, *e.Confidence, 0.0001)

	// Out-of-range values are dropped
	e, err = parseEnrichment(`{"reasoning": "ok", "confidence": 1.5}`)
	require.NoError(t, err)
	assert.Nil(t, e.Confidence)

	e, err = parseEnrichment(`{"reasoning": "ok", "confidence": -0.2}`)
	require.NoError(t, err)
	assert.Nil(t, e.Confidence)
}

func TestParseEnrichment_OmittedReviewStaysUnset(t *testing.T) {
	e, err := parseEnrichment(`{"reasoning": "ok", "severity": "high"}`)
	require.NoError(t, err)
	assert.Nil(t, e.NeedsReview)
}

func TestParseEnrichment_InvalidSeverityBlanked(t *testing.T) {
	e, err := parseEnrichment(`{"reasoning": "ok", "severity": "catastrophic"}`)
	require.NoError(t, err)
	assert.Empty(t, e.Severity)
}

func TestParseEnrichment_EmptyReasoningRejected(t *testing.T) {
	_, err := parseEnrichment(`{"reasoning": "  ", "severity": "high"}`)
	assert.Error(t, err)
}

func TestParseEnrichment_InvalidJSON(t *testing.T) {
	_, err := parseEnrichment("definitely not json")
	assert.Error(t, err)
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, IsRateLimitError(errors.New("API error 429: too many requests")))
	assert.True(t, IsRateLimitError(errors.New("RESOURCE_EXHAUSTED: quota exceeded")))
	assert.True(t, IsRateLimitError(errors.New("model is overloaded")))
	assert.False(t, IsRateLimitError(errors.New("invalid api key")))
	assert.False(t, IsRateLimitError(nil))
}

func TestExtractRetryDelay(t *testing.T) {
	assert.Equal(t, 17*time.Second, ExtractRetryDelay(errors.New("429: Please retry in 17s")))
	assert.Equal(t, 12*time.Second, ExtractRetryDelay(errors.New("RESOURCE_EXHAUSTED retryDelay: 12s")))
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(errors.New("no delay here")))
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(nil))
}

func TestCalculateBackoff(t *testing.T) {
	cfg := NewDefaultRetryConfig()

	assert.Equal(t, 30*time.Second, cfg.CalculateBackoff(0, 0))
	assert.Equal(t, 45*time.Second, cfg.CalculateBackoff(1, 0))
	// Capped at MaxBackoff
	assert.Equal(t, 90*time.Second, cfg.CalculateBackoff(5, 0))
	// API-provided delay plus buffer takes precedence
	assert.Equal(t, 25*time.Second, cfg.CalculateBackoff(0, 20*time.Second))
}

func TestCollaboratorFailure_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &CollaboratorFailure{Provider: "claude", Stage: "request", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "claude")
	assert.Contains(t, err.Error(), "request")
}
