package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/geolex/internal/interfaces"
	"github.com/ternarybob/geolex/internal/models"
)

// extractJSON pulls the JSON object out of a provider response, handling
// markdown code fences and surrounding prose.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```") {
		lines := strings.Split(response, "\n")
		var jsonLines []string
		inCodeBlock := false

		for _, line := range lines {
			if strings.HasPrefix(line, "```") {
				if inCodeBlock {
					break
				}
				inCodeBlock = true
				continue
			}
			if inCodeBlock {
				jsonLines = append(jsonLines, line)
			}
		}

		if len(jsonLines) > 0 {
			return strings.Join(jsonLines, "\n")
		}
	}

	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx >= 0 && endIdx > startIdx {
		return response[startIdx : endIdx+1]
	}

	return response
}

// parseEnrichment decodes and sanity-checks a provider response. An invalid
// severity falls back to empty so the synthesizer substitutes its own.
func parseEnrichment(response string) (*interfaces.Enrichment, error) {
	raw := extractJSON(response)

	var enrichment interfaces.Enrichment
	if err := json.Unmarshal([]byte(raw), &enrichment); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}
	if strings.TrimSpace(enrichment.Reasoning) == "" {
		return nil, fmt.Errorf("response has empty reasoning")
	}
	if enrichment.Severity != "" && !models.ValidSeverity(enrichment.Severity) {
		enrichment.Severity = ""
	}
	// An out-of-range confidence is dropped so the rules engine score stands.
	if enrichment.Confidence != nil && (*enrichment.Confidence < 0 || *enrichment.Confidence > 1) {
		enrichment.Confidence = nil
	}

	return &enrichment, nil
}
