package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/geolex/internal/interfaces"
)

const systemPrompt = `You are a compliance analyst reviewing machine-collected evidence about a software feature.
A deterministic rules engine has already decided which compliance rules matched; you must not change that outcome.
Your job is to write a clear reasoning narrative, cite the most relevant evidence locations, and judge whether a human should review the record.

Respond with a single JSON object and nothing else:
{
  "reasoning": "2-4 sentence narrative referencing the matched rules and evidence",
  "related_regulations": ["regulation titles drawn from the provided excerpts"],
  "evidence_refs": ["evidence categories that drove the outcome, e.g. geo_branching, persona"],
  "code_refs": ["file:line references from the evidence, most relevant first"],
  "runtime_observation": "one sentence on runtime behavior, or empty string if no runtime evidence",
  "confidence": refined confidence between 0.0 and 1.0 (omit to keep the rules engine score),
  "needs_review": true or false,
  "severity": "low" | "medium" | "high" | "critical"
}`

// BuildPrompt renders the user message for one reasoning request: the rule
// outcome, the evidence pack, and the regulation excerpts mapped to the
// matched rules.
func BuildPrompt(req *interfaces.ReasoningRequest) (string, error) {
	packMap, err := req.Pack.ToMap()
	if err != nil {
		return "", fmt.Errorf("failed to serialize evidence pack: %w", err)
	}

	payload := map[string]interface{}{
		"feature_id":  req.Pack.FeatureID,
		"evidence":    packMap,
		"rule_result": req.Result,
	}

	evidenceJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize reasoning payload: %w", err)
	}

	var b strings.Builder
	b.WriteString("## Evidence and rule outcome\n\n")
	b.Write(evidenceJSON)
	b.WriteString("\n\n## Regulation excerpts\n\n")
	if len(req.Snippets) == 0 {
		b.WriteString("(none mapped to the matched rules)\n")
	}
	for _, s := range req.Snippets {
		fmt.Fprintf(&b, "### %s (%s)\n%s\n\n", s.Title, s.Jurisdiction, s.Content)
	}
	b.WriteString("\nProduce the JSON response now.")

	return b.String(), nil
}
