package pipeline

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/geolex/internal/models"
)

// reportData feeds the HTML report template.
type reportData struct {
	RunID            string
	GeneratedAt      string
	Total            int
	RequiresGeoLogic int
	NeedsReview      int
	AvgConfidence    float64
	SeverityCounts   map[string]int
	Records          []*models.FinalRecord
}

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Compliance Evaluation Report</title>
<style>
body { font-family: -apple-system, Segoe UI, sans-serif; margin: 2em; color: #1a1a1a; }
h1 { font-size: 1.5em; }
.summary { display: flex; gap: 2em; margin: 1em 0; }
.stat { background: #f4f4f6; padding: 1em 1.5em; border-radius: 8px; }
.stat b { display: block; font-size: 1.4em; }
.card { border: 1px solid #ddd; border-radius: 8px; padding: 1em 1.5em; margin: 1em 0; }
.card.flagged { border-left: 4px solid #c0392b; }
.sev { display: inline-block; padding: 0.1em 0.6em; border-radius: 4px; font-size: 0.85em; color: #fff; }
.sev.low { background: #27ae60; } .sev.medium { background: #f39c12; }
.sev.high { background: #e67e22; } .sev.critical { background: #c0392b; }
.meta { color: #666; font-size: 0.9em; }
ul { margin: 0.3em 0; }
</style>
</head>
<body>
<h1>Compliance Evaluation Report</h1>
<p class="meta">Run {{.RunID}} generated {{.GeneratedAt}}</p>
<div class="summary">
  <div class="stat"><b>{{.Total}}</b>features evaluated</div>
  <div class="stat"><b>{{.RequiresGeoLogic}}</b>require geo logic</div>
  <div class="stat"><b>{{.NeedsReview}}</b>need review</div>
  <div class="stat"><b>{{printf "%.2f" .AvgConfidence}}</b>avg confidence</div>
</div>
<h2>Severity distribution</h2>
<ul>
{{range $sev, $count := .SeverityCounts}}<li><span class="sev {{$sev}}">{{$sev}}</span> {{$count}}</li>
{{end}}</ul>
<h2>Features</h2>
{{range .Records}}{{if .}}
<div class="card{{if .NeedsReview}} flagged{{end}}">
  <h3>{{.FeatureID}} <span class="sev {{.Severity}}">{{.Severity}}</span></h3>
  <p class="meta">requires_geo_logic: {{.RequiresGeoLogic}} | confidence: {{printf "%.2f" .Confidence}} | needs_review: {{.NeedsReview}}</p>
  <p>{{.Reasoning}}</p>
  {{if .MatchedRules}}<p><b>Matched rules:</b> {{range $i, $r := .MatchedRules}}{{if $i}}, {{end}}{{$r}}{{end}}</p>{{end}}
  {{if .MissingControls}}<p><b>Missing controls:</b> {{range $i, $c := .MissingControls}}{{if $i}}, {{end}}{{$c}}{{end}}</p>{{end}}
  {{if .RelatedRegulations}}<p><b>Regulations:</b> {{range $i, $r := .RelatedRegulations}}{{if $i}}, {{end}}{{$r}}{{end}}</p>{{end}}
  {{if .CodeRefs}}<p class="meta"><b>Code:</b> {{range $i, $r := .CodeRefs}}{{if $i}}, {{end}}{{$r}}{{end}}</p>{{end}}
  {{if .RuntimeObservation}}<p class="meta">{{.RuntimeObservation}}</p>{{end}}
</div>
{{end}}{{end}}
</body>
</html>
`

// WriteReport renders the HTML report for one pipeline pass.
func WriteReport(summary *RunSummary, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	data := reportData{
		RunID:          summary.RunID,
		GeneratedAt:    time.Now().UTC().Format("2006-01-02 15:04:05 UTC"),
		Total:          summary.Total,
		SeverityCounts: make(map[string]int),
		Records:        summary.Records,
	}

	var confidenceSum float64
	var counted int
	for _, record := range summary.Records {
		if record == nil {
			continue
		}
		counted++
		confidenceSum += record.Confidence
		data.SeverityCounts[record.Severity]++
		if record.RequiresGeoLogic {
			data.RequiresGeoLogic++
		}
		if record.NeedsReview {
			data.NeedsReview++
		}
	}
	if counted > 0 {
		data.AvgConfidence = confidenceSum / float64(counted)
	}

	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse report template: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file %s: %w", path, err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
