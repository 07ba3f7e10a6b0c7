// Package report aggregates a finished crawl session into a summary and
// renders it as JSON, plain text or HTML.
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	texttemplate "text/template"
	"time"

	"github.com/quarrylabs/quarry/internal/crawl"
)

// Summary contains aggregated metrics about one crawl session.
type Summary struct {
	SeedURL       string
	State         string
	PagesVisited  int
	PagesRendered int
	RobotsDenied  int
	RenderErrors  int
	SkippedDepth  int
	TotalRecords  int
	RecordsByKind map[string]int
	PageErrors    []crawl.PageError
	Warnings      []string
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}

// GenerateSummary folds a session result into a Summary.
func GenerateSummary(seedURL string, res *crawl.Result) Summary {
	s := Summary{
		SeedURL:       seedURL,
		RecordsByKind: make(map[string]int),
	}
	if res == nil {
		return s
	}

	s.State = string(res.State)
	s.PagesVisited = res.PagesVisited
	s.PagesRendered = res.PagesRendered
	s.RobotsDenied = res.RobotsDenied
	s.RenderErrors = res.RenderErrors
	s.SkippedDepth = res.SkippedDepth
	s.TotalRecords = len(res.Records)
	s.PageErrors = res.Errors
	s.Warnings = res.Warnings
	s.StartTime = res.StartTime
	s.EndTime = res.EndTime
	s.Duration = res.Duration()

	for _, r := range res.Records {
		s.RecordsByKind[string(r.Kind)]++
	}

	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Quarry Crawl Summary
--------------------
Seed:          {{.SeedURL}}
State:         {{.State}}
Time:          {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:      {{.Duration}}
Pages Visited: {{.PagesVisited}}
Pages Rendered:{{.PagesRendered}}
Robots Denied: {{.RobotsDenied}}
Render Errors: {{.RenderErrors}}
Skipped Depth: {{.SkippedDepth}}

Records: {{.TotalRecords}}
{{- range $kind, $count := .RecordsByKind}}
  {{$kind}}: {{$count}}
{{- else}}
  None
{{- end}}

Page Errors:
{{- range .PageErrors}}
  [{{.Stage}}] {{.URL}}: {{.Message}}
{{- else}}
  None
{{- end}}
`

	t, err := texttemplate.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("report: parse text template: %w", err)
	}
	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: render text: %w", err)
	}
	return nil
}

// WriteHTML writes a basic HTML report to the provided writer.
func WriteHTML(w io.Writer, summary Summary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Quarry Crawl Report</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
</style>
</head>
<body>
  <h1>Quarry Crawl Report</h1>
  <p><strong>Seed:</strong> {{.SeedURL}}</p>
  <p><strong>State:</strong> {{.State}}</p>
  <p><strong>Time:</strong> {{.StartTime.Format "2006-01-02 15:04:05"}} to {{.EndTime.Format "2006-01-02 15:04:05"}} ({{.Duration}})</p>

  <div class="stat-card">
    <div>Pages Rendered</div>
    <div class="stat-val">{{.PagesRendered}}</div>
  </div>
  <div class="stat-card">
    <div>Records</div>
    <div class="stat-val">{{.TotalRecords}}</div>
  </div>
  <div class="stat-card">
    <div>Render Errors</div>
    <div class="stat-val" style="color: {{if gt .RenderErrors 0}}red{{else}}green{{end}};">{{.RenderErrors}}</div>
  </div>
  <div class="stat-card">
    <div>Robots Denied</div>
    <div class="stat-val">{{.RobotsDenied}}</div>
  </div>

  <h3>Records by Kind</h3>
  <table>
    <tr><th>Kind</th><th>Count</th></tr>
    {{- range $kind, $count := .RecordsByKind}}
    <tr><td>{{$kind}}</td><td>{{$count}}</td></tr>
    {{- end}}
  </table>

  <h3>Page Errors</h3>
  <table>
    <tr><th>Stage</th><th>URL</th><th>Message</th></tr>
    {{- range .PageErrors}}
    <tr><td>{{.Stage}}</td><td>{{.URL}}</td><td>{{.Message}}</td></tr>
    {{- end}}
  </table>
</body>
</html>
`

	t, err := template.New("htmlReport").Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("report: parse html template: %w", err)
	}
	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: render html: %w", err)
	}
	return nil
}
