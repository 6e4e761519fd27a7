package handlers

import (
	"html/template"
	"net/http"
	"time"

	"spyglass/internal/collector"
	"spyglass/pkg/middleware"
	"spyglass/pkg/version"
)

type dashboardData struct {
	Report      collector.Report
	GeneratedAt string
	Version     string
}

// Dashboard renders the HTML statistics page. An unreachable backend
// gets an explicit error panel; its section is never omitted.
func Dashboard(c middleware.Context) {
	report := stats.Snapshot(c.Request.Context())

	data := dashboardData{
		Report:      report,
		GeneratedAt: report.Timestamp.Format(time.RFC1123),
		Version:     version.Version,
	}

	tmpl, err := template.New("dashboard").Parse(dashboardTemplate)
	if err != nil {
		logger.WithError(err).Error("Failed to parse dashboard template")
		c.String(http.StatusInternalServerError, "Template error: %v", err)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")

	if err := tmpl.Execute(c.Writer, data); err != nil {
		logger.WithError(err).Error("Failed to execute dashboard template")
	}
}

const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Database Statistics Dashboard</title>
<style>
  body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; margin: 0; background: #0f1419; color: #e6e6e6; }
  header { padding: 16px 24px; background: #1a2129; border-bottom: 1px solid #2d3742; display: flex; justify-content: space-between; align-items: baseline; }
  header h1 { margin: 0; font-size: 1.3em; }
  header .meta { color: #8899a6; font-size: 0.85em; }
  .overall { padding: 10px 24px; font-weight: 600; }
  .overall.ok { background: #133c2a; color: #4caf7d; }
  .overall.bad { background: #3c1a13; color: #e06c55; }
  .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(380px, 1fr)); gap: 24px; padding: 24px; }
  .card { background: #1a2129; border: 1px solid #2d3742; border-radius: 8px; overflow: hidden; }
  .card h2 { margin: 0; padding: 14px 18px; font-size: 1.05em; border-bottom: 1px solid #2d3742; }
  .error-panel { padding: 18px; color: #e06c55; }
  table { width: 100%; border-collapse: collapse; }
  td { padding: 8px 18px; border-bottom: 1px solid #232d38; font-size: 0.9em; }
  td.name { color: #8899a6; }
  td.value { text-align: right; font-variant-numeric: tabular-nums; }
</style>
</head>
<body>
<header>
  <h1>Database Statistics</h1>
  <span class="meta">spyglass {{.Version}} &middot; generated {{.GeneratedAt}}</span>
</header>
{{if .Report.Healthy}}<div class="overall ok">All backends connected</div>
{{else}}<div class="overall bad">One or more backends unreachable</div>{{end}}
<div class="grid">
  <div class="card">
    <h2>Valkey</h2>
    {{if .Report.Valkey.Connected}}
    <table>
      {{range $name, $value := .Report.Valkey.Metrics}}
      <tr><td class="name">{{$name}}</td><td class="value">{{$value}}</td></tr>
      {{end}}
    </table>
    {{else}}
    <div class="error-panel">{{.Report.Valkey.Err}}</div>
    {{end}}
  </div>
  <div class="card">
    <h2>PostgreSQL</h2>
    {{if .Report.Postgres.Connected}}
    <table>
      {{range $name, $value := .Report.Postgres.Metrics}}
      <tr><td class="name">{{$name}}</td><td class="value">{{$value}}</td></tr>
      {{end}}
    </table>
    {{else}}
    <div class="error-panel">{{.Report.Postgres.Err}}</div>
    {{end}}
  </div>
</div>
</body>
</html>`
