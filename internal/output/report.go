package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"sort"
	"time"

	"github.com/selimozcann/LinkGuard/internal/engine"
	"github.com/selimozcann/LinkGuard/internal/model"
)

// Record represents one line in the JSONL report.
type Record struct {
	Timestamp     string              `json:"timestamp"`
	InputURL      string              `json:"input_url"`
	FinalURL      string              `json:"final_url"`
	Verdict       model.Verdict       `json:"verdict"`
	RiskLevel     model.RiskLevel     `json:"risk_level"`
	FastAllowed   bool                `json:"fast_allowed"`
	RedirectChain []string            `json:"redirect_chain"`
	FailedChecks  []model.SafetyCheck `json:"failed_checks,omitempty"`
	Findings      []model.Finding     `json:"findings,omitempty"`
	Score         int                 `json:"heuristic_score"`
	MLProbability float64             `json:"ml_probability"`
	DurationMs    int64               `json:"duration_ms"`
	Error         string              `json:"error,omitempty"`
}

// Summary contains counters for the HTML summary section.
type Summary struct {
	TotalTargets int
	Allowed      int
	Warned       int
	Blocked      int
	WithFindings int
	Errors       int
}

// ResultView is used by the HTML template with pre-computed fields.
type ResultView struct {
	Index        int
	Timestamp    time.Time
	InputURL     string
	FinalURL     string
	Verdict      model.Verdict
	RiskLevel    model.RiskLevel
	FastAllowed  bool
	Score        int
	DurationMs   int64
	Checks       []model.SafetyCheck
	FailedChecks int
	Findings     []model.Finding
	Chain        []model.Hop
	Error        string
}

// PageData provides the full context for the HTML report.
type PageData struct {
	Title         string
	GeneratedAt   time.Time
	Params        map[string]string
	OrderedParams []Param
	Summary       Summary
	Results       []ResultView
}

// Param represents a rendered CLI argument/value pair.
type Param struct {
	Key   string
	Value string
}

func chainOf(rep engine.Report) []model.Hop {
	if rep.Resolved == nil {
		return nil
	}
	return rep.Resolved.Chain
}

func failedChecks(checks []model.SafetyCheck) []model.SafetyCheck {
	var out []model.SafetyCheck
	for _, c := range checks {
		if !c.Passed && c.Severity != model.SeverityInfo {
			out = append(out, c)
		}
	}
	return out
}

// BuildRecord converts a report into a Record for JSONL output.
func BuildRecord(rep engine.Report) Record {
	chain := chainOf(rep)
	urls := make([]string, len(chain))
	for i, hop := range chain {
		urls[i] = hop.URL
	}
	return Record{
		Timestamp:     rep.StartedAt.UTC().Format(time.RFC3339),
		InputURL:      rep.Input,
		FinalURL:      rep.Target,
		Verdict:       rep.Verdict,
		RiskLevel:     rep.Review.RiskLevel,
		FastAllowed:   rep.FastAllowed,
		RedirectChain: urls,
		FailedChecks:  failedChecks(rep.Review.Checks),
		Findings:      append([]model.Finding(nil), rep.Findings...),
		Score:         rep.Heuristic.Score,
		MLProbability: rep.MLProbability,
		DurationMs:    rep.DurationMs,
		Error:         rep.Error,
	}
}

// BuildResultView converts a report into a ResultView for HTML rendering.
func BuildResultView(idx int, rep engine.Report) ResultView {
	return ResultView{
		Index:        idx,
		Timestamp:    rep.StartedAt,
		InputURL:     rep.Input,
		FinalURL:     rep.Target,
		Verdict:      rep.Verdict,
		RiskLevel:    rep.Review.RiskLevel,
		FastAllowed:  rep.FastAllowed,
		Score:        rep.Heuristic.Score,
		DurationMs:   rep.DurationMs,
		Checks:       append([]model.SafetyCheck(nil), rep.Review.Checks...),
		FailedChecks: len(failedChecks(rep.Review.Checks)),
		Findings:     append([]model.Finding(nil), rep.Findings...),
		Chain:        append([]model.Hop(nil), chainOf(rep)...),
		Error:        rep.Error,
	}
}

// BuildSummary derives high level counters from the reports.
func BuildSummary(reps []engine.Report) Summary {
	sum := Summary{TotalTargets: len(reps)}
	for _, rep := range reps {
		switch {
		case rep.Error != "":
			sum.Errors++
		case rep.Verdict == model.VerdictBlock:
			sum.Blocked++
		case rep.Verdict == model.VerdictWarn:
			sum.Warned++
		default:
			sum.Allowed++
		}
		if len(rep.Findings) > 0 {
			sum.WithFindings++
		}
	}
	return sum
}

// WriteJSONL writes each record as a JSON line to w.
func WriteJSONL(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"formatTime": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	"percent":    func(p float64) string { return fmt.Sprintf("%.0f%%", p*100) },
	"hopStatus": func(h model.Hop) string {
		if h.StatusCode == 0 {
			return "-"
		}
		return fmt.Sprint(h.StatusCode)
	},
}).Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
:root { color-scheme: light dark; }
body { font-family: system-ui, -apple-system, Segoe UI, Roboto, sans-serif; margin: 24px; background:#fafafa; color:#111; }
header { margin-bottom: 24px; }
h1 { font-size: 26px; margin: 0 0 8px; }
.section { border:1px solid #e5e7eb; border-radius:16px; padding:16px 20px; margin-bottom:18px; background:#fff; box-shadow:0 1px 2px rgba(15,23,42,0.08); }
h2 { font-size:20px; margin:0 0 12px; }
h3 { font-size:16px; margin:12px 0 6px; }
dt { font-weight:600; }
dd { margin:0 0 8px 0; }
.summary-grid { display:grid; gap:12px; grid-template-columns: repeat(auto-fit,minmax(160px,1fr)); }
.summary-card { display:block; padding:12px; border-radius:12px; border:1px solid #cbd5f5; text-decoration:none; color:inherit; position:relative; background:linear-gradient(180deg,#eef2ff,#fff); }
.summary-card[data-active="true"] { border-color:#4f46e5; box-shadow:0 0 0 2px rgba(79,70,229,0.4); }
.summary-card .badge { position:absolute; top:12px; right:12px; padding:2px 10px; border-radius:999px; background:#4f46e5; color:#fff; font-size:12px; }
.meta { color:#6b7280; font-size:12px; }
.result-row { border-top:1px solid #e5e7eb; padding-top:12px; margin-top:12px; }
.verdict { display:inline-block; padding:2px 8px; border-radius:999px; font-size:12px; margin-left:6px; color:#fff; }
.verdict-allow { background:#16a34a; }
.verdict-warn { background:#d97706; }
.verdict-block { background:#dc2626; }
.check-list { list-style:none; margin:8px 0; padding:0; }
.check-list li { padding:2px 0; }
.sev-danger { color:#dc2626; font-weight:600; }
.sev-warning { color:#d97706; font-weight:600; }
.sev-info { color:#6b7280; }
.table { width:100%; border-collapse:collapse; font-size:14px; }
.table th, .table td { border-bottom:1px solid #e5e7eb; padding:6px 8px; text-align:left; }
.chain-url { font-family: ui-monospace, SFMono-Regular, Menlo, Consolas, monospace; font-size:13px; }
.footer { text-align:center; font-size:12px; color:#6b7280; margin-top:24px; }
@media (prefers-color-scheme: dark) {
        body { background:#0f172a; color:#e2e8f0; }
        .section { background:#1e293b; border-color:#334155; box-shadow:none; }
        .summary-card { background:linear-gradient(180deg,#312e81,#1e293b); border-color:#4338ca; color:#e0e7ff; }
        .meta, .sev-info { color:#94a3b8; }
}
</style>
<script>
document.addEventListener('DOMContentLoaded', function() {
  const cards = document.querySelectorAll('[data-filter]');
  const rows = document.querySelectorAll('.result-row');
  const notice = document.getElementById('filterNotice');
  function apply(filter) {
    cards.forEach(c => c.dataset.active = (c.dataset.filter === filter ? 'true' : 'false'));
    rows.forEach(row => {
      const show = filter === 'all' || row.dataset.verdict === filter || (filter === 'findings' && Number(row.dataset.findings) > 0) || (filter === 'errors' && row.dataset.error === '1');
      row.style.display = show ? '' : 'none';
    });
    if (notice) {
      notice.textContent = filter === 'all' ? 'Showing all links.' : 'Filtered to: ' + filter + '.';
    }
  }
  cards.forEach(card => {
    card.addEventListener('click', function (ev) {
      ev.preventDefault();
      apply(card.dataset.filter || 'all');
    });
  });
  apply('all');
});
</script>
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  <p class="meta">Generated at {{formatTime .GeneratedAt}}</p>
</header>
<section id="summary" class="section">
  <h2>Summary</h2>
  <div class="summary-grid">
    <a class="summary-card" href="#results" data-filter="all"><strong>Total Links</strong><span class="badge">{{.Summary.TotalTargets}}</span></a>
    <a class="summary-card" href="#results" data-filter="allow"><strong>Allowed</strong><span class="badge">{{.Summary.Allowed}}</span></a>
    <a class="summary-card" href="#results" data-filter="warn"><strong>Warned</strong><span class="badge">{{.Summary.Warned}}</span></a>
    <a class="summary-card" href="#results" data-filter="block"><strong>Blocked</strong><span class="badge">{{.Summary.Blocked}}</span></a>
    <a class="summary-card" href="#results" data-filter="findings"><strong>Redirect Findings</strong><span class="badge">{{.Summary.WithFindings}}</span></a>
    <a class="summary-card" href="#results" data-filter="errors"><strong>Errors</strong><span class="badge">{{.Summary.Errors}}</span></a>
  </div>
</section>
{{if .OrderedParams}}
<section id="parameters" class="section">
  <h2>Parameters</h2>
  <dl>
  {{- range .OrderedParams }}
    <dt>{{.Key}}</dt>
    <dd><span class="chain-url">{{.Value}}</span></dd>
  {{- end }}
  </dl>
</section>
{{end}}
<section id="results" class="section">
  <h2>Results</h2>
  <p class="meta" id="filterNotice">Showing all links.</p>
  {{range .Results}}
  <div class="result-row" data-verdict="{{.Verdict}}" data-findings="{{len .Findings}}" data-error="{{if .Error}}1{{else}}0{{end}}">
    <h3><span class="chain-url">{{.InputURL}}</span>{{if .Verdict}}<span class="verdict verdict-{{.Verdict}}">{{.Verdict}}</span>{{end}}</h3>
    {{if .Error}}<p class="meta">Error: {{.Error}}</p>{{end}}
    {{if ne .FinalURL .InputURL}}<p class="meta">Destination: <span class="chain-url">{{.FinalURL}}</span></p>{{end}}
    <p class="meta">Risk {{.RiskLevel}} · heuristic score {{.Score}}{{if .FastAllowed}} · fast allowed{{end}}</p>
    <ul class="check-list">
      {{range .Checks}}
        <li class="{{if .Passed}}sev-info{{else}}sev-{{.Severity}}{{end}}">{{if .Passed}}✔{{else}}✘{{end}} {{.ID}}: {{.Description}}</li>
      {{end}}
    </ul>
    {{if .Findings}}
      <p><strong>Redirect Findings</strong></p>
      <ul>
        {{range .Findings}}
          <li class="sev-{{.Severity}}">{{.Type}} at hop {{.AtHop}}: {{.Detail}}</li>
        {{end}}
      </ul>
    {{end}}
    {{if .Chain}}
    <details>
      <summary>{{len .Chain}} hops</summary>
      <table class="table">
        <thead><tr><th>#</th><th>URL</th><th>Type</th><th>Status</th></tr></thead>
        <tbody>
        {{range $i, $h := .Chain}}
          <tr><td>{{$i}}</td><td class="chain-url">{{$h.URL}}</td><td>{{$h.Type}}</td><td>{{hopStatus $h}}</td></tr>
        {{end}}
        </tbody>
      </table>
    </details>
    {{end}}
    <p class="meta">Duration {{.DurationMs}}ms · Started {{formatTime .Timestamp}}</p>
  </div>
  {{end}}
</section>
<footer class="footer">
  LinkGuard report generated at {{formatTime .GeneratedAt}}
</footer>
</body>
</html>
`))

// RenderHTML renders the HTML report using the provided data.
func RenderHTML(w io.Writer, data PageData) error {
	if data.Params != nil {
		keys := make([]string, 0, len(data.Params))
		for k := range data.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ordered := make([]Param, 0, len(keys))
		for _, k := range keys {
			ordered = append(ordered, Param{Key: k, Value: data.Params[k]})
		}
		data.OrderedParams = ordered
	}
	return htmlTemplate.Execute(w, data)
}

// BuildPage assembles the page for a batch of reports.
func BuildPage(title string, generated time.Time, params map[string]string, reps []engine.Report) PageData {
	views := make([]ResultView, len(reps))
	for i, rep := range reps {
		views[i] = BuildResultView(i, rep)
	}
	return PageData{Title: title, GeneratedAt: generated, Params: params, Summary: BuildSummary(reps), Results: views}
}
