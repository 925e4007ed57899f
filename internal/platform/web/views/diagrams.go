package views

type DiagramsParams struct {
	Page
	Charts []Chart
}

// Chart is one patient's score trend drawn as an SVG polyline. Points are
// already in SVG coordinates.
type Chart struct {
	DisplayName string
	HistoryLink string
	Width       int
	Height      int
	Points      string
	Latest      string
	Count       int
}

var diagramsText = `{{define "title"}}Diagrams{{end}}
{{define "content"}}
<h1>Score trends</h1>
{{range .Charts}}
<section class="chart">
  <h2><a href="{{.HistoryLink}}">{{.DisplayName}}</a></h2>
  {{if .Count}}
  <svg width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}" role="img" aria-label="ALSFRS score over time">
    <rect x="0" y="0" width="{{.Width}}" height="{{.Height}}" fill="none" stroke="#ccc"/>
    <polyline points="{{.Points}}" fill="none" stroke="#1f5fa8" stroke-width="2"/>
  </svg>
  <p>{{.Count}} survey(s). Latest: {{.Latest}}</p>
  {{else}}
  <p>No surveys yet.</p>
  {{end}}
</section>
{{else}}
<p>No patients to chart. <a href="/add-pat">Add a patient</a>.</p>
{{end}}
{{end}}
`

var DiagramsTemplate = parsePage(diagramsText)
