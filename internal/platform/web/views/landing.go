package views

type LandingParams struct {
	Page
}

var landingText = `{{define "title"}}Welcome{{end}}
{{define "content"}}
<h1>ALS Tracker</h1>
<p>Record ALS patients, their visit history and ALSFRS functional-rating surveys.</p>
{{if .User}}
<p><a href="/main">Continue to your dashboard</a></p>
{{else}}
<p><a href="/sign-up">Create an account</a> or <a href="/log-in">log in</a>.</p>
{{end}}
{{end}}
`

var LandingTemplate = parsePage(landingText)
