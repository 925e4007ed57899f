package views

type ErrorParams struct {
	Page
	Status  int
	Message string
}

var errorText = `{{define "title"}}{{.Message}}{{end}}
{{define "content"}}
<h1>{{.Message}}</h1>
<p>Something went wrong while handling your request. Please try again later.</p>
<p><a href="/">Back to the start page</a></p>
{{end}}
`

var ErrorTemplate = parsePage(errorText)

var notFoundText = `{{define "title"}}Not Found{{end}}
{{define "content"}}
<h1>Not found</h1>
<p>The page or record you asked for does not exist.</p>
<p><a href="/">Back to the start page</a></p>
{{end}}
`

var NotFoundTemplate = parsePage(notFoundText)
