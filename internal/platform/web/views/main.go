package views

type MainParams struct {
	Page
	Username string
}

var mainText = `{{define "title"}}Home{{end}}
{{define "content"}}
<h1>Hello, {{.Username}}</h1>
<ul>
  <li><a href="/patients">Your patients</a></li>
  <li><a href="/add-pat">Add a patient</a></li>
  <li><a href="/survey">Submit a survey</a></li>
  <li><a href="/diagrams">Score trends</a></li>
</ul>
{{end}}
`

var MainTemplate = parsePage(mainText)

type NextPatientParams struct {
	Page
}

var nextPatientText = `{{define "title"}}Patient Added{{end}}
{{define "content"}}
<h1>Patient added</h1>
<p><a href="/add-pat">Add another patient</a> or <a href="/survey">submit a survey</a>.</p>
{{end}}
`

var NextPatientTemplate = parsePage(nextPatientText)

type DeletedParams struct {
	Page
}

var deletedText = `{{define "title"}}Account Deleted{{end}}
{{define "content"}}
<h1>Account deleted</h1>
<p>Your account has been removed. Patient records you created are kept.</p>
<p><a href="/">Back to the start page</a></p>
{{end}}
`

var DeletedTemplate = parsePage(deletedText)
