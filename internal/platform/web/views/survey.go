package views

type SurveyParams struct {
	Page
	Patients  []SurveyPatient
	Questions []SurveyQuestion
	UserError string
}

type SurveyPatient struct {
	ID          string
	DisplayName string
	Selected    bool
}

type SurveyQuestion struct {
	Field    string
	Label    string
	Selected string
}

var surveyText = `{{define "title"}}Survey{{end}}
{{define "content"}}
<h1>ALSFRS survey</h1>
{{with .UserError}}<p class="alert alert-error">{{.}}</p>{{end}}
{{if .Patients}}
<form method="POST" action="/survey">
  <input type="hidden" name="_csrf" value="{{.CSRF}}">
  <label for="patientId">Patient</label>
  <select name="patientId" id="patientId" required>
    {{range .Patients}}<option value="{{.ID}}"{{if .Selected}} selected{{end}}>{{.DisplayName}}</option>{{end}}
  </select>
  {{range .Questions}}
  <label for="{{.Field}}">{{.Label}}</label>
  <select name="{{.Field}}" id="{{.Field}}" required>
    <option value=""></option>
    {{$sel := .Selected}}
    {{range $v := ratings}}<option value="{{$v}}"{{if eq $sel $v}} selected{{end}}>{{$v}}</option>{{end}}
  </select>
  {{end}}
  <input type="submit" value="Submit survey">
</form>
{{else}}
<p>You have no patients yet. <a href="/add-pat">Add a patient</a> first.</p>
{{end}}
{{end}}
`

var SurveyTemplate = parsePage(surveyText)
