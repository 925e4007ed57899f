package views

import "time"

type HistoryParams struct {
	Page
	Patient HistoryPatient
	Surveys []HistorySurvey
	// Columns are the rating labels, in the order of HistorySurvey.Ratings.
	Columns []string
}

type HistoryPatient struct {
	DisplayName      string
	Address          string
	Sex              string
	Age              string
	SSN              string
	Phone            string
	Allergies        string
	Medications      string
	GeneticMutations string
	FamilyHistory    string
	MedicalHistory   string
	SymptomOnset     *time.Time
	FirstVisit       *time.Time
}

type HistorySurvey struct {
	SubmittedAt time.Time
	Ratings     []int
	TotalScore  int
	Percentage  string
	Rating      string
}

var historyText = `{{define "title"}}History: {{.Patient.DisplayName}}{{end}}
{{define "content"}}
<h1>{{.Patient.DisplayName}}</h1>
<dl>
  <dt>Address</dt><dd>{{.Patient.Address}}</dd>
  <dt>Sex</dt><dd>{{.Patient.Sex}}</dd>
  <dt>Age</dt><dd>{{.Patient.Age}}</dd>
  <dt>National identifier</dt><dd>{{.Patient.SSN}}</dd>
  <dt>Phone</dt><dd>{{.Patient.Phone}}</dd>
  <dt>Symptom onset</dt><dd>{{date .Patient.SymptomOnset}}</dd>
  <dt>First visit</dt><dd>{{date .Patient.FirstVisit}}</dd>
  <dt>Allergies</dt><dd>{{.Patient.Allergies}}</dd>
  <dt>Medications</dt><dd>{{.Patient.Medications}}</dd>
  <dt>Genetic mutations</dt><dd>{{.Patient.GeneticMutations}}</dd>
  <dt>Family history</dt><dd>{{.Patient.FamilyHistory}}</dd>
  <dt>Medical history</dt><dd>{{.Patient.MedicalHistory}}</dd>
</dl>

<h2>Surveys</h2>
{{if .Surveys}}
<table>
  <thead>
    <tr>
      <th>Date</th>
      {{range .Columns}}<th>{{.}}</th>{{end}}
      <th>Score</th><th>%</th><th>Rating</th>
    </tr>
  </thead>
  <tbody>
  {{range .Surveys}}
    <tr>
      <td>{{datetime .SubmittedAt}}</td>
      {{range .Ratings}}<td>{{.}}</td>{{end}}
      <td>{{.TotalScore}}</td>
      <td>{{.Percentage}}</td>
      <td>{{.Rating}}</td>
    </tr>
  {{end}}
  </tbody>
</table>
{{else}}
<p>No surveys recorded yet. <a href="/survey">Submit one</a>.</p>
{{end}}
{{end}}
`

var HistoryTemplate = parsePage(historyText)
