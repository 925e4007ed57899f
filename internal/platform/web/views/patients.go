package views

import "time"

type PatientsParams struct {
	Page
	AllPatients bool
	Patients    []PatientRow
}

type PatientRow struct {
	ID          string
	DisplayName string
	Sex         string
	Age         string
	Phone       string
	FirstVisit  *time.Time
	Owner       string
	HistoryLink string
	DeleteLink  string
}

var patientsText = `{{define "title"}}Patients{{end}}
{{define "content"}}
<h1>{{if .AllPatients}}All patients{{else}}Your patients{{end}}</h1>
{{if .Patients}}
<table>
  <thead>
    <tr>
      <th>Name</th><th>Sex</th><th>Age</th><th>Phone</th><th>First visit</th>
      {{if .AllPatients}}<th>Caregiver</th>{{end}}
      <th></th>
    </tr>
  </thead>
  <tbody>
  {{range .Patients}}
    <tr>
      <td><a href="{{.HistoryLink}}">{{.DisplayName}}</a></td>
      <td>{{.Sex}}</td>
      <td>{{.Age}}</td>
      <td>{{.Phone}}</td>
      <td>{{date .FirstVisit}}</td>
      {{if $.AllPatients}}<td>{{.Owner}}</td>{{end}}
      <td>
        <form method="POST" action="{{.DeleteLink}}">
          <input type="hidden" name="_csrf" value="{{$.CSRF}}">
          <input type="submit" value="Delete">
        </form>
      </td>
    </tr>
  {{end}}
  </tbody>
</table>
{{else}}
<p>No patients yet. <a href="/add-pat">Add one</a>.</p>
{{end}}
{{end}}
`

var PatientsTemplate = parsePage(patientsText)

// PatientForm echoes submitted values back when the form is re-rendered.
type PatientForm struct {
	FirstName        string
	LastName         string
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
	SymptomOnset     string
	FirstVisit       string
}

type AddPatientParams struct {
	Page
	Form      PatientForm
	UserError string
}

var addPatientText = `{{define "title"}}Add Patient{{end}}
{{define "content"}}
<h1>Add patient</h1>
{{with .UserError}}<p class="alert alert-error">{{.}}</p>{{end}}
<form method="POST" action="/add-pat">
  <input type="hidden" name="_csrf" value="{{.CSRF}}">
  <fieldset>
    <legend>Demographics</legend>
    <label for="fname">First name</label>
    <input type="text" name="fname" id="fname" value="{{.Form.FirstName}}">
    <label for="lname">Last name</label>
    <input type="text" name="lname" id="lname" value="{{.Form.LastName}}">
    <label for="address">Address</label>
    <input type="text" name="address" id="address" value="{{.Form.Address}}">
    <label for="gender">Sex</label>
    <select name="gender" id="gender">
      <option value=""></option>
      <option value="female"{{if eq .Form.Sex "female"}} selected{{end}}>Female</option>
      <option value="male"{{if eq .Form.Sex "male"}} selected{{end}}>Male</option>
      <option value="other"{{if eq .Form.Sex "other"}} selected{{end}}>Other</option>
    </select>
    <label for="age">Age</label>
    <input type="number" name="age" id="age" min="0" max="150" value="{{.Form.Age}}">
    <label for="ssn">National identifier</label>
    <input type="text" name="ssn" id="ssn" value="{{.Form.SSN}}">
    <label for="phone">Phone</label>
    <input type="tel" name="phone" id="phone" value="{{.Form.Phone}}">
  </fieldset>
  <fieldset>
    <legend>Clinical history</legend>
    <label for="allergies">Allergies</label>
    <textarea name="allergies" id="allergies">{{.Form.Allergies}}</textarea>
    <label for="medications">Medications</label>
    <textarea name="medications" id="medications">{{.Form.Medications}}</textarea>
    <label for="genetic-mutations">Genetic mutations</label>
    <textarea name="genetic-mutations" id="genetic-mutations">{{.Form.GeneticMutations}}</textarea>
    <label for="family-history">Family history</label>
    <textarea name="family-history" id="family-history">{{.Form.FamilyHistory}}</textarea>
    <label for="medical-history">Medical history</label>
    <textarea name="medical-history" id="medical-history">{{.Form.MedicalHistory}}</textarea>
    <label for="symptom-onset">Symptom onset</label>
    <input type="date" name="symptom-onset" id="symptom-onset" value="{{.Form.SymptomOnset}}">
    <label for="firstv">First visit</label>
    <input type="date" name="firstv" id="firstv" value="{{.Form.FirstVisit}}">
  </fieldset>
  <input type="submit" value="Save patient">
</form>
{{end}}
`

var AddPatientTemplate = parsePage(addPatientText)
