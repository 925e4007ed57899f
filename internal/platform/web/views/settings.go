package views

type SettingsParams struct {
	Page
	Username string
	Email    string
	Name     string
	Lastname string
}

var settingsText = `{{define "title"}}Settings{{end}}
{{define "content"}}
<h1>Settings</h1>
<dl>
  <dt>Username</dt><dd>{{.Username}}</dd>
  <dt>Name</dt><dd>{{.Name}} {{.Lastname}}</dd>
  <dt>Email</dt><dd>{{.Email}}</dd>
</dl>

<h2>Delete account</h2>
<p>Your patients and their surveys are kept but will no longer be linked to you.</p>
<form method="POST" action="/settings">
  <input type="hidden" name="_csrf" value="{{.CSRF}}">
  <input type="submit" value="Delete my account">
</form>
{{end}}
`

var SettingsTemplate = parsePage(settingsText)
