// Package views holds the HTML templates. Each page parses the shared base
// layout and fills its title and content blocks.
package views

import (
	"html/template"
	"time"
)

// Page carries what the layout needs on every request.
type Page struct {
	User   *User
	CSRF   string
	Info   []string
	Errors []string
}

// User is the logged-in user as shown in the navigation bar.
type User struct {
	Username string
	Name     string
	IsAdmin  bool
}

var funcs = template.FuncMap{
	"date": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"datetime": func(t time.Time) string {
		return t.Format("2006-01-02 15:04")
	},
	"ratings": func() []string {
		return []string{"4", "3", "2", "1", "0"}
	},
}

var baseText = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{block "title" .}}ALS Tracker{{end}} - ALS Tracker</title>
    <link href="/static/site.css" rel="stylesheet">
  </head>
  <body>
    <nav class="navbar">
      <a class="brand" href="/">ALS Tracker</a>
      {{with .User}}
      <a href="/main">Home</a>
      <a href="/patients">Patients</a>
      <a href="/add-pat">Add patient</a>
      <a href="/survey">Survey</a>
      <a href="/diagrams">Diagrams</a>
      <a href="/settings">Settings</a>
      <span class="who">{{.Username}}{{if .IsAdmin}} (admin){{end}}</span>
      <a href="/logout">Log out</a>
      {{else}}
      <a href="/sign-up">Sign up</a>
      <a href="/log-in">Log in</a>
      {{end}}
    </nav>

    <main class="container">
      {{range .Errors}}<p class="alert alert-error">{{.}}</p>{{end}}
      {{range .Info}}<p class="alert alert-info">{{.}}</p>{{end}}
      {{block "content" .}}{{end}}
    </main>
  </body>
</html>
`

func parsePage(text string) *template.Template {
	return template.Must(template.Must(template.New("base").Funcs(funcs).Parse(baseText)).Parse(text))
}
