package views

type LogInParams struct {
	Page
	Username  string
	UserError string
}

var logInText = `{{define "title"}}Log In{{end}}
{{define "content"}}
<h1>Log in</h1>
{{with .UserError}}<p class="alert alert-error">{{.}}</p>{{end}}
<form method="POST" action="/log-in">
  <input type="hidden" name="_csrf" value="{{.CSRF}}">
  <label for="username">Username</label>
  <input type="text" name="username" id="username" value="{{.Username}}" required>
  <label for="password">Password</label>
  <input type="password" name="password" id="password" required>
  <input type="submit" value="Log in">
</form>
<p><a href="/pass-reset">Forgot your password?</a></p>
{{end}}
`

var LogInTemplate = parsePage(logInText)

type PassResetParams struct {
	Page
}

var passResetText = `{{define "title"}}Reset Password{{end}}
{{define "content"}}
<h1>Reset password</h1>
<p>Password resets are handled by your administrator. Enter your email so they can find your account.</p>
<form>
  <label for="email">Email</label>
  <input type="email" name="email" id="email">
</form>
{{end}}
`

var PassResetTemplate = parsePage(passResetText)
