package views

type SignUpParams struct {
	Page
}

var signUpText = `{{define "title"}}Sign Up{{end}}
{{define "content"}}
<h1>Sign up</h1>
<form method="POST" action="/sign-up">
  <input type="hidden" name="_csrf" value="{{.CSRF}}">
  <label for="username">Username</label>
  <input type="text" name="username" id="username" required>
  <label for="fname">First name</label>
  <input type="text" name="fname" id="fname">
  <label for="lname">Last name</label>
  <input type="text" name="lname" id="lname">
  <label for="email">Email</label>
  <input type="email" name="email" id="email">
  <label for="number">Phone</label>
  <input type="tel" name="number" id="number">
  <label for="password">Password</label>
  <input type="password" name="password" id="password" required>
  <input type="submit" value="Sign up">
</form>
<p>Already registered? <a href="/log-in">Log in</a>.</p>
{{end}}
`

var SignUpTemplate = parsePage(signUpText)

type SuccessParams struct {
	Page
}

var successText = `{{define "title"}}Account Created{{end}}
{{define "content"}}
<h1>Account created</h1>
<p>Welcome{{with .User}}, {{.Name}}{{end}}. You are now logged in.</p>
{{if and .User .User.IsAdmin}}<p>As the first registered user you are the administrator.</p>{{end}}
<p><a href="/main">Continue</a></p>
{{end}}
`

var SuccessTemplate = parsePage(successText)
