package templates

import (
	"github.com/a-h/templ"
)

// LoginForm renders the login form alone (for re-rendering with an error)
func LoginForm(errorMsg, email, csrfToken string) templ.Component {
	return form("/admin/login", "Log in", errorMsg, email, csrfToken)
}

// Login renders the full login page
func Login(errorMsg, email, csrfToken string) templ.Component {
	return page("Admin login", LoginForm(errorMsg, email, csrfToken))
}

// RegisterForm renders the registration form alone
func RegisterForm(errorMsg, email, csrfToken string) templ.Component {
	return form("/admin/register", "Create account", errorMsg, email, csrfToken)
}

// Register renders the full registration page
func Register(errorMsg, email, csrfToken string) templ.Component {
	return page("Admin registration", RegisterForm(errorMsg, email, csrfToken))
}

func form(action, submit, errorMsg, email, csrfToken string) templ.Component {
	s := "<form method=\"post\" action=\"" + templ.EscapeString(action) + "\">"
	if errorMsg != "" {
		s += "<p class=\"error\">" + templ.EscapeString(errorMsg) + "</p>"
	}
	s += "<input type=\"hidden\" name=\"_csrf\" value=\"" + templ.EscapeString(csrfToken) + "\">"
	s += "<label>Email <input type=\"email\" name=\"email\" value=\"" + templ.EscapeString(email) + "\" required></label>"
	s += "<label>Password <input type=\"password\" name=\"password\" required></label>"
	s += "<button type=\"submit\">" + templ.EscapeString(submit) + "</button>"
	s += "</form>"
	return raw(s)
}
