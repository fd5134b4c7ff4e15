package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"unicode"

	"github.com/PhilHem/go-secure-headers-proxy/backend/config"
	"github.com/PhilHem/go-secure-headers-proxy/backend/database"
	"github.com/PhilHem/go-secure-headers-proxy/backend/models"
	"github.com/PhilHem/go-secure-headers-proxy/frontend/templates"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

var Store *sessions.CookieStore

// CSRFToken returns the token the form pages embed; wired up in main so the
// handlers package stays free of a middleware import.
var CSRFToken = func(w http.ResponseWriter, r *http.Request) string { return "" }

// InitSession configures the session store with secret and timeout from config
func InitSession() error {
	secret := config.C.Session.Secret
	if secret == "" {
		return errors.New("session secret is not configured (set session.secret or SESSION_SECRET)")
	}
	if len(secret) < 32 {
		return errors.New("session secret must be at least 32 characters")
	}

	Store = sessions.NewCookieStore([]byte(secret))
	Store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(config.C.Session.Timeout.Seconds()),
		HttpOnly: true,
		Secure:   config.C.TLS.Enabled,
		SameSite: http.SameSiteLaxMode,
	}
	return nil
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail reports whether the address looks deliverable enough to store
func ValidateEmail(email string) bool {
	return emailRe.MatchString(email)
}

// ValidatePassword enforces the minimum password policy: 8+ chars with an
// uppercase letter, a digit and a special character.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	var upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			special = true
		}
	}
	if !upper {
		return errors.New("password must contain an uppercase letter")
	}
	if !digit {
		return errors.New("password must contain a number")
	}
	if !special {
		return errors.New("password must contain a special character")
	}
	return nil
}

// IsRegistrationAllowed permits registration only while no admin exists yet
func IsRegistrationAllowed() bool {
	var count int64
	database.DB.Model(&models.User{}).Count(&count)
	return count == 0
}

func LoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Login("", "", CSRFToken(w, r)).Render(r.Context(), w)
}

func RegisterPage(w http.ResponseWriter, r *http.Request) {
	if !IsRegistrationAllowed() {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Register("", "", CSRFToken(w, r)).Render(r.Context(), w)
}

func Login(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	var user models.User
	if err := database.DB.Where("email = ?", email).First(&user).Error; err != nil {
		slog.Warn("login failed: user not found", "source", "auth", "email", email)
		renderLoginError(w, r, email)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		slog.Warn("login failed: invalid password", "source", "auth", "email", email)
		renderLoginError(w, r, email)
		return
	}

	session, _ := Store.Get(r, "session")
	session.Values["user_id"] = user.ID
	session.Values["email"] = user.Email
	session.Save(r, w)

	slog.Info("user logged in", "source", "auth", "user_id", user.ID, "email", email)

	http.Redirect(w, r, "/admin/logs", http.StatusSeeOther)
}

func renderLoginError(w http.ResponseWriter, r *http.Request, email string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Login("Invalid email or password", email, CSRFToken(w, r)).Render(r.Context(), w)
}

func Register(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	if !IsRegistrationAllowed() {
		slog.Warn("registration blocked: admin already exists", "source", "auth", "email", email)
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	if !ValidateEmail(email) {
		renderRegisterError(w, r, "Invalid email address", email)
		return
	}

	if err := ValidatePassword(password); err != nil {
		slog.Warn("registration failed: weak password", "source", "auth", "email", email)
		renderRegisterError(w, r, err.Error(), email)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("registration failed: hash error", "source", "auth", "error", err.Error())
		renderRegisterError(w, r, "Something went wrong", email)
		return
	}

	user := models.User{Email: email, Password: string(hashed)}
	if err := database.DB.Create(&user).Error; err != nil {
		slog.Error("registration failed: db error", "source", "auth", "error", err.Error())
		renderRegisterError(w, r, "Failed to create account", email)
		return
	}

	slog.Info("user registered", "source", "auth", "user_id", user.ID, "email", email)

	session, _ := Store.Get(r, "session")
	session.Values["user_id"] = user.ID
	session.Values["email"] = user.Email
	session.Save(r, w)

	http.Redirect(w, r, "/admin/logs", http.StatusSeeOther)
}

func renderRegisterError(w http.ResponseWriter, r *http.Request, msg, email string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Register(msg, email, CSRFToken(w, r)).Render(r.Context(), w)
}

func Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := Store.Get(r, "session")
	userID, _ := session.Values["user_id"].(uint)
	slog.Info("user logged out", "source", "auth", "user_id", userID)

	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	session.Save(r, w)

	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

// GetCurrentUser is a variable to allow mocking in tests
var GetCurrentUser = func(r *http.Request) *models.User {
	if Store == nil {
		return nil
	}
	session, err := Store.Get(r, "session")
	if err != nil {
		return nil
	}
	userID, ok := session.Values["user_id"].(uint)
	if !ok {
		return nil
	}
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return nil
	}
	return &user
}
