package middleware

import (
	"net/http"

	"github.com/PhilHem/go-secure-headers-proxy/backend/handlers"
)

// RequireLocalAuth requires local username/password authentication (for admin interface)
func RequireLocalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handlers.GetCurrentUser(r) == nil {
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}
