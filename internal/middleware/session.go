package middleware

import (
	"net/http"

	"github.com/folio/site-server-go/internal/config"
)

const AdminSessionCookie = "admin_session"

// SetAdminSessionCookie stores a session token. The cookie is always Secure;
// browsers still accept it on http://localhost.
func SetAdminSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AdminSessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(config.AdminSessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearAdminSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AdminSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func adminSessionToken(r *http.Request) string {
	cookie, err := r.Cookie(AdminSessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
