package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/folio/site-server-go/internal/session"
)

const (
	SignInPath   = "/admin/signin"
	LoginAPIPath = "/api/admin/login"

	adminUIPrefix  = "/admin"
	adminAPIPrefix = "/api/admin"
)

// Decision is the outcome of the admin gate for one request.
type Decision int

const (
	Allow Decision = iota
	Challenge
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "challenge"
}

// TokenVerifier checks an admin session token.
type TokenVerifier interface {
	Verify(token string) bool
}

var _ TokenVerifier = (*session.Codec)(nil)

// Decide applies the gate rules to a path and the raw admin_session cookie
// value. It has no side effects.
func Decide(verifier TokenVerifier, path, token string) Decision {
	if !isProtectedPath(path) {
		return Allow
	}
	if path == SignInPath || path == LoginAPIPath {
		return Allow
	}
	if token != "" && verifier.Verify(token) {
		return Allow
	}
	return Challenge
}

// AdminGate guards every /admin and /api/admin route. It must run before any
// route handler.
type AdminGate struct {
	verifier TokenVerifier
}

func NewAdminGate(verifier TokenVerifier) *AdminGate {
	return &AdminGate{verifier: verifier}
}

func (g *AdminGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if Decide(g.verifier, path, adminSessionToken(r)) == Allow {
			next.ServeHTTP(w, r)
			return
		}

		if hasPathPrefix(path, adminAPIPrefix) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		http.Redirect(w, r, SignInURL(r.URL.RequestURI()), http.StatusTemporaryRedirect)
	})
}

// SignInURL builds the sign-in redirect that returns the user to next.
func SignInURL(next string) string {
	return SignInPath + "?next=" + url.QueryEscape(next)
}

func isProtectedPath(path string) bool {
	return hasPathPrefix(path, adminUIPrefix) || hasPathPrefix(path, adminAPIPrefix)
}

// hasPathPrefix matches prefix itself and anything below it, but not
// siblings such as /administrator.
func hasPathPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || rest[0] == '/'
}
