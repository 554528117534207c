package handler

import (
	"net/http"
)

type signInPage struct {
	Next  string
	Error string
}

// SignIn renders the admin sign-in form. The gate always lets this path
// through.
func SignIn(w http.ResponseWriter, r *http.Request) {
	page := signInPage{Next: safeNext(r.URL.Query().Get("next"))}
	if r.URL.Query().Get("error") != "" {
		page.Error = "Incorrect password."
	}
	renderPage(w, http.StatusOK, "signin.html", page)
}
