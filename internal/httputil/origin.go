package httputil

import (
	"net/http"
	"strings"
)

const defaultOrigin = "http://localhost:3000"

// RequestOrigin reconstructs the public origin from proxy headers. Only the
// first value of a comma separated header is used. Without X-Forwarded-Host
// the request's own Host is used, and the placeholder origin only when that
// is empty too.
func RequestOrigin(r *http.Request) string {
	host := firstHeaderValue(r, "X-Forwarded-Host")
	if host == "" {
		if r.Host == "" {
			return defaultOrigin
		}
		if r.TLS != nil {
			return "https://" + r.Host
		}
		return "http://" + r.Host
	}

	proto := firstHeaderValue(r, "X-Forwarded-Proto")
	if proto == "" {
		proto = "https"
	}
	return proto + "://" + host
}

func firstHeaderValue(r *http.Request, name string) string {
	value, _, _ := strings.Cut(r.Header.Get(name), ",")
	return strings.TrimSpace(value)
}
