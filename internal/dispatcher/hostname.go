package dispatcher

import (
	"net/http"
	"strings"
)

// Hostname returns the host the client asked for, without any ":port"
// suffix. It reports false when the request carries no Host header.
func Hostname(r *http.Request) (string, bool) {
	host := r.Host
	// net/http moves Host into r.Host; the header is only set on hand-built requests.
	if host == "" {
		host = r.Header.Get("Host")
	}
	if host == "" {
		return "", false
	}

	if i := strings.IndexByte(host, ':'); i != -1 {
		host = host[:i]
	}

	return host, true
}
