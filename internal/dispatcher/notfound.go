package dispatcher

import (
	"fmt"
	"net/http"
)

const noHostname = "<none>"

// NotFound answers 404 and names the requested host in the body.
func NotFound(w http.ResponseWriter, r *http.Request) {
	host, ok := Hostname(r)
	if !ok {
		host = noHostname
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, "Domain not found: %s", host)
}
