// Package healthcheck polls backend health endpoints and marks backends up or
// down so the dispatcher's routes stop forwarding to dead applications.
package healthcheck
