// Package backend forwards requests for a virtual host to its upstream
// application through a reverse proxy.
//
// A Backend refuses traffic with 503 while its health check reports it down or
// while its circuit breaker is open. Upstream transport errors answer 502 and
// count as breaker failures, as do 5xx upstream responses.
package backend
