// Package circuitbreaker keeps requests away from a backend that keeps failing.
//
// Each backend URL gets one breaker with three states:
//
//   - CLOSED: requests pass through
//   - OPEN: the backend failed threshold times in a row, requests are rejected
//   - HALF-OPEN: the reset timeout elapsed, one probe request is let through
//
// A successful probe closes the breaker, a failed probe opens it again.
//
//	registry := circuitbreaker.NewRegistry(5, 30*time.Second)
//	cb := registry.GetBreaker("http://localhost:8081")
//	if cb.Allow() {
//	    // send request, then cb.RecordSuccess() or cb.RecordFailure()
//	}
package circuitbreaker
