// Package dispatcher routes HTTP requests to backend handlers by the requested
// hostname, letting several applications share one listener.
//
// Routes are tried in registration order and the first pattern that matches
// the host wins, even when a later route is more specific. Requests without a
// host, or whose host matches nothing, get the not-found responder.
//
// A Dispatcher is read-only while serving. To change routes on a live server
// build a new Dispatcher and install it with Table.Swap.
package dispatcher
