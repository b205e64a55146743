package dispatcher

import "errors"

// ErrNilHandler is the reason reported when a route is registered without a
// handler.
var ErrNilHandler = errors.New("route handler is nil")
