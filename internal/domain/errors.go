package domain

import (
	"errors"
	"fmt"
)

// ErrWildcardInHostKey is the reason reported when a host key contains the
// wildcard marker.
var ErrWildcardInHostKey = errors.New("wildcards not supported in host key")

// ConfigurationError reports a domain string that cannot be turned into a
// pattern or host key.
type ConfigurationError struct {
	Value  string
	Reason error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid domain %q: %v", e.Value, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Reason
}
