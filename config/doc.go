// Package config loads the dispatcher configuration from YAML files and
// environment variables: listener addresses, the ordered list of domain routes
// and their backends, health checking, circuit breaking, logging and reload
// behaviour.
package config
