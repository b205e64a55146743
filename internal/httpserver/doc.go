// Package httpserver runs the listeners of the dispatcher process: an
// http.Server with sane timeouts, a validated address and graceful shutdown.
package httpserver
