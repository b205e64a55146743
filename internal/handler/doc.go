// Package handler instruments the handlers the dispatcher delegates to. Each
// route's backend, and the not-found fallback, is wrapped with access logging
// and metric events so the dispatcher itself never touches a response.
package handler
