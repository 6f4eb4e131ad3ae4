// Package daemon hosts the serfdom background process: it owns the
// single-instance lock, the HTTP API server, and the websocket event hub
// that fans workflow progress out to subscribers.
package daemon
