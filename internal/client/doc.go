// Package client provides the HTTP client the serfdom CLI uses to talk to
// the daemon API.
package client
