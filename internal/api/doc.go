// Package api defines the transport-friendly views shared between the
// daemon's HTTP surface and the CLI client, plus the read services that
// project ledger records into them.
package api
