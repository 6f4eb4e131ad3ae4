// Package main hosts the serfdom CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon API: task submission, status and queue inspection,
// delegation bookkeeping, strategic planning, and configuration scaffolding.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
