// Package server exposes a reconciliation scheduler over HTTP and
// WebSocket.
//
// Callers submit target trees with POST /tree (a binary Submit payload)
// or as Submit frames over the WebSocket. Each commit is broadcast to
// every connected renderer as a Patches frame carrying a monotonic
// sequence number. A renderer that misses frames asks for a resync; the
// server replays them from a bounded history ring, or sends a fresh
// Hello baseline when the requested range has aged out.
//
// Prometheus metrics are served on /metrics and liveness on /healthz.
package server
