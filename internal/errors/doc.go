// Package errors provides structured, user-facing errors for the CLI
// and config layers.
//
// Library packages (vdom, protocol, sched) return their own typed
// errors; this package wraps them at the presentation boundary with a
// stable code, a category, an optional tree path and a fix suggestion,
// and renders them for terminal display.
package errors
