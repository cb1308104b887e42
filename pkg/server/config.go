package server

import (
	"log/slog"
	"net/http"
	"time"
)

// Config configures a Server.
type Config struct {
	// Address to listen on (host:port).
	Address string

	// WebSocket buffer sizes.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates WebSocket upgrade origins. The default
	// accepts every origin; deployments behind a known frontend should
	// restrict it.
	CheckOrigin func(r *http.Request) bool

	// HTTP server timeouts. Per-request read/write deadlines are not
	// set on the listener because WebSocket connections outlive them.
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration

	// ReadTimeout bounds the wait for the next WebSocket message.
	ReadTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// WSWriteTimeout bounds a single WebSocket write.
	WSWriteTimeout time.Duration

	// PingInterval is how often the server pings idle subscribers.
	PingInterval time.Duration

	// SendBuffer is the per-subscriber outbound frame queue. A
	// subscriber that falls this many frames behind is disconnected and
	// expected to reconnect and resync.
	SendBuffer int

	// HistoryCapacity is the patch frame replay window.
	HistoryCapacity int

	// TickInterval is the scheduler batching window.
	TickInterval time.Duration

	// MaxDepth bounds submitted trees (0 = vdom default).
	MaxDepth int

	// MetricsNamespace prefixes prometheus metric names.
	MetricsNamespace string

	// Logger for structured logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Ticks overrides the scheduler's internal ticker; used by tests to
	// drive commits deterministically.
	Ticks <-chan time.Time
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8420",
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		CheckOrigin:       func(r *http.Request) bool { return true },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		WSWriteTimeout:    10 * time.Second,
		PingInterval:      30 * time.Second,
		SendBuffer:        64,
		HistoryCapacity:   128,
		TickInterval:      0, // scheduler default
		MetricsNamespace:  "weft",
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	d := DefaultConfig()
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = d.ReadBufferSize
	}
	if c.WriteBufferSize == 0 {
		c.WriteBufferSize = d.WriteBufferSize
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = d.CheckOrigin
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.WSWriteTimeout == 0 {
		c.WSWriteTimeout = d.WSWriteTimeout
	}
	if c.PingInterval == 0 {
		c.PingInterval = d.PingInterval
	}
	if c.SendBuffer == 0 {
		c.SendBuffer = d.SendBuffer
	}
	if c.HistoryCapacity == 0 {
		c.HistoryCapacity = d.HistoryCapacity
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = d.MetricsNamespace
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
