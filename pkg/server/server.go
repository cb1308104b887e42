package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/weftdom/weft/pkg/protocol"
	"github.com/weftdom/weft/pkg/sched"
	"github.com/weftdom/weft/pkg/vdom"
)

// Server hosts one Scheduler and fans its commits out to WebSocket
// subscribers as binary patch frames.
type Server struct {
	cfg    *Config
	logger *slog.Logger

	sched      *sched.Scheduler
	schedStats *sched.Collector
	history    *PatchHistory

	upgrader websocket.Upgrader
	registry *prometheus.Registry
	metrics  *Metrics
	tracer   trace.Tracer

	httpServer *http.Server

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	seq         uint64

	commitStart time.Time // set in PreCommit, read in PostCommit
}

// New creates a Server and its scheduler. Call Run to start both.
func New(cfg *Config) *Server {
	cfg = cfg.withDefaults()
	logger := cfg.Logger.With("component", "server")

	registry := prometheus.NewRegistry()
	s := &Server{
		cfg:        cfg,
		logger:     logger,
		schedStats: sched.NewCollector(),
		history:    NewPatchHistory(cfg.HistoryCapacity),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     cfg.CheckOrigin,
		},
		registry:    registry,
		metrics:     newMetrics(cfg.MetricsNamespace, registry),
		tracer:      otel.Tracer("weft/server"),
		subscribers: make(map[*subscriber]struct{}),
	}

	s.sched = sched.New(sched.Config{
		TickInterval: cfg.TickInterval,
		MaxDepth:     cfg.MaxDepth,
		Logger:       cfg.Logger,
		Metrics:      s.schedStats,
		Ticks:        cfg.Ticks,
		Hooks: sched.Hooks{
			PreCommit:   s.preCommit,
			PostCommit:  s.postCommit,
			CommitError: s.commitError,
		},
	})

	return s
}

// Submit hands a target tree to the scheduler.
func (s *Server) Submit(root *vdom.VNode) error {
	if err := s.sched.RequestUpdate(root); err != nil {
		s.metrics.SubmitRejected.Inc()
		return err
	}
	return nil
}

// Stats returns the scheduler's counters.
func (s *Server) Stats() sched.Stats {
	return s.schedStats.Snapshot()
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Post("/tree", s.handleSubmit)
	r.Get("/tree", s.handleTree)
	r.Get("/ws", s.handleWS)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return r
}

// Run starts the scheduler and the HTTP server and blocks until ctx is
// canceled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.sched.Run(ctx)

	// Read/write timeouts stay unset on the http.Server itself:
	// WebSocket connections outlive any per-request deadline. The
	// subscriber loops apply their own deadlines per message.
	s.httpServer = &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "address", s.cfg.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) shutdown() error {
	s.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)

	s.mu.Lock()
	subs := make([]*subscriber, 0, len(s.subscribers))
	for c := range s.subscribers {
		subs = append(subs, c)
	}
	s.mu.Unlock()
	for _, c := range subs {
		c.close()
	}

	s.sched.Close()
	return err
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// handleSubmit accepts a binary Submit payload and queues it for the
// next commit. 202 means accepted for batching, not committed.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "server.submit")
	defer span.End()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, protocol.MaxPayloadSize))
	if err != nil {
		s.metrics.SubmitRejected.Inc()
		http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
		return
	}

	sub, err := protocol.DecodeSubmit(body)
	if err != nil {
		s.metrics.SubmitRejected.Inc()
		s.logger.Warn("submit decode failed", "error", err)
		http.Error(w, "malformed submit payload", http.StatusBadRequest)
		return
	}

	if err := s.Submit(sub.Root); err != nil {
		if errors.Is(err, sched.ErrClosed) {
			http.Error(w, "server shutting down", http.StatusServiceUnavailable)
			return
		}
		s.logger.Warn("submit rejected", "error", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	span.SetAttributes(attribute.Int("weft.submit_bytes", len(body)))
	w.WriteHeader(http.StatusAccepted)
}

// handleTree returns the committed tree as a Hello payload, so callers
// can bootstrap without a socket.
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	seq := s.seq
	s.mu.Unlock()

	payload := protocol.EncodeHello(&protocol.HelloFrame{
		Seq:  seq,
		Root: s.sched.Committed(),
	})
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(payload)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "error", err)
		return
	}

	c := newSubscriber(s, conn)

	// Register before the baseline so no commit slips between them.
	s.mu.Lock()
	s.subscribers[c] = struct{}{}
	c.enqueue(s.helloFrameLocked(0))
	s.mu.Unlock()

	s.metrics.Subscribers.Inc()
	s.metrics.BaselineSends.Inc()
	s.logger.Info("subscriber connected", "remote", conn.RemoteAddr().String())

	go c.writeLoop()
	go c.readLoop()
}

func (s *Server) removeSubscriber(c *subscriber) {
	s.mu.Lock()
	_, ok := s.subscribers[c]
	delete(s.subscribers, c)
	s.mu.Unlock()

	c.close()
	if ok {
		s.metrics.Subscribers.Dec()
		s.logger.Info("subscriber disconnected", "remote", c.conn.RemoteAddr().String())
	}
}

// helloFrameLocked builds a Hello frame for the current baseline. The
// caller holds s.mu.
func (s *Server) helloFrameLocked(flags protocol.FrameFlags) []byte {
	payload := protocol.EncodeHello(&protocol.HelloFrame{
		Seq:  s.seq,
		Root: s.sched.Committed(),
	})
	f := protocol.NewFrame(protocol.FrameHello, payload)
	f.Flags = flags
	return f.Encode()
}

// resync replays missed frames from history, or falls back to a fresh
// baseline when the window has moved past the subscriber.
func (s *Server) resync(c *subscriber, lastSeq uint64) {
	frames := s.history.After(lastSeq)
	if frames == nil {
		s.mu.Lock()
		hello := s.helloFrameLocked(protocol.FlagResync)
		s.mu.Unlock()

		s.metrics.BaselineSends.Inc()
		s.logger.Info("resync out of window, sending baseline",
			"last_seq", lastSeq, "min_seq", s.history.MinSeq())
		c.enqueue(hello)
		return
	}

	for _, frame := range frames {
		if !c.enqueue(frame) {
			s.dropSlow(c)
			return
		}
	}
	s.metrics.FramesReplayed.Add(float64(len(frames)))
	s.logger.Debug("replayed frames", "count", len(frames), "after", lastSeq)
}

func (s *Server) preCommit(next *vdom.VNode, patches []vdom.Patch) {
	s.commitStart = time.Now()
}

// postCommit runs on the scheduler goroutine after every successful
// commit. It assigns the sequence number, archives the encoded frame
// and fans it out.
func (s *Server) postCommit(root *vdom.VNode, patches []vdom.Patch) {
	elapsed := time.Since(s.commitStart)

	s.mu.Lock()
	s.seq++
	seq := s.seq

	payload := protocol.EncodePatches(&protocol.PatchesFrame{Seq: seq, Patches: patches})
	frame := protocol.NewFrame(protocol.FramePatches, payload).Encode()
	s.history.Add(seq, frame)

	s.metrics.Commits.Inc()
	s.metrics.PatchesSent.Add(float64(len(patches)))
	s.metrics.FrameBytes.Add(float64(len(frame)))
	s.metrics.BatchSize.Observe(float64(len(patches)))
	s.metrics.CommitSeconds.Observe(elapsed.Seconds())

	var slow []*subscriber
	for c := range s.subscribers {
		if !c.enqueue(frame) {
			slow = append(slow, c)
		}
	}
	s.mu.Unlock()

	for _, c := range slow {
		s.dropSlow(c)
	}
}

func (s *Server) commitError(err error) {
	if errors.Is(err, vdom.ErrDuplicateKey) {
		s.metrics.DuplicateKeys.Inc()
		return
	}
	s.metrics.CommitErrors.Inc()
}

func (s *Server) dropSlow(c *subscriber) {
	s.metrics.SlowDrops.Inc()
	s.logger.Warn("dropping slow subscriber", "remote", c.conn.RemoteAddr().String())
	s.removeSubscriber(c)
}
