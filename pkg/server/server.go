// Package server implements the haystackd TCP search server: a
// deadline-polled accept loop, a bounded worker pool, per-connection
// session loops speaking the NUL-framed query protocol, and coordinated
// shutdown with per-peer statistics.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haystackd/haystackd/internal/id"
	"github.com/haystackd/haystackd/pkg/config"
	"github.com/haystackd/haystackd/pkg/metrics"
	"github.com/haystackd/haystackd/pkg/search"
)

// pollInterval bounds every blocking accept and read so the shutdown
// flag is observed promptly. Worst-case shutdown latency is a small
// multiple of this value.
const pollInterval = 1 * time.Second

// handshakeTimeout bounds the synchronous TLS handshake performed
// before a connection is dispatched to a worker.
const handshakeTimeout = 5 * time.Second

// ErrAlreadyRunning is returned by Start on a server that is running.
var ErrAlreadyRunning = errors.New("server is already running")

// Server owns the listener, the worker pool, and all shared session
// state. Construct with New, then Start and eventually Stop.
type Server struct {
	settings *config.Settings
	engine   search.Engine
	tlsCfg   *tls.Config
	log      *slog.Logger

	mu       sync.Mutex
	running  bool
	listener net.Listener

	shutdown atomic.Bool
	slots    chan struct{}
	wg       sync.WaitGroup

	registry *Registry
	stats    *Stats

	promReg           *metrics.Registry
	queriesTotal      *metrics.Counter
	slowQueries       *metrics.Counter
	handshakeFailures *metrics.Counter
	activeConns       *metrics.Gauge
}

// New builds a Server. tlsCfg may be nil for a plaintext listener. The
// logger must not be nil; use logging.Nop in tests.
func New(settings *config.Settings, engine search.Engine, tlsCfg *tls.Config, log *slog.Logger) *Server {
	workers := settings.Server.MaxWorkers
	if workers <= 0 {
		workers = config.DefaultMaxWorkers
	}
	promReg := metrics.NewRegistry()
	return &Server{
		settings: settings,
		engine:   engine,
		tlsCfg:   tlsCfg,
		log:      log,
		slots:    make(chan struct{}, workers),
		registry: NewRegistry(),
		stats:    NewStats(),

		promReg:           promReg,
		queriesTotal:      promReg.NewCounter("haystackd_queries_total", "Queries answered, by result.", "result"),
		slowQueries:       promReg.NewCounter("haystackd_slow_queries_total", "Queries exceeding the latency ceiling."),
		handshakeFailures: promReg.NewCounter("haystackd_handshake_failures_total", "TLS handshakes that failed before dispatch."),
		activeConns:       promReg.NewGauge("haystackd_active_connections", "Currently open client connections."),
	}
}

// Start binds the listener and launches the accept loop. It returns as
// soon as the socket is bound; the accept loop runs until Stop.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	lc := net.ListenConfig{Control: reuseAddr}
	listener, err := lc.Listen(context.Background(), "tcp", fmt.Sprintf(":%d", s.settings.Server.Port))
	if err != nil {
		return fmt.Errorf("failed to bind port %d: %w", s.settings.Server.Port, err)
	}
	s.listener = listener
	s.running = true

	s.log.Info("server started",
		"addr", listener.Addr().String(),
		"workers", cap(s.slots),
		"tls", s.tlsCfg != nil,
		"algorithm", string(s.engine.Algorithm()),
		"reread", s.engine.Reread(),
	)

	s.wg.Add(1)
	go s.acceptLoop(listener)
	return nil
}

// Addr returns the bound listener address, or empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ConnectionCount returns the number of live client connections.
func (s *Server) ConnectionCount() int {
	return s.registry.Count()
}

// Stats returns the per-peer statistics table.
func (s *Server) Stats() *Stats {
	return s.stats
}

// Metrics returns the server's metrics registry for exposition.
func (s *Server) Metrics() *metrics.Registry {
	return s.promReg
}

// acceptLoop polls for connections until the shutdown flag is set. Each
// accepted connection is TLS-wrapped when configured, then dispatched
// to a worker slot. A saturated pool blocks further accepts; excess
// pending connections queue at the OS backlog.
func (s *Server) acceptLoop(listener net.Listener) {
	defer s.wg.Done()

	tcpListener, _ := listener.(*net.TCPListener)
	for !s.shutdown.Load() {
		if tcpListener != nil {
			_ = tcpListener.SetDeadline(time.Now().Add(pollInterval))
		}

		conn, err := listener.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if s.shutdown.Load() {
				return
			}
			s.log.Error("accept failed", "error", err)
			continue
		}

		if s.tlsCfg != nil {
			tlsConn, err := s.wrapTLS(conn)
			if err != nil {
				s.handshakeFailures.Inc()
				s.log.Warn("tls handshake failed",
					"peer", conn.RemoteAddr().String(),
					"error", err,
				)
				_ = conn.Close()
				continue
			}
			conn = tlsConn
		}

		// Acquire a worker slot before spawning the session. Blocks
		// when the pool is saturated.
		s.slots <- struct{}{}
		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			defer func() { <-s.slots }()
			s.runSession(c)
		}(conn)
	}
}

// wrapTLS performs the handshake synchronously so that a connection
// failing authentication never reaches a session. Under mutual TLS the
// handshake itself verifies the client certificate.
func (s *Server) wrapTLS(conn net.Conn) (net.Conn, error) {
	tlsConn := tls.Server(conn, s.tlsCfg)
	ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
	defer cancel()
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, err
	}
	return tlsConn, nil
}

// Stop flips the shutdown flag, waits (bounded) for the accept loop and
// all sessions to drain, force-closes connections that have not exited,
// flushes per-peer statistics, and releases the listener. Idempotent:
// repeated calls and repeated signals are harmless.
func (s *Server) Stop(timeout time.Duration) {
	if !s.shutdown.CompareAndSwap(false, true) {
		return
	}

	s.log.Info("shutting down", "live_connections", s.registry.Count())

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		s.log.Warn("drain timed out, closing remaining connections", "timeout", timeout)
	}

	if closed := s.registry.CloseAll(); closed > 0 {
		s.log.Warn("force-closed connections", "count", closed)
	}

	s.stats.LogSummary(s.log)

	s.mu.Lock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
	s.running = false
	s.mu.Unlock()

	s.log.Info("shutdown complete")
}

// runSession wraps the session loop with registration and unconditional
// release of the connection.
func (s *Server) runSession(conn net.Conn) {
	connID := id.Conn()
	peer := conn.RemoteAddr().String()

	s.registry.Add(connID, conn)
	s.activeConns.Inc()
	s.log.Info("connection opened", "conn", connID, "peer", peer)

	sess := &session{
		id:     connID,
		conn:   conn,
		peer:   peer,
		server: s,
	}

	defer func() {
		s.registry.Remove(connID)
		_ = conn.Close()
		s.activeConns.Dec()
		s.log.Info("connection closed", "conn", connID, "peer", peer, "queries", sess.queries)
	}()

	sess.run()
}
