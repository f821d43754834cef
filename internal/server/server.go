// Package server accepts connections and hands each one to a dispatcher
// under a configurable scheduling policy.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"sockroute/internal/request"
	"sockroute/internal/response"
)

// Mode selects how accepted connections are scheduled.
type Mode string

const (
	// ModeSequential processes one connection to completion before accepting the next.
	ModeSequential Mode = "sequential"
	// ModePerConnection runs every connection on its own goroutine.
	ModePerConnection Mode = "per-connection"
	// ModePool feeds connections to a fixed number of workers.
	ModePool Mode = "pool"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 8

// ErrServerClosed is returned by Serve after Shutdown.
var ErrServerClosed = errors.New("server: closed")

// ParseMode converts a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSequential, ModePerConnection, ModePool:
		return Mode(s), nil
	case "":
		return ModeSequential, nil
	default:
		return "", fmt.Errorf("unknown server mode %q (valid: sequential, per-connection, pool)", s)
	}
}

// Dispatcher reads one request from a connection and returns the response.
type Dispatcher interface {
	Serve(ctx context.Context, r io.Reader) (response.Response, *request.Request)
}

// Options control scheduling and per-connection limits.
type Options struct {
	Mode    Mode
	Workers int
	// ReadTimeout bounds reading the request. Zero means no deadline.
	ReadTimeout time.Duration
}

// Server is a raw TCP acceptor. Each connection carries exactly one request.
type Server struct {
	handler Dispatcher
	opts    Options
	logger  *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	closed   bool

	inflight sync.WaitGroup
	served   atomic.Int64
}

// New creates a server. Invalid options fall back to sequential scheduling
// and DefaultWorkers.
func New(handler Dispatcher, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Mode == "" {
		opts.Mode = ModeSequential
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Server{handler: handler, opts: opts, logger: logger}
}

// ListenAndServe listens on addr and serves until ctx is cancelled or
// Shutdown is called.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln. It returns nil when ctx is cancelled and
// ErrServerClosed after Shutdown. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerClosed
	}
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("Accepting connections",
		"addr", ln.Addr().String(),
		"mode", string(s.opts.Mode),
		"workers", s.opts.Workers,
	)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()

	var queue chan net.Conn
	if s.opts.Mode == ModePool {
		queue = make(chan net.Conn)
		for i := 0; i < s.opts.Workers; i++ {
			s.inflight.Add(1)
			go s.worker(ctx, queue)
		}
		defer close(queue)
	}

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if s.isClosed() {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				backoff = nextBackoff(backoff)
				s.logger.Warn("Accept failed, retrying", "error", err.Error(), "backoff", backoff)
				time.Sleep(backoff)
				continue
			}
			_ = ln.Close()
			return fmt.Errorf("accept: %w", err)
		}
		backoff = 0

		switch s.opts.Mode {
		case ModePerConnection:
			s.inflight.Add(1)
			go func() {
				defer s.inflight.Done()
				s.handleConn(ctx, conn)
			}()
		case ModePool:
			queue <- conn
		default:
			s.inflight.Add(1)
			s.handleConn(ctx, conn)
			s.inflight.Done()
		}
	}
}

func (s *Server) worker(ctx context.Context, queue <-chan net.Conn) {
	defer s.inflight.Done()
	for conn := range queue {
		s.handleConn(ctx, conn)
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}

// handleConn reads one request, writes one response and closes conn.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	logger := s.logger.With("conn", uuid.NewString(), "remote", conn.RemoteAddr().String())

	if s.opts.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout)); err != nil {
			logger.Warn("Failed to set read deadline", "error", err.Error())
		}
	}

	resp, req := s.handler.Serve(ctx, conn)
	if req != nil {
		logger.Debug("Request received", "line", req.Line, "path", req.Path, "discarded", req.Discarded)
	}

	if _, err := resp.WriteTo(conn); err != nil {
		logger.Warn("Failed to write response", "error", err.Error())
		return
	}
	s.served.Add(1)
}

// Handle serves a single already-accepted connection with the server's
// dispatcher and limits. The connection is closed on return.
func (s *Server) Handle(ctx context.Context, conn net.Conn) {
	s.handleConn(ctx, conn)
}

// Addr returns the listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Served returns the number of responses written so far.
func (s *Server) Served() int64 {
	return s.served.Load()
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Shutdown stops accepting and waits for in-flight connections until ctx
// is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	ln := s.listener
	s.mu.Unlock()

	s.logger.Info("Shutting down")
	if ln != nil {
		_ = ln.Close()
	}

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Server shut down", "served", s.Served())
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to drain connections: %w", ctx.Err())
	}
}
