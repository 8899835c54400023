// Package server exposes snapshots and host information over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/monify-labs/macmonitor/pkg/models"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// Sampler produces the snapshot served by /api/status
type Sampler interface {
	Sample(ctx context.Context) *models.Snapshot
}

// InfoProvider produces the host identification served by /api/info
type InfoProvider interface {
	Info(ctx context.Context) (*models.SystemInfo, error)
}

// StatusProvider reports the agent's own state for /api/agent
type StatusProvider interface {
	Status() *models.AgentStatus
}

// Options configures the HTTP surface
type Options struct {
	DashboardDir   string        // Static assets; empty or missing disables them
	StreamInterval time.Duration // Push interval of /api/stream
}

// Server is the agent's HTTP API
type Server struct {
	opts     Options
	sampler  Sampler
	info     InfoProvider
	status   StatusProvider
	log      logrus.FieldLogger
	upgrader websocket.Upgrader

	httpServer *http.Server
	listener   net.Listener

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a server; call Listen and Serve to start it
func New(opts Options, sampler Sampler, info InfoProvider, status StatusProvider, logger logrus.FieldLogger) *Server {
	if opts.StreamInterval <= 0 {
		opts.StreamInterval = 2 * time.Second
	}

	s := &Server{
		opts:    opts,
		sampler: sampler,
		info:    info,
		status:  status,
		log:     logger.WithField("component", "server"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		done: make(chan struct{}),
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the full middleware-wrapped route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/info", s.handleInfo)
	mux.HandleFunc("GET /api/agent", s.handleAgent)
	mux.HandleFunc("GET /api/stream", s.handleStream)
	mux.HandleFunc("/api/", s.handleNotFound)
	mux.Handle("/", s.dashboardHandler())

	var h http.Handler = mux
	h = recovery(s.log)(h)
	h = accessLog(s.log)(h)
	h = requestID(h)

	// Local-network trust: any origin, method and header
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         86400,
	}).Handler(h)
}

func (s *Server) dashboardHandler() http.Handler {
	dir := s.opts.DashboardDir
	if dir == "" {
		return http.HandlerFunc(s.handleNotFound)
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		s.log.WithField("dir", dir).Warn("Dashboard directory not found, static assets disabled")
		return http.HandlerFunc(s.handleNotFound)
	}

	return http.FileServer(dashboardFS{http.Dir(dir)})
}

// Listen binds the listener so that Addr is known before Serve
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve blocks until the server is shut down
func (s *Server) Serve() error {
	if s.listener == nil {
		return fmt.Errorf("server is not listening")
	}

	err := s.httpServer.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, ends streams and waits for handlers
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.done) })
	return s.httpServer.Shutdown(ctx)
}

// dashboardFS hides directories that have no index.html
type dashboardFS struct {
	fs http.FileSystem
}

func (d dashboardFS) Open(name string) (http.File, error) {
	f, err := d.fs.Open(name)
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if st.IsDir() {
		index, err := d.fs.Open(name + "/index.html")
		if err != nil {
			f.Close()
			return nil, os.ErrNotExist
		}
		index.Close()
	}

	return f, nil
}
