// Package server wires the orchestrator and its client channel to an HTTP
// listener: the websocket upgrade endpoint, static artifact serving, and a
// health check (spec.md §6).
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/entrhq/pilot/pkg/channel"
	"github.com/entrhq/pilot/pkg/logging"
	"github.com/entrhq/pilot/pkg/orchestrator"
	"github.com/entrhq/pilot/pkg/types"
)

// Server hosts the websocket channel and the artifact file server behind a
// single net/http listener.
type Server struct {
	addr         string
	artifactsDir string
	logger       *logging.Logger
	hub          *channel.Hub
	orch         *orchestrator.Orchestrator
	httpServer   *http.Server
}

// New wires hub's inbound message handlers to orch and builds the route
// table. Call Start to begin listening.
func New(addr, artifactsDir string, hub *channel.Hub, orch *orchestrator.Orchestrator, logger *logging.Logger) *Server {
	s := &Server{addr: addr, artifactsDir: artifactsDir, logger: logger, hub: hub, orch: orch}

	hub.OnTask(func(msg *types.ClientMessage) {
		go orch.StartTask(context.Background(), msg.Data.SessionID, msg.Data.Task)
	})
	hub.OnStop(func(msg *types.ClientMessage) {
		orch.Stop(msg.Data.SessionID)
	})
	hub.OnConfirmation(func(msg *types.ClientMessage) {
		go orch.Resume(context.Background(), msg.Data.SessionID, msg.Data.Approved)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.Handle("/artifacts/", http.StripPrefix("/artifacts/", http.FileServer(http.Dir(artifactsDir))))

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      loggingMiddleware(logger, mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // websocket connections are long-lived
	}
	return s
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

// Start blocks, serving until the listener errors or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Infof("pilot server listening addr=%s artifactsDir=%s", s.addr, s.artifactsDir)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests before closing the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		// /ws upgrades hijack the connection and live far longer than a normal
		// request; skip the per-request log line for it.
		if strings.HasPrefix(r.URL.Path, "/ws") {
			return
		}
		logger.Infof("http request method=%s path=%s duration=%s", r.Method, r.URL.Path, time.Since(start))
	})
}
