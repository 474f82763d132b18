package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// Check reports whether a dependency is ready, with an optional detail.
type Check func() (bool, string)

type Server struct {
	server    *http.Server
	mux       *http.ServeMux
	mu        sync.RWMutex
	checks    map[string]Check
	startTime time.Time
}

type StatusResponse struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime"`
	Checks map[string]string `json:"checks,omitempty"`
}

func NewServer(host string, port int) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		checks:    make(map[string]Check),
		startTime: time.Now(),
	}
	s.mux.HandleFunc("/health", s.healthHandler)
	s.mux.HandleFunc("/ready", s.readyHandler)

	s.server = &http.Server{
		Addr:              net.JoinHostPort(host, fmt.Sprint(port)),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handle mounts an extra handler, such as the relay, on the same listener.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// RegisterCheck adds a readiness check. /ready fails while any check fails.
func (s *Server) RegisterCheck(name string, check Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, StatusResponse{
		Status: "ok",
		Uptime: time.Since(s.startTime).Truncate(time.Second).String(),
	})
}

func (s *Server) readyHandler(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	code := http.StatusOK
	resp := StatusResponse{
		Status: "ready",
		Uptime: time.Since(s.startTime).Truncate(time.Second).String(),
		Checks: make(map[string]string, len(s.checks)),
	}
	for name, check := range s.checks {
		ok, detail := check()
		if detail == "" {
			detail = "ok"
		}
		if !ok {
			code = http.StatusServiceUnavailable
			resp.Status = "not ready"
		}
		resp.Checks[name] = detail
	}
	writeStatus(w, code, resp)
}

func writeStatus(w http.ResponseWriter, code int, resp StatusResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
