package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aretw0/sessionshard"
	"github.com/aretw0/sessionshard/internal/logging"
	"github.com/aretw0/sessionshard/pkg/adapters/redis"
	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/aretw0/sessionshard/pkg/pool"
	"github.com/aretw0/sessionshard/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultMaxValueSize bounds the body of a session write.
const DefaultMaxValueSize = 1 << 20

// Backend is what the admin API serves: session operations and the pool
// they are routed through. *sessionshard.Handler satisfies it.
type Backend interface {
	Sessions() ports.SessionStore
	Pool() *pool.Pool
}

// Server exposes a Backend over HTTP.
type Server struct {
	backend      Backend
	gatherer     prometheus.Gatherer
	maxValueSize int64
	logger       *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics serves the collectors of g on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithMaxValueSize overrides DefaultMaxValueSize.
func WithMaxValueSize(n int64) Option {
	return func(s *Server) {
		s.maxValueSize = n
	}
}

// NewHandler creates the HTTP handler for backend.
//
//	GET    /healthz
//	GET    /info
//	GET    /pool
//	GET    /metrics               (WithMetrics only)
//	GET    /sessions/{id}         raw value, 404 when absent
//	PUT    /sessions/{id}         raw value as body
//	DELETE /sessions/{id}
//	GET    /sessions/{id}/route   owning member, no I/O
func NewHandler(backend Backend, opts ...Option) http.Handler {
	s := &Server{
		backend:      backend,
		maxValueSize: DefaultMaxValueSize,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/pool", s.GetPool)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.ReadSession)
		r.Put("/", s.WriteSession)
		r.Delete("/", s.DestroySession)
		r.Get("/route", s.RouteSession)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ReadSession handles GET /sessions/{id}.
func (s *Server) ReadSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	data, err := s.backend.Sessions().Read(r.Context(), id)
	if err != nil {
		s.fail(w, "Read", err)
		return
	}
	if data == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}

// WriteSession handles PUT /sessions/{id}.
func (s *Server) WriteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	value, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxValueSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("Session value exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("WriteSession: Invalid request body", "err", err)
		return
	}

	if err := s.backend.Sessions().Write(r.Context(), id, value); err != nil {
		s.fail(w, "Write", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DestroySession handles DELETE /sessions/{id}.
func (s *Server) DestroySession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	if err := s.backend.Sessions().Destroy(r.Context(), id); err != nil {
		s.fail(w, "Destroy", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RouteResponse names the member a session id belongs to.
type RouteResponse struct {
	Shard    string `json:"shard"`
	Index    int    `json:"index"`
	Position uint32 `json:"position"`
	Key      string `json:"key"`
}

// RouteSession handles GET /sessions/{id}/route.
func (s *Server) RouteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	m, pos, err := s.backend.Pool().Route([]byte(id))
	if err != nil {
		s.fail(w, "Route", err)
		return
	}
	writeJSON(w, s.logger, RouteResponse{
		Shard:    m.Addr(),
		Index:    m.Index(),
		Position: pos,
		Key:      pool.StorageKey(m, id),
	})
}

// MemberStatus describes a pool member.
type MemberStatus struct {
	Index    int           `json:"index"`
	Addr     string        `json:"addr"`
	Weight   uint32        `json:"weight"`
	Prefix   string        `json:"prefix"`
	Auth     bool          `json:"auth"`
	Status   string        `json:"status"`
	Failover *FailoverInfo `json:"failover,omitempty"`
}

// FailoverInfo describes the failover connection of a member.
type FailoverInfo struct {
	Addr   string `json:"addr"`
	Status string `json:"status"`
}

// PoolResponse is the body of GET /pool.
type PoolResponse struct {
	TotalWeight uint32         `json:"total_weight"`
	Closed      bool           `json:"closed"`
	Members     []MemberStatus `json:"members"`
}

// GetPool handles GET /pool.
func (s *Server) GetPool(w http.ResponseWriter, r *http.Request) {
	p := s.backend.Pool()
	resp := PoolResponse{
		TotalWeight: p.TotalWeight(),
		Closed:      p.Closed(),
		Members:     []MemberStatus{},
	}
	for _, m := range p.Members() {
		ms := MemberStatus{
			Index:  m.Index(),
			Addr:   m.Addr(),
			Weight: m.Weight(),
			Prefix: m.Prefix(),
			Auth:   m.HasAuth(),
			Status: m.Primary().Status().String(),
		}
		if m.HasFailover() {
			ms.Failover = &FailoverInfo{
				Addr:   m.Failover().Addr(),
				Status: m.Failover().Status().String(),
			}
		}
		resp.Members = append(resp.Members, ms)
	}
	writeJSON(w, s.logger, resp)
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	if s.backend.Pool().Closed() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "closed"})
		return
	}
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{
		"app":     "sessionshard-http",
		"version": strings.TrimSpace(sessionshard.Version),
	})
}

// fail maps a session error to a status code.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNoBackend):
		status = http.StatusServiceUnavailable
	case errors.Is(err, redis.ErrLockAcquire):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrIO), errors.Is(err, domain.ErrBackend), errors.Is(err, domain.ErrProtocolFault):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Warn(op+" rejected", "err", err)
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), status)
}

// sessionID returns the unescaped {id} path parameter.
func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(id)
		if err != nil {
			http.Error(w, "Invalid session id", http.StatusBadRequest)
			return "", false
		}
		id = unescaped
	}
	if id == "" {
		http.Error(w, "Missing session id", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}
