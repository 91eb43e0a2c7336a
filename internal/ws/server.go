// Package ws serves the guide to browsers. Each websocket connection mounts
// one guide instance; the browser reports geometry or visibility and receives
// a state message after every transition. Closing the connection tears the
// instance down.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/scrollguide/guide/internal/config"
	"github.com/scrollguide/guide/internal/section"
)

const shutdownTimeout = 5 * time.Second

// Server owns the HTTP routes and the live connections.
type Server struct {
	log *zap.Logger
	hub *Hub

	mu  sync.RWMutex
	cfg *config.Config
	reg *section.Registry

	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
}

// NewServer builds a server for cfg. maxConns <= 0 means unlimited.
func NewServer(cfg *config.Config, maxConns int, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		log:            logger,
		hub:            NewHub(maxConns),
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
	}
	if err := s.Reload(cfg); err != nil {
		return nil, err
	}

	for _, origin := range cfg.Server.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s, nil
}

// Reload swaps in a new configuration. Connections already open keep the
// registry they mounted with; new connections use cfg.
func (s *Server) Reload(cfg *config.Config) error {
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg, s.reg = cfg, reg
	s.mu.Unlock()
	return nil
}

// Hub exposes the live connections.
func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) current() (*config.Config, *section.Registry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, s.reg
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/sections", s.handleSections)
	mux.HandleFunc("/api/instances", s.handleInstances)
	mux.HandleFunc("/healthz", s.handleHealth)
}

// Handler returns the routes wrapped with the standard response headers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return securityHeaders(mux)
}

// ListenAndServe serves until ctx is cancelled, then closes every connection
// and shuts the listener down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.hub.CloseAll()
		return err
	case <-ctx.Done():
	}

	s.hub.CloseAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	cfg, reg := s.current()

	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("ws upgrade error", zap.Error(err))
		return
	}

	c := newConnection(conn, connectionConfig{
		Registry:       reg,
		DefaultGesture: cfg.DefaultGesture(),
		EntranceDelay:  cfg.Guide.EntranceDelay,
		Options:        cfg.VisibilityOptions(),
		Titles:         sectionTitles(cfg),
		Logger:         s.log,
	})

	if err := s.hub.add(c); err != nil {
		s.log.Warn("ws connection rejected", zap.Error(err), zap.String("remote", r.RemoteAddr))
		msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	s.log.Info("ws client connected", zap.String("remote", r.RemoteAddr), zap.String("instance", c.ID()))
	c.start()

	go func() {
		defer func() {
			s.hub.remove(c)
			s.log.Info("ws client disconnected", zap.String("remote", r.RemoteAddr), zap.String("instance", c.ID()))
		}()
		c.readPump()
	}()
}

func (s *Server) handleSections(w http.ResponseWriter, _ *http.Request) {
	cfg, reg := s.current()
	titles := sectionTitles(cfg)

	sections := make([]SectionInfo, 0, reg.Len())
	for _, d := range reg.Descriptors() {
		sections = append(sections, SectionInfo{ID: d.ID, Gesture: string(d.Gesture), Title: titles[d.ID]})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sections)
}

func (s *Server) handleInstances(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	instances := s.hub.Instances(r.Context())
	if instances == nil {
		instances = []InstanceInfo{}
	}
	_ = json.NewEncoder(w).Encode(instances)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"clients": s.hub.ClientCount()})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}
	if host == r.Host {
		return true
	}

	hostname := parsed.Hostname()
	return hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1"
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'self'")
		next.ServeHTTP(w, r)
	})
}

func sectionTitles(cfg *config.Config) map[string]string {
	titles := make(map[string]string, len(cfg.Sections))
	for _, sc := range cfg.Sections {
		if sc.Title != "" {
			titles[sc.ID] = sc.Title
		}
	}
	return titles
}
