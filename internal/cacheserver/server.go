// Package cacheserver is an in-memory implementation of the cache service
// HTTP contract. It exists as a local target for the harness: `cachebench
// serve` runs it standalone, and tests drive the harness against it.
package cacheserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server hosting named caches.
type Server struct {
	mu         sync.RWMutex
	caches     map[string]*Cache
	httpServer *http.Server
	router     chi.Router
}

// New creates a Server bound to bindAddr.
func New(bindAddr string) *Server {
	srv := &Server{caches: make(map[string]*Cache)}
	srv.router = srv.buildRouter()
	srv.httpServer = &http.Server{
		Addr:    bindAddr,
		Handler: srv.router,
	}
	return srv
}

// Handler returns the router, for mounting in tests via httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving and blocks until the server stops.
func (s *Server) Start() error {
	slog.Info("cache server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Post("/cache/create", s.handleCreateCache)
	r.Post("/cache/delete", s.handleDeleteCache)
	r.Get("/cache/{name}/stats", s.handleStats)
	r.Get("/cache/{name}/{key}", s.handleGet)
	r.Put("/cache/{name}/{key}", s.handlePut)
	r.Delete("/cache/{name}/{key}", s.handleDelete)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

type createCacheRequest struct {
	Name       string `json:"name"`
	CacheType  string `json:"cache_type"`
	Capacity   int    `json:"capacity"`
	TTLSeconds int    `json:"ttl,omitempty"`
}

func (s *Server) handleCreateCache(w http.ResponseWriter, r *http.Request) {
	var req createCacheRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", "PARSE_ERROR")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", "VALIDATION_ERROR")
		return
	}

	cache, err := newCache(req.CacheType, req.Capacity)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.caches[req.Name]; exists {
		writeError(w, http.StatusConflict, "cache already exists", "CACHE_EXISTS")
		return
	}
	s.caches[req.Name] = cache
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (s *Server) handleDeleteCache(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", "PARSE_ERROR")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.caches[req.Name]; !exists {
		writeError(w, http.StatusNotFound, "cache not found", "CACHE_NOT_FOUND")
		return
	}
	delete(s.caches, req.Name)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) cache(name string) (*Cache, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.caches[name]
	return c, ok
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	cache, ok := s.cache(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "cache not found", "CACHE_NOT_FOUND")
		return
	}
	value, ok := cache.Get(chi.URLParam(r, "key"))
	if !ok {
		writeError(w, http.StatusNotFound, "key not found", "KEY_NOT_FOUND")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(value)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	cache, ok := s.cache(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "cache not found", "CACHE_NOT_FOUND")
		return
	}
	defer r.Body.Close()
	value, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body", "PARSE_ERROR")
		return
	}
	cache.Set(chi.URLParam(r, "key"), value)
	writeJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}

// handleDelete is idempotent: deleting an absent key still succeeds.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	cache, ok := s.cache(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "cache not found", "CACHE_NOT_FOUND")
		return
	}
	cache.Delete(chi.URLParam(r, "key"))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	cache, ok := s.cache(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "cache not found", "CACHE_NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, cache.Stats())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, code string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
