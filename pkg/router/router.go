// Package router is a small method-aware ServeMux wrapper with wildcard
// path segments and structured request logging.
package router

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// HandlerFunc is the handler signature routes are registered with.
type HandlerFunc func(http.ResponseWriter, *http.Request)

// Router dispatches by METHOD:PATH with single-segment ("*") and
// trailing ("*" as last segment) wildcards.
type Router struct {
	mux    *http.ServeMux
	routes map[string]HandlerFunc
	paths  []string
	log    *slog.Logger
}

// New builds an empty router logging through the given logger.
func New(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	r := &Router{
		mux:    http.NewServeMux(),
		routes: make(map[string]HandlerFunc),
		log:    log,
	}
	r.mux.HandleFunc("/", r.dispatch)
	return r
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	if h := r.lookup(req.Method, req.URL.Path); h != nil {
		h(rec, req)
	} else if r.pathKnown(req.URL.Path) {
		http.Error(rec, "Method Not Allowed", http.StatusMethodNotAllowed)
	} else {
		http.Error(rec, "Not Found", http.StatusNotFound)
	}

	r.log.Info("request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", rec.status,
		"duration", time.Since(start))
}

func (r *Router) lookup(method, path string) HandlerFunc {
	if h, ok := r.routes[method+":"+path]; ok {
		return h
	}
	for _, pattern := range r.paths {
		if strings.Contains(pattern, "*") && matchPattern(path, pattern) {
			if h, ok := r.routes[method+":"+pattern]; ok {
				return h
			}
		}
	}
	return nil
}

func (r *Router) pathKnown(path string) bool {
	for _, pattern := range r.paths {
		if pattern == path || matchPattern(path, pattern) {
			return true
		}
	}
	return false
}

// matchPattern compares path segments against a pattern; "*" matches one
// segment, or the rest of the path when it is the final segment.
func matchPattern(path, pattern string) bool {
	pathSegs := strings.Split(strings.Trim(path, "/"), "/")
	patSegs := strings.Split(strings.Trim(pattern, "/"), "/")

	for i, pat := range patSegs {
		if pat == "*" && i == len(patSegs)-1 {
			return len(pathSegs) >= len(patSegs)
		}
		if i >= len(pathSegs) {
			return false
		}
		if pat != "*" && pat != pathSegs[i] {
			return false
		}
	}
	return len(pathSegs) == len(patSegs)
}

func (r *Router) register(method, path string, handler HandlerFunc) {
	r.routes[method+":"+path] = handler
	for _, p := range r.paths {
		if p == path {
			return
		}
	}
	r.paths = append(r.paths, path)
}

func (r *Router) GET(path string, handler HandlerFunc)    { r.register(http.MethodGet, path, handler) }
func (r *Router) POST(path string, handler HandlerFunc)   { r.register(http.MethodPost, path, handler) }
func (r *Router) PUT(path string, handler HandlerFunc)    { r.register(http.MethodPut, path, handler) }
func (r *Router) DELETE(path string, handler HandlerFunc) { r.register(http.MethodDelete, path, handler) }

// Handler exposes the underlying mux for http.Server.
func (r *Router) Handler() http.Handler {
	return r.mux
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
