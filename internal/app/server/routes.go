package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"filegate/internal/auth"
	"filegate/internal/blocklist"
	"filegate/internal/ratelimit"
	"filegate/internal/validation"
)

// Server wires the gate's components behind the HTTP surface. Instances are
// passed in explicitly; the handlers hold no package-level state.
type Server struct {
	pipeline *validation.Pipeline
	limiter  *ratelimit.Limiter
	notifier *blocklist.Notifier
}

func New(pipeline *validation.Pipeline, limiter *ratelimit.Limiter, notifier *blocklist.Notifier) *Server {
	return &Server{
		pipeline: pipeline,
		limiter:  limiter,
		notifier: notifier,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PATCH, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimited applies the per-client request budget ahead of every API
// route. Paths containing "/upload" consume the stricter upload budget.
func (s *Server) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientKey := ratelimit.ClientIP(r)
		isUpload := strings.Contains(r.URL.Path, "/upload")

		if !s.limiter.Admit(clientKey, isUpload) {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"success": false,
				"message": "request limit exceeded, try again later",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handler assembles the route table.
func (s *Server) Handler() http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("POST /api/files/upload", s.uploadFile)
	router.HandleFunc("POST /api/files/upload-multiple", s.uploadMultipleFiles)
	router.HandleFunc("POST /api/files/validate", s.validateFilename)

	router.HandleFunc("GET /api/extensions/fixed", s.getFixedExtensions)
	router.Handle("PATCH /api/extensions/fixed/{extension}", auth.RequireAdmin(http.HandlerFunc(s.updateFixedExtension)))
	router.HandleFunc("GET /api/extensions/custom", s.getCustomExtensions)
	router.Handle("POST /api/extensions/custom", auth.RequireAdmin(http.HandlerFunc(s.addCustomExtension)))
	router.Handle("DELETE /api/extensions/custom/{id}", auth.RequireAdmin(http.HandlerFunc(s.deleteCustomExtension)))

	return enableCORS(s.rateLimited(router))
}

// OpenRoutes starts the API server and blocks until it exits.
func (s *Server) OpenRoutes(port int) error {
	server := http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Handler(),
	}

	log.Infof("Starting filegate backend on port :%d", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}
