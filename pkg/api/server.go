// Package api provides a local HTTP inspection surface over the skill
// engine: listing and inspecting registered skills, running queries, checking
// tool authorization against issued tokens, and triggering reloads.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillgate/pkg/engine"
	"github.com/jingkaihe/skillgate/pkg/gate"
	"github.com/jingkaihe/skillgate/pkg/logger"
	"github.com/jingkaihe/skillgate/pkg/presenter"
	"github.com/jingkaihe/skillgate/pkg/sources"
	"github.com/jingkaihe/skillgate/pkg/types/skills"
	"github.com/jingkaihe/skillgate/pkg/version"
)

// ServerConfig holds the configuration for the API server
type ServerConfig struct {
	Host string
	Port int
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// Server exposes the engine over HTTP. Tokens issued through the API are
// held server-side and addressed by their IDs so authorization and release
// round-trip over the wire.
type Server struct {
	router *mux.Router
	eng    *engine.Engine
	source sources.Source
	config *ServerConfig
	server *http.Server

	mu     sync.Mutex
	tokens map[string]*gate.Token
}

// NewServer creates an API server over the engine. source is used by the
// reload endpoint; it may be nil, which disables reloads.
func NewServer(eng *engine.Engine, source sources.Source, config *ServerConfig) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server config")
	}

	s := &Server{
		router: mux.NewRouter(),
		eng:    eng,
		source: source,
		config: config,
		tokens: make(map[string]*gate.Token),
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/skills", s.handleListSkills).Methods("GET")
	api.HandleFunc("/skills/{name}", s.handleGetSkill).Methods("GET")
	api.HandleFunc("/query", s.handleQuery).Methods("POST")
	api.HandleFunc("/tokens/{id}/authorize", s.handleAuthorize).Methods("POST")
	api.HandleFunc("/tokens/{id}", s.handleRelease).Methods("DELETE")
	api.HandleFunc("/reload", s.handleReload).Methods("POST")
	api.HandleFunc("/version", s.handleVersion).Methods("GET")
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: 200}
		next.ServeHTTP(rw, r)

		logger.G(r.Context()).WithFields(map[string]any{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rw.statusCode,
			"duration": time.Since(start),
		}).Info("HTTP request")
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// SkillSummary is the list-view shape of a registered skill.
type SkillSummary struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	AllowedTools  []string `json:"allowedTools"`
	Origin        string   `json:"origin,omitempty"`
	SourceVersion uint64   `json:"sourceVersion"`
}

func (s *Server) handleListSkills(w http.ResponseWriter, _ *http.Request) {
	records := s.eng.List()
	summaries := make([]SkillSummary, len(records))
	for i, record := range records {
		summaries[i] = SkillSummary{
			Name:          record.Name,
			Description:   record.Description,
			AllowedTools:  record.AllowedTools,
			Origin:        record.Origin,
			SourceVersion: record.SourceVersion,
		}
	}
	s.writeJSONResponse(w, map[string]any{
		"skills":          summaries,
		"registryVersion": s.eng.Version(),
	})
}

func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	record, err := s.eng.Lookup(name)
	if err != nil {
		s.writeErrorResponse(w, http.StatusNotFound, fmt.Sprintf("skill %q not found", name), err)
		return
	}
	s.writeJSONResponse(w, record)
}

// QueryRequest is the POST /api/query body.
type QueryRequest struct {
	Text   string         `json:"text"`
	Policy *skills.Policy `json:"policy,omitempty"`
}

// ActivationView is the wire shape of one issued activation token.
type ActivationView struct {
	TokenID      string   `json:"tokenId"`
	SkillName    string   `json:"skillName"`
	Score        float64  `json:"score"`
	AllowedTools []string `json:"allowedTools"`
	Body         string   `json:"body"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := s.eng.Query(r.Context(), req.Text, req.Policy)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "query failed", err)
		return
	}

	activations := make([]ActivationView, len(result.Tokens))
	s.mu.Lock()
	for i, token := range result.Tokens {
		s.tokens[token.ID()] = token
		record := token.Record()
		activations[i] = ActivationView{
			TokenID:      token.ID(),
			SkillName:    token.SkillName(),
			Score:        token.Score(),
			AllowedTools: record.AllowedTools,
			Body:         record.Body,
		}
	}
	s.mu.Unlock()

	s.writeJSONResponse(w, map[string]any{
		"candidates":      result.Candidates,
		"activations":     activations,
		"overflow":        result.Overflow,
		"registryVersion": result.RegistryVersion,
	})
}

// AuthorizeRequest is the POST /api/tokens/{id}/authorize body.
type AuthorizeRequest struct {
	Tool string `json:"tool"`
}

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req AuthorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	s.mu.Lock()
	token, ok := s.tokens[id]
	s.mu.Unlock()
	if !ok {
		s.writeErrorResponse(w, http.StatusNotFound, fmt.Sprintf("unknown token %q", id), nil)
		return
	}

	s.writeJSONResponse(w, s.eng.Authorize(r.Context(), token, req.Tool))
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	token, ok := s.tokens[id]
	if ok {
		delete(s.tokens, id)
	}
	s.mu.Unlock()

	// Release is idempotent: deleting an unknown token is still a success.
	if ok {
		s.eng.Release(token)
	}
	s.writeJSONResponse(w, map[string]any{"released": id})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		s.writeErrorResponse(w, http.StatusConflict, "no skill source configured for reload", nil)
		return
	}

	result, err := s.eng.Reload(r.Context(), s.source)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadGateway, "reload failed", err)
		return
	}

	rejected := make([]map[string]any, len(result.Rejected))
	for i, rej := range result.Rejected {
		rejected[i] = map[string]any{
			"index":  rej.Index,
			"name":   rej.Name,
			"origin": rej.Origin,
			"reason": rej.Reason.Error(),
		}
	}
	s.writeJSONResponse(w, map[string]any{
		"loaded":          result.Loaded,
		"rejected":        rejected,
		"registryVersion": s.eng.Version(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	s.writeJSONResponse(w, version.Get())
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode JSON response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	if err != nil {
		logger.G(context.TODO()).WithError(err).Error(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]any{
		"error":   message,
		"status":  statusCode,
		"success": false,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode error response")
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until the context is canceled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:    address,
		Handler: s.router,
	}

	presenter.Info(fmt.Sprintf("Starting skillgate API on http://%s", address))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.G(ctx).WithError(err).Error("API server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Stop closes the server immediately.
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}
