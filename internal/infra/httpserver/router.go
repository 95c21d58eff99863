package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appanalysis "github.com/bryanwahyu/skillscope/internal/application/analysis"
	appchat "github.com/bryanwahyu/skillscope/internal/application/chat"
	appmindmap "github.com/bryanwahyu/skillscope/internal/application/mindmap"
	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	"github.com/bryanwahyu/skillscope/internal/domain/identity"
	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
	"github.com/bryanwahyu/skillscope/internal/infra/observability"
	"github.com/bryanwahyu/skillscope/internal/logger"
	"github.com/bryanwahyu/skillscope/internal/middleware"
)

const maxBodyBytes = 1 << 20

// Deps are the collaborators of the HTTP surface. Metrics, Limiter and
// Checkers are optional.
type Deps struct {
	Analysis *appanalysis.Service
	Chat     *appchat.Service
	MindMaps *appmindmap.Service

	Verifier identity.Verifier
	// Fallback is the session used for requests without a token (auth mode none).
	Fallback *identity.Session
	AuthMode string

	Log         *logger.Logger
	Metrics     *middleware.Metrics
	Limiter     *middleware.RateLimiter
	Checkers    map[string]middleware.HealthChecker
	CORSOrigins []string
}

type Router struct {
	analysis *appanalysis.Service
	chat     *appchat.Service
	mindMaps *appmindmap.Service
	authMode string
	log      *logger.Logger
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	r := &Router{analysis: d.Analysis, chat: d.Chat, mindMaps: d.MindMaps, authMode: d.AuthMode, log: log}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"authorization", "x-client-info", "apikey", "content-type"},
		MaxAge:         300,
	}))
	mux.Use(observability.HTTPMiddleware)
	if d.Metrics != nil {
		mux.Use(d.Metrics.Middleware)
	}
	mux.Use(middleware.Logging(log))
	mux.Use(middleware.Authenticate(d.Verifier, d.Fallback, log))
	if d.Limiter != nil {
		mux.Use(d.Limiter.Middleware)
	}

	mux.Get("/health", middleware.HealthHandler(d.Checkers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	if d.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	// relay endpoints accept anonymous callers
	mux.Post("/analyze-topic", r.wrap(r.handleAnalyzeTopic, analyzeMessages))
	mux.Post("/generate-mind-map", r.wrap(r.handleGenerateMindMap, mindMapMessages))
	mux.Post("/personalized-chat", r.wrap(r.handlePersonalizedChat, chatMessages))

	mux.Group(func(rt chi.Router) {
		rt.Use(middleware.RequireSession)

		rt.Get("/session", r.wrap(r.handleSession, defaultMessages))
		rt.Delete("/session", r.wrap(r.handleSignOut, defaultMessages))

		rt.Get("/interests", r.wrap(r.handleInterests, defaultMessages))
		rt.Get("/analyses", r.wrap(r.handleListAnalyses, defaultMessages))
		rt.Get("/analyses/{id}", r.wrap(r.handleGetAnalysis, defaultMessages))

		rt.Route("/conversations", func(rt chi.Router) {
			rt.Post("/", r.wrap(r.handleStartConversation, defaultMessages))
			rt.Get("/", r.wrap(r.handleListConversations, defaultMessages))
			rt.Patch("/{id}", r.wrap(r.handleSetAssistanceType, defaultMessages))
			rt.Get("/{id}/messages", r.wrap(r.handleMessages, defaultMessages))
			rt.Get("/{id}/events", r.wrap(r.handleEvents, defaultMessages))
		})

		rt.Route("/mind-maps", func(rt chi.Router) {
			rt.Post("/", r.wrap(r.handleSaveMindMap, defaultMessages))
			rt.Get("/", r.wrap(r.handleListMindMaps, defaultMessages))
			rt.Get("/{id}", r.wrap(r.handleGetMindMap, defaultMessages))
			rt.Delete("/{id}", r.wrap(r.handleDeleteMindMap, defaultMessages))
			rt.Get("/{id}/layout", r.wrap(r.handleMindMapLayout, defaultMessages))
			rt.Get("/{id}/image.png", r.wrap(r.handleMindMapImage, defaultMessages))
			rt.Post("/{id}/export", r.wrap(r.handleExportMindMap, defaultMessages))
		})
	})

	mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return mux
}

// messages are the user-facing texts one endpoint answers with.
type messages struct {
	validation string
	shape      string
	upstream   string
}

var (
	analyzeMessages = messages{
		validation: "Topic is required and must be a string",
		shape:      "Invalid response from AI service",
		upstream:   "Failed to analyze topic. Please try again.",
	}
	mindMapMessages = messages{
		validation: "Topic is required and must be a string",
		shape:      "Failed to parse mind map from AI service",
		upstream:   "Failed to generate mind map",
	}
	chatMessages = messages{
		validation: "Message is required",
		shape:      "Failed to generate response",
		upstream:   "Failed to generate response",
	}
	defaultMessages = messages{upstream: "Internal server error"}
)

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc, msgs messages) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status, msg := classify(err, msgs)
		if status >= http.StatusInternalServerError {
			r.log.Error("request failed", "path", req.URL.Path, "status", status, "error", err)
		} else {
			r.log.Debug("request rejected", "path", req.URL.Path, "status", status, "error", err)
		}
		middleware.WriteError(w, status, msg)
	}
}

func classify(err error, msgs messages) (int, string) {
	var inputErr *domain.InputError
	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, inputErr.Message
	case errors.Is(err, domain.ErrValidation):
		if msgs.validation != "" {
			return http.StatusBadRequest, msgs.validation
		}
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, ai.ErrRateLimited):
		return http.StatusTooManyRequests, "Rate limit exceeded. Please try again in a moment."
	case errors.Is(err, ai.ErrQuotaExhausted):
		return http.StatusPaymentRequired, "AI credits depleted. Please add more credits to continue."
	case errors.Is(err, mindmap.ErrMalformedGraph):
		return http.StatusInternalServerError, mindMapMessages.shape
	case errors.Is(err, ai.ErrUpstreamShape):
		if msgs.shape != "" {
			return http.StatusInternalServerError, msgs.shape
		}
		return http.StatusInternalServerError, analyzeMessages.shape
	case errors.Is(err, appmindmap.ErrExportDisabled):
		return http.StatusNotImplemented, "Mind map export is not configured"
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusInternalServerError, "Failed to access saved data"
	default:
		return http.StatusInternalServerError, msgs.upstream
	}
}

// decode reads a JSON body. Malformed JSON counts as bad input.
func decode(w http.ResponseWriter, req *http.Request, dst any) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode body: %v: %w", err, domain.ErrValidation)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func queryInt(req *http.Request, name string) int {
	n, _ := strconv.Atoi(req.URL.Query().Get(name))
	return n
}
