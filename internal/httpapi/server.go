// Package httpapi serves the public forms API, the embed assets and
// server-rendered widget snippets.
package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/goliatone/go-formembed/internal/store"
	"github.com/goliatone/go-formembed/pkg/client"
	"github.com/goliatone/go-formembed/pkg/render"
	"github.com/goliatone/go-formembed/pkg/renderers/vanilla"
	"github.com/goliatone/go-formembed/pkg/theme"
)

const (
	defaultMaxBodyBytes = 64 << 10
	defaultRateBurst    = 5
	defaultRateEvery    = 2 * time.Second
	limiterTTL          = 10 * time.Minute
)

// Config wires a Server to its collaborators. Forms and Submissions are
// required; everything else has a default.
type Config struct {
	Forms       store.Forms
	Submissions store.Submissions
	Themes      *theme.Catalog
	Renderer    render.Renderer
	Logger      *zap.Logger

	// MaxBodyBytes caps submission payloads.
	MaxBodyBytes int64
	// SubmitRate and SubmitBurst bound submissions per client address. A
	// negative SubmitRate disables the limiter.
	SubmitRate  rate.Limit
	SubmitBurst int
	// AllowedOrigins lists origins allowed by CORS; "*" allows any and an
	// empty list allows none.
	AllowedOrigins []string
	// AssetBase and APIBase are written into standalone snippets.
	AssetBase string
	APIBase   string

	Now   func() time.Time
	NewID func() string
}

// Server implements http.Handler.
type Server struct {
	forms       store.Forms
	submissions store.Submissions
	themes      *theme.Catalog
	renderer    render.Renderer
	logger      *zap.Logger
	maxBody     int64
	limiter     *clientLimiter
	cors        func(http.Handler) http.Handler
	assetBase   string
	apiBase     string
	now         func() time.Time
	newID       func() string

	router chi.Router
}

// New validates cfg and builds the routes.
func New(cfg Config) (*Server, error) {
	if cfg.Forms == nil || cfg.Submissions == nil {
		return nil, errors.New("httpapi: forms and submissions stores are required")
	}
	s := &Server{
		forms:       cfg.Forms,
		submissions: cfg.Submissions,
		themes:      cfg.Themes,
		renderer:    cfg.Renderer,
		logger:      cfg.Logger,
		maxBody:     cfg.MaxBodyBytes,
		assetBase:   cfg.AssetBase,
		apiBase:     cfg.APIBase,
		now:         cfg.Now,
		newID:       cfg.NewID,
		cors:        corsHandler(cfg.AllowedOrigins),
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.themes == nil {
		s.themes = theme.NewCatalog()
	}
	if s.renderer == nil {
		r, err := vanilla.New()
		if err != nil {
			return nil, err
		}
		s.renderer = r
	}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBodyBytes
	}
	if s.assetBase == "" {
		s.assetBase = "/embed"
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString() }
	}
	switch {
	case cfg.SubmitRate < 0:
	case cfg.SubmitRate == 0:
		s.limiter = newClientLimiter(rate.Every(defaultRateEvery), defaultRateBurst, limiterTTL, s.now)
	default:
		burst := cfg.SubmitBurst
		if burst <= 0 {
			burst = defaultRateBurst
		}
		s.limiter = newClientLimiter(cfg.SubmitRate, burst, limiterTTL, s.now)
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.recoverer)
	r.Use(s.requestLogger)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, client.ErrorPayload{Error: "Not found", Code: codeNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, client.ErrorPayload{Error: "Method not allowed", Code: "method_not_allowed"})
	})

	r.Get("/healthz", s.health)

	r.Route("/api/public/forms/{formID}", func(r chi.Router) {
		r.Use(s.cors)
		r.Get("/", s.getDefinition)
		r.With(s.rateLimit).Post("/submissions", s.createSubmission)
	})

	r.Route("/embed", func(r chi.Router) {
		r.Get("/forms/{formID}", s.embedSnippet)
		r.Get("/"+vanilla.ScriptName, s.asset(vanilla.ScriptName, "text/javascript; charset=utf-8"))
		r.Get("/"+vanilla.StylesheetName, s.asset(vanilla.StylesheetName, "text/css; charset=utf-8"))
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if _, err := s.forms.List(r.Context()); err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
