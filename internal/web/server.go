package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/climadados/clima-dashboard/internal/client"
	"github.com/climadados/clima-dashboard/internal/observability"
	"github.com/climadados/clima-dashboard/internal/search"
	"github.com/climadados/clima-dashboard/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// ErrNoGeolocation is the blocking-notice failure for requests that reach the
// geolocation endpoint without a usable device position.
var ErrNoGeolocation = errors.New("geolocation unavailable")

// Config holds the web server dependencies and tunables.
type Config struct {
	API              client.WeatherAPI
	Store            store.LocationStore
	Logger           *zap.Logger
	DebounceInterval time.Duration
	SessionTTL       time.Duration
	QueryMaxLength   int
	RequestTimeout   time.Duration
}

// Server renders the dashboard pages and serves the small JSON API the page
// scripts talk to. Each browser session owns one search controller.
type Server struct {
	api            client.WeatherAPI
	logger         *zap.Logger
	sessions       *sessionRegistry
	tmpl           *template.Template
	queryMaxLen    int
	requestTimeout time.Duration
}

// NewServer builds a Server. ctx bounds the lifetime of session controllers;
// cancel it during shutdown to tear down pending debounce timers.
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 30 * time.Minute
	}
	queryMaxLen := cfg.QueryMaxLength
	if queryMaxLen <= 0 {
		queryMaxLen = 100
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}

	build := func(geo search.Geolocator) *search.Controller {
		return search.New(search.Config{
			API:              cfg.API,
			Store:            cfg.Store,
			Geolocator:       geo,
			Logger:           logger,
			DebounceInterval: cfg.DebounceInterval,
		})
	}

	return &Server{
		api:            cfg.API,
		logger:         logger,
		sessions:       newSessionRegistry(ctx, sessionTTL, build),
		tmpl:           tmpl,
		queryMaxLen:    queryMaxLen,
		requestTimeout: requestTimeout,
	}, nil
}

// Router wires routes and middleware.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(s.logger))
	router.Use(MetricsMiddleware)

	router.HandleFunc("/health", s.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler()).Methods("GET")

	pages := router.NewRoute().Subrouter()
	pages.Use(TimeoutMiddleware(s.requestTimeout))
	pages.HandleFunc("/", s.Home).Methods("GET")
	pages.HandleFunc("/selecionar", s.SelectCity).Methods("GET")
	pages.HandleFunc("/previsao/{lat}/{long}", s.Detail).Methods("GET")
	// The detail route is not a standalone entry point: anything short of
	// lat+long redirects home.
	pages.HandleFunc("/previsao", s.redirectHome).Methods("GET")
	pages.HandleFunc("/previsao/{lat}", s.redirectHome).Methods("GET")
	pages.HandleFunc("/api/cities", s.APICities).Methods("GET")
	pages.HandleFunc("/api/geolocation", s.APIGeolocation).Methods("POST")

	return router
}

func (s *Server) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		if logger := loggerFromContext(r.Context()); logger != nil {
			logger.Error("render template", zap.String("template", name), zap.Error(err))
		}
	}
}
