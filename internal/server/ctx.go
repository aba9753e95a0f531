package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/mapaction/hazardview/internal/config"
	"github.com/mapaction/hazardview/internal/hazard"
	"github.com/mapaction/hazardview/internal/page"
	"github.com/mapaction/hazardview/internal/viewer"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config   *config.Config
	Viewer   *viewer.Viewer
	Page     *page.Renderer
	Gatherer prometheus.Gatherer
	Source   viewer.CountrySource

	mu        sync.Mutex
	countries []hazard.Country
	version   uint64 // bumped whenever countries changes
	instance  string // distinguishes ETags across restarts
}

// NewServerContext starts from the country list loaded at startup. An empty
// list is fetched again from src on the next request that needs it.
func NewServerContext(cfg *config.Config, v *viewer.Viewer, p *page.Renderer, src viewer.CountrySource, countries []hazard.Country) *ServerContext {
	log.Info().
		Int("countries", len(countries)).
		Int("admin_levels", len(cfg.AdminLevels)).
		Int("hazards", len(cfg.Hazards)).
		Msg("Server context initialized")

	return &ServerContext{
		Config:    cfg,
		Viewer:    v,
		Page:      p,
		Gatherer:  prometheus.DefaultGatherer,
		Source:    src,
		countries: countries,
		version:   1,
		instance:  uuid.NewString()[:8],
	}
}

// Countries returns the country selector options and the version of the
// list they were built from.
func (s *ServerContext) Countries(ctx context.Context) ([]viewer.SelectOption, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.countries) == 0 && s.Source != nil {
		if list := viewer.LoadCountries(ctx, s.Source); len(list) > 0 {
			s.countries = list
			s.version++
		}
	}

	return viewer.CountryOptions(s.countries), s.version
}

// Routes registers every handler and wraps the mux in the request logger.
func (s *ServerContext) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/countries", s.HandleCountries)
	mux.HandleFunc("GET /api/view", s.HandleView)
	mux.HandleFunc("POST /api/load", s.HandleLoad)
	mux.HandleFunc("GET /api/table.csv", s.HandleTableCSV)
	mux.HandleFunc("GET /healthz", s.HandleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /favicon.ico", s.HandleFavicon)
	mux.HandleFunc("POST /go", s.HandleGo)
	mux.HandleFunc("GET /", s.HandleIndex)

	return RequestLogger(mux)
}
