// Package viewer runs the fetch-and-render pipeline and owns the view state
// it produces: the current selection, table, and map layer.
package viewer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mapaction/hazardview/internal/config"
	"github.com/mapaction/hazardview/internal/hazard"
	"github.com/mapaction/hazardview/internal/metrics"
	"github.com/mapaction/hazardview/internal/overlay"
	"github.com/mapaction/hazardview/internal/selection"
	"github.com/mapaction/hazardview/internal/table"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ErrStale is returned by Go when a response arrives after a newer request
// has already been displayed. The response is dropped.
var ErrStale = errors.New("response superseded by a newer request")

// Loader fetches and decodes hazard data.
type Loader interface {
	Load(ctx context.Context, sel selection.Selection) (hazard.Payload, error)
}

// View is a copy of the displayed state.
type View struct {
	UpdatedAt time.Time           `json:"updated_at"`
	Layer     *overlay.Layer      `json:"layer"`
	Selection selection.Selection `json:"selection"`
	Table     table.Grid          `json:"table"`
	Tiles     config.Tiles        `json:"tiles"`
	Viewport  overlay.Viewport    `json:"viewport"`
	Seq       uint64              `json:"seq"`
}

// Loaded reports whether any payload has been displayed yet.
func (v View) Loaded() bool {
	return v.Seq != 0
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithClock sets the time source for update timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(v *Viewer) { v.clock = c }
}

// WithMetrics sets the collectors updated on every commit.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Viewer) { v.metrics = m }
}

// Viewer is safe for concurrent use. Fetches run without holding the lock;
// each call to Go takes a sequence number and its result is shown only if
// no newer call was issued in the meantime.
type Viewer struct {
	loader  Loader
	clock   clockwork.Clock
	metrics *metrics.Metrics

	mu        sync.Mutex
	mapView   *overlay.MapView
	selection selection.Selection
	grid      table.Grid
	updatedAt time.Time
	issued    uint64
	shown     uint64
}

// New creates a viewer that draws onto mv.
func New(loader Loader, mv *overlay.MapView, opts ...Option) *Viewer {
	v := &Viewer{
		loader:  loader,
		mapView: mv,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.metrics == nil {
		v.metrics = metrics.NewUnregistered()
	}
	return v
}

// Go validates the selection, fetches its data, renders the table and the
// map layer, and displays both. On any error the displayed state is left
// as it was.
func (v *Viewer) Go(ctx context.Context, sel selection.Selection) (View, error) {
	sel, err := sel.Validate()
	if err != nil {
		log.Warn().Err(err).Msg("Rejected selection")
		return View{}, err
	}

	v.mu.Lock()
	v.issued++
	seq := v.issued
	v.mu.Unlock()

	log.Info().
		Uint64("seq", seq).
		Str("country", sel.Country).
		Str("admin_level", sel.AdminLevel).
		Str("hazard", sel.Hazard).
		Str("format", string(sel.Format)).
		Msg("Loading hazard data")

	payload, err := v.loader.Load(ctx, sel)
	if err != nil {
		log.Error().Err(err).Uint64("seq", seq).Msg("There was a problem with the fetch operation")
		return View{}, err
	}

	grid := table.Render(payload)
	layer := overlay.Build(payload)

	v.mu.Lock()
	defer v.mu.Unlock()

	if seq != v.issued {
		v.metrics.StaleDiscards.Inc()
		log.Warn().
			Uint64("seq", seq).
			Uint64("issued", v.issued).
			Msg("Discarding stale response")
		return View{}, ErrStale
	}

	v.mapView.Replace(layer)
	v.grid = grid
	v.selection = sel
	v.updatedAt = v.clock.Now()
	v.shown = seq

	v.metrics.LayerMarkers.Set(float64(len(layer.Markers)))
	v.metrics.LayerSkipped.Set(float64(layer.Skipped))

	log.Info().
		Uint64("seq", seq).
		Str("payload", payload.Kind.String()).
		Int("rows", len(grid.Rows)).
		Int("markers", len(layer.Markers)).
		Int("skipped", layer.Skipped).
		Msg("View updated")

	return v.snapshot(), nil
}

// Snapshot returns a copy of the displayed state.
func (v *Viewer) Snapshot() View {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot()
}

func (v *Viewer) snapshot() View {
	return View{
		UpdatedAt: v.updatedAt,
		Layer:     v.mapView.Current(),
		Selection: v.selection,
		Table:     v.grid,
		Tiles:     v.mapView.Tiles,
		Viewport:  v.mapView.Viewport(),
		Seq:       v.shown,
	}
}
