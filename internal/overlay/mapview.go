package overlay

import (
	"github.com/mapaction/hazardview/internal/config"
	"github.com/mapaction/hazardview/internal/geo"
)

// Viewport is what the map should show: either a fitted box or a default
// centre and zoom.
type Viewport struct {
	Fit    *geo.Bounds `json:"fit,omitempty"`
	Center geo.LatLng  `json:"center"`
	Zoom   int         `json:"zoom"`
}

// MapView owns the map's configuration and the one layer currently shown.
// It is not safe for concurrent use; the owner serializes access.
type MapView struct {
	current *Layer
	Tiles   config.Tiles
	Default config.View
}

// NewMapView creates a map with the default view and tile source and no layer.
func NewMapView(tiles config.Tiles, view config.View) *MapView {
	return &MapView{Tiles: tiles, Default: view}
}

// Replace removes the current layer, if any, and shows l instead.
// It returns the removed layer.
func (m *MapView) Replace(l *Layer) *Layer {
	prev := m.current
	m.current = l
	return prev
}

// Current returns the layer on the map, or nil.
func (m *MapView) Current() *Layer {
	return m.current
}

// Viewport fits the current layer's bounds. Without a layer, or with an
// empty one, the default view is kept.
func (m *MapView) Viewport() Viewport {
	if m.current.Empty() {
		return Viewport{
			Center: geo.LatLng{Lat: m.Default.Center[0], Lng: m.Default.Center[1]},
			Zoom:   m.Default.Zoom,
		}
	}

	b := m.current.Bounds
	return Viewport{
		Fit:    &b,
		Center: b.Center(),
		Zoom:   m.Tiles.MaxZoom,
	}
}
