// Package overlay turns hazard payloads into a map layer and keeps track of
// the single layer currently shown on the map.
package overlay

import (
	"strings"

	"github.com/mapaction/hazardview/internal/geo"
	"github.com/mapaction/hazardview/internal/hazard"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// Marker is a point on the map with an optional popup.
type Marker struct {
	Popup string `json:"popup,omitempty"`
	geo.LatLng
}

// Layer is the set of markers and shapes drawn for one payload.
type Layer struct {
	// Shapes holds non-point features, drawn as-is by the map's GeoJSON layer.
	Shapes  *geojson.FeatureCollection `json:"shapes,omitempty"`
	Markers []Marker                   `json:"markers"`
	Bounds  geo.Bounds                 `json:"bounds"`
	// Skipped counts records that could not be placed on the map.
	Skipped int `json:"skipped,omitempty"`
}

// Empty reports whether the layer has nothing to draw.
func (l *Layer) Empty() bool {
	return l == nil || l.Bounds.Empty()
}

// Build dispatches on the payload variant.
func Build(p hazard.Payload) *Layer {
	if p.Kind == hazard.KindGeo {
		return FromFeatures(p.Features)
	}
	return FromDelimited(p.Text)
}

// FromFeatures creates one marker per point, popup bound to the feature's name.
func FromFeatures(fc *geojson.FeatureCollection) *Layer {
	l := &Layer{Markers: []Marker{}}
	if fc == nil {
		return l
	}

	for _, f := range fc.Features {
		name := geo.FeatureName(f)

		switch g := f.Geometry.(type) {
		case nil:
			l.Skipped++
		case orb.Point:
			l.addMarker(name, geo.FromPoint(g))
		case orb.MultiPoint:
			for _, p := range g {
				l.addMarker(name, geo.FromPoint(p))
			}
		default:
			if l.Shapes == nil {
				l.Shapes = geojson.NewFeatureCollection()
			}
			l.Shapes.Append(f)
			l.Bounds.ExtendGeometry(g)
		}
	}

	return l
}

// FromDelimited reads every non-header line as name, latitude, longitude.
// Lines without a usable position are skipped and counted.
func FromDelimited(text string) *Layer {
	l := &Layer{Markers: []Marker{}}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 3 {
			l.Skipped++
			log.Debug().Int("line", i+1).Int("fields", len(fields)).Msg("Skipping row without coordinates")
			continue
		}

		pos, err := geo.ParseLatLng(fields[1], fields[2])
		if err != nil {
			l.Skipped++
			log.Debug().Err(err).Int("line", i+1).Msg("Skipping row with invalid coordinates")
			continue
		}

		l.addMarker(strings.TrimSpace(fields[0]), pos)
	}

	return l
}

func (l *Layer) addMarker(popup string, pos geo.LatLng) {
	l.Markers = append(l.Markers, Marker{LatLng: pos, Popup: popup})
	l.Bounds.Extend(pos)
}
