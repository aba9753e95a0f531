// Package geo handles geographic primitives shared by the table and map renderers.
//
// GeoJSON stores positions as [Lon, Lat]; the map widget and the table display
// them as (Lat, Lng). Conversions between the two orders live here only.
package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// NameProperty is the feature property shown as a marker popup and table name.
const NameProperty = "name"

// LatLng is a position in map widget order.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// FromPoint swaps a GeoJSON [Lon, Lat] point into display order.
func FromPoint(p orb.Point) LatLng {
	return LatLng{Lat: p.Lat(), Lng: p.Lon()}
}

// Point converts back to GeoJSON order.
func (ll LatLng) Point() orb.Point {
	return orb.Point{ll.Lng, ll.Lat}
}

// ParseLatLng parses textual latitude and longitude.
// Both values must be finite and inside the WGS84 range.
func ParseLatLng(lat, lng string) (LatLng, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return LatLng{}, fmt.Errorf("latitude %q: %w", lat, err)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return LatLng{}, fmt.Errorf("longitude %q: %w", lng, err)
	}

	if math.IsNaN(la) || la < -90 || la > 90 {
		return LatLng{}, fmt.Errorf("latitude %q out of range", lat)
	}
	if math.IsNaN(lo) || lo < -180 || lo > 180 {
		return LatLng{}, fmt.Errorf("longitude %q out of range", lng)
	}

	return LatLng{Lat: la, Lng: lo}, nil
}

// FormatCoord prints a coordinate in its shortest round-trip form.
func FormatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FeatureName returns the feature's name property, or "" when absent.
func FeatureName(f *geojson.Feature) string {
	if f == nil || f.Properties == nil {
		return ""
	}
	switch v := f.Properties[NameProperty].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Bounds is a bounding box that starts empty and grows as geometries are added.
type Bounds struct {
	bound orb.Bound
	set   bool
}

// Extend grows the box to cover the point.
func (b *Bounds) Extend(ll LatLng) {
	p := ll.Point()
	if !b.set {
		b.bound = orb.Bound{Min: p, Max: p}
		b.set = true
		return
	}
	b.bound = b.bound.Extend(p)
}

// ExtendGeometry grows the box to cover the geometry. Nil geometries are ignored.
func (b *Bounds) ExtendGeometry(g orb.Geometry) {
	if g == nil {
		return
	}
	gb := g.Bound()
	if !b.set {
		b.bound = gb
		b.set = true
		return
	}
	b.bound = b.bound.Union(gb)
}

// Empty reports whether nothing has been added.
func (b Bounds) Empty() bool {
	return !b.set
}

// SouthWest returns the minimum corner.
func (b Bounds) SouthWest() LatLng {
	return FromPoint(b.bound.Min)
}

// NorthEast returns the maximum corner.
func (b Bounds) NorthEast() LatLng {
	return FromPoint(b.bound.Max)
}

// Center returns the middle of the box.
func (b Bounds) Center() LatLng {
	return FromPoint(b.bound.Center())
}

// MarshalJSON encodes the box as Leaflet's [[south, west], [north, east]],
// or null when empty.
func (b Bounds) MarshalJSON() ([]byte, error) {
	if !b.set {
		return []byte("null"), nil
	}
	sw, ne := b.SouthWest(), b.NorthEast()
	return json.Marshal([2][2]float64{{sw.Lat, sw.Lng}, {ne.Lat, ne.Lng}})
}
