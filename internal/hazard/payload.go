package hazard

import (
	"github.com/mapaction/hazardview/internal/selection"

	"github.com/paulmach/orb/geojson"
)

// Kind tags the variant held by a Payload.
type Kind int

// Payload variants.
const (
	KindGeo Kind = iota + 1
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindGeo:
		return "geo"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// Payload is a decoded API response. Exactly one of Features or Text is
// meaningful, as indicated by Kind.
type Payload struct {
	Features *geojson.FeatureCollection
	Text     string
	Kind     Kind
}

// GeoPayload wraps a feature collection.
func GeoPayload(fc *geojson.FeatureCollection) Payload {
	if fc == nil {
		fc = geojson.NewFeatureCollection()
	}
	return Payload{Kind: KindGeo, Features: fc}
}

// TablePayload wraps delimited text.
func TablePayload(text string) Payload {
	return Payload{Kind: KindTable, Text: text}
}

// KindFor returns the payload variant produced for a requested format.
func KindFor(f selection.Format) Kind {
	if f == selection.FormatGeoJSON {
		return KindGeo
	}
	return KindTable
}
