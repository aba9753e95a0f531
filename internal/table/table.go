// Package table converts hazard payloads into a grid of display cells.
package table

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/mapaction/hazardview/internal/geo"
	"github.com/mapaction/hazardview/internal/hazard"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureHeader is the fixed header of a grid built from GeoJSON.
var FeatureHeader = []string{"Name", "Latitude", "Longitude"}

// Grid is a header row followed by data rows. Rows may differ in length.
type Grid struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Render dispatches on the payload variant.
func Render(p hazard.Payload) Grid {
	if p.Kind == hazard.KindGeo {
		return FromFeatures(p.Features)
	}
	return FromDelimited(p.Text)
}

// FromFeatures builds one row per feature: name, latitude, longitude.
// Points are shown as stored, swapped into (lat, lon) order; other geometries
// are shown at the centre of their bounding box.
func FromFeatures(fc *geojson.FeatureCollection) Grid {
	g := Grid{Header: append([]string(nil), FeatureHeader...)}
	if fc == nil {
		return g
	}

	g.Rows = make([][]string, 0, len(fc.Features))
	for _, f := range fc.Features {
		row := []string{geo.FeatureName(f), "", ""}
		if pos, ok := position(f.Geometry); ok {
			row[1] = geo.FormatCoord(pos.Lat)
			row[2] = geo.FormatCoord(pos.Lng)
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}

func position(g orb.Geometry) (geo.LatLng, bool) {
	switch v := g.(type) {
	case nil:
		return geo.LatLng{}, false
	case orb.Point:
		return geo.FromPoint(v), true
	default:
		var b geo.Bounds
		b.ExtendGeometry(v)
		if b.Empty() {
			return geo.LatLng{}, false
		}
		return b.Center(), true
	}
}

// FromDelimited splits text on newlines and commas. The first line is the
// header. Cells are trimmed; quoting is not supported and ragged rows are
// kept as they are. Blank lines are skipped.
func FromDelimited(text string) Grid {
	header, records := Records(text)
	g := Grid{Header: header}
	if header == nil {
		return g
	}

	g.Rows = make([][]string, len(records))
	for i, r := range records {
		g.Rows[i] = r.Cells
	}
	return g
}

// Record is one data row of delimited text and the 1-based line it came from.
type Record struct {
	Cells []string
	Line  int
}

// Records splits delimited text the way FromDelimited does, keeping the
// source line number of every data row.
func Records(text string) ([]string, []Record) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	lines := strings.Split(text, "\n")
	records := make([]Record, 0, len(lines)-1)
	for i, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, Record{Cells: splitRow(line), Line: i + 2})
	}
	return splitRow(lines[0]), records
}

func splitRow(line string) []string {
	cells := strings.Split(line, ",")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

// Len returns the number of rows including the header row.
func (g Grid) Len() int {
	if g.Header == nil {
		return len(g.Rows)
	}
	return len(g.Rows) + 1
}

// Empty reports whether the grid has neither header nor rows.
func (g Grid) Empty() bool {
	return g.Header == nil && len(g.Rows) == 0
}

// WriteCSV writes the grid as RFC 4180 CSV, quoting cells where needed.
func (g Grid) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if g.Header != nil {
		if err := cw.Write(g.Header); err != nil {
			return err
		}
	}
	if err := cw.WriteAll(g.Rows); err != nil {
		return err
	}
	return cw.Error()
}
