package table

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/mapaction/hazardview/internal/hazard"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feature(name string, g orb.Geometry) *geojson.Feature {
	f := geojson.NewFeature(g)
	if name != "" {
		f.Properties["name"] = name
	}
	return f
}

func TestFromFeatures_SwapsIntoDisplayOrder(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(feature("Beirut", orb.Point{35.5018, 33.8938}))

	got := FromFeatures(fc)
	want := Grid{
		Header: []string{"Name", "Latitude", "Longitude"},
		Rows:   [][]string{{"Beirut", "33.8938", "35.5018"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromFeatures() mismatch (-want +got):\n%s", diff)
	}
}

func TestFromFeatures_RowCount(t *testing.T) {
	for _, n := range []int{0, 1, 7} {
		fc := geojson.NewFeatureCollection()
		for i := range n {
			fc.Append(feature(fmt.Sprintf("site-%d", i), orb.Point{float64(i), float64(-i)}))
		}

		g := FromFeatures(fc)
		assert.Equal(t, n+1, g.Len(), "features=%d", n)
	}
}

func TestFromFeatures_OtherGeometries(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(feature("Basin", orb.Polygon{{{35, 33}, {36, 33}, {36, 34}, {35, 34}, {35, 33}}}))
	fc.Append(feature("", nil))

	got := FromFeatures(fc)
	want := [][]string{
		{"Basin", "33.5", "35.5"},
		{"", "", ""},
	}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestFromFeatures_Nil(t *testing.T) {
	g := FromFeatures(nil)
	assert.Equal(t, FeatureHeader, g.Header)
	assert.Empty(t, g.Rows)
}

func TestFromDelimited(t *testing.T) {
	text := "name , latitude,longitude\r\nBeirut, 33.8938 ,35.5018\r\n\nTripoli,34.4367,35.8497\n"

	got := FromDelimited(text)
	want := Grid{
		Header: []string{"name", "latitude", "longitude"},
		Rows: [][]string{
			{"Beirut", "33.8938", "35.5018"},
			{"Tripoli", "34.4367", "35.8497"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromDelimited() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, got.Len())
}

func TestFromDelimited_RaggedRowsKept(t *testing.T) {
	got := FromDelimited("name,lat,lon\nA,1\nB,2,3,extra")

	want := [][]string{{"A", "1"}, {"B", "2", "3", "extra"}}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestFromDelimited_QuotesNotInterpreted(t *testing.T) {
	got := FromDelimited(`name,lat,lon` + "\n" + `"Beirut, LB",33.8,35.5`)

	require.Len(t, got.Rows, 1)
	assert.Equal(t, []string{`"Beirut`, `LB"`, "33.8", "35.5"}, got.Rows[0])
}

func TestFromDelimited_Empty(t *testing.T) {
	g := FromDelimited("  \n")
	assert.True(t, g.Empty())
	assert.Zero(t, g.Len())
}

func TestRecords_KeepSourceLines(t *testing.T) {
	header, records := Records("name,lat,lon\n\nBeirut,33.8,35.5\n \nTripoli,34.4,35.8\n")

	assert.Equal(t, []string{"name", "lat", "lon"}, header)
	want := []Record{
		{Cells: []string{"Beirut", "33.8", "35.5"}, Line: 3},
		{Cells: []string{"Tripoli", "34.4", "35.8"}, Line: 5},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_Dispatch(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(feature("Beirut", orb.Point{35.5018, 33.8938}))

	assert.Equal(t, FeatureHeader, Render(hazard.GeoPayload(fc)).Header)
	assert.Equal(t, []string{"a", "b"}, Render(hazard.TablePayload("a,b\n1,2")).Header)
}

func TestWriteCSV_QuotesCells(t *testing.T) {
	g := Grid{
		Header: []string{"Name", "Latitude", "Longitude"},
		Rows:   [][]string{{"Beirut, LB", "33.8938", "35.5018"}},
	}

	var buf bytes.Buffer
	require.NoError(t, g.WriteCSV(&buf))
	assert.Equal(t, "Name,Latitude,Longitude\n\"Beirut, LB\",33.8938,35.5018\n", buf.String())
}

func TestTerminal_ContainsCells(t *testing.T) {
	g := FromDelimited("name,lat,lon\nBeirut,33.8938,35.5018\nShort,1")

	out := g.Terminal()
	for _, s := range []string{"name", "Beirut", "33.8938", "35.5018", "Short"} {
		assert.Contains(t, out, s)
	}
	assert.Equal(t, 1, strings.Count(out, "Beirut"))
}
