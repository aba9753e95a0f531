package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mapaction/hazardview/internal/config"
	"github.com/mapaction/hazardview/internal/hazard"
	"github.com/mapaction/hazardview/internal/metrics"
	"github.com/mapaction/hazardview/internal/overlay"
	"github.com/mapaction/hazardview/internal/page"
	"github.com/mapaction/hazardview/internal/viewer"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lebanonCSV = "name,latitude,longitude\nBeirut,33.8938,35.5018\nTripoli,34.4367,35.8497\n"

// upstream fakes the hazard API: LBN answers, everything else fails with 500.
// While countriesDown is set the country list answers 503.
func upstream(t *testing.T, countriesDown *atomic.Bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/countries/" && countriesDown.Load():
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		case r.URL.Path == "/countries/":
			_, _ = w.Write([]byte(`[{"name": "Lebanon", "iso_3": "LBN"}]`))
		case strings.HasPrefix(r.URL.Path, "/LBN/hazard/flood/"):
			if r.URL.Query().Get("format") == "geojson" {
				_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"name":"Beirut"},"geometry":{"type":"Point","coordinates":[35.5018,33.8938]}}]}`))
				return
			}
			_, _ = w.Write([]byte(lebanonCSV))
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	return newTestServerWith(t, &atomic.Bool{})
}

func newTestServerWith(t *testing.T, countriesDown *atomic.Bool) http.Handler {
	t.Helper()
	api := upstream(t, countriesDown)

	cfg := config.Default()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	client := hazard.NewClient(api.URL, 5*time.Second, m)

	p, err := page.New()
	require.NoError(t, err)

	v := viewer.New(client, overlay.NewMapView(cfg.Tiles, cfg.View), viewer.WithMetrics(m))
	countries := viewer.LoadCountries(context.Background(), client)

	s := NewServerContext(cfg, v, p, client, countries)
	s.Gatherer = reg
	return s.Routes()
}

func do(t *testing.T, h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func currentView(t *testing.T, h http.Handler) viewResponse {
	t.Helper()
	rec := do(t, h, http.MethodGet, "/api/view", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var v viewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

type viewResponse struct {
	Selection struct {
		Country string `json:"country"`
		Format  string `json:"format"`
	} `json:"selection"`
	Table struct {
		Header []string   `json:"header"`
		Rows   [][]string `json:"rows"`
	} `json:"table"`
	Layer *struct {
		Markers []struct {
			Popup string  `json:"popup"`
			Lat   float64 `json:"lat"`
			Lng   float64 `json:"lng"`
		} `json:"markers"`
	} `json:"layer"`
	Seq uint64 `json:"seq"`
}

func lebanonForm(format string) url.Values {
	return url.Values{"country": {"LBN"}, "admin_level": {"1"}, "hazard": {"flood"}, "format": {format}}
}

func TestIndex(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Select a country")
	assert.Contains(t, rec.Body.String(), "Lebanon")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = do(t, h, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGo_UpdatesView(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/go", lebanonForm("csv"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	v := currentView(t, h)
	assert.Equal(t, "LBN", v.Selection.Country)
	assert.Len(t, v.Table.Rows, 2)
	require.NotNil(t, v.Layer)
	require.Len(t, v.Layer.Markers, 2)
	assert.Equal(t, "Beirut", v.Layer.Markers[0].Popup)
	assert.Equal(t, 33.8938, v.Layer.Markers[0].Lat)

	index := do(t, h, http.MethodGet, "/", nil)
	assert.Contains(t, index.Body.String(), "Tripoli")
}

func TestGo_UpstreamFailureKeepsView(t *testing.T) {
	h := newTestServer(t)

	require.Equal(t, http.StatusSeeOther, do(t, h, http.MethodPost, "/go", lebanonForm("geojson")).Code)
	before := currentView(t, h)

	form := lebanonForm("csv")
	form.Set("country", "MOZ")
	rec := do(t, h, http.MethodPost, "/go", form)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	after := currentView(t, h)
	assert.Equal(t, before, after)
	assert.Equal(t, []string{"Beirut", "33.8938", "35.5018"}, after.Table.Rows[0])
}

func TestGo_InvalidSelectionPrompts(t *testing.T) {
	h := newTestServer(t)

	form := lebanonForm("csv")
	form.Set("country", "")
	rec := do(t, h, http.MethodPost, "/go", form)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "select a country")
	assert.Zero(t, currentView(t, h).Seq)
}

func TestLoad_Statuses(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/load?"+lebanonForm("geojson").Encode(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/load?country=LBN&admin_level=1&format=kml", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "format")

	rec = do(t, h, http.MethodPost, "/api/load?country=NPL&admin_level=1&format=csv", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	assert.Equal(t, "LBN", currentView(t, h).Selection.Country)
}

func TestCountries(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/countries", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var opts []viewer.SelectOption
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Equal(t, []viewer.SelectOption{
		{Label: viewer.PlaceholderLabel, Value: ""},
		{Label: "Lebanon", Value: "LBN"},
	}, opts)
}

func TestCountries_RecoverAfterStartupFailure(t *testing.T) {
	var down atomic.Bool
	down.Store(true)
	h := newTestServerWith(t, &down)

	rec := do(t, h, http.MethodGet, "/api/countries", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var opts []viewer.SelectOption
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Equal(t, []viewer.SelectOption{{Label: viewer.PlaceholderLabel, Value: ""}}, opts)

	stale := do(t, h, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, stale.Code)
	assert.NotContains(t, stale.Body.String(), "Lebanon")

	down.Store(false)

	rec = do(t, h, http.MethodGet, "/api/countries", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Equal(t, []viewer.SelectOption{
		{Label: viewer.PlaceholderLabel, Value: ""},
		{Label: "Lebanon", Value: "LBN"},
	}, opts)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("If-None-Match", stale.Header().Get("ETag"))
	fresh := httptest.NewRecorder()
	h.ServeHTTP(fresh, req)
	assert.Equal(t, http.StatusOK, fresh.Code, "a reloaded country list changes the ETag")
	assert.Contains(t, fresh.Body.String(), "Lebanon")
}

func TestIndex_ETagDiffersAcrossInstances(t *testing.T) {
	first := do(t, newTestServer(t), http.MethodGet, "/", nil)
	second := do(t, newTestServer(t), http.MethodGet, "/", nil)

	require.NotEmpty(t, first.Header().Get("ETag"))
	assert.NotEqual(t, first.Header().Get("ETag"), second.Header().Get("ETag"))
}

func TestTableCSV(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusSeeOther, do(t, h, http.MethodPost, "/go", lebanonForm("csv")).Code)

	rec := do(t, h, http.MethodGet, "/api/table.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, lebanonCSV, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "LBN_flood_1.csv")
}

func TestHealthFaviconMetrics(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/favicon.ico", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))

	rec = do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hazardview_fetch_requests_total")
}
