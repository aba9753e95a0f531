// Package server handles HTTP requests and middleware.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mapaction/hazardview/internal/hazard"
	"github.com/mapaction/hazardview/internal/page"
	"github.com/mapaction/hazardview/internal/selection"
	"github.com/mapaction/hazardview/internal/viewer"

	"github.com/rs/zerolog/log"
)

// HandleIndex serves the page showing the current view.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	view := s.Viewer.Snapshot()
	countries, version := s.Countries(r.Context())
	etag := fmt.Sprintf(`"%s-%x-%x"`, s.instance, view.Seq, version)

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	s.renderPage(w, http.StatusOK, view, countries, "")
}

// HandleGo runs the pipeline for the submitted form and redirects back to
// the page. Fetch failures leave the page as it was; an incomplete selection
// re-renders the page with a prompt.
func (s *ServerContext) HandleGo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	sel := selection.FromValues(r.PostForm)
	_, err := s.Viewer.Go(r.Context(), sel)

	var verr *selection.ValidationError
	if errors.As(err, &verr) {
		countries, _ := s.Countries(r.Context())
		s.renderPage(w, http.StatusUnprocessableEntity, s.Viewer.Snapshot(), countries, verr.Error())
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleCountries serves the country selector options.
func (s *ServerContext) HandleCountries(w http.ResponseWriter, r *http.Request) {
	countries, _ := s.Countries(r.Context())
	writeJSON(w, http.StatusOK, countries)
}

// HandleView serves the displayed view as JSON.
func (s *ServerContext) HandleView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Viewer.Snapshot())
}

// HandleLoad runs the pipeline for the selection in the query or form and
// returns the resulting view.
func (s *ServerContext) HandleLoad(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	view, err := s.Viewer.Go(r.Context(), selection.FromValues(r.Form))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleTableCSV serves the displayed table as a CSV download.
func (s *ServerContext) HandleTableCSV(w http.ResponseWriter, _ *http.Request) {
	view := s.Viewer.Snapshot()

	var buf bytes.Buffer
	if err := view.Table.WriteCSV(&buf); err != nil {
		log.Error().Err(err).Msg("Failed to encode table")
		http.Error(w, "failed to encode table", http.StatusInternalServerError)
		return
	}

	name := "hazard.csv"
	if view.Loaded() {
		name = fmt.Sprintf("%s_%s_%s.csv", view.Selection.Country, view.Selection.Hazard, view.Selection.AdminLevel)
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(buf.Bytes())
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Page.Favicon())
}

// HandleHealth reports liveness.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *ServerContext) renderPage(w http.ResponseWriter, status int, view viewer.View, countries []viewer.SelectOption, prompt string) {
	var buf bytes.Buffer
	err := s.Page.Render(&buf, page.Data{
		Prompt:      prompt,
		Countries:   countries,
		AdminLevels: s.Config.AdminLevels,
		Hazards:     s.Config.Hazards,
		Formats:     s.Config.Formats,
		View:        view,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to render page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// statusFor maps pipeline errors to HTTP statuses.
func statusFor(err error) int {
	var (
		verr *selection.ValidationError
		nerr *hazard.NetworkError
		derr *hazard.DecodeError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, viewer.ErrStale):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &nerr), errors.As(err, &derr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
