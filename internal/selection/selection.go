// Package selection reads and validates the user's choice of country,
// administrative level, hazard and data format.
package selection

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Format is the payload encoding requested from the hazard API.
type Format string

// Supported formats.
const (
	FormatGeoJSON Format = "geojson"
	FormatCSV     Format = "csv"
)

// DefaultHazard is used when the selection leaves the hazard empty.
const DefaultHazard = "flood"

// Hazards lists the hazard datasets the API serves.
var Hazards = []string{
	"coastal_erosion",
	"cyclone",
	"deforestation",
	"earthquake",
	"flood",
	"landslide",
}

// Form field names.
const (
	FieldCountry    = "country"
	FieldAdminLevel = "admin_level"
	FieldHazard     = "hazard"
	FieldFormat     = "format"
)

// ParseFormat maps a format name to a Format, ignoring case and surrounding space.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatGeoJSON, FormatCSV:
		return f, nil
	default:
		return "", &ValidationError{Field: FieldFormat, Value: s, Reason: "must be geojson or csv"}
	}
}

// Selection is one request for hazard data as entered in the UI.
type Selection struct {
	Country    string `json:"country"`
	AdminLevel string `json:"admin_level"`
	Hazard     string `json:"hazard"`
	Format     Format `json:"format"`
}

// FromValues copies the form fields into a Selection without checking them.
func FromValues(v url.Values) Selection {
	return Selection{
		Country:    v.Get(FieldCountry),
		AdminLevel: v.Get(FieldAdminLevel),
		Hazard:     v.Get(FieldHazard),
		Format:     Format(v.Get(FieldFormat)),
	}
}

// Validate normalizes the selection and rejects values that would produce
// an incomplete request path.
func (s Selection) Validate() (Selection, error) {
	out := Selection{
		Country:    strings.ToUpper(strings.TrimSpace(s.Country)),
		AdminLevel: strings.TrimSpace(s.AdminLevel),
		Hazard:     strings.ToLower(strings.TrimSpace(s.Hazard)),
	}

	if out.Country == "" {
		return s, &ValidationError{Field: FieldCountry, Reason: "select a country"}
	}
	if out.AdminLevel == "" {
		return s, &ValidationError{Field: FieldAdminLevel, Reason: "select an admin level"}
	}
	if out.Hazard == "" {
		out.Hazard = DefaultHazard
	}
	if !slices.Contains(Hazards, out.Hazard) {
		return s, &ValidationError{Field: FieldHazard, Value: s.Hazard, Reason: "unknown hazard"}
	}

	format, err := ParseFormat(string(s.Format))
	if err != nil {
		return s, err
	}
	out.Format = format

	return out, nil
}

// Path returns the API path for the selection, relative to the API base URL.
func (s Selection) Path() string {
	return fmt.Sprintf("/%s/hazard/%s/%s/?%s",
		url.PathEscape(s.Country),
		url.PathEscape(s.Hazard),
		url.PathEscape(s.AdminLevel),
		url.Values{FieldFormat: {string(s.Format)}}.Encode(),
	)
}

// Values is the inverse of FromValues.
func (s Selection) Values() url.Values {
	return url.Values{
		FieldCountry:    {s.Country},
		FieldAdminLevel: {s.AdminLevel},
		FieldHazard:     {s.Hazard},
		FieldFormat:     {string(s.Format)},
	}
}

// ValidationError names the field that made a selection unusable.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
