package viewer

import (
	"context"

	"github.com/mapaction/hazardview/internal/hazard"

	"github.com/rs/zerolog/log"
)

// PlaceholderLabel is the first, empty-valued entry of the country selector.
const PlaceholderLabel = "Select a country"

// CountrySource lists the countries the API has data for.
type CountrySource interface {
	Countries(ctx context.Context) ([]hazard.Country, error)
}

// SelectOption is one entry of a selector.
type SelectOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// LoadCountries fetches the country list. Failures are logged and yield an
// empty list.
func LoadCountries(ctx context.Context, src CountrySource) []hazard.Country {
	list, err := src.Countries(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error fetching country data")
		return []hazard.Country{}
	}

	log.Info().Int("countries", len(list)).Msg("Country list loaded")
	return list
}

// CountryOptions returns the placeholder followed by one option per country,
// in the order given.
func CountryOptions(list []hazard.Country) []SelectOption {
	opts := make([]SelectOption, 0, len(list)+1)
	opts = append(opts, SelectOption{Label: PlaceholderLabel, Value: ""})
	for _, c := range list {
		opts = append(opts, SelectOption{Label: c.DisplayName(), Value: c.ISO3})
	}
	return opts
}
