// Package config handles configuration loading and shared data structures.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/mapaction/hazardview/internal/selection"

	"gopkg.in/yaml.v3"
)

// Defaults used when the configuration file omits a value.
const (
	DefaultAPIURL      = "http://127.0.0.1:5000"
	DefaultTimeout     = 30 * time.Second
	DefaultTileURL     = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultAttribution = `&copy; <a href="http://www.openstreetmap.org/copyright">OpenStreetMap</a>`
	DefaultMaxZoom     = 19
	DefaultZoom        = 13
)

// Config represents the root configuration file structure.
type Config struct {
	APIURL      string        `yaml:"api_url" json:"-"`
	Tiles       Tiles         `yaml:"tiles" json:"tiles"`
	View        View          `yaml:"view" json:"view"`
	AdminLevels []string      `yaml:"admin_levels" json:"admin_levels"`
	Hazards     []string      `yaml:"hazards" json:"hazards"`
	Formats     []string      `yaml:"formats" json:"formats"`
	Timeout     time.Duration `yaml:"timeout" json:"-"`
}

// Tiles describes the external tile source handed to the map widget.
type Tiles struct {
	URL         string   `yaml:"url" json:"url"`
	Attribution string   `yaml:"attribution,omitempty" json:"attribution,omitempty"`
	Subdomains  []string `yaml:"subdomains,omitempty" json:"subdomains,omitempty"`
	MaxZoom     int      `yaml:"max_zoom,omitempty" json:"max_zoom"`
}

// View is the initial map position, used until a layer with bounds is shown.
type View struct {
	Center [2]float64 `yaml:"center" json:"center"` // [Lat, Lng]
	Zoom   int        `yaml:"zoom" json:"zoom"`
}

// Default returns a configuration with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the YAML configuration file from the specified path.
// A missing file is not an error: defaults are returned instead.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}

	return &cfg, nil
}

// Validate reports values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if c.Tiles.MaxZoom < 0 {
		return errors.New("tiles.max_zoom must not be negative")
	}
	lat, lng := c.View.Center[0], c.View.Center[1]
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("view.center [%g, %g] is out of range", lat, lng)
	}
	for _, h := range c.Hazards {
		if !slices.Contains(selection.Hazards, h) {
			return fmt.Errorf("hazards: unknown hazard %q", h)
		}
	}
	for _, f := range c.Formats {
		if _, err := selection.ParseFormat(f); err != nil {
			return fmt.Errorf("formats: %w", err)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Tiles.URL == "" {
		c.Tiles.URL = DefaultTileURL
		if c.Tiles.Attribution == "" {
			c.Tiles.Attribution = DefaultAttribution
		}
		if len(c.Tiles.Subdomains) == 0 {
			c.Tiles.Subdomains = []string{"a", "b", "c"}
		}
	}
	if c.Tiles.MaxZoom == 0 {
		c.Tiles.MaxZoom = DefaultMaxZoom
	}
	if c.View.Zoom == 0 && c.View.Center == [2]float64{} {
		c.View = View{Center: [2]float64{51.505, -0.09}, Zoom: DefaultZoom}
	}
	if len(c.AdminLevels) == 0 {
		c.AdminLevels = []string{"0", "1", "2", "3"}
	}
	if len(c.Hazards) == 0 {
		c.Hazards = []string{"flood"}
	}
	if len(c.Formats) == 0 {
		c.Formats = []string{"geojson", "csv"}
	}
}
