package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/mapaction/hazardview/internal/config"
	"github.com/mapaction/hazardview/internal/hazard"
	"github.com/mapaction/hazardview/internal/logger"
	"github.com/mapaction/hazardview/internal/overlay"
	"github.com/mapaction/hazardview/internal/page"
	"github.com/mapaction/hazardview/internal/selection"
	"github.com/mapaction/hazardview/internal/viewer"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"      env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	APIURL     string `short:"u" long:"api-url"     env:"API_URL"     description:"Hazard API base URL (overrides config)"`
	Country    string `short:"C" long:"country"     description:"ISO-3 country code"`
	AdminLevel string `short:"l" long:"admin-level" description:"Administrative level" default:"1"`
	Hazard     string `short:"H" long:"hazard"      description:"Hazard dataset" default:"flood"`
	Format     string `short:"f" long:"format"      description:"Data format" choice:"geojson" choice:"csv" default:"geojson"`
	Out        string `short:"o" long:"out"         description:"Write a standalone HTML map page to this file"`
	CSV        string `long:"csv"                   description:"Write the table as CSV to this file"`
	Countries  bool   `long:"countries"             description:"List available countries and exit"`
	Quiet      bool   `short:"q" long:"quiet"       description:"Do not print the table"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := hazard.NewClient(cfg.APIURL, cfg.Timeout, nil)

	if opts.Countries {
		list := viewer.LoadCountries(ctx, client)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(viewer.CountryOptions(list)[1:]); err != nil {
			log.Fatal().Err(err).Msg("Failed to write country list")
		}
		return
	}

	v := viewer.New(client, overlay.NewMapView(cfg.Tiles, cfg.View))
	view, err := v.Go(ctx, selection.Selection{
		Country:    opts.Country,
		AdminLevel: opts.AdminLevel,
		Hazard:     opts.Hazard,
		Format:     selection.Format(opts.Format),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load hazard data")
	}

	if !opts.Quiet {
		fmt.Println(view.Table.Terminal())
	}

	if opts.CSV != "" {
		if err := writeCSV(opts.CSV, view); err != nil {
			log.Fatal().Err(err).Str("path", opts.CSV).Msg("Failed to write CSV")
		}
		log.Info().Str("path", opts.CSV).Int("rows", len(view.Table.Rows)).Msg("Table written")
	}

	if opts.Out != "" {
		if err := writePage(opts.Out, view); err != nil {
			log.Fatal().Err(err).Str("path", opts.Out).Msg("Failed to write page")
		}
		log.Info().
			Str("path", opts.Out).
			Int("markers", len(view.Layer.Markers)).
			Int("skipped", view.Layer.Skipped).
			Msg("Map page written")
	}
}

func writeCSV(path string, view viewer.View) error {
	var buf bytes.Buffer
	if err := view.Table.WriteCSV(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func writePage(path string, view viewer.View) error {
	renderer, err := page.New()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, page.Data{View: view, Standalone: true}); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
