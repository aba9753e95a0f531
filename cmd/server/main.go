package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mapaction/hazardview/internal/config"
	"github.com/mapaction/hazardview/internal/hazard"
	"github.com/mapaction/hazardview/internal/logger"
	"github.com/mapaction/hazardview/internal/metrics"
	"github.com/mapaction/hazardview/internal/overlay"
	"github.com/mapaction/hazardview/internal/page"
	"github.com/mapaction/hazardview/internal/server"
	"github.com/mapaction/hazardview/internal/viewer"

	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile      string        `short:"c" long:"config"           env:"CONFIG_FILE"      description:"Path to configuration file"        default:"config.yaml"`
	Addr            string        `short:"a" long:"addr"             env:"LISTEN_ADDRESS"   description:"Address to listen on"              default:"0.0.0.0"`
	Port            int           `short:"p" long:"port"             env:"LISTEN_PORT"      description:"Port to listen on"                 default:"8080"`
	APIURL          string        `short:"u" long:"api-url"          env:"API_URL"          description:"Hazard API base URL (overrides config)"`
	ShutdownTimeout time.Duration `long:"shutdown-timeout" env:"SHUTDOWN_TIMEOUT" description:"Graceful shutdown timeout" default:"10s"`
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

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
	}

	renderer, err := page.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare page")
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	client := hazard.NewClient(cfg.APIURL, cfg.Timeout, m)
	mapView := overlay.NewMapView(cfg.Tiles, cfg.View)
	v := viewer.New(client, mapView, viewer.WithMetrics(m))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	countries := viewer.LoadCountries(ctx, client)
	srvCtx := server.NewServerContext(cfg, v, renderer, client, countries)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           srvCtx.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", listenAddr).
			Str("api", cfg.APIURL).
			Int("countries", len(countries)).
			Msg("Web server started")

		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
