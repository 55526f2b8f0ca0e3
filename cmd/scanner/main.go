/*
Package main implements the cross-venue arbitrage scanner daemon.

The scanner loads a YAML configuration, connects the configured venue
snapshot sources (REST pollers and WebSocket feeds), and runs the
detection pipeline on a fixed interval, logging each selected trade with
its Kelly-sized position. Prometheus metrics are served when enabled.

Usage:

	go run main.go -config=config.yaml
	go run main.go -config=config.yaml -once

With -once the scanner runs a single cycle and exits, which is useful for
smoke-testing a configuration.
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arbscan/internal/config"
	"arbscan/internal/exchange"
	"arbscan/internal/feed"
	"arbscan/internal/metrics"
	"arbscan/internal/model"
	"arbscan/internal/service"
	"arbscan/internal/transport"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// configPath specifies the YAML configuration file to load
	configPath = flag.String("config", "config.yaml", "Path to the configuration file")
	// runOnce makes the scanner run a single cycle and exit
	runOnce = flag.Bool("once", false, "Run a single scan cycle and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("configuration error")
	}

	setupLogging(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("received shutdown signal")
		cancel()
	}()

	m, registry := metrics.New()
	if cfg.Metrics.Enabled {
		go func() {
			log.Info().Str("addr", cfg.Metrics.Addr).Msg("serving metrics")
			srv := &http.Server{
				Addr:              cfg.Metrics.Addr,
				Handler:           metrics.Handler(registry),
				ReadHeaderTimeout: 5 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	connectors, feeds, err := buildSources(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build venue sources")
	}

	svc, err := service.New(cfg, connectors, feeds, feed.NewBookStore(), m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build scan service")
	}

	svc.StartFeeds(ctx)

	if *runOnce {
		svc.RunCycle(ctx)
		return
	}

	log.Info().
		Int("pairs", len(cfg.Scanner.ParsedPairs)).
		Int("venues", len(connectors)+len(feeds)).
		Dur("interval", cfg.Scanner.Interval()).
		Msg("scanner started")

	if err := svc.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("scanner stopped")
	}
	log.Info().Msg("scanner stopped")
}

// setupLogging configures the global zerolog logger from config.
func setupLogging(lc config.LoggingConfig) {
	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if lc.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// buildSources constructs a REST connector or WebSocket feed per enabled
// venue, honoring each venue's configured source and overrides.
func buildSources(cfg *config.Config) ([]exchange.Connector, []service.BookFeed, error) {
	httpClient := transport.NewHTTPClient()

	var connectors []exchange.Connector
	var feeds []service.BookFeed

	for venue, vc := range cfg.EnabledVenues() {
		switch venue {
		case model.VenueKraken:
			if vc.Source == config.SourceWebsocket {
				feeds = append(feeds, exchange.NewKrakenBookFeed(""))
				continue
			}
			client, err := exchange.NewKrakenClient(exchangeConfig(vc), httpClient)
			if err != nil {
				return nil, nil, err
			}
			connectors = append(connectors, client)
		case model.VenueCoinbase:
			if vc.Source == config.SourceWebsocket {
				log.Warn().Str("venue", string(venue)).
					Msg("no websocket feed for this venue, falling back to rest")
			}
			client, err := exchange.NewCoinbaseClient(exchangeConfig(vc), httpClient)
			if err != nil {
				return nil, nil, err
			}
			connectors = append(connectors, client)
		default:
			log.Warn().Str("venue", string(venue)).Msg("no connector implementation, venue skipped")
		}
	}

	return connectors, feeds, nil
}

// exchangeConfig maps the per-venue YAML overrides onto an ExchangeConfig.
// Zero values defer to the connector's venue defaults.
func exchangeConfig(vc config.VenueConfig) *exchange.ExchangeConfig {
	return &exchange.ExchangeConfig{
		BaseURL:            vc.BaseURL,
		Timeout:            time.Duration(vc.TimeoutMs) * time.Millisecond,
		MaxRetries:         vc.MaxRetries,
		MinRequestInterval: time.Duration(vc.MinRequestIntervalMs) * time.Millisecond,
	}
}
