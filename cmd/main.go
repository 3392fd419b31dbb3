package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/TokenTrend/internal/api/binance"
	"github.com/Alias1177/TokenTrend/internal/config"
	"github.com/Alias1177/TokenTrend/internal/query"
	"github.com/Alias1177/TokenTrend/internal/server"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config failed")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(lvl)

	log.Info().
		Str("listen", cfg.ListenAddr).
		Str("exchange", cfg.BinanceBaseURL).
		Dur("stale_time", cfg.StaleTime).
		Dur("gc_time", cfg.GCTime).
		Int("retry", cfg.QueryRetry).
		Strs("prefetch", cfg.PrefetchPairs).
		Msg("Starting token trend service")

	client := binance.NewClient(binance.ClientOptions{
		BaseURL:        cfg.BinanceBaseURL,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		RequestsPerSec: cfg.RequestsPerSec,
	})

	queries := query.New(client, query.Options{
		StaleTime: cfg.StaleTime,
		GCTime:    cfg.GCTime,
		Retry:     cfg.QueryRetry,
	}, log.Logger)
	defer queries.Clear()

	// pinned pairs stay observed for the life of the process
	for _, pair := range cfg.PrefetchPairs {
		o := queries.Subscribe(pair)
		defer o.Close()
		go func(pair string, updates <-chan query.State) {
			for st := range updates {
				if st.IsError() {
					log.Warn().Err(st.Err).Str("pair", pair).Msg("Prefetch failed")
				}
			}
		}(pair, o.Updates())
	}

	renders, err := server.NewRenderCache(cfg.RenderCacheMB)
	if err != nil {
		log.Fatal().Err(err).Msg("render cache init failed")
	}
	defer renders.Close()

	srv := server.New(queries, renders, log.Logger)
	go func() {
		if err := srv.Listen(cfg.ListenAddr); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("Shutdown signal received, stopping...")
	if err := srv.Shutdown(); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}
