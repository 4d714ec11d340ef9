package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/wordpot/internal/config"
	"github.com/dkeye/wordpot/internal/game"
	"github.com/dkeye/wordpot/internal/server"
	"github.com/dkeye/wordpot/internal/transport"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	lexicon, err := game.LoadWordList(cfg.DictionaryPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}

	pool := game.NewTilePool(time.Now().UnixNano())
	validator := game.NewValidator(lexicon)
	registry := game.NewRegistry(pool, validator)
	srv := server.New(registry, cfg.QueueSize)

	listener := server.NewListener(srv, cfg.TCPAddr, cfg.ReadLimit)
	go func() {
		if err := listener.Run(ctx); err != nil {
			log.Error().Err(err).Msg("tcp listener error")
			cancel()
		}
	}()

	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: transport.SetupRouter(cfg, srv, registry),
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("wordpot server started")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
