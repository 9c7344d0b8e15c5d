package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aleister1102/faleproxy/internal/config"
	"github.com/aleister1102/faleproxy/internal/httpclient"
	"github.com/aleister1102/faleproxy/internal/logger"
	"github.com/aleister1102/faleproxy/internal/proxy"
	"github.com/aleister1102/faleproxy/internal/rewriter"
	"github.com/aleister1102/faleproxy/internal/server"
	"github.com/rs/zerolog"
)

func main() {
	flags, err := ParseFlags(os.Args[1:])
	if err != nil {
		// the flag set has already printed the problem and usage
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	gCfg, err := loadConfig(flags)
	if err != nil {
		log.Fatalf("[FATAL] Main: %v", err)
	}

	if flags.WriteConfigPath != "" {
		if err := config.SaveGlobalConfig(gCfg, flags.WriteConfigPath, zerolog.Nop()); err != nil {
			log.Fatalf("[FATAL] Main: Could not write config: %v", err)
		}
		fmt.Printf("Configuration written to %s\n", flags.WriteConfigPath)
		return
	}

	appLogger := logger.New(gCfg.LogConfig, os.Stderr)
	defer func() { _ = appLogger.Close() }()
	zLogger := *appLogger.GetZerolog()

	srv, err := buildServer(gCfg, zLogger)
	if err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to initialize server")
	}

	if err := run(srv, gCfg.ServerConfig.ShutdownTimeout(), zLogger); err != nil {
		zLogger.Error().Err(err).Msg("Server exited with error")
		_ = appLogger.Close()
		os.Exit(1)
	}
	zLogger.Info().Msg("Faleproxy stopped")
}

// loadConfig loads, overrides and validates the global configuration.
func loadConfig(flags AppFlags) (*config.GlobalConfig, error) {
	gCfg, err := config.LoadGlobalConfig(flags.GlobalConfigFile, zerolog.Nop())
	if err != nil {
		return nil, fmt.Errorf("could not load global config using path '%s': %w", flags.GlobalConfigFile, err)
	}

	if flags.ListenAddress != "" {
		gCfg.ServerConfig.ListenAddress = flags.ListenAddress
	}

	if err := config.ValidateConfig(gCfg); err != nil {
		return nil, err
	}
	return gCfg, nil
}

// buildServer wires the outbound client, the rewriter and the HTTP surface.
func buildServer(gCfg *config.GlobalConfig, zLogger zerolog.Logger) (*server.Server, error) {
	client, err := httpclient.NewHTTPClientBuilder(zLogger).
		WithFetcherConfig(gCfg.FetcherConfig).
		Build()
	if err != nil {
		return nil, err
	}

	rw, err := rewriter.NewRewriter(gCfg.RewriterConfig, zLogger)
	if err != nil {
		return nil, err
	}

	service := proxy.NewService(proxy.NewHTTPPageFetcher(client), rw, zLogger)
	return server.NewServer(gCfg.ServerConfig, service, zLogger), nil
}

// run serves until SIGINT/SIGTERM, then shuts down within shutdownTimeout.
func run(srv *server.Server, shutdownTimeout time.Duration, zLogger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		zLogger.Info().Msg("Received interrupt signal, initiating graceful shutdown...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
