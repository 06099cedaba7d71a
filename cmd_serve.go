package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/ricardonunez-io/loganalyser/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, a, err := loadPipeline()
	if err != nil {
		log.Fatal().Err(err).Msg("Startup failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverCfg := cfg.Server
	serverCfg.WriteTimeout = writeTimeout(cfg)
	if serverCfg.WriteTimeout != cfg.Server.WriteTimeout {
		log.Info().
			Dur("configured", cfg.Server.WriteTimeout).
			Dur("effective", serverCfg.WriteTimeout).
			Msg("Adjusted server write timeout to the analysis budget")
	}

	log.Info().Str("version", version).Msg("Starting loganalyser")
	if err := server.New(serverCfg, a).Run(ctx); err != nil {
		return err
	}
	log.Info().Msg("loganalyser stopped")
	return nil
}
