package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdeck/internal/api"
	"github.com/amishk599/jobdeck/internal/config"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the cron and admin HTTP endpoints",
	Long:  "Serves /api/cron/enrich for an external scheduler plus the admin endpoints, all behind the CRON_SECRET bearer token.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, logger := mustSetup(cmd)
	defer a.Close()

	secret := a.cfg.Keys.Get(config.KeyCronSecret)
	if secret == "" {
		logger.Warn("CRON_SECRET is not set; protected endpoints will answer 500")
	}

	mode := "release"
	if debug {
		mode = "debug"
	}
	srv := api.NewServer(a.worker(), a.ingester(a.store, false), a.queue, a.cards, api.Options{
		Secret:     secret,
		StuckAfter: a.cfg.Queue.StuckAfter,
		Mode:       mode,
	}, logger)

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx, addr); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("goodbye")
	return nil
}
