package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdeck/internal/scheduler"
)

var runOnce bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the ingest and enrichment daemon",
	Long:  "Ingests and drains the enrichment queue on schedule.interval; blocks until SIGINT/SIGTERM.",
	RunE:  runDaemon,
}

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "run a single cycle, notify, and exit")
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	a, logger := mustSetup(cmd)
	defer a.Close()

	logger.Info("config loaded",
		"interval", a.cfg.Schedule.Interval.String(),
		"max_batches", a.cfg.Schedule.MaxBatches,
		"batch_size", a.cfg.Queue.BatchSize,
		"concurrency", a.cfg.Worker.Concurrency,
		"boards", len(a.cfg.Boards),
	)

	n := setupNotifier(a.cfg, a.httpClient, logger)
	sched := scheduler.NewScheduler(a.ingester(a.store, false), a.worker(), a.queue, n, scheduler.Options{
		Interval:   a.cfg.Schedule.Interval,
		MaxBatches: a.cfg.Schedule.MaxBatches,
		StuckAfter: a.cfg.Queue.StuckAfter,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if runOnce {
		if err := n.Notify(sched.RunOnce(ctx)); err != nil {
			logger.Error("notify failed", "error", err)
		}
		return nil
	}

	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
