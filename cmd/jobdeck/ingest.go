package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdeck/internal/ingest"
	"github.com/amishk599/jobdeck/internal/store"
)

var (
	ingestHold   bool
	ingestDryRun bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch, normalize, dedup and store postings once",
	Long:  "Runs every enabled source once, stores new postings and queues them for enrichment. Prints the counts as JSON.",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestHold, "hold", false, "store new postings without queueing them")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "fetch and dedup but do not write to the store")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, logger := mustSetup(cmd)
	defer a.Close()

	var st ingest.Store = a.store
	if ingestDryRun {
		logger.Info("dry-run mode enabled, nothing will be stored")
		st = store.NewNopStore()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := a.ingester(st, ingestHold).Run(ctx)
	if err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
