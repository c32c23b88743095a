package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdeck/internal/console"
	"github.com/amishk599/jobdeck/internal/model"
)

var (
	stuckOlderThan time.Duration
	resetStuck     bool
	browseLimit    int
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and repair the enrichment queue",
}

var queueStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print record counts per status",
	RunE:  runQueueStats,
}

var queueStuckCmd = &cobra.Command{
	Use:   "stuck",
	Short: "List records stuck in processing",
	RunE:  runQueueStuck,
}

var queueResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Re-queue failed and never-queued records",
	Long:  "Moves failed records back to pending and queues records stored with --hold. With --stuck, also re-queues records stuck in processing.",
	RunE:  runQueueReset,
}

var queueBrowseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the queue interactively",
	RunE:  runQueueBrowse,
}

func init() {
	queueStuckCmd.Flags().DurationVar(&stuckOlderThan, "older-than", 0, "processing age that counts as stuck (default: queue.stuck_after)")
	queueResetCmd.Flags().BoolVar(&resetStuck, "stuck", false, "also re-queue stuck records")
	queueResetCmd.Flags().DurationVar(&stuckOlderThan, "older-than", 0, "processing age that counts as stuck (default: queue.stuck_after)")
	queueBrowseCmd.Flags().IntVar(&browseLimit, "limit", 200, "records loaded per status")

	queueCmd.AddCommand(queueStatsCmd, queueStuckCmd, queueResetCmd, queueBrowseCmd)
	rootCmd.AddCommand(queueCmd)
}

func stuckAge(a *app) time.Duration {
	if stuckOlderThan > 0 {
		return stuckOlderThan
	}
	return a.cfg.Queue.StuckAfter
}

func runQueueStats(cmd *cobra.Command, args []string) error {
	a, logger := mustSetup(cmd)
	defer a.Close()

	counts, err := a.queue.Stats(cmd.Context())
	if err != nil {
		logger.Error("queue stats failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%-18s %s\n", "Status", "Count")
	fmt.Println(strings.Repeat("─", 26))
	total := 0
	for _, st := range model.AllStatuses {
		fmt.Printf("%-18s %d\n", st, counts[st])
		total += counts[st]
	}
	fmt.Printf("\nTotal: %d records\n", total)
	return nil
}

func runQueueStuck(cmd *cobra.Command, args []string) error {
	a, logger := mustSetup(cmd)
	defer a.Close()

	age := stuckAge(a)
	recs, err := a.queue.Stuck(cmd.Context(), age)
	if err != nil {
		logger.Error("stuck check failed", "error", err)
		os.Exit(1)
	}
	if len(recs) == 0 {
		fmt.Printf("No records processing for longer than %s.\n", age)
		return nil
	}

	fmt.Printf("%-36s %-30s %-20s %s\n", "ID", "Role", "Company", "Started")
	fmt.Println(strings.Repeat("─", 110))
	for _, r := range recs {
		started := "n/a"
		if r.StartedAt != nil {
			started = r.StartedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Printf("%-36s %-30s %-20s %s\n", r.ID, truncate(r.Job.Role, 30), truncate(r.Job.Company, 20), started)
	}
	fmt.Printf("\n%d stuck records. Run `jobdeck queue reset --stuck` to re-queue them.\n", len(recs))
	return nil
}

func runQueueReset(cmd *cobra.Command, args []string) error {
	a, logger := mustSetup(cmd)
	defer a.Close()
	ctx := cmd.Context()

	failed, err := a.queue.ResetFailed(ctx)
	if err != nil {
		logger.Error("reset failed records", "error", err)
		os.Exit(1)
	}
	unqueued, err := a.queue.QueueUnqueued(ctx)
	if err != nil {
		logger.Error("queue held records", "error", err)
		os.Exit(1)
	}
	var stuck []string
	if resetStuck {
		if stuck, err = a.queue.ResetStuck(ctx, stuckAge(a)); err != nil {
			logger.Error("reset stuck records", "error", err)
			os.Exit(1)
		}
	}

	dropCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	for _, id := range append(append([]string{}, failed...), stuck...) {
		if err := a.cards.Delete(dropCtx, id); err != nil {
			logger.Warn("delete exported card failed", "id", id, "error", err)
		}
	}

	fmt.Printf("Re-queued %d failed, %d held, %d stuck records.\n", len(failed), len(unqueued), len(stuck))
	return nil
}

func runQueueBrowse(cmd *cobra.Command, args []string) error {
	a, logger := mustSetup(cmd)
	defer a.Close()

	if err := console.Run(cmd.Context(), a.queue, browseLimit); err != nil {
		logger.Error("queue browser failed", "error", err)
		os.Exit(1)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
