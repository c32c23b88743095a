package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdeck/internal/adapter"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List job sources and whether each is enabled",
	Long:  "Prints every supported source in registration order with the reason it is enabled or disabled.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	env := adapter.Env{Keys: cfg.Keys, Sources: cfg.Sources, Boards: cfg.Boards}
	statuses := adapter.Status(adapter.Registrations(), env)

	fmt.Printf("%-15s %-10s %s\n", "Source", "Status", "Reason")
	fmt.Println(strings.Repeat("─", 60))

	enabled := 0
	for _, s := range statuses {
		state := "disabled"
		if s.Enabled {
			state = "enabled"
			enabled++
		}
		fmt.Printf("%-15s %-10s %s\n", s.Name, state, s.Reason)
	}

	fmt.Printf("\nTotal: %d sources (%d enabled, %d disabled)\n", len(statuses), enabled, len(statuses)-enabled)
	return nil
}
