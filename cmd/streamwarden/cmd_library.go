package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/streamwarden/internal/activity"
	"github.com/user/streamwarden/internal/stats"
	"github.com/user/streamwarden/internal/tautulli"
)

func init() {
	rootCmd.AddCommand(libraryCmd)
	libraryCmd.AddCommand(libraryListCmd, libraryStatsCmd)
}

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Inspect media server libraries",
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all libraries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		client := tautulli.New(cfg.Tautulli.BaseURL, cfg.Tautulli.APIKey)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		libs, err := client.Libraries(ctx)
		if err != nil {
			return fmt.Errorf("list libraries: %w", err)
		}
		if len(libs) == 0 {
			fmt.Println("No libraries found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tCOUNT")
		for _, lib := range libs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
				activity.ToString(lib["section_id"]),
				activity.ToString(lib["section_name"]),
				activity.ToString(lib["section_type"]),
				activity.ToInt(lib["count"]),
			)
		}
		return w.Flush()
	},
}

var libraryStatsCmd = &cobra.Command{
	Use:   "stats [library...]",
	Short: "Show item counts for the configured libraries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		names := args
		if len(names) == 0 {
			names = cfg.Stats.Libraries
		}
		if len(names) == 0 {
			return fmt.Errorf("no libraries given and stats.libraries is empty")
		}

		client := tautulli.New(cfg.Tautulli.BaseURL, cfg.Tautulli.APIKey)
		collector := stats.New(client)

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		fmt.Fprintln(os.Stdout, collector.Digest(ctx, names))
		return nil
	},
}
