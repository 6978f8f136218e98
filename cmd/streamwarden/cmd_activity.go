package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/streamwarden/internal/analytics"
	"github.com/user/streamwarden/internal/monitor"
	"github.com/user/streamwarden/internal/tautulli"
)

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.Flags().Int("stop", 0, "stop the stream with this number")
}

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show current streams, optionally stopping one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		if cfg.Tautulli.BaseURL == "" || cfg.Tautulli.APIKey == "" {
			return fmt.Errorf("tautulli.base_url and tautulli.api_key are required (run 'streamwarden setup')")
		}

		client := tautulli.New(cfg.Tautulli.BaseURL, cfg.Tautulli.APIKey)
		mon := monitor.New(client, analytics.Disabled(), timeSettings(cfg), cfg.Tautulli.TerminateMessage, time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		snap := mon.Refresh(ctx)

		if stop, _ := cmd.Flags().GetInt("stop"); stop > 0 {
			outcome := mon.Terminate(ctx, stop)
			fmt.Fprintln(os.Stdout, outcome.Message(stop))
			return nil
		}

		if !snap.Online {
			return fmt.Errorf("could not reach Tautulli at %s", cfg.Tautulli.BaseURL)
		}
		if len(snap.Streams) == 0 {
			fmt.Fprintln(os.Stdout, "No current activity.")
			return nil
		}

		fmt.Fprintln(os.Stdout, snap.Overview)
		fmt.Fprintln(os.Stdout)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tSTREAM\tPLAYER\tQUALITY\tPROGRESS")
		for _, s := range snap.Streams {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				s.Index,
				s.Title,
				s.Player,
				s.Details,
				s.Progress,
			)
		}
		return w.Flush()
	},
}
