package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/streamwarden/internal/activity"
	"github.com/user/streamwarden/internal/analytics"
	"github.com/user/streamwarden/internal/config"
	"github.com/user/streamwarden/internal/delivery"
	"github.com/user/streamwarden/internal/httpapi"
	"github.com/user/streamwarden/internal/monitor"
	"github.com/user/streamwarden/internal/scheduler"
	"github.com/user/streamwarden/internal/stats"
	"github.com/user/streamwarden/internal/tautulli"
	"github.com/user/streamwarden/internal/telegram"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the streamwarden daemon",
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "streamwarden.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func timeSettings(cfg *config.Config) activity.TimeSettings {
	loc, err := time.LoadLocation(cfg.Time.Timezone)
	if err != nil {
		slog.Warn("invalid timezone, using UTC", "timezone", cfg.Time.Timezone)
		loc = time.UTC
	}
	return activity.TimeSettings{Location: loc, MilitaryTime: cfg.Time.MilitaryTime}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if cfg.Tautulli.BaseURL == "" || cfg.Tautulli.APIKey == "" {
		return fmt.Errorf("tautulli.base_url and tautulli.api_key are required (run 'streamwarden setup')")
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Write PID file
	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	client := tautulli.New(cfg.Tautulli.BaseURL, cfg.Tautulli.APIKey)

	reporter := analytics.Disabled()
	if cfg.Analytics.Enabled {
		reporter = analytics.New(cfg.Analytics.Endpoint)
	}

	interval := time.Duration(cfg.Poll.IntervalSeconds) * time.Second
	mon := monitor.New(client, reporter, timeSettings(cfg), cfg.Tautulli.TerminateMessage, interval)

	collector := stats.New(client)
	var digester func(ctx context.Context) string
	if len(cfg.Stats.Libraries) > 0 {
		digester = func(ctx context.Context) string {
			return collector.Digest(ctx, cfg.Stats.Libraries)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slog.Info("streamwarden started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"tautulli_url", cfg.Tautulli.BaseURL,
		"poll_interval", interval,
		"pid_file", pidPath,
	)

	// Delivery registry
	deliveryReg := delivery.NewRegistry()
	var notifyTargets []string

	// Telegram adapter
	var adapter *telegram.Adapter
	if cfg.Telegram.Token != "" {
		adapter, err = telegram.New(cfg.Telegram.Token, cfg.Telegram.ChatID, mon, digester)
		if err != nil {
			return fmt.Errorf("create telegram adapter: %w", err)
		}
		go adapter.Start(ctx)
		slog.Info("telegram adapter started", "chat_id", cfg.Telegram.ChatID)

		deliveryReg.Register("telegram:", func(target, message string) error {
			adapter.Push(message)
			return nil
		})
		notifyTargets = append(notifyTargets, "telegram:"+strconv.FormatInt(cfg.Telegram.ChatID, 10))
	} else {
		slog.Warn("telegram adapter disabled (no token)")
	}

	// HTTP API
	var api *httpapi.Server
	if cfg.HTTP.Enabled {
		api = httpapi.NewServer(mon, digester)
		httpServer := &http.Server{
			Addr:    cfg.HTTP.Listen,
			Handler: api,
		}
		go func() {
			slog.Info("http api started", "listen", cfg.HTTP.Listen)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("http api error", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			httpServer.Close()
		}()
	}

	// Scheduler fires the library statistics digest
	sched := scheduler.New()
	if digester != nil && len(notifyTargets) > 0 {
		err := sched.Add(scheduler.Job{
			Name:     "stats-digest",
			Schedule: cfg.Stats.Schedule,
			Run: func() {
				digest := digester(ctx)
				if err := deliveryReg.Broadcast(notifyTargets, digest); err != nil {
					slog.Error("digest delivery failed", "error", err)
				}
			},
		})
		if err != nil {
			return fmt.Errorf("schedule stats digest: %w", err)
		}
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	// Poll loop. Telegram only hears about a snapshot when its rendered
	// message changed, so an idle server stays quiet in chat.
	var lastPushed string
	go mon.Run(ctx, func(snap *monitor.Snapshot) {
		if api != nil {
			api.Publish(snap)
		}
		if len(notifyTargets) == 0 {
			return
		}
		msg := snap.Message()
		if msg == lastPushed {
			return
		}
		lastPushed = msg
		if err := deliveryReg.Broadcast(notifyTargets, msg); err != nil {
			slog.Error("snapshot delivery failed", "error", err)
		}
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigChan
		if sig == syscall.SIGHUP {
			slog.Info("received SIGHUP, restarting")
			execPath, err := os.Executable()
			if err != nil {
				slog.Error("failed to get executable path", "error", err)
				continue
			}
			// Clean up PID file before re-exec
			os.Remove(pidPath)
			if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
				slog.Error("failed to re-exec", "error", err)
				// Re-write PID file since we failed to re-exec
				if _, writeErr := writePIDFile(cfg.DataDir); writeErr != nil {
					slog.Error("failed to re-write PID file", "error", writeErr)
				}
				continue
			}
		}
		// SIGINT or SIGTERM
		slog.Info("shutting down", "signal", sig)
		return nil
	}
}
