package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/streamwarden/internal/config"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("Streamwarden Setup Wizard")
		fmt.Println("Press Enter to accept the default value shown in brackets.")
		fmt.Println()

		// 1. Tautulli base URL
		cfg.Tautulli.BaseURL = prompt(scanner, "Tautulli base URL", cfg.Tautulli.BaseURL)

		// 2. Tautulli API key
		cfg.Tautulli.APIKey = prompt(scanner, "Tautulli API key", cfg.Tautulli.APIKey)

		// 3. Telegram bot token (optional)
		cfg.Telegram.Token = prompt(scanner, "Telegram bot token (optional)", cfg.Telegram.Token)

		// 4. Telegram chat ID
		if cfg.Telegram.Token != "" {
			chatStr := prompt(scanner, "Telegram chat ID", strconv.FormatInt(cfg.Telegram.ChatID, 10))
			if n, err := strconv.ParseInt(chatStr, 10, 64); err == nil {
				cfg.Telegram.ChatID = n
			}
		}

		// 5. Timezone
		cfg.Time.Timezone = prompt(scanner, "Timezone", cfg.Time.Timezone)

		// 6. Poll interval
		intervalStr := prompt(scanner, "Poll interval (seconds)", strconv.Itoa(cfg.Poll.IntervalSeconds))
		if n, err := strconv.Atoi(intervalStr); err == nil && n > 0 {
			cfg.Poll.IntervalSeconds = n
		}

		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Println()
		fmt.Println("Configuration saved to", cfgPath)
		return nil
	},
}

// prompt displays a labeled prompt with a default value and reads user input.
// If the user enters nothing, the default is returned.
func prompt(scanner *bufio.Scanner, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input != "" {
			return input
		}
	}
	return defaultVal
}
