package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`
	Tautulli struct {
		BaseURL          string `json:"base_url"`
		APIKey           string `json:"api_key"`
		TerminateMessage string `json:"terminate_message"`
	} `json:"tautulli"`
	Telegram struct {
		Token  string `json:"token"`
		ChatID int64  `json:"chat_id"`
	} `json:"telegram"`
	Time struct {
		Timezone     string `json:"timezone"`
		MilitaryTime bool   `json:"military_time"`
	} `json:"time"`
	Poll struct {
		IntervalSeconds int `json:"interval_seconds"`
	} `json:"poll"`
	HTTP struct {
		Enabled bool   `json:"enabled"`
		Listen  string `json:"listen"`
	} `json:"http"`
	Stats struct {
		Schedule  string   `json:"schedule"`
		Libraries []string `json:"libraries"`
	} `json:"stats"`
	Analytics struct {
		Enabled  bool   `json:"enabled"`
		Endpoint string `json:"endpoint"`
	} `json:"analytics"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		DataDir: filepath.Join(os.Getenv("HOME"), ".streamwarden"),
	}
	cfg.LogLevel = "info"
	cfg.Tautulli.TerminateMessage = "Your stream has been terminated by the server operator."
	cfg.Time.Timezone = "UTC"
	cfg.Poll.IntervalSeconds = 15
	cfg.HTTP.Listen = "127.0.0.1:8170"
	cfg.Stats.Schedule = "0 9 * * *"

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if baseURL := os.Getenv("TAUTULLI_URL"); baseURL != "" {
		cfg.Tautulli.BaseURL = baseURL
	}
	if apiKey := os.Getenv("TAUTULLI_API_KEY"); apiKey != "" {
		cfg.Tautulli.APIKey = apiKey
	}
	if tgToken := os.Getenv("TELEGRAM_BOT_TOKEN"); tgToken != "" {
		cfg.Telegram.Token = tgToken
	}

	return cfg, nil
}

func writeDefaults(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename default config: %w", err)
	}
	return nil
}

// Save writes the config to path atomically, creating the parent directory
// if needed.
func Save(path string, cfg *Config) error {
	return writeDefaults(path, cfg)
}

// ToMap converts the config struct to a nested map via a JSON round trip.
func ToMap(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return m, nil
}

// ListValues returns the config as a flat dot-separated map, masking secret
// values when mask is true.
func ListValues(cfg *Config, mask bool) (map[string]any, error) {
	m, err := ToMap(cfg)
	if err != nil {
		return nil, err
	}
	flat := Flatten(m)
	if mask {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

// GetValue loads the config file and returns the value at the given
// dot-separated key.
func GetValue(path, key string) (any, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	flat, err := ListValues(cfg, false)
	if err != nil {
		return nil, err
	}
	v, ok := flat[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	return v, nil
}

// SetValue updates a single dot-separated key in the config file. The raw
// value is parsed as JSON when possible (numbers, booleans), otherwise
// stored as a string. Keys not present in the Config struct are preserved
// as free-form entries.
func SetValue(path, key, raw string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	flat := Flatten(m)

	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}
	flat[key] = value

	nested := Unflatten(flat)
	out, err := json.MarshalIndent(nested, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	out = append(out, '\n')

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, out, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
