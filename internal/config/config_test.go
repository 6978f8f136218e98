package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func tempConfigPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "config.json")
}

func writeTestConfig(t *testing.T, path string, cfg *Config) {
	t.Helper()
	if err := Save(path, cfg); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
}

func TestSave_ReloadRoundTrip(t *testing.T) {
	path := tempConfigPath(t)

	original := &Config{
		DataDir:  "/tmp/test-data",
		LogLevel: "debug",
	}
	original.Tautulli.BaseURL = "http://tautulli.local:8181"
	original.Tautulli.APIKey = "tt-test-round-trip"
	original.Tautulli.TerminateMessage = "Stream stopped by admin."
	original.Telegram.Token = "bot-token-456"
	original.Telegram.ChatID = 987654
	original.Time.Timezone = "America/New_York"
	original.Time.MilitaryTime = true
	original.Poll.IntervalSeconds = 30

	if err := Save(path, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file does not exist after Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.DataDir != original.DataDir {
		t.Errorf("DataDir mismatch: %v != %v", loaded.DataDir, original.DataDir)
	}
	if loaded.LogLevel != original.LogLevel {
		t.Errorf("LogLevel mismatch: %v != %v", loaded.LogLevel, original.LogLevel)
	}
	if loaded.Tautulli.BaseURL != original.Tautulli.BaseURL {
		t.Errorf("Tautulli.BaseURL mismatch: %v != %v", loaded.Tautulli.BaseURL, original.Tautulli.BaseURL)
	}
	if loaded.Tautulli.APIKey != original.Tautulli.APIKey {
		t.Errorf("Tautulli.APIKey mismatch: %v != %v", loaded.Tautulli.APIKey, original.Tautulli.APIKey)
	}
	if loaded.Telegram.Token != original.Telegram.Token {
		t.Errorf("Telegram.Token mismatch: %v != %v", loaded.Telegram.Token, original.Telegram.Token)
	}
	if loaded.Telegram.ChatID != original.Telegram.ChatID {
		t.Errorf("Telegram.ChatID mismatch: %v != %v", loaded.Telegram.ChatID, original.Telegram.ChatID)
	}
	if loaded.Time.Timezone != original.Time.Timezone {
		t.Errorf("Time.Timezone mismatch: %v != %v", loaded.Time.Timezone, original.Time.Timezone)
	}
	if loaded.Poll.IntervalSeconds != original.Poll.IntervalSeconds {
		t.Errorf("Poll.IntervalSeconds mismatch: %v != %v", loaded.Poll.IntervalSeconds, original.Poll.IntervalSeconds)
	}
}

func TestSave_AtomicWrite(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{LogLevel: "info"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Verify no temp file left behind
	tmpPath := path + ".tmp"
	if _, err := os.Stat(tmpPath); !os.IsNotExist(err) {
		t.Errorf("temp file should not exist after successful save")
	}

	// Verify the file is valid JSON
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Errorf("saved file is not valid JSON: %v", err)
	}
}

func TestToMap(t *testing.T) {
	cfg := &Config{
		DataDir:  "/tmp/test",
		LogLevel: "debug",
	}
	cfg.Tautulli.BaseURL = "http://localhost:8181"
	cfg.Poll.IntervalSeconds = 15

	m, err := ToMap(cfg)
	if err != nil {
		t.Fatalf("ToMap failed: %v", err)
	}

	if m["data_dir"] != "/tmp/test" {
		t.Errorf("expected data_dir=/tmp/test, got %v", m["data_dir"])
	}
	if m["log_level"] != "debug" {
		t.Errorf("expected log_level=debug, got %v", m["log_level"])
	}

	tt, ok := m["tautulli"].(map[string]any)
	if !ok {
		t.Fatalf("expected tautulli to be map, got %T", m["tautulli"])
	}
	if tt["base_url"] != "http://localhost:8181" {
		t.Errorf("expected tautulli.base_url=http://localhost:8181, got %v", tt["base_url"])
	}

	poll, ok := m["poll"].(map[string]any)
	if !ok {
		t.Fatalf("expected poll to be map, got %T", m["poll"])
	}
	// JSON numbers are float64
	if poll["interval_seconds"] != float64(15) {
		t.Errorf("expected poll.interval_seconds=15, got %v", poll["interval_seconds"])
	}
}

func TestListValues_NoMask(t *testing.T) {
	cfg := &Config{
		LogLevel: "info",
	}
	cfg.Tautulli.APIKey = "tt-secret-key-1234"
	cfg.Telegram.Token = "bot-token-abcd"

	flat, err := ListValues(cfg, false)
	if err != nil {
		t.Fatalf("ListValues failed: %v", err)
	}

	// Secrets should be unmasked
	if flat["tautulli.api_key"] != "tt-secret-key-1234" {
		t.Errorf("expected unmasked tautulli.api_key, got %v", flat["tautulli.api_key"])
	}
	if flat["telegram.token"] != "bot-token-abcd" {
		t.Errorf("expected unmasked telegram.token, got %v", flat["telegram.token"])
	}
	if flat["log_level"] != "info" {
		t.Errorf("expected log_level=info, got %v", flat["log_level"])
	}
}

func TestListValues_WithMask(t *testing.T) {
	cfg := &Config{
		LogLevel: "info",
	}
	cfg.Tautulli.APIKey = "tt-secret-key-1234"
	cfg.Telegram.Token = "bot-token-abcd"

	flat, err := ListValues(cfg, true)
	if err != nil {
		t.Fatalf("ListValues failed: %v", err)
	}

	// Secrets should be masked
	if flat["tautulli.api_key"] != "***1234" {
		t.Errorf("expected masked tautulli.api_key=***1234, got %v", flat["tautulli.api_key"])
	}
	if flat["telegram.token"] != "***abcd" {
		t.Errorf("expected masked telegram.token=***abcd, got %v", flat["telegram.token"])
	}

	// Non-secrets should be unchanged
	if flat["log_level"] != "info" {
		t.Errorf("expected log_level=info, got %v", flat["log_level"])
	}
}

func TestGetValue_ExistingKey(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{
		LogLevel: "debug",
	}
	cfg.Tautulli.BaseURL = "http://localhost:8181"
	cfg.Poll.IntervalSeconds = 8
	writeTestConfig(t, path, cfg)

	v, err := GetValue(path, "log_level")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != "debug" {
		t.Errorf("expected log_level=debug, got %v", v)
	}

	v, err = GetValue(path, "tautulli.base_url")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != "http://localhost:8181" {
		t.Errorf("expected tautulli.base_url=http://localhost:8181, got %v", v)
	}

	v, err = GetValue(path, "poll.interval_seconds")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	// JSON numbers are float64
	if v != float64(8) {
		t.Errorf("expected poll.interval_seconds=8, got %v (%T)", v, v)
	}
}

func TestGetValue_UnknownKey(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{LogLevel: "info"}
	writeTestConfig(t, path, cfg)

	_, err := GetValue(path, "nonexistent.key")
	if err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
	expected := "unknown config key: nonexistent.key"
	if err.Error() != expected {
		t.Errorf("expected error %q, got %q", expected, err.Error())
	}
}

func TestSetValue_String(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{LogLevel: "info"}
	cfg.Tautulli.BaseURL = "http://localhost:8181"
	writeTestConfig(t, path, cfg)

	if err := SetValue(path, "log_level", "debug"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}

	v, err := GetValue(path, "log_level")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != "debug" {
		t.Errorf("expected log_level=debug after set, got %v", v)
	}

	// Verify other values are preserved
	v, err = GetValue(path, "tautulli.base_url")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != "http://localhost:8181" {
		t.Errorf("expected tautulli.base_url preserved, got %v", v)
	}
}

func TestSetValue_Numeric(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{}
	cfg.Poll.IntervalSeconds = 15
	writeTestConfig(t, path, cfg)

	if err := SetValue(path, "poll.interval_seconds", "60"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}

	v, err := GetValue(path, "poll.interval_seconds")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != float64(60) {
		t.Errorf("expected poll.interval_seconds=60, got %v (%T)", v, v)
	}
}

func TestSetValue_Boolean(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{LogLevel: "info"}
	writeTestConfig(t, path, cfg)

	if err := SetValue(path, "time.military_time", "true"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}

	v, err := GetValue(path, "time.military_time")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != true {
		t.Errorf("expected time.military_time=true, got %v (%T)", v, v)
	}
}

func TestSetValue_NewNestedKey(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{LogLevel: "info"}
	writeTestConfig(t, path, cfg)

	// Set a new nested key that doesn't exist in the Config struct
	if err := SetValue(path, "custom.setting", "value"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}

	v, err := GetValue(path, "custom.setting")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != "value" {
		t.Errorf("expected custom.setting=value, got %v", v)
	}
}

func TestSetValue_NonexistentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist", "config.json")
	err := SetValue(path, "log_level", "debug")
	if err == nil {
		t.Fatal("expected error for nonexistent file, got nil")
	}
}

func TestGetValue_NonexistentFile(t *testing.T) {
	// GetValue calls Load, which writes defaults if the file doesn't exist.
	path := tempConfigPath(t)

	v, err := GetValue(path, "log_level")
	if err != nil {
		t.Fatalf("GetValue on new config failed: %v", err)
	}
	if v != "info" {
		t.Errorf("expected default log_level=info, got %v", v)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{}
	cfg.Tautulli.BaseURL = "http://from-file:8181"
	writeTestConfig(t, path, cfg)

	t.Setenv("TAUTULLI_URL", "http://from-env:8181")
	t.Setenv("TAUTULLI_API_KEY", "env-key")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Tautulli.BaseURL != "http://from-env:8181" {
		t.Errorf("expected env override for base URL, got %v", loaded.Tautulli.BaseURL)
	}
	if loaded.Tautulli.APIKey != "env-key" {
		t.Errorf("expected env override for API key, got %v", loaded.Tautulli.APIKey)
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config.json")

	cfg := &Config{LogLevel: "warn"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save should create parent directory, got: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file should exist: %v", err)
	}
}
