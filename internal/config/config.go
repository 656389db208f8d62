package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/text/language"
)

// Config holds the application configuration
type Config struct {
	ADBPath    string        `json:"adb_path"`    // adb binary (empty = PATH lookup)
	Serial     string        `json:"serial"`      // Device serial (empty = only device)
	Local      bool          `json:"local"`       // Run on the device itself instead of over adb
	Root       bool          `json:"root"`        // Wrap device commands in su -c
	User       int           `json:"user"`        // Android user id for pm (-1 = current)
	Tool       string        `json:"tool"`        // Hide tool binary on the device
	Locale     string        `json:"locale"`      // BCP 47 locale for labels (empty = from environment)
	LabelsPath string        `json:"labels_path"` // Label overrides file
	HistoryDir string        `json:"history_dir"` // Git repository for hide-list snapshots
	LogLevel   string        `json:"log_level"`
	Timeout    time.Duration `json:"timeout"` // Per-command timeout, "30s" on disk
}

// fileConfig is Config as stored on disk, with the timeout as a duration string
type fileConfig Config

// MarshalJSON writes Timeout as a duration string
func (c Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		fileConfig
		Timeout string `json:"timeout"`
	}{fileConfig(c), c.Timeout.String()})
}

// UnmarshalJSON reads Timeout as a duration string. A bare number is taken as seconds.
func (c *Config) UnmarshalJSON(data []byte) error {
	aux := struct {
		*fileConfig
		Timeout json.RawMessage `json:"timeout"`
	}{fileConfig: (*fileConfig)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Timeout) == 0 || string(aux.Timeout) == "null" {
		return nil
	}

	var text string
	if err := json.Unmarshal(aux.Timeout, &text); err == nil {
		d, err := time.ParseDuration(text)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", text, err)
		}
		c.Timeout = d
		return nil
	}
	var secs float64
	if err := json.Unmarshal(aux.Timeout, &secs); err != nil {
		return fmt.Errorf("invalid timeout %s", aux.Timeout)
	}
	c.Timeout = time.Duration(secs * float64(time.Second))
	return nil
}

// Overrides are read from HIDECTL_* variables and win over the file.
// Keys come from the field names only, so HIDECTL_USER never falls back to $USER.
type Overrides struct {
	ADB      string
	Serial   string
	Local    *bool
	User     *int
	Locale   string
	LogLevel string `split_words:"true"`
	Timeout  time.Duration
}

// envPrefix prefixes every override variable (HIDECTL_SERIAL, ...)
const envPrefix = "HIDECTL"

// configFileName is the name of the config file
const configFileName = "hidectl.json"

// Default returns the default configuration
func Default() *Config {
	return &Config{
		User:       0,
		Root:       true,
		Tool:       "magiskhide",
		LabelsPath: filepath.Join(ConfigDir(), "labels.yaml"),
		HistoryDir: filepath.Join(ConfigDir(), "history"),
		LogLevel:   "info",
		Timeout:    30 * time.Second,
	}
}

// ConfigDir returns the directory containing hidectl config files
func ConfigDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "hidectl")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(ConfigDir(), configFileName)
}

// LogPath returns the path of the log file used while the TUI runs
func LogPath() string {
	return filepath.Join(ConfigDir(), "hidectl.log")
}

// Load reads the config file at ConfigPath and applies environment overrides
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config file at path and applies environment overrides.
// A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var o Overrides
	if err := envconfig.Process(envPrefix, &o); err != nil {
		return fmt.Errorf("failed to load environment overrides: %w", err)
	}

	if o.ADB != "" {
		c.ADBPath = o.ADB
	}
	if o.Serial != "" {
		c.Serial = o.Serial
	}
	if o.Local != nil {
		c.Local = *o.Local
	}
	if o.User != nil {
		c.User = *o.User
	}
	if o.Locale != "" {
		c.Locale = o.Locale
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.Timeout > 0 {
		c.Timeout = o.Timeout
	}
	return nil
}

// Save saves the configuration to ConfigPath
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo saves the configuration to path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LocaleTag returns the configured locale, falling back to LC_ALL/LANG, then English
func (c *Config) LocaleTag() language.Tag {
	candidates := []string{c.Locale, os.Getenv("LC_ALL"), os.Getenv("LANG")}
	for _, raw := range candidates {
		if tag, ok := parseLocale(raw); ok {
			return tag
		}
	}
	return language.English
}

// parseLocale accepts BCP 47 tags and POSIX forms like de_DE.UTF-8
func parseLocale(raw string) (language.Tag, bool) {
	if raw == "" || raw == "C" || raw == "POSIX" {
		return language.Und, false
	}
	for i, r := range raw {
		if r == '.' || r == '@' {
			raw = raw[:i]
			break
		}
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return language.Und, false
	}
	return tag, true
}
