// Package config manages the application configuration, user preferences
// and logging setup. Configuration comes from a read-only config.yaml;
// preferences.yaml is merged on top and written back at shutdown.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File names under the data directory.
const (
	ConfigFileName      = "config.yaml"
	PreferencesFileName = "preferences.yaml"
	ResultsFileName     = "results.yaml"
	HutsFileName        = "huts.txt"
)

// EnvDataDir overrides the data directory.
const EnvDataDir = "CHAMANNAS_DATA_DIR"

// defaultDataDir is the data directory relative to the working
// directory when nothing else is configured.
const defaultDataDir = "assets/data"

// Defaults applied when config.yaml leaves a field unset.
const (
	DefaultMaxNights              = 14
	DefaultResultsCacheExpiration = 7
	DefaultReferenceLat           = 48.1
	DefaultReferenceLon           = -11.6
)

// ErrMissingBaseURL marks a configuration without the mandatory
// reservation site URL.
var ErrMissingBaseURL = errors.New("config: base_url is mandatory")

// LoggingConfig controls the zerolog setup.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// UIConfig selects the front-end toolkit.
type UIConfig struct {
	// Toolkit is "tui", "console" or "auto" (pick based on the terminal).
	Toolkit string `yaml:"toolkit"`
}

// Preferences holds user state carried across sessions. It is merged
// over the Config at load and written back at shutdown.
type Preferences struct {
	// Selected lists the ids of the huts the user tracks.
	Selected []string `yaml:"selected"`

	// ReferenceLat / ReferenceLon define the location distances are
	// computed from.
	ReferenceLat float64 `yaml:"reference_lat"`
	ReferenceLon float64 `yaml:"reference_lon"`

	// NumberDays is the length of the requested date range.
	NumberDays int `yaml:"number_days"`

	// Occupants is the default occupant count for queries.
	Occupants int `yaml:"occupants"`
}

// Config is the explicit configuration passed into the cache, fetcher
// and store at construction. No global mutable state.
type Config struct {
	// BaseURL is the reservation site root. Mandatory.
	BaseURL string `yaml:"base_url"`

	// UpdatesURL is where data-file and version updates are published.
	UpdatesURL string `yaml:"updates_url"`

	// MaxNights is the window covered by a single site request.
	MaxNights int `yaml:"max_nights"`

	// RoomBasicTypes maps the site's room labels to basic room types.
	// The "default_type" key names the fallback for unknown labels.
	RoomBasicTypes map[string]string `yaml:"room_basic_types"`

	// ResultsCacheExpiration is the results cache TTL in days.
	ResultsCacheExpiration int `yaml:"results_cache_expiration"`

	Logging LoggingConfig `yaml:"logging"`
	UI      UIConfig      `yaml:"ui"`

	Preferences Preferences `yaml:"preferences"`

	dataDir string
}

// ResolveDataDir determines the data directory: explicit flag value,
// then environment, then the default under the working directory.
func ResolveDataDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return env
	}
	return defaultDataDir
}

// Load reads config.yaml from the data directory and merges
// preferences.yaml on top. A missing or unreadable config file is an
// error: the application cannot run without it. A missing or malformed
// preferences file is not: defaults apply and the problem is reported
// in the returned warnings.
func Load(dataDir string) (*Config, []string, error) {
	cfg := &Config{
		MaxNights:              DefaultMaxNights,
		ResultsCacheExpiration: DefaultResultsCacheExpiration,
		Preferences: Preferences{
			ReferenceLat: DefaultReferenceLat,
			ReferenceLon: DefaultReferenceLon,
			NumberDays:   1,
			Occupants:    1,
		},
		dataDir: dataDir,
	}

	configPath := filepath.Join(dataDir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading configuration file %s: %w", configPath, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing configuration file %s: %w", configPath, err)
	}
	if cfg.BaseURL == "" {
		return nil, nil, ErrMissingBaseURL
	}

	var warnings []string
	prefsPath := filepath.Join(dataDir, PreferencesFileName)
	prefsData, err := os.ReadFile(prefsPath)
	switch {
	case os.IsNotExist(err):
		warnings = append(warnings, fmt.Sprintf("preferences file %s does not exist", prefsPath))
	case err != nil:
		warnings = append(warnings, fmt.Sprintf("reading preferences file: %v", err))
	default:
		if err := yaml.Unmarshal(prefsData, &cfg.Preferences); err != nil {
			warnings = append(warnings, fmt.Sprintf("parsing preferences file: %v", err))
		}
	}

	cfg.dataDir = dataDir
	return cfg, warnings, nil
}

// DataDir returns the resolved data directory.
func (c *Config) DataDir() string {
	return c.dataDir
}

// ResultsFile returns the path of the persisted results dictionary.
func (c *Config) ResultsFile() string {
	return filepath.Join(c.dataDir, ResultsFileName)
}

// HutsFile returns the path of the huts catalog data file.
func (c *Config) HutsFile() string {
	return filepath.Join(c.dataDir, HutsFileName)
}

// PreferencesFile returns the path of the preferences file.
func (c *Config) PreferencesFile() string {
	return filepath.Join(c.dataDir, PreferencesFileName)
}

// SavePreferences writes the current preferences back to the data
// directory, atomically.
func (c *Config) SavePreferences() error {
	data, err := yaml.Marshal(&c.Preferences)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}

	path := c.PreferencesFile()
	tmp, err := os.CreateTemp(c.dataDir, PreferencesFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp preferences file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp preferences file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing preferences file: %w", err)
	}
	return nil
}
