package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testConfigYAML = `base_url: https://www.example.com/reservation/
updates_url: https://www.example.com/updates/
max_nights: 10
room_basic_types:
  Mehrbettzimmer: shared
  Matratzenlager: dormitory
  default_type: shared
results_cache_expiration: 3
logging:
  level: debug
ui:
  toolkit: console
`

func writeDataDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestResolveDataDir(t *testing.T) {
	t.Run("FlagWins", func(t *testing.T) {
		t.Setenv(EnvDataDir, "/from/env")
		assert.Equal(t, "/from/flag", ResolveDataDir("/from/flag"))
	})

	t.Run("EnvFallback", func(t *testing.T) {
		t.Setenv(EnvDataDir, "/from/env")
		assert.Equal(t, "/from/env", ResolveDataDir(""))
	})

	t.Run("Default", func(t *testing.T) {
		t.Setenv(EnvDataDir, "")
		assert.Equal(t, "assets/data", ResolveDataDir(""))
	})
}

func TestLoad(t *testing.T) {
	dir := writeDataDir(t, map[string]string{
		ConfigFileName: testConfigYAML,
		PreferencesFileName: `selected: ["10", "42"]
reference_lat: 46.5
reference_lon: 10.2
number_days: 3
occupants: 4
`,
	})

	cfg, warnings, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, "https://www.example.com/reservation/", cfg.BaseURL)
	assert.Equal(t, 10, cfg.MaxNights)
	assert.Equal(t, 3, cfg.ResultsCacheExpiration)
	assert.Equal(t, "shared", cfg.RoomBasicTypes["default_type"])
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.UI.Toolkit)

	assert.Equal(t, []string{"10", "42"}, cfg.Preferences.Selected)
	assert.InDelta(t, 46.5, cfg.Preferences.ReferenceLat, 1e-9)
	assert.Equal(t, 3, cfg.Preferences.NumberDays)
	assert.Equal(t, 4, cfg.Preferences.Occupants)

	assert.Equal(t, dir, cfg.DataDir())
	assert.Equal(t, filepath.Join(dir, ResultsFileName), cfg.ResultsFile())
	assert.Equal(t, filepath.Join(dir, HutsFileName), cfg.HutsFile())
}

func TestLoad_Defaults(t *testing.T) {
	dir := writeDataDir(t, map[string]string{
		ConfigFileName: "base_url: https://www.example.com/\n",
	})

	cfg, warnings, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxNights, cfg.MaxNights)
	assert.Equal(t, DefaultResultsCacheExpiration, cfg.ResultsCacheExpiration)
	assert.InDelta(t, DefaultReferenceLat, cfg.Preferences.ReferenceLat, 1e-9)
	assert.InDelta(t, DefaultReferenceLon, cfg.Preferences.ReferenceLon, 1e-9)
	assert.Equal(t, 1, cfg.Preferences.NumberDays)
	assert.Equal(t, 1, cfg.Preferences.Occupants)

	// A missing preferences file is reported, never fatal.
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "does not exist")
}

func TestLoad_MissingConfig(t *testing.T) {
	_, _, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestLoad_MissingBaseURL(t *testing.T) {
	dir := writeDataDir(t, map[string]string{
		ConfigFileName: "max_nights: 5\n",
	})
	_, _, err := Load(dir)
	assert.ErrorIs(t, err, ErrMissingBaseURL)
}

func TestLoad_MalformedPreferences(t *testing.T) {
	dir := writeDataDir(t, map[string]string{
		ConfigFileName:      "base_url: https://www.example.com/\n",
		PreferencesFileName: "selected: [unbalanced\n",
	})

	cfg, warnings, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "parsing preferences file")
	assert.Empty(t, cfg.Preferences.Selected)
}

func TestSavePreferences(t *testing.T) {
	dir := writeDataDir(t, map[string]string{
		ConfigFileName: "base_url: https://www.example.com/\n",
	})
	cfg, _, err := Load(dir)
	require.NoError(t, err)

	cfg.Preferences.Selected = []string{"21"}
	cfg.Preferences.NumberDays = 2
	require.NoError(t, cfg.SavePreferences())

	data, err := os.ReadFile(cfg.PreferencesFile())
	require.NoError(t, err)
	var prefs Preferences
	require.NoError(t, yaml.Unmarshal(data, &prefs))
	assert.Equal(t, []string{"21"}, prefs.Selected)
	assert.Equal(t, 2, prefs.NumberDays)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}
