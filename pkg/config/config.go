// Package config loads and saves the preferences file: API keys, global
// filter defaults, the preset set and the blocked-channel list. The file is
// TOML under the XDG config directory; the persisted run snapshot lives
// under the XDG data directory.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/ytsift/ytsift/pkg/core"
)

//go:embed config.toml.sample
var configTemplate string

// Config is the persisted preference set. The engine treats it as read-only
// during a run.
type Config struct {
	APIKeys         []string            `toml:"api_keys"`
	PageBudget      int                 `toml:"page_budget,omitempty"`
	Sort            string              `toml:"sort,omitempty"`
	Defaults        core.GlobalDefaults `toml:"defaults"`
	BlockedChannels []string            `toml:"blocked_channels,omitempty"`
	Presets         []core.Preset       `toml:"presets"`
}

// builtinPresets are seeded into configs that lack them, keyed by ID, so a
// fresh install has something to run.
func builtinPresets() []core.Preset {
	return []core.Preset{
		{
			ID:       "sample-repair",
			Name:     "Repair deep dives",
			Enabled:  true,
			Priority: 10,
			Query: core.QuerySpec{
				Text:     "repair",
				AnyTerms: []string{"restoration", "teardown"},
				NotTerms: []string{"shorts"},
			},
		},
		{
			ID:       "sample-workshop",
			Name:     "Workshop builds",
			Enabled:  false,
			Query:    core.QuerySpec{Text: "workshop build"},
		},
	}
}

// DefaultConfig returns the built-in configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		PageBudget: 2,
		Sort:       string(core.SortPublishedDesc),
		Defaults: core.GlobalDefaults{
			DefaultWindow:   core.Window7d,
			LanguageOnly:    true,
			Language:        "en",
			MinDurationSecs: 75,
			RegionCode:      "US",
		},
		Presets: builtinPresets(),
	}
}

// LoadConfig reads the config file, filling gaps with defaults. A missing
// file yields the default configuration rather than an error.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.Defaults.DefaultWindow == "" {
		config.Defaults.DefaultWindow = core.Window7d
	}
	if config.Sort == "" {
		config.Sort = string(core.SortPublishedDesc)
	}
	config.seedBuiltinPresets()
	config.BlockedChannels = NormalizeBlockList(config.BlockedChannels)

	return &config, nil
}

// SaveConfig writes the config back to disk, creating directories as needed.
func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// SaveTemplateConfig writes the annotated sample config for `ytsift init`.
func SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(configPath, []byte(configTemplate), 0644)
}

// seedBuiltinPresets injects missing built-in presets by ID. Edited copies of
// a builtin keep their edits; only absent IDs are added.
func (c *Config) seedBuiltinPresets() {
	for _, builtin := range builtinPresets() {
		if c.FindPreset(builtin.ID) == nil {
			c.Presets = append(c.Presets, builtin)
		}
	}
}

// FindPreset returns the preset with the given ID, or nil.
func (c *Config) FindPreset(id string) *core.Preset {
	for i := range c.Presets {
		if c.Presets[i].ID == id {
			return &c.Presets[i]
		}
	}
	return nil
}

// BlockedKeys returns the normalized match keys of the blocked-channel list.
func (c *Config) BlockedKeys() []string {
	keys := make([]string, 0, len(c.BlockedChannels))
	for _, entry := range c.BlockedChannels {
		if key, _ := ParseBlockEntry(entry); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// NormalizeBlockList canonicalizes blocked-channel entries to "key|label"
// form, dropping empties and duplicate keys, sorted by key.
func NormalizeBlockList(entries []string) []string {
	byKey := make(map[string]string)
	for _, entry := range entries {
		key, label := ParseBlockEntry(entry)
		if key == "" {
			continue
		}
		if _, exists := byKey[key]; !exists {
			byKey[key] = key + "|" + label
		}
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	normalized := make([]string, 0, len(keys))
	for _, key := range keys {
		normalized = append(normalized, byKey[key])
	}
	return normalized
}

// ParseBlockEntry splits a blocked-channel entry into its match key and
// display label. The key is lowercased with any leading '@' stripped; a bare
// entry doubles as its own label.
func ParseBlockEntry(entry string) (key, label string) {
	trimmed := strings.TrimSpace(entry)
	if trimmed == "" {
		return "", ""
	}

	if rawKey, rawLabel, found := strings.Cut(trimmed, "|"); found {
		key = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(rawKey), "@"))
		label = strings.TrimSpace(rawLabel)
		if label == "" {
			label = strings.TrimSpace(rawKey)
		}
		return key, label
	}

	key = strings.ToLower(strings.TrimPrefix(trimmed, "@"))
	return key, trimmed
}

// GetConfigDir returns (and creates) the configuration directory, honoring
// XDG_CONFIG_HOME.
func GetConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "ytsift")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return dir, nil
}

// GetDataDir returns (and creates) the data directory, honoring
// XDG_DATA_HOME. The persisted run snapshot lives here.
func GetDataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	dir := filepath.Join(dataDir, "ytsift")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating data directory %s: %w", dir, err)
	}
	return dir, nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
