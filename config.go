package querypad

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when no config file exists between the
// starting directory and the filesystem root.
var ErrConfigNotFound = errors.New("querypad: config file not found")

// Config represents the .querypad.yaml configuration file.
type Config struct {
	// Metadata service settings (field-list lookups).
	Metadata MetadataConfig `yaml:"metadata"`

	// Editor-facing tuning knobs.
	Editor EditorConfig `yaml:"editor"`
}

// MetadataConfig configures the Data Extension metadata service client.
type MetadataConfig struct {
	// Endpoint is the base URL of the metadata REST service.
	Endpoint string `yaml:"endpoint"`

	// TimeoutMS bounds a single field-list request. Zero means the
	// default.
	TimeoutMS int `yaml:"timeout_ms,omitempty"`
}

// EditorConfig tunes suggestion and decoration behavior.
type EditorConfig struct {
	// DebounceMS is the settle period before decorations recompute.
	DebounceMS int `yaml:"debounce_ms,omitempty"`

	// MaxSuggestions caps table-reference suggestion lists.
	MaxSuggestions int `yaml:"max_suggestions,omitempty"`
}

// Defaults applied when fields are omitted.
const (
	DefaultMetadataTimeout = 5 * time.Second
	DefaultDebounce        = 150 * time.Millisecond
	DefaultMaxSuggestions  = 50
)

// MetadataTimeout returns the configured request timeout.
func (c *Config) MetadataTimeout() time.Duration {
	if c.Metadata.TimeoutMS <= 0 {
		return DefaultMetadataTimeout
	}

	return time.Duration(c.Metadata.TimeoutMS) * time.Millisecond
}

// Debounce returns the decoration settle period.
func (c *Config) Debounce() time.Duration {
	if c.Editor.DebounceMS <= 0 {
		return DefaultDebounce
	}

	return time.Duration(c.Editor.DebounceMS) * time.Millisecond
}

// MaxSuggestions returns the table-suggestion cap.
func (c *Config) MaxSuggestions() int {
	if c.Editor.MaxSuggestions <= 0 {
		return DefaultMaxSuggestions
	}

	return c.Editor.MaxSuggestions
}

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{".querypad.yaml", ".querypad.yml", "querypad.yaml", "querypad.yml"}

// LoadConfig finds and loads the nearest config file walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
