package querypad_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/querypad-io/querypad"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := `metadata:
  endpoint: https://metadata.example.com/v1
  timeout_ms: 2500
editor:
  debounce_ms: 200
  max_suggestions: 25
`

	err := os.WriteFile(filepath.Join(dir, ".querypad.yaml"), []byte(content), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := querypad.LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Metadata.Endpoint != "https://metadata.example.com/v1" {
		t.Errorf("Endpoint = %q", cfg.Metadata.Endpoint)
	}

	if cfg.MetadataTimeout() != 2500*time.Millisecond {
		t.Errorf("MetadataTimeout() = %v", cfg.MetadataTimeout())
	}

	if cfg.Debounce() != 200*time.Millisecond {
		t.Errorf("Debounce() = %v", cfg.Debounce())
	}

	if cfg.MaxSuggestions() != 25 {
		t.Errorf("MaxSuggestions() = %d", cfg.MaxSuggestions())
	}
}

func TestLoadConfig_WalksUp(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")

	if err := os.MkdirAll(nested, 0o750); err != nil {
		t.Fatal(err)
	}

	err := os.WriteFile(filepath.Join(root, "querypad.yaml"), []byte("metadata:\n  endpoint: http://up\n"), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := querypad.LoadConfig(nested)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Metadata.Endpoint != "http://up" {
		t.Errorf("Endpoint = %q", cfg.Metadata.Endpoint)
	}
}

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	var cfg querypad.Config

	if cfg.MetadataTimeout() != querypad.DefaultMetadataTimeout {
		t.Errorf("MetadataTimeout() = %v", cfg.MetadataTimeout())
	}

	if cfg.Debounce() != querypad.DefaultDebounce {
		t.Errorf("Debounce() = %v", cfg.Debounce())
	}

	if cfg.MaxSuggestions() != querypad.DefaultMaxSuggestions {
		t.Errorf("MaxSuggestions() = %d", cfg.MaxSuggestions())
	}
}

func TestFindConfig_NotFound(t *testing.T) {
	t.Parallel()

	// A bare temp dir has no config anywhere up to root (assuming no
	// stray config above the temp tree, which CI guarantees).
	_, err := querypad.FindConfig(t.TempDir())
	if !errors.Is(err, querypad.ErrConfigNotFound) {
		t.Errorf("FindConfig() error = %v, want ErrConfigNotFound", err)
	}
}
