package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestDefault_Valid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("expected defaults to validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mdpage.yaml")
	yml := `root: /docs
out_dir: /site
workers: 8
format: false
format_timeout: 2s
exclude: [drafts, "*.tmp.md"]
folder_aliases:
  guide: User Guide
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Root != "/docs" || cfg.OutDir != "/site" || cfg.Workers != 8 {
		t.Errorf("unexpected workspace fields %+v", cfg)
	}
	if cfg.Format {
		t.Error("expected format disabled")
	}
	if cfg.FormatTimeout != 2*time.Second {
		t.Errorf("expected 2s timeout, got %s", cfg.FormatTimeout)
	}
	if !slices.Equal(cfg.Exclude, []string{"drafts", "*.tmp.md"}) {
		t.Errorf("unexpected exclude %v", cfg.Exclude)
	}
	if cfg.FolderAliases["guide"] != "User Guide" {
		t.Errorf("unexpected aliases %v", cfg.FolderAliases)
	}
	// Unset fields keep their defaults.
	if cfg.Port != "8090" || cfg.HighlightStyle != "github" {
		t.Errorf("expected defaults to survive, got %+v", cfg)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	cfg := Default()
	err := cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("workers: [1, 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := cfg.LoadFile(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("MDPAGE_ROOT", "/env/root")
	t.Setenv("MDPAGE_WORKERS", "2")
	t.Setenv("MDPAGE_FORMAT", "false")
	t.Setenv("MDPAGE_RUN_TTL", "5m")
	t.Setenv("MDPAGE_EXCLUDE", "a, b ,,c")
	t.Setenv("MDPAGE_PORT", "9000")
	t.Setenv("MDPAGE_LOG_FORMAT", "json")

	cfg := Default()
	cfg.ApplyEnv()

	if cfg.Root != "/env/root" || cfg.Workers != 2 || cfg.Format {
		t.Errorf("unexpected env overlay %+v", cfg)
	}
	if cfg.RunTTL != 5*time.Minute {
		t.Errorf("expected 5m ttl, got %s", cfg.RunTTL)
	}
	if !slices.Equal(cfg.Exclude, []string{"a", "b", "c"}) {
		t.Errorf("unexpected exclude %v", cfg.Exclude)
	}
	if cfg.Port != "9000" || cfg.LogFormat != "json" {
		t.Errorf("unexpected server/log fields %+v", cfg)
	}
}

func TestApplyEnv_IgnoresInvalid(t *testing.T) {
	t.Setenv("MDPAGE_WORKERS", "many")
	t.Setenv("MDPAGE_FORMAT_TIMEOUT", "soon")

	cfg := Default()
	cfg.ApplyEnv()
	if cfg.Workers != 4 || cfg.FormatTimeout != 10*time.Second {
		t.Errorf("expected defaults for invalid values, got %+v", cfg)
	}
}

func TestLoad_Layers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("workers: 6\nroot: /file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MDPAGE_ROOT", "/env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 6 {
		t.Errorf("expected file value, got %d", cfg.Workers)
	}
	if cfg.Root != "/env" {
		t.Errorf("expected env to win, got %s", cfg.Root)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestLoad_NoDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 4 {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"workers", func(c *Config) { c.Workers = 0 }},
		{"format timeout", func(c *Config) { c.FormatTimeout = 0 }},
		{"queue", func(c *Config) { c.MaxQueueSize = -1 }},
		{"run ttl", func(c *Config) { c.RunTTL = 0 }},
		{"debounce", func(c *Config) { c.WatchDebounce = -time.Second }},
		{"port", func(c *Config) { c.Port = "http" }},
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
