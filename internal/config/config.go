package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when no file is given.
const DefaultFile = ".mdpage.yaml"

type Config struct {
	// Workspace
	Root          string            `yaml:"root"`
	OutDir        string            `yaml:"out_dir"`
	Exclude       []string          `yaml:"exclude"`
	FolderAliases map[string]string `yaml:"folder_aliases"`

	// Export
	Workers        int           `yaml:"workers"`
	Format         bool          `yaml:"format"`
	FormatTimeout  time.Duration `yaml:"format_timeout"`
	HighlightStyle string        `yaml:"highlight_style"`
	RewriteLinks   bool          `yaml:"rewrite_links"`

	// Server
	Port         string        `yaml:"port"`
	APIKey       string        `yaml:"api_key"`
	MaxQueueSize int           `yaml:"max_queue_size"`
	RunTTL       time.Duration `yaml:"run_ttl"`

	// Watch
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// Logging
	LogFormat string `yaml:"log_format"`
	LogLevel  string `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Workers:        4,
		Format:         true,
		FormatTimeout:  10 * time.Second,
		HighlightStyle: "github",
		RewriteLinks:   true,
		Port:           "8090",
		MaxQueueSize:   16,
		RunTTL:         1 * time.Hour,
		WatchDebounce:  300 * time.Millisecond,
		LogFormat:      "text",
		LogLevel:       "info",
	}
}

// Load layers defaults, the YAML file at path and MDPAGE_* environment
// variables, in that order. An empty path reads DefaultFile if it exists.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.LoadFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFile overlays the fields set in the YAML file at path.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays MDPAGE_* environment variables.
func (c *Config) ApplyEnv() {
	c.Root = envOr("MDPAGE_ROOT", c.Root)
	c.OutDir = envOr("MDPAGE_OUT_DIR", c.OutDir)
	if v := os.Getenv("MDPAGE_EXCLUDE"); v != "" {
		c.Exclude = splitList(v)
	}

	c.Workers = envInt("MDPAGE_WORKERS", c.Workers)
	c.Format = envBool("MDPAGE_FORMAT", c.Format)
	c.FormatTimeout = envDuration("MDPAGE_FORMAT_TIMEOUT", c.FormatTimeout)
	c.HighlightStyle = envOr("MDPAGE_HIGHLIGHT_STYLE", c.HighlightStyle)
	c.RewriteLinks = envBool("MDPAGE_REWRITE_LINKS", c.RewriteLinks)

	c.Port = envOr("PORT", c.Port)
	c.Port = envOr("MDPAGE_PORT", c.Port)
	c.APIKey = envOr("MDPAGE_API_KEY", c.APIKey)
	c.MaxQueueSize = envInt("MDPAGE_MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.RunTTL = envDuration("MDPAGE_RUN_TTL", c.RunTTL)

	c.WatchDebounce = envDuration("MDPAGE_WATCH_DEBOUNCE", c.WatchDebounce)

	c.LogFormat = envOr("MDPAGE_LOG_FORMAT", c.LogFormat)
	c.LogLevel = envOr("MDPAGE_LOG_LEVEL", c.LogLevel)
}

func (c Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.FormatTimeout <= 0 {
		return fmt.Errorf("format_timeout must be positive, got %s", c.FormatTimeout)
	}
	if c.MaxQueueSize <= 0 {
		return fmt.Errorf("max_queue_size must be positive, got %d", c.MaxQueueSize)
	}
	if c.RunTTL <= 0 {
		return fmt.Errorf("run_ttl must be positive, got %s", c.RunTTL)
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce must not be negative, got %s", c.WatchDebounce)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log_format must be json or text, got %q", c.LogFormat)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
