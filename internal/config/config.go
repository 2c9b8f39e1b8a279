package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/bioportal"
)

// Default values applied by ApplyDefaults.
const (
	DefaultURL          = bioportal.DefaultBaseURL
	DefaultTimeoutSec   = 5
	DefaultMaxBatchSize = bioportal.DefaultMaxBatchSize
)

// Config holds the bioportal client configuration.
type Config struct {
	NBA     NBAConfig     `yaml:"nba"`
	Logging LoggingConfig `yaml:"logging"`
}

// NBAConfig holds the NBA connection settings.
type NBAConfig struct {
	URL             string `yaml:"url"`
	TimeoutSec      int    `yaml:"timeout_sec"` // per request; 0 = default
	MaxBatchSize    int    `yaml:"max_batch_size"`
	DwCADownloadDir string `yaml:"dwca_download_dir"`
	UsePost         bool   `yaml:"use_post"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} and ${VAR:-default}
// references, then applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.NBA.URL) == "" {
		c.NBA.URL = DefaultURL
	}
	if c.NBA.TimeoutSec <= 0 {
		c.NBA.TimeoutSec = DefaultTimeoutSec
	}
	if c.NBA.MaxBatchSize <= 0 {
		c.NBA.MaxBatchSize = DefaultMaxBatchSize
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	u, err := url.Parse(c.NBA.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("nba.url must be an http(s) url, got %q", c.NBA.URL)
	}
	if c.NBA.TimeoutSec < 0 {
		return fmt.Errorf("nba.timeout_sec must not be negative, got %d", c.NBA.TimeoutSec)
	}
	if c.NBA.MaxBatchSize < 0 {
		return fmt.Errorf("nba.max_batch_size must not be negative, got %d", c.NBA.MaxBatchSize)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}

// Client converts the NBA section into client settings.
func (c *Config) Client() bioportal.Config {
	return bioportal.Config{
		BaseURL:      c.NBA.URL,
		Timeout:      time.Duration(c.NBA.TimeoutSec) * time.Second,
		MaxBatchSize: c.NBA.MaxBatchSize,
		DownloadDir:  c.NBA.DwCADownloadDir,
		UsePost:      c.NBA.UsePost,
	}
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
