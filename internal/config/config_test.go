package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestValidate_InvalidURL(t *testing.T) {
	for _, raw := range []string{"ftp://api.biodiversitydata.nl/v2/", "api.biodiversitydata.nl", "http://"} {
		t.Run(raw, func(t *testing.T) {
			cfg := Config{NBA: NBAConfig{URL: raw}}
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected error for url %q", raw)
			}
		})
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Config{
		NBA:     NBAConfig{URL: DefaultURL},
		Logging: LoggingConfig{Level: "verbose"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid log level")
	}

	expected := `logging.level must be one of debug, info, warn, error, got "verbose"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidLogLevels(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "WARN", "error"} {
		t.Run("level="+level, func(t *testing.T) {
			cfg := Config{NBA: NBAConfig{URL: DefaultURL}, Logging: LoggingConfig{Level: level}}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid level %q: %v", level, err)
			}
		})
	}
}

func TestValidate_NegativeTimeout(t *testing.T) {
	cfg := Config{NBA: NBAConfig{URL: DefaultURL, TimeoutSec: -1}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative timeout")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.NBA.URL != DefaultURL {
		t.Errorf("expected URL=%q, got %q", DefaultURL, cfg.NBA.URL)
	}
	if cfg.NBA.TimeoutSec != 5 {
		t.Errorf("expected TimeoutSec=5, got %d", cfg.NBA.TimeoutSec)
	}
	if cfg.NBA.MaxBatchSize != 1000 {
		t.Errorf("expected MaxBatchSize=1000, got %d", cfg.NBA.MaxBatchSize)
	}
	if cfg.NBA.UsePost {
		t.Error("expected UsePost=false")
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{NBA: NBAConfig{URL: "http://localhost:8080/v2/", TimeoutSec: 30, MaxBatchSize: 50}}
	cfg.ApplyDefaults()

	if cfg.NBA.URL != "http://localhost:8080/v2/" {
		t.Errorf("expected custom URL, got %q", cfg.NBA.URL)
	}
	if cfg.NBA.TimeoutSec != 30 {
		t.Errorf("expected TimeoutSec=30, got %d", cfg.NBA.TimeoutSec)
	}
	if cfg.NBA.MaxBatchSize != 50 {
		t.Errorf("expected MaxBatchSize=50, got %d", cfg.NBA.MaxBatchSize)
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("NBA_URL", "http://nba.test/v2/")
	t.Setenv("NBA_DWCA_DIR", "")

	cfg, err := Parse([]byte(`
nba:
  url: ${NBA_URL}
  timeout_sec: ${NBA_TIMEOUT_SEC:-12}
  dwca_download_dir: ${NBA_DWCA_DIR:-/tmp/dwca}
  use_post: true
logging:
  level: debug
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.NBA.URL != "http://nba.test/v2/" {
		t.Errorf("URL = %q", cfg.NBA.URL)
	}
	if cfg.NBA.TimeoutSec != 12 {
		t.Errorf("TimeoutSec = %d, want 12", cfg.NBA.TimeoutSec)
	}
	if cfg.NBA.DwCADownloadDir != "/tmp/dwca" {
		t.Errorf("DwCADownloadDir = %q, want /tmp/dwca", cfg.NBA.DwCADownloadDir)
	}
	if cfg.NBA.MaxBatchSize != DefaultMaxBatchSize {
		t.Errorf("MaxBatchSize = %d, want default", cfg.NBA.MaxBatchSize)
	}
	if !cfg.NBA.UsePost {
		t.Error("expected UsePost=true")
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("nba: [")); err == nil {
		t.Fatal("expected parse error")
	}
	_, err := Parse([]byte("nba:\n  url: gopher://nba\n"))
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o750); err != nil {
		t.Fatal(err)
	}
	data := []byte("nba:\n  url: https://nba.example.org/v2\n  max_batch_size: 25\n")
	if err := os.WriteFile(filepath.Join(dir, "config", "ci.yaml"), data, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load("ci")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.NBA.MaxBatchSize != 25 {
		t.Errorf("MaxBatchSize = %d, want 25", cfg.NBA.MaxBatchSize)
	}

	if _, err := Load("missing"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestClient(t *testing.T) {
	cfg := Config{NBA: NBAConfig{
		URL:             "http://localhost:8080/v2/",
		TimeoutSec:      7,
		MaxBatchSize:    10,
		DwCADownloadDir: "/data/dwca",
		UsePost:         true,
	}}

	cc := cfg.Client()
	if cc.BaseURL != "http://localhost:8080/v2/" {
		t.Errorf("BaseURL = %q", cc.BaseURL)
	}
	if cc.Timeout != 7*time.Second {
		t.Errorf("Timeout = %s, want 7s", cc.Timeout)
	}
	if cc.MaxBatchSize != 10 {
		t.Errorf("MaxBatchSize = %d, want 10", cc.MaxBatchSize)
	}
	if cc.DownloadDir != "/data/dwca" {
		t.Errorf("DownloadDir = %q", cc.DownloadDir)
	}
	if !cc.UsePost {
		t.Error("expected UsePost=true")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q, want local", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %q, want prod", got)
	}
}
