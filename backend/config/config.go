// ABOUTME: Configuration loader for the dashboard backend service
// ABOUTME: Loads settings from an optional .env file and environment variables

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port               string        `env:"PORT" env-default:"8080"`
	CacheTTL           time.Duration `env:"CACHE_TTL" env-default:"30s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" env-separator:","` // empty = block all cross-origin

	// Data sources
	SnapshotFile    string        `env:"SNAPSHOT_FILE"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" env-default:"5m"`
	RefreshTimeout  time.Duration `env:"REFRESH_TIMEOUT" env-default:"2m"`

	// Presentation
	Locale         string `env:"LOCALE" env-default:"en"`
	PluginBasePath string `env:"PLUGIN_BASE_PATH" env-default:"/plugin"`

	// Utilization history (sparklines); empty HistoryDB keeps history off
	HistoryDB      string `env:"HISTORY_DB"`
	HistorySamples int    `env:"HISTORY_SAMPLES" env-default:"48"`

	// vSphere (optional)
	VSphereHost       string `env:"VSPHERE_HOST"`
	VSphereUsername   string `env:"VSPHERE_USERNAME"`
	VSpherePassword   string `env:"VSPHERE_PASSWORD"`
	VSphereDatacenter string `env:"VSPHERE_DATACENTER"`
	VSphereInsecure   bool   `env:"VSPHERE_INSECURE" env-default:"false"`
	VSphereAllProxy   string `env:"VSPHERE_ALL_PROXY"` // ssh+socks5://user@jumpbox:22?private-key=/path
}

// VSphereConfigured returns true if vSphere credentials are set
func (c *Config) VSphereConfigured() bool {
	return c.VSphereHost != "" && c.VSphereUsername != "" && c.VSpherePassword != "" && c.VSphereDatacenter != ""
}

// Load reads envFile (default ".env") if it exists, then the process
// environment. Variables already set in the environment win over the file.
func Load(envFile ...string) (*Config, error) {
	files := envFile
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	cfg.VSphereHost = ensureScheme(cfg.VSphereHost)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.SnapshotFile == "" && !c.VSphereConfigured() {
		return fmt.Errorf("no data source: set SNAPSHOT_FILE or VSPHERE_HOST, VSPHERE_USERNAME, VSPHERE_PASSWORD and VSPHERE_DATACENTER")
	}
	if c.HistorySamples < 1 || c.HistorySamples > 1000 {
		return fmt.Errorf("HISTORY_SAMPLES must be between 1 and 1000, got %d", c.HistorySamples)
	}
	if c.RefreshInterval < time.Second {
		return fmt.Errorf("REFRESH_INTERVAL must be at least 1s, got %s", c.RefreshInterval)
	}
	if c.RefreshTimeout < time.Second {
		return fmt.Errorf("REFRESH_TIMEOUT must be at least 1s, got %s", c.RefreshTimeout)
	}
	return nil
}

// Usage describes every environment variable the backend reads.
func Usage() string {
	var cfg Config
	desc, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return desc
}

// ensureScheme adds https:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "https://" + url
	}
	return url
}
