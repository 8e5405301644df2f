// Package config provides configuration management for the archiver.
// It defines configuration structures and default values for crawling,
// logging and the job server.
package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// AppName is used for XDG directory paths and the config file name
const AppName = "website-archiver"

// DefaultUserAgent is a desktop browser string; some sites reject clients
// that do not identify as a browser.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"

// LogConfig holds logging settings
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`             // debug, info, warn, error
	File       string `mapstructure:"file" yaml:"file"`               // Rotating log file, empty for console only
	MaxSizeMB  int64  `mapstructure:"max_size_mb" yaml:"max_size_mb"` // Rotation threshold
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"` // Rotated files kept
}

// ServerConfig holds settings of the job server
type ServerConfig struct {
	Listen          string        `mapstructure:"listen" yaml:"listen"`                     // HTTP listen address
	DownloadsDir    string        `mapstructure:"downloads_dir" yaml:"downloads_dir"`       // Parent of per-job output roots
	MaxRunningJobs  int           `mapstructure:"max_running_jobs" yaml:"max_running_jobs"` // Crawls executing at once
	MaxJobs         int           `mapstructure:"max_jobs" yaml:"max_jobs"`                 // Jobs retained in the registry (0=unlimited)
	Retention       time.Duration `mapstructure:"retention" yaml:"retention"`               // Finished jobs older than this are evicted (0=forever)
	RemoveArtifacts bool          `mapstructure:"remove_artifacts" yaml:"remove_artifacts"` // Delete output of evicted jobs
}

// ArchiveConfig holds archiver configuration
type ArchiveConfig struct {
	// Crawl parameters
	OutputDir        string        `mapstructure:"output_dir" yaml:"output_dir"`               // Output root for the crawl command
	MaxDepth         int           `mapstructure:"max_depth" yaml:"max_depth"`                 // Hyperlink hops from the seed
	DownloadAssets   bool          `mapstructure:"download_assets" yaml:"download_assets"`     // Fetch stylesheets, scripts and images
	RequestTimeout   time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`     // HTTP request timeout
	RequestDelay     time.Duration `mapstructure:"request_delay" yaml:"request_delay"`         // Delay between page requests
	UserAgent        string        `mapstructure:"user_agent" yaml:"user_agent"`               // HTTP User-Agent header
	AssetConcurrency int           `mapstructure:"asset_concurrency" yaml:"asset_concurrency"` // Parallel asset fetches per page
	MaxBodySize      int64         `mapstructure:"max_body_size" yaml:"max_body_size"`         // Response body limit in bytes

	// Manifest database, empty to disable
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
}

// DataDir returns the XDG data directory of the archiver
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// ConfigDir returns the XDG config directory of the archiver
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *ArchiveConfig {
	return &ArchiveConfig{
		MaxDepth:         1,
		DownloadAssets:   true,
		RequestTimeout:   10 * time.Second,
		RequestDelay:     100 * time.Millisecond,
		UserAgent:        DefaultUserAgent,
		AssetConcurrency: 4,
		MaxBodySize:      50 * 1024 * 1024,
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
		},
		Server: ServerConfig{
			Listen:         ":8080",
			DownloadsDir:   filepath.Join(DataDir(), "downloads"),
			MaxRunningJobs: 2,
			MaxJobs:        100,
			Retention:      24 * time.Hour,
		},
	}
}

// Validate checks if the configuration is valid
func (c *ArchiveConfig) Validate() error {
	if c.MaxDepth < 0 {
		return ErrInvalidDepth
	}

	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.RequestDelay < 0 {
		return ErrInvalidDelay
	}

	if c.AssetConcurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.MaxBodySize <= 0 {
		return ErrInvalidBodySize
	}

	if c.Server.MaxRunningJobs <= 0 {
		return ErrInvalidRunningJobs
	}

	if c.Server.MaxJobs < 0 || c.Server.Retention < 0 {
		return ErrInvalidRetention
	}

	return nil
}

// OutputDirFor returns the output root for a crawl of seedURL: the
// configured OutputDir, or a per-host directory under the data dir.
func (c *ArchiveConfig) OutputDirFor(seedURL string) (string, error) {
	if c.OutputDir != "" {
		return c.OutputDir, nil
	}

	u, err := url.Parse(seedURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", ErrInvalidSeedURL
	}

	dir := strings.NewReplacer(":", "_", "/", "_").Replace(u.Host)
	return filepath.Join(DataDir(), "archives", dir), nil
}
