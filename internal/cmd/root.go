// Package cmd provides the command-line interface of the archiver.
// It handles command parsing, configuration loading and wiring of the
// crawl and serve commands.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KASSWRH/Website-Archiver/internal/config"
	"github.com/KASSWRH/Website-Archiver/internal/logging"
)

const (
	configName = "archiver"
	envPrefix  = "WA"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// app carries state shared by the commands of one root command
type app struct {
	v       *viper.Viper
	cfgFile string
}

// NewRootCmd builds the command tree with its own configuration registry
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "archiver",
		Short: "Mirror a website for offline browsing",
		Long: `archiver crawls a website breadth first, downloads its pages and
assets, and rewrites links so the copy can be browsed from disk.

Use "archiver crawl <url>" for a one-off mirror or "archiver serve" to
run the job API.`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showConfig, _ := cmd.Flags().GetBool("show-config"); showConfig {
				cfg, err := a.loadConfig()
				if err != nil {
					return err
				}
				return showCurrentConfig(cmd.OutOrStdout(), cfg)
			}
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./archiver.yml or $XDG_CONFIG_HOME/website-archiver/archiver.yml)")
	root.PersistentFlags().Bool("show-config", false, "Display current configuration in YAML format and exit")
	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("log-file", "", "Write JSON logs to a rotating file as well")
	root.PersistentFlags().DurationP("timeout", "t", 10*time.Second, "HTTP request timeout")
	root.PersistentFlags().DurationP("delay", "r", 100*time.Millisecond, "Delay between page requests to the same host")
	root.PersistentFlags().StringP("user-agent", "u", config.DefaultUserAgent, "HTTP User-Agent header")
	root.PersistentFlags().IntP("concurrency", "c", 4, "Parallel asset downloads per page")
	root.PersistentFlags().Int64("max-body-size", 50*1024*1024, "Maximum response body size in bytes")
	root.PersistentFlags().String("database", "", "SQLite manifest database (empty disables the manifest)")

	a.bindFlags(root.PersistentFlags(), map[string]string{
		"log.level":         "log-level",
		"log.file":          "log-file",
		"request_timeout":   "timeout",
		"request_delay":     "delay",
		"user_agent":        "user-agent",
		"asset_concurrency": "concurrency",
		"max_body_size":     "max-body-size",
		"database_path":     "database",
	})

	root.AddCommand(a.newCrawlCmd(), a.newServeCmd())
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// SetVersionInfo sets version information for the CLI
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
}

func (a *app) bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			// non-critical: the default still applies
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", name, err)
		}
	}
}

// initConfig reads the config file and environment variables
func (a *app) initConfig(stderr io.Writer) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.AddConfigPath(config.ConfigDir())
		a.v.SetConfigType("yaml")
		a.v.SetConfigName(configName)
	}

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		return nil
	}
	fmt.Fprintf(stderr, "Using config file: %s\n", a.v.ConfigFileUsed())
	return nil
}

// loadConfig merges defaults, config file, environment and flags
func (a *app) loadConfig() (*config.ArchiveConfig, error) {
	cfg := config.DefaultConfig()
	if err := a.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func showCurrentConfig(w io.Writer, cfg *config.ArchiveConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(w, "# Warning: configuration validation failed: %v\n", err)
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Fprintf(w, "# Current archiver configuration\n")
	fmt.Fprintf(w, "# Generated at: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "# Configuration file search paths: ./%s.yml, %s\n", configName, config.ConfigDir())
	fmt.Fprintf(w, "# Environment variables prefix: %s_\n\n", envPrefix)
	fmt.Fprint(w, string(yamlData))
	fmt.Fprintf(w, "\n# Configuration source priority:\n")
	fmt.Fprintf(w, "# 1. Command-line arguments (highest priority)\n")
	fmt.Fprintf(w, "# 2. Environment variables (%s_ prefix)\n", envPrefix)
	fmt.Fprintf(w, "# 3. Configuration file (%s.yml)\n", configName)
	fmt.Fprintf(w, "# 4. Default values (lowest priority)\n")
	return nil
}

// setupLogger installs the JSON logger described by cfg as the default
func setupLogger(cfg *config.ArchiveConfig, console io.Writer) (*slog.Logger, io.Closer, error) {
	closer, err := logging.SetDefault(logging.FromArchiveConfig(cfg.Log, console))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return slog.Default(), closer, nil
}
