package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KASSWRH/Website-Archiver/internal/jobs"
	"github.com/KASSWRH/Website-Archiver/internal/logging"
	"github.com/KASSWRH/Website-Archiver/internal/server"
	"github.com/KASSWRH/Website-Archiver/internal/storage"
)

const janitorInterval = time.Minute

func (a *app) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the archive job API",
		Long: `serve starts an HTTP API for archive jobs:

  POST /scrape         start a job (url, max_depth, download_assets)
  GET  /status/{id}    progress of a job
  GET  /results/{id}   files written by a job
  GET  /downloads/...  the archived mirrors`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}

	cmd.Flags().StringP("listen", "l", ":8080", "HTTP listen address")
	cmd.Flags().String("downloads-dir", "", "Directory holding job output (default is $XDG_DATA_HOME/website-archiver/downloads)")
	cmd.Flags().Int("max-running", 2, "Crawls executing at once")
	cmd.Flags().Int("max-jobs", 100, "Jobs kept in the registry (0=unlimited)")
	cmd.Flags().Duration("retention", 24*time.Hour, "Evict finished jobs older than this (0=never)")
	cmd.Flags().Bool("remove-artifacts", false, "Delete the output of evicted jobs")

	a.bindFlags(cmd.Flags(), map[string]string{
		"server.listen":           "listen",
		"server.max_running_jobs": "max-running",
		"server.max_jobs":         "max-jobs",
		"server.retention":        "retention",
		"server.remove_artifacts": "remove-artifacts",
	})
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if dir, _ := cmd.Flags().GetString("downloads-dir"); dir != "" {
		cfg.Server.DownloadsDir = dir
	}

	if showConfig, _ := cmd.Flags().GetBool("show-config"); showConfig {
		return showCurrentConfig(cmd.OutOrStdout(), cfg)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, logCloser, err := setupLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	if err := os.MkdirAll(cfg.Server.DownloadsDir, 0755); err != nil {
		return fmt.Errorf("failed to create downloads directory: %w", err)
	}

	var store jobs.Store
	if cfg.DatabasePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0750); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
		sqlite, err := storage.NewSQLiteStorage(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer func() { _ = sqlite.Close() }()
		store = sqlite
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go logging.RotateOn(ctx, logCloser, hup)

	manager := jobs.NewManager(ctx, cfg, store, logger)
	go manager.RunJanitor(ctx, janitorInterval)

	logger.Info("Starting job server",
		"listen", cfg.Server.Listen,
		"downloads_dir", cfg.Server.DownloadsDir,
		"max_running_jobs", cfg.Server.MaxRunningJobs,
		"max_jobs", cfg.Server.MaxJobs,
		"retention", cfg.Server.Retention.String(),
	)

	srv := server.New(manager, cfg.Server.DownloadsDir, logger)
	err = srv.ListenAndServe(ctx, cfg.Server.Listen)

	// running crawls observe the cancelled context and finish as failed
	stop()
	manager.Wait()
	logger.Info("Job server stopped")
	return err
}
