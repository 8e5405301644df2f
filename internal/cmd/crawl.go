package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/KASSWRH/Website-Archiver/internal/config"
	"github.com/KASSWRH/Website-Archiver/internal/crawler"
	"github.com/KASSWRH/Website-Archiver/internal/logging"
	"github.com/KASSWRH/Website-Archiver/internal/report"
	"github.com/KASSWRH/Website-Archiver/internal/storage"
)

const progressInterval = 2 * time.Second

func (a *app) newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Archive a website into a local directory",
		Long: `crawl downloads the page at <url> and every same-host page reachable
within --depth hyperlink hops, together with their stylesheets, scripts
and images. Links are rewritten to relative paths so the mirror works
offline.`,
		Example: `  archiver crawl https://example.com/
  archiver crawl -d 2 -o ./mirror --report report.md https://example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: a.runCrawl,
	}

	cmd.Flags().IntP("depth", "d", 1, "Maximum hyperlink hops from the seed page")
	cmd.Flags().Bool("assets", true, "Download stylesheets, scripts and images")
	cmd.Flags().StringP("output", "o", "", "Output directory (default is $XDG_DATA_HOME/website-archiver/archives/<host>)")
	cmd.Flags().String("report", "", "Write a Markdown report of the crawl to this file")

	a.bindFlags(cmd.Flags(), map[string]string{
		"max_depth":       "depth",
		"download_assets": "assets",
		"output_dir":      "output",
	})
	return cmd
}

func (a *app) runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
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

	outputDir, err := cfg.OutputDirFor(args[0])
	if err != nil {
		return fmt.Errorf("invalid seed URL %q: %w", args[0], config.ErrInvalidSeedURL)
	}
	job, err := crawler.NewJob(args[0], outputDir, cfg.MaxDepth, cfg.DownloadAssets)
	if err != nil {
		return err
	}
	job.ID = uuid.NewString()

	var store *storage.SQLiteStorage
	if cfg.DatabasePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0750); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
		store, err = storage.NewSQLiteStorage(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer func() { _ = store.Close() }()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Starting archive with configuration:\n")
	fmt.Fprintf(out, "  Seed URL: %s\n", job.SeedURL)
	fmt.Fprintf(out, "  Output: %s\n", job.OutputRoot)
	fmt.Fprintf(out, "  Max Depth: %d\n", job.MaxDepth)
	fmt.Fprintf(out, "  Download Assets: %t\n", job.DownloadAssets)
	fmt.Fprintf(out, "  Request Delay: %v\n", cfg.RequestDelay)
	if store != nil {
		fmt.Fprintf(out, "  Database: %s\n", cfg.DatabasePath)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap, collector, started, err := archive(ctx, job, cfg, store, logger, out)
	if err != nil {
		return err
	}
	finished := time.Now()

	printSummary(out, snap, finished.Sub(started))

	if reportPath, _ := cmd.Flags().GetString("report"); reportPath != "" {
		summary := report.NewSummary(job, snap, collector.Files(), started, finished)
		if err := writeReport(reportPath, summary); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report written to %s\n", reportPath)
	}

	if snap.Status == crawler.StatusFailed {
		return fmt.Errorf("archive failed: %s", lastError(snap))
	}
	return nil
}

// archive runs job to completion, recording to store when it is not nil
func archive(ctx context.Context, job crawler.Job, cfg *config.ArchiveConfig, store *storage.SQLiteStorage, logger *slog.Logger, out io.Writer) (crawler.Snapshot, *report.Collector, time.Time, error) {
	started := time.Now()

	var next crawler.Recorder
	if store != nil {
		if err := store.SaveJob(jobRecord(job, crawler.Snapshot{Status: crawler.StatusStarting}, started, time.Time{})); err != nil {
			return crawler.Snapshot{}, nil, started, err
		}
		next = store
	}
	collector := report.NewCollector(next)

	h, err := crawler.StartCrawl(ctx, job, cfg,
		crawler.WithLogger(logging.ForJob(logger, job.ID, job.SeedURL)),
		crawler.WithRecorder(collector),
	)
	if err != nil {
		return crawler.Snapshot{}, nil, started, fmt.Errorf("failed to start crawl: %w", err)
	}

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for done := false; !done; {
		select {
		case <-h.Done():
			done = true
		case <-ticker.C:
			s := h.Snapshot()
			fmt.Fprintf(out, "Progress: %.0f%% (%d files, %d errors)\n", s.Percent, s.FilesDownloaded, len(s.Errors))
		}
	}

	snap := h.Snapshot()
	logger.Info("Archive finished", "seed_url", job.SeedURL, "status", snap.Status, "files", snap.FilesDownloaded)

	if store != nil {
		if err := store.SaveJob(jobRecord(job, snap, started, time.Now())); err != nil {
			return snap, collector, started, err
		}
	}
	return snap, collector, started, nil
}

func jobRecord(job crawler.Job, snap crawler.Snapshot, created, finished time.Time) *crawler.JobRecord {
	return &crawler.JobRecord{
		ID:             job.ID,
		SeedURL:        job.SeedURL,
		OutputRoot:     job.OutputRoot,
		MaxDepth:       job.MaxDepth,
		DownloadAssets: job.DownloadAssets,
		Status:         snap.Status,
		Percent:        snap.Percent,
		Files:          snap.FilesDownloaded,
		TotalBytes:     snap.TotalBytes,
		CreatedAt:      created,
		FinishedAt:     finished,
	}
}

func printSummary(out io.Writer, snap crawler.Snapshot, elapsed time.Duration) {
	fmt.Fprintf(out, "Archive %s in %v\n", snap.Status, elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "  Files: %d\n", snap.FilesDownloaded)
	fmt.Fprintf(out, "  Bytes: %d\n", snap.TotalBytes)
	fmt.Fprintf(out, "  Errors: %d\n", len(snap.Errors))
	for _, e := range snap.Errors {
		fmt.Fprintf(out, "    - %s\n", e)
	}
}

func writeReport(path string, s *report.Summary) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report: %w", cerr)
		}
	}()

	if _, err := report.NewMarkdownWriter(f).Write(s); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func lastError(snap crawler.Snapshot) string {
	if len(snap.Errors) == 0 {
		return string(snap.Status)
	}
	return snap.Errors[len(snap.Errors)-1]
}
