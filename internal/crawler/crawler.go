// Package crawler archives a website: it walks same-domain pages breadth
// first up to a depth limit, rewrites their links to point at the local
// mirror, and downloads the stylesheets, scripts and images they use.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/KASSWRH/Website-Archiver/internal/config"
	"github.com/KASSWRH/Website-Archiver/internal/mirror"
	"github.com/KASSWRH/Website-Archiver/internal/parser"
)

// ErrOutsideRoot is returned when a URL maps to a path escaping the output root
var ErrOutsideRoot = errors.New("mapped path escapes output root")

// Archiver implements the Crawler interface for one Job
type Archiver struct {
	job              Job
	fetcher          Fetcher
	rateLimiter      *RateLimiter
	canon            *mirror.Canonicalizer
	rewriter         *parser.LinkRewriter
	recorder         Recorder
	logger           *slog.Logger
	assetConcurrency int
	statsInterval    time.Duration

	frontier *Frontier
	progress *Progress
	started  atomic.Bool
	closer   func()
}

var _ Crawler = (*Archiver)(nil)

// Option customizes an Archiver
type Option func(*Archiver)

// WithLogger sets the logger used for the job
func WithLogger(l *slog.Logger) Option {
	return func(a *Archiver) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithRecorder sets the manifest recorder
func WithRecorder(r Recorder) Option {
	return func(a *Archiver) {
		if r != nil {
			a.recorder = r
		}
	}
}

// WithFetcher replaces the HTTP fetcher
func WithFetcher(f Fetcher) Option {
	return func(a *Archiver) {
		if f != nil {
			a.fetcher = f
			a.closer = nil
		}
	}
}

// WithCanonicalizer replaces the URL canonicalizer
func WithCanonicalizer(c *mirror.Canonicalizer) Option {
	return func(a *Archiver) {
		if c != nil {
			a.canon = c
		}
	}
}

// WithStatsInterval sets how often progress is logged; 0 disables it
func WithStatsInterval(d time.Duration) Option {
	return func(a *Archiver) {
		a.statsInterval = d
	}
}

// NewArchiver creates an archiver for job using the crawl settings in cfg
func NewArchiver(job Job, cfg *config.ArchiveConfig, opts ...Option) (*Archiver, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if job.OutputRoot == "" {
		return nil, ErrNoOutputRoot
	}
	if job.Domain == "" {
		return nil, fmt.Errorf("job has no domain: %w", config.ErrInvalidSeedURL)
	}

	client := NewHTTPClient(cfg.UserAgent, cfg.RequestTimeout, cfg.MaxBodySize)
	a := &Archiver{
		job:              job,
		fetcher:          client,
		rateLimiter:      NewRateLimiter(cfg.RequestDelay),
		canon:            mirror.NewCanonicalizer(nil),
		recorder:         nopRecorder{},
		logger:           slog.Default(),
		assetConcurrency: cfg.AssetConcurrency,
		statsInterval:    10 * time.Second,
		frontier:         NewFrontier(),
		progress:         NewProgress(),
		closer:           client.Close,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.rewriter = parser.NewLinkRewriter(job.Domain, a.canon)

	return a, nil
}

// Job returns the job being archived
func (a *Archiver) Job() Job {
	return a.job
}

// Snapshot returns a consistent copy of the job's progress
func (a *Archiver) Snapshot() Snapshot {
	return a.progress.Snapshot()
}

// Run crawls until the queue drains or ctx ends. Per-URL failures are
// recorded in the progress error list; Run only returns an error when the
// whole job failed, in which case the status is failed as well.
func (a *Archiver) Run(ctx context.Context) (err error) {
	if !a.started.CompareAndSwap(false, true) {
		return ErrJobRunning
	}
	if a.closer != nil {
		defer a.closer()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			msg := fmt.Sprintf("Scraping error: %v", err)
			a.logger.Error("Archive failed", "error", err)
			a.addError(msg)
			a.progress.SetStatus(StatusFailed)
			return
		}
		a.progress.SetStatus(StatusCompleted)
		snap := a.progress.Snapshot()
		a.logger.Info("Archive completed", "files", snap.FilesDownloaded, "bytes", snap.TotalBytes, "errors", len(snap.Errors))
	}()

	a.progress.SetStatus(StatusRunning)
	a.logger.Info("Starting archive", "seed_url", a.job.SeedURL, "max_depth", a.job.MaxDepth, "output", a.job.OutputRoot)

	if err := os.MkdirAll(a.job.OutputRoot, 0755); err != nil {
		return fmt.Errorf("failed to create output root: %w", err)
	}

	reportCtx, stopReport := context.WithCancel(ctx)
	defer stopReport()
	if a.statsInterval > 0 {
		go a.statsReporter(reportCtx)
	}

	a.frontier.Push(Entry{URL: a.job.SeedURL, Depth: 0})

	for {
		if ctx.Err() != nil {
			return ErrCancelled
		}

		entry, ok := a.frontier.Pop()
		if !ok {
			break
		}
		a.processEntry(ctx, entry)
		a.frontier.Done()

		visited, queued := a.frontier.Counts()
		a.progress.SetPercent(visited, queued)
	}

	return nil
}

// processEntry claims and archives one queued page
func (a *Archiver) processEntry(ctx context.Context, entry Entry) {
	pageURL, err := a.canon.Canonicalize(entry.URL)
	if err != nil {
		a.logger.Warn("Skipping malformed URL", "url", entry.URL, "error", err)
		return
	}
	if !a.sameDomain(pageURL) {
		return
	}
	if !a.frontier.Visit(pageURL) {
		return
	}

	if err := a.processPage(ctx, pageURL, entry.Depth); err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return
		}
		a.logger.Error("Failed to process page", "url", pageURL, "error", err)
		a.addError(fmt.Sprintf("Error processing %s: %v", pageURL, err))
		if _, saveErr := a.save(pageURL, ProcessingErrorPage(pageURL, err), KindPlaceholder, nil); saveErr != nil {
			a.logger.Error("Failed to write error page", "url", pageURL, "error", saveErr)
		}
	}
}

// processPage fetches one page and stores it. Non-200 responses are
// replaced by an error page and are not an error of processPage.
func (a *Archiver) processPage(ctx context.Context, pageURL string, depth int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if err := a.rateLimiter.Wait(ctx, pageURL); err != nil {
		return err
	}

	res := a.fetcher.Fetch(ctx, pageURL)
	if res.Outcome == OutcomeTransportError {
		return res.Err
	}

	if res.StatusCode != 200 {
		a.logger.Warn("Page returned error status", "url", pageURL, "status", res.StatusCode)
		a.addError(fmt.Sprintf("Failed to fetch %s: HTTP %d", pageURL, res.StatusCode))
		_, err := a.save(pageURL, StatusErrorPage(pageURL, res.StatusCode), KindPlaceholder, res)
		return err
	}

	if !isHTML(res.ContentType) {
		_, err := a.save(pageURL, res.Body, KindPage, res)
		return err
	}

	doc, err := parser.Parse(res.Body, res.FinalURL)
	if err != nil {
		return err
	}
	rewritten := a.rewriter.Rewrite(doc, pageURL)

	if depth < a.job.MaxDepth {
		a.enqueueLinks(doc.Links(), depth+1)
	}
	if a.job.DownloadAssets {
		a.fetchAssets(ctx, doc.Assets())
	}

	out, err := doc.Render()
	if err != nil {
		return err
	}
	size, err := a.save(pageURL, out, KindPage, res)
	if err != nil {
		return err
	}

	a.logger.Info("Archived page", "url", pageURL, "depth", depth, "title", doc.Title(), "rewritten", rewritten, "bytes", size)
	return nil
}

// enqueueLinks queues same-domain links that have not been visited yet
func (a *Archiver) enqueueLinks(links []string, depth int) {
	queued := 0
	for _, link := range links {
		if !a.sameDomain(link) {
			continue
		}
		canonical, err := a.canon.Canonicalize(link)
		if err != nil || a.frontier.Visited(canonical) {
			continue
		}
		a.frontier.Push(Entry{URL: canonical, Depth: depth})
		queued++
	}
	a.logger.Debug("Queued links", "found", len(links), "queued", queued, "depth", depth)
}

// save writes data to the mapped path of canonicalURL and records it
func (a *Archiver) save(canonicalURL string, data []byte, kind FileKind, res *FetchResult) (int64, error) {
	rel, err := mirror.MapPath(canonicalURL)
	if err != nil {
		return 0, err
	}
	full, err := a.localPath(rel)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return 0, err
	}

	size := int64(len(data))
	a.progress.AddFile(size)

	rec := &FileRecord{
		URL:     canonicalURL,
		Path:    rel,
		Kind:    kind,
		Size:    size,
		SavedAt: time.Now().UTC(),
	}
	if res != nil {
		rec.StatusCode = res.StatusCode
		rec.ContentType = res.ContentType
		rec.TTFB = res.TTFB
		rec.DownloadTime = res.DownloadTime
	}
	if err := a.recorder.RecordFile(a.job.ID, rec); err != nil {
		a.logger.Warn("Failed to record file", "url", canonicalURL, "error", err)
	}

	return size, nil
}

// localPath joins rel to the output root, refusing paths that leave it
func (a *Archiver) localPath(rel string) (string, error) {
	root := filepath.Clean(a.job.OutputRoot)
	full := filepath.Join(root, filepath.FromSlash(rel))
	r, err := filepath.Rel(root, full)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}
	return full, nil
}

func (a *Archiver) addError(msg string) {
	a.progress.AddError(msg)
	if err := a.recorder.RecordError(a.job.ID, msg); err != nil {
		a.logger.Warn("Failed to record error", "error", err)
	}
}

func (a *Archiver) sameDomain(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Host == a.job.Domain
}

// statsReporter periodically logs progress
func (a *Archiver) statsReporter(ctx context.Context) {
	ticker := time.NewTicker(a.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := a.progress.Snapshot()
			visited, queued := a.frontier.Counts()
			a.logger.Info("Archive progress",
				"progress", fmt.Sprintf("%.1f", snap.Percent),
				"visited", visited,
				"queued", queued,
				"files", snap.FilesDownloaded,
				"bytes", snap.TotalBytes,
				"errors", len(snap.Errors),
				"frontier", a.frontier.State().String())
		}
	}
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
