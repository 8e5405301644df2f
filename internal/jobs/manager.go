// Package jobs keeps the registry of archive jobs started through the
// server: it assigns IDs, bounds how many crawls run at once, exposes
// progress snapshots and evicts finished jobs after a retention period.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/KASSWRH/Website-Archiver/internal/config"
	"github.com/KASSWRH/Website-Archiver/internal/crawler"
	"github.com/KASSWRH/Website-Archiver/internal/logging"
)

var (
	// ErrJobNotFound is returned for unknown job IDs
	ErrJobNotFound = errors.New("job not found")
	// ErrTooManyJobs is returned when the registry is full of unfinished jobs
	ErrTooManyJobs = errors.New("too many unfinished jobs")
)

// Store persists job summaries and manifests
type Store interface {
	crawler.Recorder
	SaveJob(job *crawler.JobRecord) error
	DeleteJob(id string) error
	ListFiles(jobID string) ([]crawler.FileRecord, error)
}

// Request holds the parameters of a new job
type Request struct {
	URL            string
	MaxDepth       int
	DownloadAssets bool
}

// Result describes a job together with the files it produced
type Result struct {
	ID         string
	SeedURL    string
	OutputRoot string
	CreatedAt  time.Time
	FinishedAt time.Time
	Snapshot   crawler.Snapshot
	Files      []crawler.FileRecord
}

type entry struct {
	mu         sync.Mutex
	job        crawler.Job
	createdAt  time.Time
	finishedAt time.Time
	handle     *crawler.Handle
	failed     *crawler.Snapshot // set when the job ended before its crawl started
}

func (e *entry) snapshot() crawler.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.failed != nil:
		s := *e.failed
		s.Errors = append([]string(nil), e.failed.Errors...)
		return s
	case e.handle != nil:
		return e.handle.Snapshot()
	default:
		return crawler.Snapshot{Status: crawler.StatusStarting, Errors: []string{}}
	}
}

func (e *entry) finished() (bool, time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.finishedAt.IsZero(), e.finishedAt
}

// Manager runs archive jobs in the background
type Manager struct {
	ctx    context.Context
	cfg    *config.ArchiveConfig
	store  Store
	logger *slog.Logger
	sem    *semaphore.Weighted
	now    func() time.Time
	opts   []crawler.Option

	mu   sync.RWMutex
	jobs map[string]*entry
	wg   sync.WaitGroup
}

// NewManager creates a manager whose crawls run until ctx ends. store may
// be nil, in which case nothing is persisted.
func NewManager(ctx context.Context, cfg *config.ArchiveConfig, store Store, logger *slog.Logger, opts ...crawler.Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		ctx:    ctx,
		cfg:    cfg,
		store:  store,
		logger: logger,
		sem:    semaphore.NewWeighted(int64(cfg.Server.MaxRunningJobs)),
		now:    time.Now,
		opts:   opts,
		jobs:   make(map[string]*entry),
	}
}

// Submit registers a job and starts it once a running slot is free
func (m *Manager) Submit(req Request) (string, error) {
	id := uuid.NewString()
	job, err := crawler.NewJob(req.URL, filepath.Join(m.cfg.Server.DownloadsDir, id), req.MaxDepth, req.DownloadAssets)
	if err != nil {
		return "", err
	}
	job.ID = id

	m.Prune()

	e := &entry{job: job, createdAt: m.now()}

	var evicted *entry
	m.mu.Lock()
	if m.cfg.Server.MaxJobs > 0 && len(m.jobs) >= m.cfg.Server.MaxJobs {
		if evicted = m.evictOldestLocked(); evicted == nil {
			m.mu.Unlock()
			return "", ErrTooManyJobs
		}
	}
	m.jobs[id] = e
	m.mu.Unlock()

	if evicted != nil {
		m.cleanup(evicted)
	}

	m.persist(e)
	m.logger.Info("Job submitted", "job_id", id, "seed_url", job.SeedURL, "max_depth", job.MaxDepth, "download_assets", job.DownloadAssets)

	m.wg.Add(1)
	go m.run(e)

	return id, nil
}

func (m *Manager) run(e *entry) {
	defer m.wg.Done()

	if err := m.sem.Acquire(m.ctx, 1); err != nil {
		m.fail(e, fmt.Sprintf("Scraping error: %v", crawler.ErrCancelled))
		return
	}
	defer m.sem.Release(1)

	opts := append([]crawler.Option{
		crawler.WithLogger(logging.ForJob(m.logger, e.job.ID, e.job.SeedURL)),
	}, m.opts...)
	if m.store != nil {
		opts = append(opts, crawler.WithRecorder(m.store))
	}

	h, err := crawler.StartCrawl(m.ctx, e.job, m.cfg, opts...)
	if err != nil {
		m.fail(e, fmt.Sprintf("Scraping error: %v", err))
		return
	}

	e.mu.Lock()
	e.handle = h
	e.mu.Unlock()

	snap := h.Wait()

	e.mu.Lock()
	e.finishedAt = m.now()
	e.mu.Unlock()

	m.persist(e)
	m.logger.Info("Job finished", "job_id", e.job.ID, "status", snap.Status, "files", snap.FilesDownloaded, "bytes", snap.TotalBytes)
}

func (m *Manager) fail(e *entry, msg string) {
	e.mu.Lock()
	e.failed = &crawler.Snapshot{Status: crawler.StatusFailed, Errors: []string{msg}}
	e.finishedAt = m.now()
	e.mu.Unlock()

	m.logger.Error("Job failed", "job_id", e.job.ID, "error", msg)
	m.persist(e)
	if m.store != nil {
		if err := m.store.RecordError(e.job.ID, msg); err != nil {
			m.logger.Warn("Failed to record job error", "job_id", e.job.ID, "error", err)
		}
	}
}

func (m *Manager) persist(e *entry) {
	if m.store == nil {
		return
	}
	snap := e.snapshot()
	_, finishedAt := e.finished()
	rec := &crawler.JobRecord{
		ID:             e.job.ID,
		SeedURL:        e.job.SeedURL,
		OutputRoot:     e.job.OutputRoot,
		MaxDepth:       e.job.MaxDepth,
		DownloadAssets: e.job.DownloadAssets,
		Status:         snap.Status,
		Percent:        snap.Percent,
		Files:          snap.FilesDownloaded,
		TotalBytes:     snap.TotalBytes,
		CreatedAt:      e.createdAt,
		FinishedAt:     finishedAt,
	}
	if err := m.store.SaveJob(rec); err != nil {
		m.logger.Warn("Failed to persist job", "job_id", e.job.ID, "error", err)
	}
}

// Status returns the progress snapshot of a job
func (m *Manager) Status(id string) (crawler.Snapshot, error) {
	e, ok := m.get(id)
	if !ok {
		return crawler.Snapshot{}, ErrJobNotFound
	}
	return e.snapshot(), nil
}

// Result returns a job with the list of files it wrote. Files come from
// the store when there is one, otherwise from the output directory.
func (m *Manager) Result(id string) (*Result, error) {
	e, ok := m.get(id)
	if !ok {
		return nil, ErrJobNotFound
	}

	_, finishedAt := e.finished()
	res := &Result{
		ID:         id,
		SeedURL:    e.job.SeedURL,
		OutputRoot: e.job.OutputRoot,
		CreatedAt:  e.createdAt,
		FinishedAt: finishedAt,
		Snapshot:   e.snapshot(),
	}

	var err error
	if m.store != nil {
		res.Files, err = m.store.ListFiles(id)
	} else {
		res.Files, err = scanOutput(e.job.OutputRoot)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// IDs returns the registered job IDs, oldest first
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.jobs))
	for id := range m.jobs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.jobs[ids[i]].createdAt.Before(m.jobs[ids[j]].createdAt)
	})
	return ids
}

// Prune evicts finished jobs older than the retention period and returns
// how many were removed
func (m *Manager) Prune() int {
	retention := m.cfg.Server.Retention
	if retention <= 0 {
		return 0
	}
	cutoff := m.now().Add(-retention)

	m.mu.Lock()
	var evicted []*entry
	for id, e := range m.jobs {
		if done, at := e.finished(); done && at.Before(cutoff) {
			delete(m.jobs, id)
			evicted = append(evicted, e)
		}
	}
	m.mu.Unlock()

	for _, e := range evicted {
		m.cleanup(e)
	}
	return len(evicted)
}

// evictOldestLocked removes the oldest finished job from the registry and
// returns it, or nil if every job is unfinished; m.mu must be held
func (m *Manager) evictOldestLocked() *entry {
	var oldest *entry
	for _, e := range m.jobs {
		done, at := e.finished()
		if !done {
			continue
		}
		if oldest == nil {
			oldest = e
			continue
		}
		if _, oldestAt := oldest.finished(); at.Before(oldestAt) {
			oldest = e
		}
	}
	if oldest != nil {
		delete(m.jobs, oldest.job.ID)
	}
	return oldest
}

func (m *Manager) cleanup(e *entry) {
	m.logger.Info("Evicting job", "job_id", e.job.ID)
	if m.store != nil {
		if err := m.store.DeleteJob(e.job.ID); err != nil {
			m.logger.Warn("Failed to delete job record", "job_id", e.job.ID, "error", err)
		}
	}
	if m.cfg.Server.RemoveArtifacts {
		if err := os.RemoveAll(e.job.OutputRoot); err != nil {
			m.logger.Warn("Failed to remove job output", "job_id", e.job.ID, "error", err)
		}
	}
}

// RunJanitor prunes expired jobs every interval until ctx ends
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Prune(); n > 0 {
				m.logger.Info("Pruned expired jobs", "count", n)
			}
		}
	}
}

// Wait blocks until every submitted job has finished
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) get(id string) (*entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.jobs[id]
	return e, ok
}

// scanOutput lists the regular files below root
func scanOutput(root string) ([]crawler.FileRecord, error) {
	var files []crawler.FileRecord
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, crawler.FileRecord{
			Path:    filepath.ToSlash(rel),
			Size:    info.Size(),
			SavedAt: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list output: %w", err)
	}
	return files, nil
}
