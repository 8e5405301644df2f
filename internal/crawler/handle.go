package crawler

import (
	"context"

	"github.com/KASSWRH/Website-Archiver/internal/config"
)

// Handle observes a crawl running in the background
type Handle struct {
	archiver *Archiver
	done     chan struct{}
	err      error
}

// StartCrawl starts archiving job in a new goroutine and returns at once.
// The returned handle reports status starting until the goroutine runs.
func StartCrawl(ctx context.Context, job Job, cfg *config.ArchiveConfig, opts ...Option) (*Handle, error) {
	a, err := NewArchiver(job, cfg, opts...)
	if err != nil {
		return nil, err
	}

	h := &Handle{archiver: a, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		h.err = a.Run(ctx)
	}()
	return h, nil
}

// Job returns the job being archived
func (h *Handle) Job() Job {
	return h.archiver.Job()
}

// Snapshot returns a consistent copy of the job's progress
func (h *Handle) Snapshot() Snapshot {
	return h.archiver.Snapshot()
}

// Done is closed when the crawl has finished
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the crawl finishes and returns the final snapshot
func (h *Handle) Wait() Snapshot {
	<-h.done
	return h.archiver.Snapshot()
}

// Err returns the job-level error after Done is closed
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}
