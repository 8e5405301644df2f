package crawler

import (
	"context"
	"errors"
)

var (
	// ErrNoOutputRoot is returned when a job has no output directory
	ErrNoOutputRoot = errors.New("output root is required")
	// ErrJobRunning is returned when Run is called twice on one Archiver
	ErrJobRunning = errors.New("crawl already started")
	// ErrCancelled is reported when the crawl context ends before the queue drains
	ErrCancelled = errors.New("crawl cancelled")
)

// Crawler runs one archive job
type Crawler interface {
	Run(ctx context.Context) error
	Snapshot() Snapshot
}

// Fetcher retrieves a URL. It never returns nil; transport failures are
// reported through FetchResult.Outcome.
type Fetcher interface {
	Fetch(ctx context.Context, url string) *FetchResult
}

// Recorder persists the manifest of an archive run
type Recorder interface {
	RecordFile(jobID string, file *FileRecord) error
	RecordError(jobID string, message string) error
}

type nopRecorder struct{}

func (nopRecorder) RecordFile(string, *FileRecord) error { return nil }
func (nopRecorder) RecordError(string, string) error     { return nil }
