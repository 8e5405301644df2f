// Package report summarizes a finished archive run as Markdown.
package report

import (
	"sort"
	"sync"
	"time"

	"github.com/KASSWRH/Website-Archiver/internal/crawler"
)

// KindCount aggregates the files of one kind
type KindCount struct {
	Kind  crawler.FileKind
	Count int
	Bytes int64
}

// Summary is everything a report shows about one crawl
type Summary struct {
	JobID          string
	SeedURL        string
	OutputRoot     string
	MaxDepth       int
	DownloadAssets bool
	StartedAt      time.Time
	FinishedAt     time.Time
	Snapshot       crawler.Snapshot
	Kinds          []KindCount
	Files          []crawler.FileRecord
}

// NewSummary builds a summary for job from its final snapshot and the
// files it wrote
func NewSummary(job crawler.Job, snap crawler.Snapshot, files []crawler.FileRecord, started, finished time.Time) *Summary {
	return &Summary{
		JobID:          job.ID,
		SeedURL:        job.SeedURL,
		OutputRoot:     job.OutputRoot,
		MaxDepth:       job.MaxDepth,
		DownloadAssets: job.DownloadAssets,
		StartedAt:      started,
		FinishedAt:     finished,
		Snapshot:       snap,
		Kinds:          CountKinds(files),
		Files:          files,
	}
}

// CountKinds groups files by kind, ordered by kind name
func CountKinds(files []crawler.FileRecord) []KindCount {
	byKind := map[crawler.FileKind]*KindCount{}
	for _, f := range files {
		kc, ok := byKind[f.Kind]
		if !ok {
			kc = &KindCount{Kind: f.Kind}
			byKind[f.Kind] = kc
		}
		kc.Count++
		kc.Bytes += f.Size
	}

	counts := make([]KindCount, 0, len(byKind))
	for _, kc := range byKind {
		counts = append(counts, *kc)
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Kind < counts[j].Kind })
	return counts
}

// Collector is a crawler.Recorder that keeps the manifest in memory and
// forwards every call to an optional next recorder
type Collector struct {
	next crawler.Recorder

	mu     sync.Mutex
	files  map[string]crawler.FileRecord
	order  []string
	errors []string
}

var _ crawler.Recorder = (*Collector)(nil)

// NewCollector creates a collector; next may be nil
func NewCollector(next crawler.Recorder) *Collector {
	return &Collector{next: next, files: make(map[string]crawler.FileRecord)}
}

// RecordFile implements crawler.Recorder. A later record for the same URL
// replaces the earlier one.
func (c *Collector) RecordFile(jobID string, f *crawler.FileRecord) error {
	c.mu.Lock()
	if _, ok := c.files[f.URL]; !ok {
		c.order = append(c.order, f.URL)
	}
	c.files[f.URL] = *f
	c.mu.Unlock()

	if c.next != nil {
		return c.next.RecordFile(jobID, f)
	}
	return nil
}

// RecordError implements crawler.Recorder
func (c *Collector) RecordError(jobID, msg string) error {
	c.mu.Lock()
	c.errors = append(c.errors, msg)
	c.mu.Unlock()

	if c.next != nil {
		return c.next.RecordError(jobID, msg)
	}
	return nil
}

// Files returns the recorded files in the order they were first written
func (c *Collector) Files() []crawler.FileRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	files := make([]crawler.FileRecord, 0, len(c.order))
	for _, u := range c.order {
		files = append(files, c.files[u])
	}
	return files
}

// Errors returns the recorded error messages
func (c *Collector) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.errors...)
}
