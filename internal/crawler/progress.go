package crawler

import "sync"

// Progress holds the live counters of a job. Readers get copies through
// Snapshot and never observe a partially applied update.
type Progress struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewProgress returns progress in the starting state
func NewProgress() *Progress {
	return &Progress{snap: Snapshot{Status: StatusStarting, Errors: []string{}}}
}

// SetStatus moves the job to status. Terminal states are final.
func (p *Progress) SetStatus(s Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snap.Status.Finished() {
		return
	}
	p.snap.Status = s
	if s == StatusCompleted {
		p.snap.Percent = 100
	}
}

// SetPercent derives the completion estimate from the visited and queued
// counts. It is not monotonic; discovering links can lower it.
func (p *Progress) SetPercent(visited, queued int) {
	total := visited + queued
	if total == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.Percent = float64(visited) / float64(total) * 100
}

// AddFile counts one written file of size bytes
func (p *Progress) AddFile(size int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.FilesDownloaded++
	p.snap.TotalBytes += size
}

// AddError appends a human-readable error message
func (p *Progress) AddError(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.Errors = append(p.snap.Errors, msg)
}

// Snapshot returns a copy of the current progress
func (p *Progress) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := p.snap
	s.Errors = append([]string(nil), p.snap.Errors...)
	if s.Errors == nil {
		s.Errors = []string{}
	}
	return s
}
