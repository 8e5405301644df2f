package crawler

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/KASSWRH/Website-Archiver/internal/config"
)

// Job describes a single archive run
type Job struct {
	ID             string // Registry identifier, empty for ad-hoc crawls
	SeedURL        string // First page to visit
	Domain         string // Host (with port) pages and assets must match
	Scheme         string // Scheme of the seed URL
	MaxDepth       int    // Hyperlink hops followed from the seed
	DownloadAssets bool   // Fetch stylesheets, scripts and images
	OutputRoot     string // Local directory receiving the mirror
}

// NewJob validates the seed URL and derives the crawl domain from it
func NewJob(seedURL, outputRoot string, maxDepth int, downloadAssets bool) (Job, error) {
	u, err := url.Parse(strings.TrimSpace(seedURL))
	if err != nil {
		return Job{}, fmt.Errorf("invalid seed URL %q: %w", seedURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Job{}, fmt.Errorf("invalid seed URL %q: %w", seedURL, config.ErrInvalidSeedURL)
	}
	if maxDepth < 0 {
		return Job{}, config.ErrInvalidDepth
	}
	if outputRoot == "" {
		return Job{}, ErrNoOutputRoot
	}

	return Job{
		SeedURL:        u.String(),
		Domain:         u.Host,
		Scheme:         u.Scheme,
		MaxDepth:       maxDepth,
		DownloadAssets: downloadAssets,
		OutputRoot:     outputRoot,
	}, nil
}

// Status is the lifecycle state of a job
type Status string

// Job lifecycle: starting -> running -> completed | failed
const (
	StatusStarting  Status = "starting"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Finished reports whether the status is terminal
func (s Status) Finished() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Snapshot is a consistent copy of a job's progress
type Snapshot struct {
	Status          Status   `json:"status"`
	Percent         float64  `json:"progress"`
	FilesDownloaded int      `json:"files_downloaded"`
	TotalBytes      int64    `json:"total_size"`
	Errors          []string `json:"errors"`
}

// FetchOutcome classifies the result of a fetch
type FetchOutcome int

const (
	// OutcomeSuccess means a 2xx response was received
	OutcomeSuccess FetchOutcome = iota
	// OutcomeHTTPError means a response with a non-2xx status was received
	OutcomeHTTPError
	// OutcomeTransportError means no response was received
	OutcomeTransportError
)

func (o FetchOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeHTTPError:
		return "http_error"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// FetchResult is the outcome of retrieving one URL
type FetchResult struct {
	URL          string // Requested URL
	FinalURL     string // URL after following redirects
	Outcome      FetchOutcome
	StatusCode   int
	ContentType  string
	Body         []byte
	Err          error // Set for OutcomeTransportError
	TTFB         time.Duration
	DownloadTime time.Duration
}

// FileKind says how an archived file was produced
type FileKind string

const (
	KindPage        FileKind = "page"
	KindAsset       FileKind = "asset"
	KindPlaceholder FileKind = "placeholder"
)

// FileRecord describes one file written under the output root
type FileRecord struct {
	URL          string        // Canonical URL the file mirrors
	Path         string        // Slash-separated path relative to the output root
	Kind         FileKind      // page, asset or placeholder
	StatusCode   int           // HTTP status, 0 after a transport error
	ContentType  string        // HTTP Content-Type header
	Size         int64         // Bytes written
	TTFB         time.Duration // Time to first byte
	DownloadTime time.Duration // Total download time
	SavedAt      time.Time     // UTC
}

// JobRecord is the persisted summary of a job
type JobRecord struct {
	ID             string
	SeedURL        string
	OutputRoot     string
	MaxDepth       int
	DownloadAssets bool
	Status         Status
	Percent        float64
	Files          int
	TotalBytes     int64
	CreatedAt      time.Time
	FinishedAt     time.Time // Zero while the job is running
}
