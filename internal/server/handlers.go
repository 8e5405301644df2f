package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/KASSWRH/Website-Archiver/internal/config"
	"github.com/KASSWRH/Website-Archiver/internal/crawler"
	"github.com/KASSWRH/Website-Archiver/internal/jobs"
)

const (
	defaultMaxDepth = 1
	maxRequestBody  = 1 << 20
)

type errorResponse struct {
	Error string `json:"error"`
}

type scrapeRequest struct {
	URL            string `json:"url"`
	MaxDepth       *int   `json:"max_depth"`
	DownloadAssets bool   `json:"download_assets"`
}

type scrapeResponse struct {
	TaskID    string `json:"task_id"`
	StatusURL string `json:"status_url"`
}

type fileResponse struct {
	URL         string `json:"url,omitempty"`
	Path        string `json:"path"`
	Kind        string `json:"kind,omitempty"`
	StatusCode  int    `json:"status_code,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size"`
}

type resultResponse struct {
	TaskID       string     `json:"task_id"`
	SeedURL      string     `json:"seed_url"`
	DownloadPath string     `json:"download_path"`
	CreatedAt    time.Time  `json:"created_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	crawler.Snapshot
	Files []fileResponse `json:"files"`
}

// handleScrape starts a new archive job.
//
// Method: POST
// Path:   /scrape
// Body:   form fields url, max_depth, download_assets=on, or the same keys
// as JSON.
// Example:
//
//	curl -X POST -d url=https://example.com/ -d max_depth=2 -d download_assets=on http://localhost:8080/scrape
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	req, err := parseScrapeRequest(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := s.jobs.Submit(req)
	switch {
	case err == nil:
	case errors.Is(err, config.ErrInvalidSeedURL), errors.Is(err, config.ErrInvalidDepth):
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, jobs.ErrTooManyJobs):
		writeError(w, "Too many jobs in progress, try again later", http.StatusServiceUnavailable)
		return
	default:
		s.logger.Error("Failed to submit job", "url", req.URL, "error", err)
		writeError(w, "Server error occurred", http.StatusInternalServerError)
		return
	}

	writeJSON(w, scrapeResponse{TaskID: id, StatusURL: "/status/" + id}, http.StatusAccepted)
}

func parseScrapeRequest(r *http.Request) (jobs.Request, error) {
	req := jobs.Request{MaxDepth: defaultMaxDepth}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body scrapeRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return req, errors.New("invalid JSON body")
		}
		req.URL = strings.TrimSpace(body.URL)
		if body.MaxDepth != nil {
			req.MaxDepth = *body.MaxDepth
		}
		req.DownloadAssets = body.DownloadAssets
	} else {
		if err := r.ParseForm(); err != nil {
			return req, errors.New("invalid form data")
		}
		req.URL = strings.TrimSpace(r.PostForm.Get("url"))
		if v := strings.TrimSpace(r.PostForm.Get("max_depth")); v != "" {
			depth, err := strconv.Atoi(v)
			if err != nil {
				return req, errors.New("max_depth must be an integer")
			}
			req.MaxDepth = depth
		}
		req.DownloadAssets = formBool(r.PostForm.Get("download_assets"))
	}

	if req.URL == "" {
		return req, errors.New("url is required")
	}
	return req, nil
}

// formBool accepts checkbox values ("on") as well as strconv booleans
func formBool(v string) bool {
	if v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}

// handleStatus returns the progress snapshot of a job.
//
// Method: GET
// Path:   /status/{id}
// Example:
//
//	curl http://localhost:8080/status/0b9f...
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.jobs.Status(r.PathValue("id"))
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, snap, http.StatusOK)
}

// handleResults returns a job summary with the files it archived.
//
// Method: GET
// Path:   /results/{id}
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res, err := s.jobs.Result(id)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}

	resp := resultResponse{
		TaskID:       res.ID,
		SeedURL:      res.SeedURL,
		DownloadPath: "/downloads/" + res.ID + "/",
		CreatedAt:    res.CreatedAt,
		Snapshot:     res.Snapshot,
		Files:        make([]fileResponse, 0, len(res.Files)),
	}
	if !res.FinishedAt.IsZero() {
		finished := res.FinishedAt
		resp.FinishedAt = &finished
	}
	for _, f := range res.Files {
		resp.Files = append(resp.Files, fileResponse{
			URL:         f.URL,
			Path:        f.Path,
			Kind:        string(f.Kind),
			StatusCode:  f.StatusCode,
			ContentType: f.ContentType,
			Size:        f.Size,
		})
	}
	writeJSON(w, resp, http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, "Page not found", http.StatusNotFound)
}

func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, jobs.ErrJobNotFound) {
		writeError(w, "Task not found", http.StatusNotFound)
		return
	}
	s.logger.Error("Failed to load job", "error", err)
	writeError(w, "Server error occurred", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, errorResponse{Error: msg}, status)
}
