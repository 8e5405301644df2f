// Package storage persists archive manifests in SQLite: the jobs that ran,
// the files each job wrote, and the errors it reported.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/KASSWRH/Website-Archiver/internal/crawler"
	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a job does not exist
var ErrNotFound = errors.New("not found")

const timeLayout = time.RFC3339Nano

// SQLiteStorage implements crawler.Recorder and the job store
type SQLiteStorage struct {
	db *sql.DB
}

var _ crawler.Recorder = (*SQLiteStorage)(nil)

// KindStat aggregates files of one kind
type KindStat struct {
	Kind  crawler.FileKind
	Count int
	Bytes int64
}

// NewSQLiteStorage opens (creating if needed) the manifest database
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single long-lived connection; connection-scoped pragmas such as
	// foreign_keys are applied once in InitSchema.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	storage := &SQLiteStorage{db: db}
	if err := storage.InitSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// InitSchema applies pragmas and creates the schema
func (s *SQLiteStorage) InitSchema() error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 30000",
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// SaveJob inserts or updates a job summary
func (s *SQLiteStorage) SaveJob(job *crawler.JobRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO jobs (
			id, seed_url, output_root, max_depth, download_assets,
			status, progress, files_downloaded, total_bytes, created_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			progress = excluded.progress,
			files_downloaded = excluded.files_downloaded,
			total_bytes = excluded.total_bytes,
			finished_at = excluded.finished_at
	`,
		job.ID,
		job.SeedURL,
		job.OutputRoot,
		job.MaxDepth,
		job.DownloadAssets,
		string(job.Status),
		job.Percent,
		job.Files,
		job.TotalBytes,
		formatTime(job.CreatedAt),
		nullTime(job.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

// GetJob loads a job summary by ID
func (s *SQLiteStorage) GetJob(id string) (*crawler.JobRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, seed_url, output_root, max_depth, download_assets,
			status, progress, files_downloaded, total_bytes, created_at, finished_at
		FROM jobs WHERE id = ?
	`, id)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return job, nil
}

// ListJobs returns all jobs, newest first
func (s *SQLiteStorage) ListJobs() ([]*crawler.JobRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, seed_url, output_root, max_depth, download_assets,
			status, progress, files_downloaded, total_bytes, created_at, finished_at
		FROM jobs ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []*crawler.JobRecord
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// DeleteJob removes a job with its files and errors
func (s *SQLiteStorage) DeleteJob(id string) error {
	if _, err := s.db.Exec("DELETE FROM jobs WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	return nil
}

// RecordFile implements crawler.Recorder. A file rewritten for the same
// URL replaces the earlier row.
func (s *SQLiteStorage) RecordFile(jobID string, f *crawler.FileRecord) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO files (
			job_id, url, path, kind, status_code, content_type,
			size_bytes, ttfb_ms, download_time_ms, saved_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		jobID,
		f.URL,
		f.Path,
		string(f.Kind),
		f.StatusCode,
		f.ContentType,
		f.Size,
		f.TTFB.Milliseconds(),
		f.DownloadTime.Milliseconds(),
		formatTime(f.SavedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record file %s: %w", f.URL, err)
	}
	return nil
}

// RecordError implements crawler.Recorder
func (s *SQLiteStorage) RecordError(jobID, message string) error {
	_, err := s.db.Exec(
		"INSERT INTO job_errors (job_id, message, occurred_at) VALUES (?, ?, ?)",
		jobID, message, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to record error: %w", err)
	}
	return nil
}

// ListFiles returns the files of a job ordered by path
func (s *SQLiteStorage) ListFiles(jobID string) ([]crawler.FileRecord, error) {
	rows, err := s.db.Query(`
		SELECT url, path, kind, status_code, content_type, size_bytes, ttfb_ms, download_time_ms, saved_at
		FROM files WHERE job_id = ? ORDER BY path
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []crawler.FileRecord
	for rows.Next() {
		var (
			f           crawler.FileRecord
			kind        string
			statusCode  sql.NullInt64
			contentType sql.NullString
			ttfbMS      sql.NullInt64
			downloadMS  sql.NullInt64
			savedAt     string
		)
		if err := rows.Scan(&f.URL, &f.Path, &kind, &statusCode, &contentType, &f.Size, &ttfbMS, &downloadMS, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		f.Kind = crawler.FileKind(kind)
		f.StatusCode = int(statusCode.Int64)
		f.ContentType = contentType.String
		f.TTFB = time.Duration(ttfbMS.Int64) * time.Millisecond
		f.DownloadTime = time.Duration(downloadMS.Int64) * time.Millisecond
		f.SavedAt = parseTime(savedAt)
		files = append(files, f)
	}
	return files, rows.Err()
}

// ListErrors returns the error messages of a job in reporting order
func (s *SQLiteStorage) ListErrors(jobID string) ([]string, error) {
	rows, err := s.db.Query("SELECT message FROM job_errors WHERE job_id = ? ORDER BY id", jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list errors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, fmt.Errorf("failed to scan error: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// FileStats returns per-kind counts and sizes for a job
func (s *SQLiteStorage) FileStats(jobID string) ([]KindStat, error) {
	rows, err := s.db.Query("SELECT kind, count, bytes FROM job_file_stats WHERE job_id = ? ORDER BY kind", jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []KindStat
	for rows.Next() {
		var (
			st   KindStat
			kind string
		)
		if err := rows.Scan(&kind, &st.Count, &st.Bytes); err != nil {
			return nil, fmt.Errorf("failed to scan file stats: %w", err)
		}
		st.Kind = crawler.FileKind(kind)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*crawler.JobRecord, error) {
	var (
		job        crawler.JobRecord
		status     string
		createdAt  string
		finishedAt sql.NullString
	)
	err := row.Scan(
		&job.ID,
		&job.SeedURL,
		&job.OutputRoot,
		&job.MaxDepth,
		&job.DownloadAssets,
		&status,
		&job.Percent,
		&job.Files,
		&job.TotalBytes,
		&createdAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Status = crawler.Status(status)
	job.CreatedAt = parseTime(createdAt)
	if finishedAt.Valid {
		job.FinishedAt = parseTime(finishedAt.String)
	}
	return &job, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
