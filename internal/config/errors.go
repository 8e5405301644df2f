package config

import "errors"

var (
	// ErrInvalidSeedURL is returned when the seed URL is not an absolute http(s) URL
	ErrInvalidSeedURL = errors.New("seed URL must be an absolute http or https URL")
	// ErrInvalidDepth is returned when max depth is negative
	ErrInvalidDepth = errors.New("max_depth must not be negative")
	// ErrInvalidTimeout is returned when request timeout is not greater than 0
	ErrInvalidTimeout = errors.New("request_timeout must be greater than 0")
	// ErrInvalidDelay is returned when request delay is negative
	ErrInvalidDelay = errors.New("request_delay must not be negative")
	// ErrInvalidConcurrency is returned when asset concurrency is not greater than 0
	ErrInvalidConcurrency = errors.New("asset_concurrency must be greater than 0")
	// ErrInvalidBodySize is returned when max body size is not greater than 0
	ErrInvalidBodySize = errors.New("max_body_size must be greater than 0")
	// ErrInvalidRunningJobs is returned when the server job limit is not greater than 0
	ErrInvalidRunningJobs = errors.New("server.max_running_jobs must be greater than 0")
	// ErrInvalidRetention is returned when a retention setting is negative
	ErrInvalidRetention = errors.New("server.max_jobs and server.retention must not be negative")
)
