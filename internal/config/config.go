// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// JudgeURL is the base URL of the external judge engine.
	JudgeURL string `koanf:"judge_url"`

	// JudgeTimeoutMS bounds a single judge round trip in milliseconds.
	JudgeTimeoutMS int `koanf:"judge_timeout_ms"`

	// MaxUploadBytes caps the size of a file submission.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// AllowedFileTypes lists the accepted file submission extensions.
	AllowedFileTypes []string `koanf:"allowed_file_types"`

	// StorageBackend selects the artifact store: memory or s3.
	StorageBackend string `koanf:"storage_backend"`

	// S3Bucket and S3Region configure the s3 backend.
	S3Bucket string `koanf:"s3_bucket"`
	S3Region string `koanf:"s3_region"`

	// MaxLeaderboardLimit caps GET /contests/{id}/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// StreamBufferSize bounds each realtime subscriber's channel.
	StreamBufferSize int `koanf:"stream_buffer_size"`

	// SeedDemo loads a small demo contest catalog at startup.
	SeedDemo bool `koanf:"seed_demo"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		JudgeURL:            "http://localhost:9050",
		JudgeTimeoutMS:      30_000,
		MaxUploadBytes:      10 << 20,
		AllowedFileTypes:    []string{"pdf", "zip", "txt", "doc", "docx", "py", "cpp", "c", "go", "java"},
		StorageBackend:      "memory",
		MaxLeaderboardLimit: 100,
		StreamBufferSize:    8,
	}
}
