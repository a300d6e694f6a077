package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if VERDICT_CONFIG is set
//  3. env (prefix VERDICT_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("VERDICT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: VERDICT_ADDR, VERDICT_JUDGE_URL, ...
	// Map env keys like VERDICT_JUDGE_URL -> judge_url (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("VERDICT_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "verdict_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.JudgeURL == "" {
		return fmt.Errorf("%w: judge_url must not be empty", ErrInvalidConfig)
	}
	if c.JudgeTimeoutMS <= 0 {
		return fmt.Errorf("%w: judge_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}
	switch c.StorageBackend {
	case "memory":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("%w: s3_bucket required for s3 backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage_backend %q", ErrInvalidConfig, c.StorageBackend)
	}
	return nil
}

// AllowedFileType reports whether ext (without a leading dot) is accepted.
func (c *Config) AllowedFileType(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, t := range c.AllowedFileTypes {
		if ext == t {
			return true
		}
	}
	return false
}
