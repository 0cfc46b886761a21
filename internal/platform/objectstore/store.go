package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/yungbote/datagrid-backend/internal/platform/logger"
)

type Mode string

const (
	ModeLocal       Mode = "local"
	ModeGCS         Mode = "gcs"
	ModeGCSEmulator Mode = "gcs_emulator"
)

var ErrNotExist = errors.New("object does not exist")

// Store persists raw upload bytes under slash-separated keys.
type Store interface {
	// Writer streams a new object; the object is visible once Close returns nil.
	Writer(ctx context.Context, key string) (io.WriteCloser, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete is a no-op for missing objects.
	Delete(ctx context.Context, key string) error
	Mode() Mode
}

type Config struct {
	Mode         Mode
	LocalDir     string
	Bucket       string
	EmulatorHost string
	// Credentials is a service account JSON document or a path to one.
	Credentials string
}

func New(ctx context.Context, cfg Config, log *logger.Logger) (Store, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	switch normalizeMode(cfg.Mode) {
	case ModeLocal:
		return NewLocalStore(cfg.LocalDir, log)
	case ModeGCS, ModeGCSEmulator:
		return NewGCSStore(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("invalid STORAGE_MODE=%q", cfg.Mode)
	}
}

func Validate(cfg Config) error {
	switch normalizeMode(cfg.Mode) {
	case ModeLocal:
		if strings.TrimSpace(cfg.LocalDir) == "" {
			return errors.New("STORAGE_MODE=local requires UPLOAD_DIR")
		}
	case ModeGCS:
		if strings.TrimSpace(cfg.Bucket) == "" {
			return errors.New("STORAGE_MODE=gcs requires UPLOAD_GCS_BUCKET_NAME")
		}
	case ModeGCSEmulator:
		if strings.TrimSpace(cfg.Bucket) == "" {
			return errors.New("STORAGE_MODE=gcs_emulator requires UPLOAD_GCS_BUCKET_NAME")
		}
		host := strings.TrimSpace(cfg.EmulatorHost)
		if host == "" {
			return errors.New("STORAGE_MODE=gcs_emulator requires STORAGE_EMULATOR_HOST")
		}
		u, err := url.Parse(host)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", host)
		}
	default:
		return fmt.Errorf("invalid STORAGE_MODE=%q (allowed: %q, %q, %q)", cfg.Mode, ModeLocal, ModeGCS, ModeGCSEmulator)
	}
	return nil
}

func normalizeMode(m Mode) Mode {
	v := Mode(strings.ToLower(strings.TrimSpace(string(m))))
	if v == "" {
		return ModeLocal
	}
	return v
}

// CleanKey rejects keys that would escape the store root.
func CleanKey(key string) (string, error) {
	k := strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	k = strings.TrimLeft(k, "/")
	if k == "" {
		return "", errors.New("empty object key")
	}
	for _, part := range strings.Split(k, "/") {
		if part == ".." {
			return "", fmt.Errorf("invalid object key %q", key)
		}
	}
	return path.Clean(k), nil
}

// ContentTypeForKey maps the handful of extensions uploads arrive with.
func ContentTypeForKey(key string) string {
	s := strings.ToLower(key)
	switch {
	case strings.HasSuffix(s, ".csv"):
		return "text/csv"
	case strings.HasSuffix(s, ".tsv"):
		return "text/tab-separated-values"
	case strings.HasSuffix(s, ".gz"):
		return "application/gzip"
	case strings.HasSuffix(s, ".zst"):
		return "application/zstd"
	case strings.HasSuffix(s, ".txt"):
		return "text/plain"
	default:
		return ""
	}
}
