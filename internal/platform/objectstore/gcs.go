package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/datagrid-backend/internal/platform/logger"
)

type gcsStore struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
	mode   Mode
}

func NewGCSStore(ctx context.Context, cfg Config, log *logger.Logger) (Store, error) {
	mode := normalizeMode(cfg.Mode)
	client, err := newStorageClientForMode(ctx, mode, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	storeLog := log.With("service", "GCSObjectStore")
	storeLog.Info(
		"Object storage initialized",
		"mode", mode,
		"bucket", cfg.Bucket,
		"emulator_host", cfg.EmulatorHost,
	)
	return &gcsStore{log: storeLog, client: client, bucket: strings.TrimSpace(cfg.Bucket), mode: mode}, nil
}

func newStorageClientForMode(ctx context.Context, mode Mode, cfg Config) (*storage.Client, error) {
	switch mode {
	case ModeGCS:
		opts := clientOptions(cfg.Credentials)
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, fmt.Errorf("unsupported gcs mode %q", mode)
	}
}

func clientOptions(creds string) []option.ClientOption {
	creds = strings.TrimSpace(creds)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func (s *gcsStore) Mode() Mode { return s.mode }

// Writer aborts the upload when ctx is cancelled before Close.
func (s *gcsStore) Writer(ctx context.Context, key string) (io.WriteCloser, error) {
	k, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	w := s.client.Bucket(s.bucket).Object(k).NewWriter(ctx)
	if ct := ContentTypeForKey(k); ct != "" {
		w.ContentType = ct
	}
	return w, nil
}

func (s *gcsStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	r, err := s.client.Bucket(s.bucket).Object(k).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	return r, nil
}

func (s *gcsStore) Delete(ctx context.Context, key string) error {
	k, err := CleanKey(key)
	if err != nil {
		return err
	}
	if err := s.client.Bucket(s.bucket).Object(k).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", k, s.bucket, err)
	}
	return nil
}
