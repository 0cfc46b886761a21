package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/datagrid-backend/internal/platform/logger"
	"github.com/yungbote/datagrid-backend/internal/platform/objectstore"
)

var newObjectStore = objectstore.New

type StorageBootstrapErrorCode string

const (
	StorageBootstrapErrorInvalidConfig StorageBootstrapErrorCode = "invalid_config"
	StorageBootstrapErrorConnectFailed StorageBootstrapErrorCode = "connect_failed"
)

type StorageBootstrapError struct {
	Code  StorageBootstrapErrorCode
	Mode  string
	Cause error
}

func (e *StorageBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf("object storage bootstrap failed (code=%s mode=%q): %v", e.Code, e.Mode, e.Cause)
}

func (e *StorageBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func resolveObjectStore(ctx context.Context, log *logger.Logger, cfg objectstore.Config) (objectstore.Store, error) {
	if err := objectstore.Validate(cfg); err != nil {
		bootErr := &StorageBootstrapError{Code: StorageBootstrapErrorInvalidConfig, Mode: string(cfg.Mode), Cause: err}
		log.Error("Object storage provider selection failed", "mode", cfg.Mode, "error_code", bootErr.Code, "error", err)
		return nil, bootErr
	}

	log.Info("Selecting object storage provider",
		"mode", cfg.Mode,
		"local_dir", cfg.LocalDir,
		"bucket", cfg.Bucket,
		"emulator_host", cfg.EmulatorHost,
	)

	store, err := newObjectStore(ctx, cfg, log)
	if err != nil {
		bootErr := &StorageBootstrapError{Code: StorageBootstrapErrorConnectFailed, Mode: string(cfg.Mode), Cause: err}
		log.Error("Object storage provider bootstrap failed", "mode", cfg.Mode, "error_code", bootErr.Code, "error", err)
		return nil, bootErr
	}
	return store, nil
}

func storageBootstrapErrorCode(err error) StorageBootstrapErrorCode {
	var bootErr *StorageBootstrapError
	if errors.As(err, &bootErr) && bootErr.Code != "" {
		return bootErr.Code
	}
	return StorageBootstrapErrorConnectFailed
}
