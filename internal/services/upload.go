package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/datagrid-backend/internal/data/repos"
	types "github.com/yungbote/datagrid-backend/internal/domain/datasets"
	"github.com/yungbote/datagrid-backend/internal/platform/apierr"
	"github.com/yungbote/datagrid-backend/internal/platform/dbctx"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
	"github.com/yungbote/datagrid-backend/internal/platform/objectstore"
)

type UploadService interface {
	GetUpload(ctx context.Context, id uuid.UUID) (*types.Upload, error)
	OpenDownload(ctx context.Context, id uuid.UUID, ip string) (*DownloadFile, error)
	ListDownloads(ctx context.Context, uploadID uuid.UUID) ([]*types.Download, error)
}

// DownloadFile is an open stored upload. Callers must close Body.
type DownloadFile struct {
	Body     io.ReadCloser
	Name     string
	MimeType string
	Size     int64
}

type uploadService struct {
	log       *logger.Logger
	uploads   repos.UploadRepo
	downloads repos.DownloadRepo
	store     objectstore.Store
}

func NewUploadService(baseLog *logger.Logger, uploadRepo repos.UploadRepo, downloadRepo repos.DownloadRepo, store objectstore.Store) UploadService {
	return &uploadService{
		log:       baseLog.With("service", "UploadService"),
		uploads:   uploadRepo,
		downloads: downloadRepo,
		store:     store,
	}
}

func (s *uploadService) GetUpload(ctx context.Context, id uuid.UUID) (*types.Upload, error) {
	up, err := s.uploads.GetByID(dbctx.New(ctx), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("upload_not_found", errors.New("upload not found"))
	}
	if err != nil {
		return nil, apierr.Storage("upload_lookup_failed", fmt.Errorf("load upload %s: %w", id, err))
	}
	return up, nil
}

// OpenDownload opens the stored object and records the download. Missing
// objects are not recorded.
func (s *uploadService) OpenDownload(ctx context.Context, id uuid.UUID, ip string) (*DownloadFile, error) {
	up, err := s.GetUpload(ctx, id)
	if err != nil {
		return nil, err
	}
	body, err := s.store.Open(ctx, up.StoragePath)
	if errors.Is(err, objectstore.ErrNotExist) {
		return nil, apierr.NotFound("upload_object_missing", errors.New("stored file not found"))
	}
	if err != nil {
		return nil, apierr.Storage("storage_read_failed", fmt.Errorf("open %s: %w", up.StoragePath, err))
	}

	if _, err := s.downloads.Create(dbctx.New(ctx), &types.Download{
		UploadID:     up.ID,
		DownloadedAt: time.Now().UTC(),
		IPAddress:    ip,
	}); err != nil {
		_ = body.Close()
		return nil, apierr.Storage("download_record_failed", fmt.Errorf("record download: %w", err))
	}
	s.log.Info("Upload downloaded", "upload_id", up.ID, "ip_address", ip)

	mime := up.MimeType
	if mime == "" {
		mime = objectstore.ContentTypeForKey(up.StoragePath)
	}
	return &DownloadFile{Body: body, Name: up.OriginalName, MimeType: mime, Size: up.FileSize}, nil
}

func (s *uploadService) ListDownloads(ctx context.Context, uploadID uuid.UUID) ([]*types.Download, error) {
	if _, err := s.GetUpload(ctx, uploadID); err != nil {
		return nil, err
	}
	list, err := s.downloads.ListByUpload(dbctx.New(ctx), uploadID)
	if err != nil {
		return nil, apierr.Storage("download_list_failed", fmt.Errorf("list downloads: %w", err))
	}
	return list, nil
}
