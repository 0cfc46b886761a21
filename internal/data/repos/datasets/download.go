package datasets

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/datagrid-backend/internal/domain/datasets"
	"github.com/yungbote/datagrid-backend/internal/platform/dbctx"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
)

type DownloadRepo interface {
	Create(dbc dbctx.Context, download *types.Download) (*types.Download, error)
	ListByUpload(dbc dbctx.Context, uploadID uuid.UUID) ([]*types.Download, error)
}

type downloadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDownloadRepo(db *gorm.DB, baseLog *logger.Logger) DownloadRepo {
	repoLog := baseLog.With("repo", "DownloadRepo")
	return &downloadRepo{db: db, log: repoLog}
}

func (r *downloadRepo) Create(dbc dbctx.Context, download *types.Download) (*types.Download, error) {
	if download.DownloadedAt.IsZero() {
		download.DownloadedAt = time.Now().UTC()
	}
	if err := dbc.Conn(r.db).Create(download).Error; err != nil {
		return nil, err
	}
	return download, nil
}

func (r *downloadRepo) ListByUpload(dbc dbctx.Context, uploadID uuid.UUID) ([]*types.Download, error) {
	results := []*types.Download{}
	if err := dbc.Conn(r.db).
		Where("upload_id = ?", uploadID).
		Order("downloaded_at DESC").
		Order("id DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
