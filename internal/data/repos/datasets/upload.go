package datasets

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/datagrid-backend/internal/domain/datasets"
	"github.com/yungbote/datagrid-backend/internal/platform/dbctx"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
)

type UploadRepo interface {
	Create(dbc dbctx.Context, upload *types.Upload) (*types.Upload, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Upload, error)
	GetByDatasetID(dbc dbctx.Context, datasetID uuid.UUID) (*types.Upload, error)
	GetByHash(dbc dbctx.Context, hash string) ([]*types.Upload, error)
}

type uploadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUploadRepo(db *gorm.DB, baseLog *logger.Logger) UploadRepo {
	repoLog := baseLog.With("repo", "UploadRepo")
	return &uploadRepo{db: db, log: repoLog}
}

func (r *uploadRepo) Create(dbc dbctx.Context, upload *types.Upload) (*types.Upload, error) {
	if upload.ID == uuid.Nil {
		upload.ID = uuid.New()
	}
	if upload.UploadedAt.IsZero() {
		upload.UploadedAt = time.Now().UTC()
	}
	if err := dbc.Conn(r.db).Create(upload).Error; err != nil {
		return nil, err
	}
	return upload, nil
}

func (r *uploadRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Upload, error) {
	var out types.Upload
	if err := dbc.Conn(r.db).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *uploadRepo) GetByDatasetID(dbc dbctx.Context, datasetID uuid.UUID) (*types.Upload, error) {
	var out types.Upload
	if err := dbc.Conn(r.db).
		Where("dataset_id = ?", datasetID).
		Order("uploaded_at DESC").
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *uploadRepo) GetByHash(dbc dbctx.Context, hash string) ([]*types.Upload, error) {
	results := []*types.Upload{}
	if hash == "" {
		return results, nil
	}
	if err := dbc.Conn(r.db).
		Where("hash = ?", hash).
		Order("uploaded_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
