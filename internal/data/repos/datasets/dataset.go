package datasets

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/datagrid-backend/internal/domain/datasets"
	"github.com/yungbote/datagrid-backend/internal/platform/dbctx"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
)

type DatasetRepo interface {
	Create(dbc dbctx.Context, dataset *types.Dataset) (*types.Dataset, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Dataset, error)
	// GetByIDForUpdate locks the dataset row for the rest of the transaction.
	GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Dataset, error)
	List(dbc dbctx.Context, statuses []string, offset, limit int) ([]*types.Dataset, int64, error)
	Finalize(dbc dbctx.Context, id uuid.UUID, columns []string, rowCount int64) error
	MarkFailed(dbc dbctx.Context, id uuid.UUID, reason string) error
	AdjustRowCount(dbc dbctx.Context, id uuid.UUID, delta int64) error
}

type datasetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDatasetRepo(db *gorm.DB, baseLog *logger.Logger) DatasetRepo {
	repoLog := baseLog.With("repo", "DatasetRepo")
	return &datasetRepo{db: db, log: repoLog}
}

func (r *datasetRepo) Create(dbc dbctx.Context, dataset *types.Dataset) (*types.Dataset, error) {
	if dataset.ID == uuid.Nil {
		dataset.ID = uuid.New()
	}
	if dataset.Columns == nil {
		dataset.Columns = datatypes.JSONSlice[string]{}
	}
	if dataset.Status == "" {
		dataset.Status = types.StatusPending
	}
	if dataset.UploadedAt.IsZero() {
		dataset.UploadedAt = time.Now().UTC()
	}
	if err := dbc.Conn(r.db).Create(dataset).Error; err != nil {
		return nil, err
	}
	return dataset, nil
}

func (r *datasetRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Dataset, error) {
	var out types.Dataset
	if err := dbc.Conn(r.db).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *datasetRepo) GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Dataset, error) {
	var out types.Dataset
	if err := dbc.Conn(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *datasetRepo) List(dbc dbctx.Context, statuses []string, offset, limit int) ([]*types.Dataset, int64, error) {
	q := dbc.Conn(r.db).Model(&types.Dataset{})
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	results := []*types.Dataset{}
	if total == 0 {
		return results, 0, nil
	}
	if err := q.
		Order("uploaded_at DESC").
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// Finalize only transitions pending datasets; anything else reports not found.
func (r *datasetRepo) Finalize(dbc dbctx.Context, id uuid.UUID, columns []string, rowCount int64) error {
	if columns == nil {
		columns = []string{}
	}
	res := dbc.Conn(r.db).
		Model(&types.Dataset{}).
		Where("id = ? AND status = ?", id, types.StatusPending).
		Updates(map[string]interface{}{
			"columns":    datatypes.JSONSlice[string](columns),
			"row_count":  rowCount,
			"status":     types.StatusComplete,
			"error":      "",
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *datasetRepo) MarkFailed(dbc dbctx.Context, id uuid.UUID, reason string) error {
	res := dbc.Conn(r.db).
		Model(&types.Dataset{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     types.StatusFailed,
			"error":      reason,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *datasetRepo) AdjustRowCount(dbc dbctx.Context, id uuid.UUID, delta int64) error {
	res := dbc.Conn(r.db).
		Model(&types.Dataset{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"row_count":  gorm.Expr("row_count + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
