package datasets

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/datagrid-backend/internal/domain/datasets"
	"github.com/yungbote/datagrid-backend/internal/platform/dbctx"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
)

type RowRepo interface {
	CreateBatch(dbc dbctx.Context, rows []*types.Row) error
	Create(dbc dbctx.Context, row *types.Row) (*types.Row, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Row, error)
	// GetByIDForUpdate locks the row until the transaction ends.
	GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Row, error)
	ListByDataset(dbc dbctx.Context, datasetID uuid.UUID, limit int) ([]*types.Row, error)
	CountByDataset(dbc dbctx.Context, datasetID uuid.UUID) (int64, error)
	MaxPosition(dbc dbctx.Context, datasetID uuid.UUID) (int64, error)
	UpdateData(dbc dbctx.Context, id uuid.UUID, data map[string]any) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type rowRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRowRepo(db *gorm.DB, baseLog *logger.Logger) RowRepo {
	repoLog := baseLog.With("repo", "RowRepo")
	return &rowRepo{db: db, log: repoLog}
}

// CreateBatch inserts all rows in a single statement.
func (r *rowRepo) CreateBatch(dbc dbctx.Context, rows []*types.Row) error {
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		normalizeRow(row)
	}
	return dbc.Conn(r.db).CreateInBatches(rows, len(rows)).Error
}

func (r *rowRepo) Create(dbc dbctx.Context, row *types.Row) (*types.Row, error) {
	normalizeRow(row)
	if err := dbc.Conn(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *rowRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Row, error) {
	var out types.Row
	if err := dbc.Conn(r.db).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *rowRepo) GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Row, error) {
	var out types.Row
	if err := dbc.Conn(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *rowRepo) ListByDataset(dbc dbctx.Context, datasetID uuid.UUID, limit int) ([]*types.Row, error) {
	results := []*types.Row{}
	q := dbc.Conn(r.db).
		Where("dataset_id = ?", datasetID).
		Order("position ASC").
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *rowRepo) CountByDataset(dbc dbctx.Context, datasetID uuid.UUID) (int64, error) {
	var n int64
	if err := dbc.Conn(r.db).
		Model(&types.Row{}).
		Where("dataset_id = ?", datasetID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *rowRepo) MaxPosition(dbc dbctx.Context, datasetID uuid.UUID) (int64, error) {
	var maxPos int64
	row := dbc.Conn(r.db).
		Model(&types.Row{}).
		Where("dataset_id = ?", datasetID).
		Select("COALESCE(MAX(position), 0)").
		Row()
	if err := row.Scan(&maxPos); err != nil {
		return 0, err
	}
	return maxPos, nil
}

func (r *rowRepo) UpdateData(dbc dbctx.Context, id uuid.UUID, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	res := dbc.Conn(r.db).
		Model(&types.Row{}).
		Where("id = ?", id).
		Update("data", datatypes.JSONMap(data))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *rowRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.Conn(r.db).Where("id = ?", id).Delete(&types.Row{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func normalizeRow(row *types.Row) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Data == nil {
		row.Data = datatypes.JSONMap{}
	}
}
