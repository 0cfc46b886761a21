package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	dbpkg "github.com/yungbote/datagrid-backend/internal/data/db"
	"github.com/yungbote/datagrid-backend/internal/data/repos"
	types "github.com/yungbote/datagrid-backend/internal/domain/datasets"
	"github.com/yungbote/datagrid-backend/internal/observability"
	"github.com/yungbote/datagrid-backend/internal/platform/apierr"
	"github.com/yungbote/datagrid-backend/internal/platform/dbctx"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
	"github.com/yungbote/datagrid-backend/internal/realtime"
)

const (
	DefaultListLimit    = 20
	MaxListLimit        = 100
	DefaultPreviewLimit = 200
	MaxPreviewLimit     = 1000
)

type DatasetService interface {
	ListDatasets(ctx context.Context, params ListDatasetsParams) (*DatasetPage, error)
	GetDataset(ctx context.Context, id uuid.UUID) (*types.Dataset, error)
	PreviewDataset(ctx context.Context, id uuid.UUID, limit int) (*DatasetPreview, error)
	AddRow(ctx context.Context, datasetID uuid.UUID, payload map[string]any) (*types.Row, error)
	UpdateRow(ctx context.Context, datasetID, rowID uuid.UUID, patch map[string]any) (*types.Row, error)
	DeleteRow(ctx context.Context, datasetID, rowID uuid.UUID) error
}

type ListDatasetsParams struct {
	Page           int
	Limit          int
	IncludePending bool
}

type DatasetPage struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
	Datasets []*types.Dataset `json:"datasets"`
}

type DatasetPreview struct {
	Columns  []string         `json:"columns"`
	RowCount int64            `json:"rowCount"`
	Rows     []map[string]any `json:"rows"`
}

type datasetService struct {
	log      *logger.Logger
	tx       dbpkg.TxRunner
	datasets repos.DatasetRepo
	rows     repos.RowRepo
	events   realtime.Emitter
	metrics  *observability.Metrics
}

func NewDatasetService(
	baseLog *logger.Logger,
	tx dbpkg.TxRunner,
	datasetRepo repos.DatasetRepo,
	rowRepo repos.RowRepo,
	events realtime.Emitter,
	metrics *observability.Metrics,
) DatasetService {
	if events == nil {
		events = realtime.NopEmitter{}
	}
	return &datasetService{
		log:      baseLog.With("service", "DatasetService"),
		tx:       tx,
		datasets: datasetRepo,
		rows:     rowRepo,
		events:   events,
		metrics:  metrics,
	}
}

func (s *datasetService) ListDatasets(ctx context.Context, params ListDatasetsParams) (*DatasetPage, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	statuses := []string{types.StatusComplete}
	if params.IncludePending {
		statuses = nil
	}
	list, total, err := s.datasets.List(dbctx.New(ctx), statuses, (page-1)*limit, limit)
	if err != nil {
		return nil, apierr.Storage("dataset_list_failed", fmt.Errorf("list datasets: %w", err))
	}
	return &DatasetPage{Total: total, Page: page, Limit: limit, Datasets: list}, nil
}

func (s *datasetService) GetDataset(ctx context.Context, id uuid.UUID) (*types.Dataset, error) {
	ds, err := s.datasets.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, datasetLookupError(id, err)
	}
	return ds, nil
}

func (s *datasetService) PreviewDataset(ctx context.Context, id uuid.UUID, limit int) (*DatasetPreview, error) {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	if limit > MaxPreviewLimit {
		limit = MaxPreviewLimit
	}
	dbc := dbctx.New(ctx)
	ds, err := s.completeDataset(dbc, id, false)
	if err != nil {
		return nil, err
	}
	rows, err := s.rows.ListByDataset(dbc, id, limit)
	if err != nil {
		return nil, apierr.Storage("row_list_failed", fmt.Errorf("list rows: %w", err))
	}
	flat := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		flat = append(flat, r.Flatten())
	}
	return &DatasetPreview{Columns: ds.ColumnNames(), RowCount: ds.RowCount, Rows: flat}, nil
}

// AddRow appends a row after the current last position and bumps the
// dataset count in the same transaction.
func (s *datasetService) AddRow(ctx context.Context, datasetID uuid.UUID, payload map[string]any) (*types.Row, error) {
	if err := ValidatePayload(payload); err != nil {
		return nil, err
	}
	var created *types.Row
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if _, err := s.completeDataset(dbc, datasetID, true); err != nil {
			return err
		}
		maxPos, err := s.rows.MaxPosition(dbc, datasetID)
		if err != nil {
			return fmt.Errorf("next position: %w", err)
		}
		row, err := s.rows.Create(dbc, &types.Row{
			ID:        uuid.New(),
			DatasetID: datasetID,
			Position:  maxPos + 1,
			Data:      datatypes.JSONMap(copyPayload(payload)),
		})
		if err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
		if err := s.datasets.AdjustRowCount(dbc, datasetID, 1); err != nil {
			return fmt.Errorf("increment row count: %w", err)
		}
		created = row
		return nil
	})
	if err != nil {
		s.metrics.ObserveRowMutation("add", "error")
		return nil, storageOr(err, "row_add_failed")
	}
	s.metrics.ObserveRowMutation("add", "ok")
	s.emitRow(ctx, realtime.SSEEventDatasetRowAdded, created)
	return created, nil
}

// UpdateRow shallow-merges patch into the stored payload.
func (s *datasetService) UpdateRow(ctx context.Context, datasetID, rowID uuid.UUID, patch map[string]any) (*types.Row, error) {
	if err := ValidatePayload(patch); err != nil {
		return nil, err
	}
	var updated *types.Row
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if _, err := s.completeDataset(dbc, datasetID, true); err != nil {
			return err
		}
		row, err := s.ownedRow(dbc, datasetID, rowID)
		if err != nil {
			return err
		}
		merged := make(map[string]any, len(row.Data)+len(patch))
		for k, v := range row.Data {
			merged[k] = v
		}
		for k, v := range patch {
			merged[k] = v
		}
		if err := s.rows.UpdateData(dbc, rowID, merged); err != nil {
			return fmt.Errorf("update row: %w", err)
		}
		row.Data = datatypes.JSONMap(merged)
		row.UpdatedAt = time.Now().UTC()
		updated = row
		return nil
	})
	if err != nil {
		s.metrics.ObserveRowMutation("update", "error")
		return nil, storageOr(err, "row_update_failed")
	}
	s.metrics.ObserveRowMutation("update", "ok")
	s.emitRow(ctx, realtime.SSEEventDatasetRowUpdated, updated)
	return updated, nil
}

func (s *datasetService) DeleteRow(ctx context.Context, datasetID, rowID uuid.UUID) error {
	var deleted *types.Row
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if _, err := s.completeDataset(dbc, datasetID, true); err != nil {
			return err
		}
		row, err := s.ownedRow(dbc, datasetID, rowID)
		if err != nil {
			return err
		}
		if err := s.rows.Delete(dbc, rowID); err != nil {
			return fmt.Errorf("delete row: %w", err)
		}
		if err := s.datasets.AdjustRowCount(dbc, datasetID, -1); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("decrement row count: %w", err)
		}
		deleted = row
		return nil
	})
	if err != nil {
		s.metrics.ObserveRowMutation("delete", "error")
		return storageOr(err, "row_delete_failed")
	}
	s.metrics.ObserveRowMutation("delete", "ok")
	s.emitRow(ctx, realtime.SSEEventDatasetRowDeleted, deleted)
	return nil
}

// completeDataset loads the dataset and hides anything not fully ingested.
func (s *datasetService) completeDataset(dbc dbctx.Context, id uuid.UUID, lock bool) (*types.Dataset, error) {
	var (
		ds  *types.Dataset
		err error
	)
	if lock {
		ds, err = s.datasets.GetByIDForUpdate(dbc, id)
	} else {
		ds, err = s.datasets.GetByID(dbc, id)
	}
	if err != nil {
		return nil, datasetLookupError(id, err)
	}
	if !ds.IsComplete() {
		return nil, apierr.NotFound("dataset_not_found", fmt.Errorf("dataset %s is %s", id, ds.Status))
	}
	return ds, nil
}

// ownedRow locks the row so concurrent merges serialize on it. Callers lock
// the dataset first.
func (s *datasetService) ownedRow(dbc dbctx.Context, datasetID, rowID uuid.UUID) (*types.Row, error) {
	row, err := s.rows.GetByIDForUpdate(dbc, rowID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("row_not_found", errors.New("row not found"))
	}
	if err != nil {
		return nil, fmt.Errorf("load row: %w", err)
	}
	if row.DatasetID != datasetID {
		return nil, apierr.OwnershipMismatch("row_dataset_mismatch", errors.New("row does not belong to dataset"))
	}
	return row, nil
}

func (s *datasetService) emitRow(ctx context.Context, event realtime.SSEEvent, row *types.Row) {
	if row == nil {
		return
	}
	s.events.Emit(context.WithoutCancel(ctx), realtime.SSEMessage{
		Channel: row.DatasetID.String(),
		Event:   event,
		Data:    map[string]any{"dataset_id": row.DatasetID, "row": row.Flatten()},
	})
}

func datasetLookupError(id uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierr.NotFound("dataset_not_found", errors.New("dataset not found"))
	}
	return apierr.Storage("dataset_lookup_failed", fmt.Errorf("load dataset %s: %w", id, err))
}

// storageOr passes API errors through and wraps anything else as a storage failure.
func storageOr(err error, code string) error {
	if _, ok := apierr.As(err); ok {
		return err
	}
	return apierr.Storage(code, err)
}

func copyPayload(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
