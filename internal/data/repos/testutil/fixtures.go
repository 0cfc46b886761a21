package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/datagrid-backend/internal/domain/datasets"
)

// SeedDataset inserts a complete dataset holding one row per payload.
func SeedDataset(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, columns []string, payloads ...map[string]any) *types.Dataset {
	tb.Helper()
	ds := &types.Dataset{
		ID:           uuid.New(),
		OriginalName: name,
		StoragePath:  "uploads/test/" + name,
		Columns:      datatypes.JSONSlice[string](columns),
		RowCount:     int64(len(payloads)),
		Status:       types.StatusComplete,
		UploadedAt:   time.Now().UTC(),
	}
	if ds.Columns == nil {
		ds.Columns = datatypes.JSONSlice[string]{}
	}
	if err := tx.WithContext(ctx).Create(ds).Error; err != nil {
		tb.Fatalf("seed dataset: %v", err)
	}
	for i, p := range payloads {
		SeedRow(tb, ctx, tx, ds.ID, int64(i+1), p)
	}
	return ds
}

func SeedPendingDataset(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Dataset {
	tb.Helper()
	ds := &types.Dataset{
		ID:           uuid.New(),
		OriginalName: name,
		StoragePath:  "uploads/test/" + name,
		Columns:      datatypes.JSONSlice[string]{},
		Status:       types.StatusPending,
		UploadedAt:   time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(ds).Error; err != nil {
		tb.Fatalf("seed pending dataset: %v", err)
	}
	return ds
}

func SeedRow(tb testing.TB, ctx context.Context, tx *gorm.DB, datasetID uuid.UUID, position int64, data map[string]any) *types.Row {
	tb.Helper()
	if data == nil {
		data = map[string]any{}
	}
	row := &types.Row{
		ID:        uuid.New(),
		DatasetID: datasetID,
		Position:  position,
		Data:      datatypes.JSONMap(data),
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed row: %v", err)
	}
	return row
}

func SeedUpload(tb testing.TB, ctx context.Context, tx *gorm.DB, datasetID uuid.UUID, storagePath string) *types.Upload {
	tb.Helper()
	up := &types.Upload{
		ID:           uuid.New(),
		DatasetID:    PtrUUID(datasetID),
		OriginalName: "data.csv",
		StoragePath:  storagePath,
		FileSize:     12,
		MimeType:     "text/csv",
		Hash:         "deadbeef",
		UploadedAt:   time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(up).Error; err != nil {
		tb.Fatalf("seed upload: %v", err)
	}
	return up
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

