package datasets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/datagrid-backend/internal/data/repos/testutil"
	types "github.com/yungbote/datagrid-backend/internal/domain/datasets"
	"github.com/yungbote/datagrid-backend/internal/platform/dbctx"
)

func TestDatasetRepoCreateFinalize(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewDatasetRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	created, err := repo.Create(dbc, &types.Dataset{OriginalName: "sales.csv", StoragePath: "uploads/sales.csv"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, types.StatusPending, created.Status)

	require.NoError(t, repo.Finalize(dbc, created.ID, []string{"region", "amount"}, 3))

	got, err := repo.GetByID(dbc, created.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusComplete, got.Status)
	assert.Equal(t, []string{"region", "amount"}, got.ColumnNames())
	assert.EqualValues(t, 3, got.RowCount)

	// A second finalize finds nothing pending.
	err = repo.Finalize(dbc, created.ID, []string{"x"}, 1)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestDatasetRepoMarkFailed(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewDatasetRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	ds := testutil.SeedPendingDataset(t, ctx, db, "broken.csv")
	require.NoError(t, repo.MarkFailed(dbc, ds.ID, "malformed csv"))

	got, err := repo.GetByID(dbc, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, got.Status)
	assert.Equal(t, "malformed csv", got.Error)

	err = repo.MarkFailed(dbc, uuid.New(), "nope")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestDatasetRepoListNewestFirstWithStatusFilter(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewDatasetRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	base := time.Now().UTC().Add(-time.Hour)
	for i, name := range []string{"a.csv", "b.csv", "c.csv"} {
		_, err := repo.Create(dbc, &types.Dataset{
			OriginalName: name,
			StoragePath:  "uploads/" + name,
			Status:       types.StatusComplete,
			UploadedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	testutil.SeedPendingDataset(t, ctx, db, "pending.csv")

	page, total, err := repo.List(dbc, []string{types.StatusComplete}, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "c.csv", page[0].OriginalName)
	assert.Equal(t, "b.csv", page[1].OriginalName)

	page, _, err = repo.List(dbc, []string{types.StatusComplete}, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "a.csv", page[0].OriginalName)

	_, all, err := repo.List(dbc, nil, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 4, all)
}

func TestDatasetRepoAdjustRowCount(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewDatasetRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	ds := testutil.SeedDataset(t, ctx, db, "counts.csv", []string{"a"}, map[string]any{"a": "1"})
	require.NoError(t, repo.AdjustRowCount(dbc, ds.ID, 1))
	require.NoError(t, repo.AdjustRowCount(dbc, ds.ID, 1))
	require.NoError(t, repo.AdjustRowCount(dbc, ds.ID, -1))

	got, err := repo.GetByID(dbc, ds.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.RowCount)

	err = repo.AdjustRowCount(dbc, uuid.New(), 1)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
