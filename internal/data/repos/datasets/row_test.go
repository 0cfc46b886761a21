package datasets

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/datagrid-backend/internal/data/repos/testutil"
	types "github.com/yungbote/datagrid-backend/internal/domain/datasets"
	"github.com/yungbote/datagrid-backend/internal/platform/dbctx"
)

func TestRowRepoBatchInsertKeepsOrder(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewRowRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	ds := testutil.SeedPendingDataset(t, ctx, db, "ordered.csv")
	rows := make([]*types.Row, 0, 5)
	for i := 5; i >= 1; i-- {
		rows = append(rows, &types.Row{
			DatasetID: ds.ID,
			Position:  int64(i),
			Data:      map[string]any{"n": string(rune('a' + i - 1))},
		})
	}
	require.NoError(t, repo.CreateBatch(dbc, rows))

	got, err := repo.ListByDataset(dbc, ds.ID, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.EqualValues(t, 1, got[0].Position)
	assert.Equal(t, "a", got[0].Data["n"])
	assert.EqualValues(t, 3, got[2].Position)

	n, err := repo.CountByDataset(dbc, ds.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	maxPos, err := repo.MaxPosition(dbc, ds.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, maxPos)
}

func TestRowRepoMaxPositionEmptyDataset(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewRowRepo(db, testutil.Logger(t))

	ds := testutil.SeedPendingDataset(t, ctx, db, "empty.csv")
	maxPos, err := repo.MaxPosition(dbctx.Context{Ctx: ctx}, ds.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, maxPos)
}

func TestRowRepoUpdateAndDelete(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewRowRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	ds := testutil.SeedDataset(t, ctx, db, "edit.csv", []string{"a", "b"})
	row := testutil.SeedRow(t, ctx, db, ds.ID, 1, map[string]any{"a": "1", "b": "2"})

	require.NoError(t, repo.UpdateData(dbc, row.ID, map[string]any{"a": "1", "b": "9"}))
	got, err := repo.GetByID(dbc, row.ID)
	require.NoError(t, err)
	assert.Equal(t, "9", got.Data["b"])

	require.NoError(t, repo.Delete(dbc, row.ID))
	_, err = repo.GetByID(dbc, row.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	assert.True(t, errors.Is(repo.Delete(dbc, row.ID), gorm.ErrRecordNotFound))
	assert.True(t, errors.Is(repo.UpdateData(dbc, uuid.New(), nil), gorm.ErrRecordNotFound))
}

func TestRowRepoGetByIDForUpdateInTx(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewRowRepo(db, testutil.Logger(t))

	ds := testutil.SeedDataset(t, ctx, db, "lock.csv", []string{"a"})
	row := testutil.SeedRow(t, ctx, db, ds.ID, 1, map[string]any{"a": "1"})

	err := db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		got, err := repo.GetByIDForUpdate(dbc, row.ID)
		require.NoError(t, err)
		assert.Equal(t, "1", got.Data["a"])
		require.NoError(t, repo.UpdateData(dbc, row.ID, map[string]any{"a": "2"}))

		_, err = repo.GetByIDForUpdate(dbc, uuid.New())
		assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
		return nil
	})
	require.NoError(t, err)

	got, err := repo.GetByID(dbctx.Context{Ctx: ctx}, row.ID)
	require.NoError(t, err)
	assert.Equal(t, "2", got.Data["a"])
}
