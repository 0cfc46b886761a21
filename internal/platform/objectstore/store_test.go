package objectstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/datagrid-backend/internal/platform/logger"
)

func TestLocalStoreWriteOpenDelete(t *testing.T) {
	root := t.TempDir()
	store, err := New(context.Background(), Config{Mode: ModeLocal, LocalDir: root}, logger.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	w, err := store.Writer(ctx, "uploads/2026/10/abc.csv")
	require.NoError(t, err)
	_, err = io.Copy(w, strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)

	// Not visible until committed.
	_, err = os.Stat(filepath.Join(root, "uploads", "2026", "10", "abc.csv"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, w.Close())

	r, err := store.Open(ctx, "uploads/2026/10/abc.csv")
	require.NoError(t, err)
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "a,b\n1,2\n", string(raw))

	require.NoError(t, store.Delete(ctx, "uploads/2026/10/abc.csv"))
	require.NoError(t, store.Delete(ctx, "uploads/2026/10/abc.csv"))

	_, err = store.Open(ctx, "uploads/2026/10/abc.csv")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestCleanKeyRejectsTraversal(t *testing.T) {
	_, err := CleanKey("../etc/passwd")
	assert.Error(t, err)
	_, err = CleanKey("")
	assert.Error(t, err)

	k, err := CleanKey("/uploads//x.csv")
	require.NoError(t, err)
	assert.Equal(t, "uploads/x.csv", k)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Config{LocalDir: "uploads"}))
	assert.Error(t, Validate(Config{Mode: ModeGCS}))
	assert.Error(t, Validate(Config{Mode: ModeGCSEmulator, Bucket: "b"}))
	assert.Error(t, Validate(Config{Mode: ModeGCSEmulator, Bucket: "b", EmulatorHost: "fake-gcs"}))
	assert.NoError(t, Validate(Config{Mode: ModeGCSEmulator, Bucket: "b", EmulatorHost: "http://fake-gcs:4443"}))
	assert.Error(t, Validate(Config{Mode: "s3"}))
}

func TestContentTypeForKey(t *testing.T) {
	assert.Equal(t, "text/csv", ContentTypeForKey("a/B.CSV"))
	assert.Equal(t, "application/gzip", ContentTypeForKey("a.csv.gz"))
	assert.Equal(t, "", ContentTypeForKey("a.bin"))
}
