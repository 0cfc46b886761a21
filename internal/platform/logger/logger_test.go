package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeKVsRedactsAndHashes(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"api_key", "sk-live-123",
		"ip_address", "10.0.0.1",
		"dataset_id", "abc",
	})
	require.Len(t, out, 6)
	assert.Equal(t, "[REDACTED]", out[1])
	assert.True(t, strings.HasPrefix(out[3].(string), "hash:"))
	assert.Equal(t, "abc", out[5])
}

func TestSanitizeKVsOddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"rows", 3, "dangling"})
	assert.Equal(t, []interface{}{"rows", 3, "dangling"}, out)
}

func TestNewWithOptionsWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datagrid.log")
	log, err := NewWithOptions(Options{Mode: "production", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	log.Info("ingest complete", "rows", 12)
	log.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "ingest complete")
}

func TestNewWithOptionsRejectsBadLevel(t *testing.T) {
	_, err := NewWithOptions(Options{Level: "loud"})
	assert.Error(t, err)
}
