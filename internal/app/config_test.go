package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/yungbote/datagrid-backend/internal/data/db"
	"github.com/yungbote/datagrid-backend/internal/platform/objectstore"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "APP_ENV", "NODE_ENV", "DATABASE_URL", "DB_DIALECT",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASS", "DB_NAME", "DB_SSL", "SQLITE_PATH",
		"STORAGE_MODE", "UPLOAD_DIR", "UPLOAD_GCS_BUCKET_NAME", "STORAGE_EMULATOR_HOST",
		"MAX_UPLOAD_BYTES", "INGEST_BATCH_SIZE", "AI_PROVIDER", "GOOGLE_API_KEY",
		"AI_TIMEOUT_SECONDS", "REDIS_ADDR", "METRICS_ENABLED", "OTEL_ENABLED", "CORS_ORIGINS",
		"LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigSQLiteDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DIALECT", "sqlite")
	t.Setenv("CORS_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, ":4000", cfg.Addr())
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, dbpkg.DialectSQLite, cfg.DB.Dialect)
	assert.Equal(t, defaultSQLitePath, cfg.DB.DSN)
	assert.Equal(t, objectstore.ModeLocal, cfg.Storage.Mode)
	assert.Equal(t, defaultUploadDir, cfg.Storage.LocalDir)
	assert.EqualValues(t, defaultMaxUploadBytes, cfg.MaxUploadBytes)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.True(t, cfg.MetricsEnabled)
	assert.False(t, cfg.RedisEnabled())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoadConfigPostgresRequiresCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "db")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
	assert.Contains(t, err.Error(), "DB_PASS")
	assert.NotContains(t, err.Error(), "DB_HOST")

	t.Setenv("DB_USER", "grid")
	t.Setenv("DB_PASS", "secret")
	t.Setenv("DB_SSL", "true")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://grid:secret@db:5432/datagrid?sslmode=require", cfg.DB.DSN)

	t.Setenv("DATABASE_URL", "postgres://u:p@h:1/x")
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@h:1/x", cfg.DB.DSN)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "datagrid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 5050\ndb_dialect: sqlite\nnode_env: staging\nai_provider: openai\n"), 0o644))
	t.Setenv("PORT", "6060")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Port)
	assert.Equal(t, "staging", cfg.Env)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, path, cfg.ConfigSrc)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DIALECT", "mysql")
	_, err := LoadConfig("")
	assert.Error(t, err)

	t.Setenv("DB_DIALECT", "sqlite")
	t.Setenv("STORAGE_MODE", "gcs")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "UPLOAD_GCS_BUCKET_NAME")

	t.Setenv("STORAGE_MODE", "")
	t.Setenv("PORT", "70000")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "PORT")
}

func TestNewServesHealth(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DIALECT", "sqlite")
	t.Setenv("SQLITE_PATH", ":memory:")
	t.Setenv("UPLOAD_DIR", t.TempDir())
	t.Setenv("NODE_ENV", "test")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NoError(t, a.Start())

	rec := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","env":"test"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/datasets/"+"00000000-0000-0000-0000-000000000000"+"/query", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
