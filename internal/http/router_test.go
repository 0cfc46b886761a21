package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/yungbote/datagrid-backend/internal/data/db"
	"github.com/yungbote/datagrid-backend/internal/data/repos"
	"github.com/yungbote/datagrid-backend/internal/data/repos/testutil"
	httpH "github.com/yungbote/datagrid-backend/internal/http/handlers"
	"github.com/yungbote/datagrid-backend/internal/ingestion"
	"github.com/yungbote/datagrid-backend/internal/observability"
	"github.com/yungbote/datagrid-backend/internal/platform/objectstore"
	"github.com/yungbote/datagrid-backend/internal/realtime"
	"github.com/yungbote/datagrid-backend/internal/services"
)

type echoGenerator struct{ prompts []string }

func (g *echoGenerator) Name() string { return "echo" }

func (g *echoGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return `{"answer": "north"}`, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *echoGenerator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	store, err := objectstore.NewLocalStore(t.TempDir(), log)
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	hub := realtime.NewSSEHub(log)
	events := realtime.NewEmitter(hub, nil, log)
	tx := dbpkg.NewGormTxRunner(db)
	datasetRepo := repos.NewDatasetRepo(db, log)
	rowRepo := repos.NewRowRepo(db, log)
	uploadRepo := repos.NewUploadRepo(db, log)
	downloadRepo := repos.NewDownloadRepo(db, log)
	gen := &echoGenerator{}

	pipeline := ingestion.NewPipeline(log, tx, datasetRepo, rowRepo, uploadRepo, store, events, metrics, ingestion.Options{})
	r := NewRouter(RouterConfig{
		Log:             log,
		Metrics:         metrics,
		HealthHandler:   httpH.NewHealthHandler("test"),
		UploadHandler:   httpH.NewUploadHandler(log, pipeline, 1<<20),
		DatasetHandler:  httpH.NewDatasetHandler(log, services.NewDatasetService(log, tx, datasetRepo, rowRepo, events, metrics)),
		QueryHandler:    httpH.NewQueryHandler(log, services.NewQueryService(log, datasetRepo, rowRepo, gen)),
		UploadsHandler:  httpH.NewUploadsHandler(log, services.NewUploadService(log, uploadRepo, downloadRepo, store)),
		RealtimeHandler: httpH.NewRealtimeHandler(log, hub),
	})
	return r, gen
}

func do(t *testing.T, r http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, r http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return do(t, r, method, path, body, "application/json")
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func uploadCSV(t *testing.T, r http.Handler, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "ignored"))
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return do(t, r, http.MethodPost, "/api/upload-file", &buf, mw.FormDataContentType())
}

func TestHealthEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/healthcheck", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = do(t, r, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, map[string]any{"status": "ok", "env": "test"}, decode(t, rec))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = do(t, r, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "datagrid_http_requests_total")
}

func TestUploadPreviewEditQueryFlow(t *testing.T) {
	r, gen := newTestRouter(t)

	rec := uploadCSV(t, r, "sales.csv", "region,amount\nnorth,10\nsouth,20\n")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	up := decode(t, rec)
	assert.Equal(t, "File uploaded and ingested.", up["message"])
	assert.EqualValues(t, 2, up["rowCount"])
	assert.Equal(t, []any{"region", "amount"}, up["columns"])
	assert.Len(t, up["hash"], 64)
	datasetID := up["datasetId"].(string)
	fileID := up["fileId"].(string)

	rec = do(t, r, http.MethodGet, "/api/datasets", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)
	assert.EqualValues(t, 1, list["total"])
	assert.EqualValues(t, 1, list["page"])
	assert.EqualValues(t, 20, list["limit"])

	rec = do(t, r, http.MethodGet, "/api/datasets/"+datasetID+"/preview?limit=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	preview := decode(t, rec)
	assert.EqualValues(t, 2, preview["rowCount"])
	rows := preview["rows"].([]any)
	require.Len(t, rows, 1)
	first := rows[0].(map[string]any)
	assert.Equal(t, "north", first["region"])
	rowID := first["id"].(string)

	rec = doJSON(t, r, http.MethodPost, "/api/datasets/"+datasetID+"/rows", map[string]any{"data": map[string]any{"region": "east", "amount": 5}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	added := decode(t, rec)["row"].(map[string]any)
	assert.Equal(t, "east", added["region"])
	assert.EqualValues(t, 5, added["amount"])

	rec = doJSON(t, r, http.MethodPatch, "/api/datasets/"+datasetID+"/rows/"+rowID, map[string]any{"data": map[string]any{"amount": "11"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decode(t, rec)["row"].(map[string]any)
	assert.Equal(t, "north", patched["region"])
	assert.Equal(t, "11", patched["amount"])
	assert.Equal(t, rowID, patched["id"])

	rec = do(t, r, http.MethodDelete, "/api/datasets/"+datasetID+"/rows/"+rowID, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/datasets/"+datasetID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	ds := decode(t, rec)["dataset"].(map[string]any)
	assert.EqualValues(t, 2, ds["row_count"])

	rec = doJSON(t, r, http.MethodPost, "/api/datasets/"+datasetID+"/query", map[string]any{"query": "top region?", "top_k": 10})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ans := decode(t, rec)
	assert.Equal(t, map[string]any{"answer": "north"}, ans["answer"])
	assert.Equal(t, `{"answer": "north"}`, ans["raw"])
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Dataset: sales.csv (rows: 2)")

	rec = do(t, r, http.MethodGet, "/api/uploads/"+fileID+"/download", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "region,amount\nnorth,10\nsouth,20\n", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename=sales.csv`)

	rec = do(t, r, http.MethodGet, "/api/uploads/"+fileID+"/downloads", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["downloads"], 1)
}

func TestErrorEnvelope(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/api/datasets/"+uuid.NewString()+"/preview", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decode(t, rec)["error"].(map[string]any)
	assert.Equal(t, "dataset_not_found", env["code"])
	assert.NotEmpty(t, env["message"])

	rec = do(t, r, http.MethodGet, "/api/datasets/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_dataset_id", decode(t, rec)["error"].(map[string]any)["code"])

	rec = uploadCSV(t, r, "bad.csv", "a,b\n1\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "malformed_csv", decode(t, rec)["error"].(map[string]any)["code"])

	rec = do(t, r, http.MethodGet, "/api/datasets?include_pending=true", nil, "")
	list := decode(t, rec)
	assert.EqualValues(t, 1, list["total"])
	failed := list["datasets"].([]any)[0].(map[string]any)
	assert.Equal(t, "failed", failed["status"])

	rec = do(t, r, http.MethodGet, "/api/datasets", nil, "")
	assert.EqualValues(t, 0, decode(t, rec)["total"])

	rec = doJSON(t, r, http.MethodPost, "/api/datasets/"+uuid.NewString()+"/query", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "query_required", decode(t, rec)["error"].(map[string]any)["code"])
}
