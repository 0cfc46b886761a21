package ingestion

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	dbpkg "github.com/yungbote/datagrid-backend/internal/data/db"
	"github.com/yungbote/datagrid-backend/internal/data/repos"
	types "github.com/yungbote/datagrid-backend/internal/domain/datasets"
	"github.com/yungbote/datagrid-backend/internal/observability"
	"github.com/yungbote/datagrid-backend/internal/platform/apierr"
	"github.com/yungbote/datagrid-backend/internal/platform/ctxutil"
	"github.com/yungbote/datagrid-backend/internal/platform/dbctx"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
	"github.com/yungbote/datagrid-backend/internal/platform/objectstore"
	"github.com/yungbote/datagrid-backend/internal/realtime"
)

const (
	readBufferSize = 64 << 10
	sniffLen       = 3072
	cleanupTimeout = 30 * time.Second
)

// Source is one raw upload.
type Source struct {
	Reader       io.Reader
	OriginalName string
	// MimeType is the client-declared type; sniffed when empty or generic.
	MimeType string
}

type Result struct {
	Dataset *types.Dataset
	Upload  *types.Upload
	Batches int
}

type FinalizeInput struct {
	DatasetID    uuid.UUID
	Columns      []string
	RowCount     int64
	OriginalName string
	StoragePath  string
	FileSize     int64
	MimeType     string
	Hash         string
}

type Options struct {
	BatchSize int
}

type Pipeline struct {
	log      *logger.Logger
	tx       dbpkg.TxRunner
	datasets repos.DatasetRepo
	rows     repos.RowRepo
	uploads  repos.UploadRepo
	store    objectstore.Store
	events   realtime.Emitter
	metrics  *observability.Metrics

	batchSize int
	now       func() time.Time
}

func NewPipeline(
	log *logger.Logger,
	tx dbpkg.TxRunner,
	datasetRepo repos.DatasetRepo,
	rowRepo repos.RowRepo,
	uploadRepo repos.UploadRepo,
	store objectstore.Store,
	events realtime.Emitter,
	metrics *observability.Metrics,
	opts Options,
) *Pipeline {
	if events == nil {
		events = realtime.NopEmitter{}
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Pipeline{
		log:       log.With("service", "IngestionPipeline"),
		tx:        tx,
		datasets:  datasetRepo,
		rows:      rowRepo,
		uploads:   uploadRepo,
		store:     store,
		events:    events,
		metrics:   metrics,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// StorageKey places uploads under uploads/<yyyy>/<mm>/<dataset-id><ext>.
func StorageKey(datasetID uuid.UUID, originalName string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("uploads/%04d/%02d/%s%s", at.Year(), int(at.Month()), datasetID, storageExt(originalName))
}

func storageExt(name string) string {
	base := strings.ToLower(filepath.Base(strings.TrimSpace(name)))
	ext := filepath.Ext(base)
	if compressionFor(base) != compressionNone {
		if inner := filepath.Ext(strings.TrimSuffix(base, ext)); inner != "" {
			return inner + ext
		}
		return ext
	}
	if ext == "" || ext == "." {
		return ".csv"
	}
	return ext
}

func displayName(name string) string {
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "upload.csv"
	}
	return name
}

// Begin creates the pending placeholder dataset.
func (p *Pipeline) Begin(ctx context.Context, originalName, storagePath string) (*types.Dataset, error) {
	return p.begin(ctx, uuid.New(), originalName, storagePath)
}

func (p *Pipeline) begin(ctx context.Context, id uuid.UUID, originalName, storagePath string) (*types.Dataset, error) {
	ds, err := p.datasets.Create(dbctx.New(ctx), &types.Dataset{
		ID:           id,
		OriginalName: displayName(originalName),
		StoragePath:  storagePath,
		Columns:      datatypes.JSONSlice[string]{},
		Status:       types.StatusPending,
		UploadedAt:   p.now().UTC(),
	})
	if err != nil {
		return nil, apierr.Storage("dataset_create_failed", fmt.Errorf("create dataset: %w", err))
	}
	return ds, nil
}

// WriteBatch inserts payloads in order, numbering them from firstPosition.
func (p *Pipeline) WriteBatch(ctx context.Context, datasetID uuid.UUID, firstPosition int64, payloads []Record) error {
	if len(payloads) == 0 {
		return nil
	}
	rows := make([]*types.Row, len(payloads))
	for i, payload := range payloads {
		rows[i] = &types.Row{
			ID:        uuid.New(),
			DatasetID: datasetID,
			Position:  firstPosition + int64(i),
			Data:      datatypes.JSONMap(payload),
		}
	}
	if err := p.rows.CreateBatch(dbctx.New(ctx), rows); err != nil {
		return apierr.Storage("row_batch_insert_failed", fmt.Errorf("insert %d rows: %w", len(rows), err))
	}
	p.metrics.ObserveIngestBatch(len(rows))
	return nil
}

// Finalize commits the dataset columns, count and status together with the
// Upload record. Either both land or neither does.
func (p *Pipeline) Finalize(ctx context.Context, in FinalizeInput) (*types.Upload, error) {
	var upload *types.Upload
	err := p.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := p.datasets.Finalize(dbc, in.DatasetID, in.Columns, in.RowCount); err != nil {
			return err
		}
		datasetID := in.DatasetID
		created, err := p.uploads.Create(dbc, &types.Upload{
			ID:           uuid.New(),
			DatasetID:    &datasetID,
			OriginalName: in.OriginalName,
			StoragePath:  in.StoragePath,
			FileSize:     in.FileSize,
			MimeType:     in.MimeType,
			Hash:         in.Hash,
			UploadedAt:   p.now().UTC(),
		})
		if err != nil {
			return err
		}
		upload = created
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("dataset_not_found", fmt.Errorf("dataset %s is not pending", in.DatasetID))
	}
	if err != nil {
		return nil, apierr.Storage("finalize_failed", fmt.Errorf("finalize dataset: %w", err))
	}
	return upload, nil
}

// MarkFailed flags the dataset as failed. It outlives ctx cancellation.
func (p *Pipeline) MarkFailed(ctx context.Context, datasetID uuid.UUID, reason string) error {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := p.datasets.MarkFailed(dbctx.New(cctx), datasetID, reason); err != nil {
		return fmt.Errorf("mark dataset failed: %w", err)
	}
	return nil
}

// Run ingests one upload end to end: it stores the raw bytes, hashes them,
// parses rows in batches and finalizes the dataset.
func (p *Pipeline) Run(ctx context.Context, src Source) (*Result, error) {
	start := p.now()
	id := uuid.New()
	key := StorageKey(id, src.OriginalName, start)
	log := p.log.With(append(ctxutil.LogFields(ctx), "dataset_id", id)...)

	ds, err := p.begin(ctx, id, src.OriginalName, key)
	if err != nil {
		p.metrics.ObserveIngest("failed", 0, time.Since(start))
		return nil, err
	}
	p.emit(ctx, id, realtime.SSEEventDatasetIngestStarted, map[string]any{
		"dataset_id":    id,
		"original_name": ds.OriginalName,
	})
	log.Info("Ingestion started", "original_name", ds.OriginalName, "storage_path", key)

	res, size, err := p.ingest(ctx, ds, src)
	if err != nil {
		err = classify(err)
		p.abort(ctx, log, ds, err)
		p.metrics.ObserveIngest("failed", size, time.Since(start))
		return nil, err
	}

	p.metrics.ObserveIngest("complete", size, time.Since(start))
	p.emit(ctx, id, realtime.SSEEventDatasetIngestCompleted, map[string]any{
		"dataset_id": id,
		"row_count":  res.Dataset.RowCount,
		"columns":    res.Dataset.ColumnNames(),
		"hash":       res.Upload.Hash,
	})
	log.Info("Ingestion complete",
		"rows", res.Dataset.RowCount,
		"batches", res.Batches,
		"bytes", size,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Pipeline) ingest(ctx context.Context, ds *types.Dataset, src Source) (*Result, int64, error) {
	if src.Reader == nil {
		return nil, 0, apierr.Validation("file_required", errors.New("no file uploaded"))
	}

	wctx, cancelWrite := context.WithCancel(ctx)
	defer cancelWrite()
	obj, err := p.store.Writer(wctx, ds.StoragePath)
	if err != nil {
		return nil, 0, apierr.Storage("storage_write_failed", fmt.Errorf("open object writer: %w", err))
	}
	committed := false
	defer func() {
		if !committed {
			cancelWrite()
			_ = obj.Close()
		}
	}()

	digest := NewDigest()
	raw := bufio.NewReaderSize(
		io.TeeReader(src.Reader, io.MultiWriter(digest, storageWriter{w: obj})),
		readBufferSize,
	)

	head, err := raw.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, digest.Size(), err
	}
	mimeType := resolveMimeType(src.MimeType, head)

	decoded, closeDecoded, err := decompress(ds.OriginalName, raw)
	if err != nil {
		return nil, digest.Size(), err
	}
	defer closeDecoded()

	parser := NewCSVParser(decoded)
	batches := newBatchWriter(p.batchSize, func(ctx context.Context, batch []Record, first int64) error {
		if err := p.WriteBatch(ctx, ds.ID, first, batch); err != nil {
			return err
		}
		p.emit(ctx, ds.ID, realtime.SSEEventDatasetIngestProgress, map[string]any{
			"dataset_id":   ds.ID,
			"rows_written": first - 1 + int64(len(batch)),
		})
		return nil
	})

	records := make(chan Record)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(records)
		for {
			rec, err := parser.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			select {
			case records <- rec:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})
	g.Go(func() error {
		return batches.Drain(gctx, records)
	})
	if err := g.Wait(); err != nil {
		return nil, digest.Size(), err
	}

	// Trailing bytes the parser never asked for still belong to the digest.
	if _, err := io.Copy(io.Discard, raw); err != nil {
		return nil, digest.Size(), err
	}
	if err := obj.Close(); err != nil {
		committed = true
		return nil, digest.Size(), apierr.Storage("storage_write_failed", fmt.Errorf("commit object: %w", err))
	}
	committed = true

	columns := parser.Columns()
	upload, err := p.Finalize(ctx, FinalizeInput{
		DatasetID:    ds.ID,
		Columns:      columns,
		RowCount:     batches.Total(),
		OriginalName: ds.OriginalName,
		StoragePath:  ds.StoragePath,
		FileSize:     digest.Size(),
		MimeType:     mimeType,
		Hash:         digest.Sum(),
	})
	if err != nil {
		return nil, digest.Size(), err
	}

	ds.Columns = datatypes.JSONSlice[string](columns)
	ds.RowCount = batches.Total()
	ds.Status = types.StatusComplete
	return &Result{Dataset: ds, Upload: upload, Batches: batches.Batches()}, digest.Size(), nil
}

// abort marks the dataset failed and removes the stored object. Rows from
// batches that already committed stay behind the failed status.
func (p *Pipeline) abort(ctx context.Context, log *logger.Logger, ds *types.Dataset, cause error) {
	var errs error
	errs = multierr.Append(errs, p.MarkFailed(ctx, ds.ID, cause.Error()))

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := p.store.Delete(cctx, ds.StoragePath); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("delete object: %w", err))
	}

	code := ""
	if ae, ok := apierr.As(cause); ok {
		code = ae.Code
	}
	p.emit(ctx, ds.ID, realtime.SSEEventDatasetIngestFailed, map[string]any{
		"dataset_id": ds.ID,
		"code":       code,
		"error":      cause.Error(),
	})
	log.Warn("Ingestion failed", "code", code, "error", cause)
	if errs != nil {
		log.Error("Ingestion cleanup incomplete", "errors", multierr.Errors(errs))
	}
}

func (p *Pipeline) emit(ctx context.Context, datasetID uuid.UUID, event realtime.SSEEvent, data map[string]any) {
	p.events.Emit(context.WithoutCancel(ctx), realtime.SSEMessage{
		Channel: datasetID.String(),
		Event:   event,
		Data:    data,
	})
}

func resolveMimeType(declared string, head []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && !strings.HasPrefix(declared, "application/octet-stream") {
		return declared
	}
	if len(head) == 0 {
		return "text/csv"
	}
	return mimetype.Detect(head).String()
}

// storageWriteError tags failures of the object store writer inside the tee.
type storageWriteError struct {
	err error
}

func (e *storageWriteError) Error() string { return fmt.Sprintf("write object: %v", e.err) }
func (e *storageWriteError) Unwrap() error { return e.err }

type storageWriter struct {
	w io.Writer
}

func (s storageWriter) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err != nil {
		return n, &storageWriteError{err: err}
	}
	return n, nil
}
