package app

import (
	"fmt"

	"gorm.io/gorm"

	dbpkg "github.com/yungbote/datagrid-backend/internal/data/db"
	"github.com/yungbote/datagrid-backend/internal/ingestion"
	"github.com/yungbote/datagrid-backend/internal/observability"
	"github.com/yungbote/datagrid-backend/internal/platform/llm"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
	"github.com/yungbote/datagrid-backend/internal/platform/objectstore"
	"github.com/yungbote/datagrid-backend/internal/realtime"
	"github.com/yungbote/datagrid-backend/internal/services"
)

type Services struct {
	Pipeline *ingestion.Pipeline
	Datasets services.DatasetService
	Query    services.QueryService
	Uploads  services.UploadService
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	reposet Repos,
	store objectstore.Store,
	events realtime.Emitter,
	metrics *observability.Metrics,
) (Services, error) {
	log.Info("Wiring services...")
	tx := dbpkg.NewGormTxRunner(db)

	gen, err := wireGenerator(log, cfg, metrics)
	if err != nil {
		return Services{}, err
	}

	pipeline := ingestion.NewPipeline(
		log, tx,
		reposet.Dataset, reposet.Row, reposet.Upload,
		store, events, metrics,
		ingestion.Options{BatchSize: cfg.IngestBatchSize},
	)
	return Services{
		Pipeline: pipeline,
		Datasets: services.NewDatasetService(log, tx, reposet.Dataset, reposet.Row, events, metrics),
		Query:    services.NewQueryService(log, reposet.Dataset, reposet.Row, gen),
		Uploads:  services.NewUploadService(log, reposet.Upload, reposet.Download, store),
	}, nil
}

// wireGenerator returns nil when the provider has no key; Ask then reports 503.
func wireGenerator(log *logger.Logger, cfg Config, metrics *observability.Metrics) (llm.Generator, error) {
	gen, err := llm.New(cfg.LLM, log)
	if err != nil {
		return nil, fmt.Errorf("init ai provider: %w", err)
	}
	if gen == nil || metrics == nil {
		return gen, nil
	}
	return llm.Instrument(gen, metrics), nil
}
