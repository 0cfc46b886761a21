package app

import (
	httpH "github.com/yungbote/datagrid-backend/internal/http/handlers"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
	"github.com/yungbote/datagrid-backend/internal/realtime"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Upload   *httpH.UploadHandler
	Dataset  *httpH.DatasetHandler
	Query    *httpH.QueryHandler
	Uploads  *httpH.UploadsHandler
	Realtime *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, cfg Config, serviceset Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(cfg.Env),
		Upload:   httpH.NewUploadHandler(log, serviceset.Pipeline, cfg.MaxUploadBytes),
		Dataset:  httpH.NewDatasetHandler(log, serviceset.Datasets),
		Query:    httpH.NewQueryHandler(log, serviceset.Query),
		Uploads:  httpH.NewUploadsHandler(log, serviceset.Uploads),
		Realtime: httpH.NewRealtimeHandler(log, hub),
	}
}
