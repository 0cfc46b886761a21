package app

import (
	httpserver "github.com/yungbote/datagrid-backend/internal/http"
	"github.com/yungbote/datagrid-backend/internal/observability"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlerset Handlers, metrics *observability.Metrics) httpserver.RouterConfig {
	log.Info("Wiring router...")
	routerCfg := httpserver.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		CORSOrigins:     cfg.CORSOrigins,
		HealthHandler:   handlerset.Health,
		UploadHandler:   handlerset.Upload,
		DatasetHandler:  handlerset.Dataset,
		QueryHandler:    handlerset.Query,
		UploadsHandler:  handlerset.Uploads,
		RealtimeHandler: handlerset.Realtime,
	}
	if cfg.Otel.Enabled {
		routerCfg.TracingService = cfg.Otel.ServiceName
	}
	return routerCfg
}
