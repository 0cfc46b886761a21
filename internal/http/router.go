package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/datagrid-backend/internal/http/handlers"
	httpMW "github.com/yungbote/datagrid-backend/internal/http/middleware"
	"github.com/yungbote/datagrid-backend/internal/observability"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	CORSOrigins []string
	// TracingService enables otelgin spans under this service name.
	TracingService string

	HealthHandler   *httpH.HealthHandler
	UploadHandler   *httpH.UploadHandler
	DatasetHandler  *httpH.DatasetHandler
	QueryHandler    *httpH.QueryHandler
	UploadsHandler  *httpH.UploadsHandler
	RealtimeHandler *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.RequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	if cfg.UploadHandler != nil {
		r.POST("/upload-file", cfg.UploadHandler.UploadFile)
	}

	api := r.Group("/api")
	{
		if cfg.HealthHandler != nil {
			api.GET("/health", cfg.HealthHandler.Health)
		}

		// Upload
		if cfg.UploadHandler != nil {
			api.POST("/upload-file", cfg.UploadHandler.UploadFile)
		}

		// Datasets
		if cfg.DatasetHandler != nil {
			api.GET("/datasets", cfg.DatasetHandler.ListDatasets)
			api.GET("/datasets/:id", cfg.DatasetHandler.GetDataset)
			api.GET("/datasets/:id/preview", cfg.DatasetHandler.PreviewDataset)
			api.POST("/datasets/:id/rows", cfg.DatasetHandler.AddRow)
			api.PATCH("/datasets/:id/rows/:rowId", cfg.DatasetHandler.UpdateRow)
			api.DELETE("/datasets/:id/rows/:rowId", cfg.DatasetHandler.DeleteRow)
		}

		// Ask
		if cfg.QueryHandler != nil {
			api.POST("/datasets/:id/query", cfg.QueryHandler.Ask)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			api.GET("/datasets/:id/events", cfg.RealtimeHandler.DatasetEvents)
		}

		// Uploads
		if cfg.UploadsHandler != nil {
			api.GET("/uploads/:id", cfg.UploadsHandler.GetUpload)
			api.GET("/uploads/:id/download", cfg.UploadsHandler.Download)
			api.GET("/uploads/:id/downloads", cfg.UploadsHandler.ListDownloads)
		}
	}

	return r
}
