package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/datagrid-backend/internal/platform/logger"
	"github.com/yungbote/datagrid-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub}
}

// GET /api/datasets/:id/events
// Streams every event published on the dataset's channel until the client
// disconnects.
func (h *RealtimeHandler) DatasetEvents(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_dataset_id")
	if !ok {
		return
	}
	client := h.hub.NewSSEClient()
	client.Logger = client.Logger.With("dataset_id", id)
	h.hub.AddChannel(client, id.String())
	client.Logger.Debug("SSE stream open")

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.hub.CloseClient(client)
	client.Logger.Debug("SSE stream closed")
}
