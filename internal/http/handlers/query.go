package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/datagrid-backend/internal/http/response"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
	"github.com/yungbote/datagrid-backend/internal/services"
)

type QueryHandler struct {
	log   *logger.Logger
	query services.QueryService
}

func NewQueryHandler(log *logger.Logger, query services.QueryService) *QueryHandler {
	return &QueryHandler{log: log.With("handler", "QueryHandler"), query: query}
}

type askRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k"`
}

// POST /api/datasets/:id/query
func (h *QueryHandler) Ask(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_dataset_id")
	if !ok {
		return
	}
	var req askRequest
	if err := decodeJSON(c, &req); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	topK := 0
	if req.TopK != nil {
		topK = *req.TopK
	}
	res, err := h.query.Ask(c.Request.Context(), id, req.Query, topK)
	if err != nil {
		h.log.Warn("Ask failed", "dataset_id", id, "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}
