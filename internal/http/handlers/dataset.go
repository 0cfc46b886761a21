package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/datagrid-backend/internal/http/response"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
	"github.com/yungbote/datagrid-backend/internal/services"
)

type DatasetHandler struct {
	log      *logger.Logger
	datasets services.DatasetService
}

func NewDatasetHandler(log *logger.Logger, datasets services.DatasetService) *DatasetHandler {
	return &DatasetHandler{
		log:      log.With("handler", "DatasetHandler"),
		datasets: datasets,
	}
}

// GET /api/datasets?page=&limit=&include_pending=
func (h *DatasetHandler) ListDatasets(c *gin.Context) {
	page, err := h.datasets.ListDatasets(c.Request.Context(), services.ListDatasetsParams{
		Page:           queryInt(c, "page"),
		Limit:          queryInt(c, "limit"),
		IncludePending: queryBool(c, "include_pending"),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/datasets/:id
func (h *DatasetHandler) GetDataset(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_dataset_id")
	if !ok {
		return
	}
	ds, err := h.datasets.GetDataset(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"dataset": ds})
}

// GET /api/datasets/:id/preview?limit=
func (h *DatasetHandler) PreviewDataset(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_dataset_id")
	if !ok {
		return
	}
	preview, err := h.datasets.PreviewDataset(c.Request.Context(), id, queryInt(c, "limit"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, preview)
}

// POST /api/datasets/:id/rows
func (h *DatasetHandler) AddRow(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_dataset_id")
	if !ok {
		return
	}
	var body rowBody
	if err := decodeJSON(c, &body); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	row, err := h.datasets.AddRow(c.Request.Context(), id, body.Data)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"row": row.Flatten()})
}

// PATCH /api/datasets/:id/rows/:rowId
func (h *DatasetHandler) UpdateRow(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_dataset_id")
	if !ok {
		return
	}
	rowID, ok := uuidParam(c, "rowId", "invalid_row_id")
	if !ok {
		return
	}
	var body rowBody
	if err := decodeJSON(c, &body); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	row, err := h.datasets.UpdateRow(c.Request.Context(), id, rowID, body.Data)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"row": row.Flatten()})
}

// DELETE /api/datasets/:id/rows/:rowId
func (h *DatasetHandler) DeleteRow(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_dataset_id")
	if !ok {
		return
	}
	rowID, ok := uuidParam(c, "rowId", "invalid_row_id")
	if !ok {
		return
	}
	if err := h.datasets.DeleteRow(c.Request.Context(), id, rowID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
