package handlers

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/datagrid-backend/internal/http/response"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
	"github.com/yungbote/datagrid-backend/internal/services"
)

type UploadsHandler struct {
	log     *logger.Logger
	uploads services.UploadService
}

func NewUploadsHandler(log *logger.Logger, uploads services.UploadService) *UploadsHandler {
	return &UploadsHandler{log: log.With("handler", "UploadsHandler"), uploads: uploads}
}

// GET /api/uploads/:id
func (h *UploadsHandler) GetUpload(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_upload_id")
	if !ok {
		return
	}
	up, err := h.uploads.GetUpload(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"upload": up})
}

// GET /api/uploads/:id/download
func (h *UploadsHandler) Download(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_upload_id")
	if !ok {
		return
	}
	file, err := h.uploads.OpenDownload(c.Request.Context(), id, c.ClientIP())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	defer file.Body.Close()

	size := file.Size
	if size <= 0 {
		size = -1
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": file.Name})
	c.DataFromReader(http.StatusOK, size, file.MimeType, file.Body, map[string]string{
		"Content-Disposition": disposition,
	})
}

// GET /api/uploads/:id/downloads
func (h *UploadsHandler) ListDownloads(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_upload_id")
	if !ok {
		return
	}
	list, err := h.uploads.ListDownloads(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"downloads": list})
}
