package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/datagrid-backend/internal/http/response"
	"github.com/yungbote/datagrid-backend/internal/ingestion"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
)

const uploadFormField = "file"

// Ingestor runs one upload through the ingestion pipeline.
type Ingestor interface {
	Run(ctx context.Context, src ingestion.Source) (*ingestion.Result, error)
}

type UploadHandler struct {
	log      *logger.Logger
	ingestor Ingestor
	maxBytes int64
}

func NewUploadHandler(log *logger.Logger, ingestor Ingestor, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		log:      log.With("handler", "UploadHandler"),
		ingestor: ingestor,
		maxBytes: maxBytes,
	}
}

// POST /api/upload-file
// The multipart body is streamed part by part; the file is never buffered
// whole in memory or on disk.
func (h *UploadHandler) UploadFile(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}
	mr, err := c.Request.MultipartReader()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}

	part, err := nextFilePart(mr)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", err)
		case errors.Is(err, io.EOF):
			response.RespondError(c, http.StatusBadRequest, "file_required", errors.New("No file uploaded"))
		default:
			response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		}
		return
	}
	defer part.Close()

	res, err := h.ingestor.Run(c.Request.Context(), ingestion.Source{
		Reader:       part,
		OriginalName: part.FileName(),
		MimeType:     part.Header.Get("Content-Type"),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	response.RespondCreated(c, gin.H{
		"message":   "File uploaded and ingested.",
		"fileId":    res.Upload.ID,
		"datasetId": res.Dataset.ID,
		"rowCount":  res.Dataset.RowCount,
		"columns":   res.Dataset.ColumnNames(),
		"hash":      res.Upload.Hash,
	})
}

// nextFilePart skips form fields until the file part, returning io.EOF when
// the form has none.
func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			return nil, err
		}
		if part.FormName() == uploadFormField && part.FileName() != "" {
			return part, nil
		}
		_ = part.Close()
	}
}
