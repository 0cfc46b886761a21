package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/datagrid-backend/internal/platform/apierr"
)

const statusClientClosedRequest = 499

// classify maps a raw ingestion failure onto the API error taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apierr.As(err); ok {
		return err
	}

	var sw *storageWriteError
	if errors.As(err, &sw) {
		return apierr.Storage("storage_write_failed", err)
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apierr.Stream(http.StatusRequestEntityTooLarge, "file_too_large",
			fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit))
	}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return apierr.Stream(http.StatusBadRequest, "malformed_csv", err)
	}
	if errors.Is(err, context.Canceled) {
		return apierr.Stream(statusClientClosedRequest, "client_closed_request", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apierr.Stream(http.StatusRequestTimeout, "upload_timeout", err)
	}
	var de *decompressError
	if errors.As(err, &de) {
		return apierr.Stream(http.StatusBadRequest, "invalid_compressed_stream", err)
	}
	return apierr.Stream(http.StatusBadRequest, "stream_read_failed", err)
}
