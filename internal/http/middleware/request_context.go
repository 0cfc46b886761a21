package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/datagrid-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	maxRequestIDLen = 64
	datasetRoute    = "/api/datasets/:id"
)

// RequestContext stores trace, request and dataset identifiers on the request
// context and echoes the first two back as response headers.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := &ctxutil.RequestData{
			TraceID:   resolveTraceID(c),
			RequestID: resolveRequestID(c.GetHeader(headerRequestID)),
			ClientIP:  c.ClientIP(),
			DatasetID: routeDatasetID(c),
		}
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Writer.Header().Set(headerTraceID, rd.TraceID)
		c.Writer.Header().Set(headerRequestID, rd.RequestID)
		c.Next()
	}
}

// resolveTraceID prefers the active span so log lines join exported traces.
func resolveTraceID(c *gin.Context) string {
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	if id := strings.TrimSpace(c.GetHeader(headerTraceID)); validRequestID(id) {
		return id
	}
	return uuid.NewString()
}

func resolveRequestID(raw string) string {
	if id := strings.TrimSpace(raw); validRequestID(id) {
		return id
	}
	return uuid.NewString()
}

// validRequestID accepts short tokens that are safe to echo and log.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

// routeDatasetID returns the :id of dataset routes when it parses as a UUID.
// Upload routes share the param name and are skipped.
func routeDatasetID(c *gin.Context) string {
	if !strings.HasPrefix(c.FullPath(), datasetRoute) {
		return ""
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ""
	}
	return id.String()
}
