package ctxutil

import "context"

type requestDataKey struct{}

// RequestData carries per-request identifiers set by the HTTP middleware.
type RequestData struct {
	TraceID   string
	RequestID string
	ClientIP  string
	// DatasetID is set on /api/datasets/:id routes.
	DatasetID string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// LogFields returns trace identifiers as logger key/value pairs.
func LogFields(ctx context.Context) []interface{} {
	rd := GetRequestData(ctx)
	if rd == nil {
		return nil
	}
	fields := make([]interface{}, 0, 6)
	if rd.TraceID != "" {
		fields = append(fields, "trace_id", rd.TraceID)
	}
	if rd.RequestID != "" {
		fields = append(fields, "request_id", rd.RequestID)
	}
	if rd.DatasetID != "" {
		fields = append(fields, "dataset_id", rd.DatasetID)
	}
	return fields
}
