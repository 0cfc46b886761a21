package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yungbote/datagrid-backend/internal/platform/apierr"
)

var errPayloadShape = errors.New("body must be { data: {...} }")

// ValidatePayload accepts a JSON object whose values are all scalars.
func ValidatePayload(payload map[string]any) error {
	if payload == nil {
		return apierr.Validation("invalid_payload", errPayloadShape)
	}
	for k, v := range payload {
		if !isScalar(v) {
			return apierr.Validation("invalid_payload", fmt.Errorf("value for %q must be a string, number, boolean or null", k))
		}
	}
	return nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, json.Number,
		float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}
