package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/datagrid-backend/internal/http/response"
	"github.com/yungbote/datagrid-backend/internal/platform/apierr"
)

const maxJSONBodyBytes = 1 << 20

// uuidParam parses the named path parameter, writing a 400 when it is not a UUID.
func uuidParam(c *gin.Context, name, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, code, fmt.Errorf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

// queryInt returns 0 for missing or unparseable values so callers apply defaults.
func queryInt(c *gin.Context, name string) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		if f, ferr := strconv.ParseFloat(raw, 64); ferr == nil {
			return int(f)
		}
		return 0
	}
	return n
}

func queryBool(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(c.Query(name)))
	return v
}

// decodeJSON reads a JSON body keeping numbers as json.Number.
func decodeJSON(c *gin.Context, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxJSONBodyBytes))
	if err != nil {
		return apierr.Validation("invalid_body", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return apierr.Validation("invalid_body", errors.New("request body is empty"))
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return apierr.Validation("invalid_body", fmt.Errorf("invalid JSON body: %w", err))
	}
	return nil
}

type rowBody struct {
	Data map[string]any `json:"data"`
}
