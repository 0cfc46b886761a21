package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := NotFound("dataset_not_found", errors.New("dataset not found"))
	wrapped := fmt.Errorf("preview: %w", base)

	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.Equal(t, http.StatusNotFound, StatusOf(wrapped))
	assert.Equal(t, "dataset not found", wrapped.(interface{ Unwrap() error }).Unwrap().Error())
}

func TestPlainErrorsAreInternal(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestNewInfersKindFromStatus(t *testing.T) {
	assert.Equal(t, KindValidation, New(http.StatusBadRequest, "bad", nil).Kind)
	assert.Equal(t, KindUpstream, New(http.StatusBadGateway, "x", nil).Kind)
	assert.Equal(t, KindUpstreamUnavailable, New(http.StatusServiceUnavailable, "x", nil).Kind)
	assert.Equal(t, "bad", New(http.StatusBadRequest, "bad", nil).Error())
}

func TestStreamDefaultsToBadRequest(t *testing.T) {
	err := Stream(0, "malformed_csv", errors.New("bad quote"))
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, KindStream, err.Kind)
}
