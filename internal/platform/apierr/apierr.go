package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the failure category a caller can branch on.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindOwnershipMismatch   Kind = "ownership_mismatch"
	KindValidation          Kind = "validation"
	KindUpstream            Kind = "upstream"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindStorage             Kind = "storage"
	KindStream              Kind = "stream"
	KindInternal            Kind = "internal"
)

type Error struct {
	Status int
	Code   string
	Kind   Kind
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Kind: kindForStatus(status), Err: err}
}

func NotFound(code string, err error) *Error {
	return &Error{Status: http.StatusNotFound, Code: code, Kind: KindNotFound, Err: err}
}

func OwnershipMismatch(code string, err error) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Kind: KindOwnershipMismatch, Err: err}
}

func Validation(code string, err error) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Kind: KindValidation, Err: err}
}

// Upstream wraps a non-success reply from the AI provider.
func Upstream(code string, err error) *Error {
	return &Error{Status: http.StatusBadGateway, Code: code, Kind: KindUpstream, Err: err}
}

func UpstreamUnavailable(code string, err error) *Error {
	return &Error{Status: http.StatusServiceUnavailable, Code: code, Kind: KindUpstreamUnavailable, Err: err}
}

func Storage(code string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: code, Kind: KindStorage, Err: err}
}

func Stream(status int, code string, err error) *Error {
	if status == 0 {
		status = http.StatusBadRequest
	}
	return &Error{Status: status, Code: code, Kind: KindStream, Err: err}
}

// As unwraps err to the first *Error in its chain.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) && target != nil {
		return target, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	if err == nil {
		return ""
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusOf returns the HTTP status for err, 500 when it carries none.
func StatusOf(err error) int {
	if e, ok := As(err); ok && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusServiceUnavailable:
		return KindUpstreamUnavailable
	case status == http.StatusBadGateway:
		return KindUpstream
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindInternal
	}
}
