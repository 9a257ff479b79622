package http

import (
	"net/http"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/pointquad/models"
	"github.com/segmentio/encoding/json"
)

const (
	ErrTypeBadRequest      = "bad_request"
	ErrTypeUnauthorized    = "unauthorized"
	ErrTypeFeatureDisabled = "feature_disabled"
	ErrTypeIndexNotFound   = "index_not_found"
	ErrTypeNotReady        = "not_ready"
)

type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

func statusCode(err error) int {
	switch errors.Type(err) {
	case ErrTypeBadRequest, models.ErrTypeBadBounds, models.ErrTypeBadIndexName:
		return http.StatusBadRequest

	case ErrTypeUnauthorized:
		return http.StatusUnauthorized

	case ErrTypeFeatureDisabled:
		return http.StatusForbidden

	case ErrTypeIndexNotFound:
		return http.StatusNotFound

	case models.ErrTypeIndexAlreadyExists:
		return http.StatusConflict

	case ErrTypeNotReady:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logs.Warn(errors.New("encoding response failed").Wrap(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusCode(err), errorResponse{
		Error: err.Error(),
		Type:  errors.Type(err),
	})
}
