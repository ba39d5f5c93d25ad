package logic

import (
	"net/http"

	"cryptoverde-api/pkg/pipeline"
)

// CodeError is an error that is safe to show to API clients.
type CodeError struct {
	Code    int
	Message string
}

func (e *CodeError) Error() string { return e.Message }

var (
	ErrNoData     = &CodeError{Code: http.StatusNotFound, Message: pipeline.StatusNoData.Message()}
	ErrSyncFailed = &CodeError{Code: http.StatusBadGateway, Message: pipeline.StatusSyncFailed.Message()}
)

func badRequest(msg string) *CodeError {
	return &CodeError{Code: http.StatusBadRequest, Message: msg}
}
