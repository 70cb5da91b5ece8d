package api

import (
	"errors"
	"net/http"

	"overseastax/pkg/overseastax"
)

// ErrorResponse is the error payload returned by every failing endpoint.
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
}

// writeErrorResponse writes an error response. Structured engine errors
// override the fallback HTTP status with one derived from their code.
func writeErrorResponse(w http.ResponseWriter, httpStatus int, err error) {
	response := ErrorResponse{
		Code:    httpStatus,
		Message: err.Error(),
	}

	var taxErr *overseastax.Error
	if errors.As(err, &taxErr) {
		response.ErrorCode = string(taxErr.Code)
		httpStatus = mapErrorCodeToHTTPStatus(taxErr.Code)
		response.Code = httpStatus
	}

	noteErrorMessage(w, response.Message)
	writeJSON(w, httpStatus, response)
}

// mapErrorCodeToHTTPStatus maps engine error codes to HTTP status codes.
func mapErrorCodeToHTTPStatus(code overseastax.ErrorCode) int {
	switch code {
	case overseastax.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case overseastax.ErrCodeNotFound:
		return http.StatusNotFound
	case overseastax.ErrCodeMissingRate:
		return http.StatusUnprocessableEntity
	case overseastax.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case overseastax.ErrCodeDatabase, overseastax.ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
