package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"overseastax/pkg/overseastax"
)

func TestMapErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code overseastax.ErrorCode
		want int
	}{
		{overseastax.ErrCodeInvalidInput, http.StatusBadRequest},
		{overseastax.ErrCodeNotFound, http.StatusNotFound},
		{overseastax.ErrCodeMissingRate, http.StatusUnprocessableEntity},
		{overseastax.ErrCodeUnsupported, http.StatusNotImplemented},
		{overseastax.ErrCodeDatabase, http.StatusInternalServerError},
		{overseastax.ErrCodeInternal, http.StatusInternalServerError},
		{overseastax.ErrorCode("UNKNOWN"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := mapErrorCodeToHTTPStatus(tt.code); got != tt.want {
			t.Errorf("mapErrorCodeToHTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestWriteErrorResponseStructured(t *testing.T) {
	rr := httptest.NewRecorder()
	err := overseastax.NewError(overseastax.ErrCodeNotFound, "run missing")

	writeErrorResponse(rr, http.StatusInternalServerError, err)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected structured error to override status, got %d", rr.Code)
	}

	var response ErrorResponse
	if decodeErr := json.NewDecoder(rr.Body).Decode(&response); decodeErr != nil {
		t.Fatalf("decode response: %v", decodeErr)
	}
	if response.ErrorCode != "NOT_FOUND" {
		t.Errorf("expected error_code NOT_FOUND, got %s", response.ErrorCode)
	}
	if response.Code != http.StatusNotFound {
		t.Errorf("expected code 404, got %d", response.Code)
	}
}

func TestWriteErrorResponsePlain(t *testing.T) {
	rr := httptest.NewRecorder()

	writeErrorResponse(rr, http.StatusBadGateway, errors.New("upstream failed"))

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected fallback status kept, got %d", rr.Code)
	}

	var response ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.ErrorCode != "" {
		t.Errorf("expected no error_code for plain error, got %s", response.ErrorCode)
	}
	if response.Message != "upstream failed" {
		t.Errorf("expected message preserved, got %s", response.Message)
	}
}

func TestWriteErrorResponseWrappedError(t *testing.T) {
	rr := httptest.NewRecorder()
	wrapped := overseastax.WrapError(overseastax.ErrCodeDatabase, "save run", errors.New("disk full"))

	writeErrorResponse(rr, http.StatusBadRequest, wrapped)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected database error to map to 500, got %d", rr.Code)
	}
}
