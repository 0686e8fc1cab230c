package common

import (
	"context"
	"errors"
	"maps"
	"net/http"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// StreamError represents sampling and recognition errors with integrated logging
type StreamError struct {
	Type    StreamType     `json:"type"`
	URL     string         `json:"url,omitempty"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"-"`
	Fields  logging.Fields `json:"fields,omitempty"`
}

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}

// LogWith logs this error using a specific logger
func (e *StreamError) LogWith(logger logging.Logger) {
	logger.Error(e.Cause, e.Message, e.logFields())
}

func (e *StreamError) logFields() logging.Fields {
	fields := logging.Fields{
		"stream_type": string(e.Type),
		"url":         e.URL,
		"error_code":  e.Code,
	}

	maps.Copy(fields, e.Fields)

	return fields
}

// Error codes surfaced to callers
const (
	ErrCodeMissingParameter = "MISSING_PARAMETER"
	ErrCodeStationNotFound  = "STATION_NOT_FOUND"
	ErrCodeNoPlayableStream = "NO_PLAYABLE_STREAM"
	ErrCodeNoSegmentsFound  = "NO_SEGMENTS_FOUND"
	ErrCodeFetchFailed      = "FETCH_FAILED"
	ErrCodeSegmentTooSmall  = "SEGMENT_TOO_SMALL"
	ErrCodeTimeout          = "TIMEOUT"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// NewStreamError creates a new stream error
func NewStreamError(streamType StreamType, url, code, message string, cause error) *StreamError {
	return &StreamError{
		Type:    streamType,
		URL:     url,
		Code:    code,
		Message: message,
		Cause:   cause,
		Fields:  make(logging.Fields),
	}
}

// NewStreamErrorWithFields creates a new stream error with additional fields
func NewStreamErrorWithFields(streamType StreamType, url, code, message string, cause error, fields logging.Fields) *StreamError {
	if fields == nil {
		fields = make(logging.Fields)
	}
	return &StreamError{
		Type:    streamType,
		URL:     url,
		Code:    code,
		Message: message,
		Cause:   cause,
		Fields:  fields,
	}
}

// CodeOf classifies any error into one of the caller-visible codes.
// Context deadlines map to TIMEOUT, unknown errors to INTERNAL_ERROR.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}

	var streamErr *StreamError
	if errors.As(err, &streamErr) {
		return streamErr.Code
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}

	return ErrCodeInternal
}

// IsCode reports whether err carries the given code
func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// HTTPStatus maps an error code to the status returned to HTTP callers
func HTTPStatus(code string) int {
	switch code {
	case ErrCodeMissingParameter:
		return http.StatusBadRequest
	case ErrCodeStationNotFound:
		return http.StatusNotFound
	case ErrCodeNoPlayableStream:
		return http.StatusUnprocessableEntity
	case ErrCodeNoSegmentsFound:
		return http.StatusServiceUnavailable
	case ErrCodeFetchFailed:
		return http.StatusBadGateway
	case ErrCodeSegmentTooSmall:
		return http.StatusFailedDependency
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
