package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamError(t *testing.T) {
	t.Run("message with cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := NewStreamError(StreamTypeHLS, "https://example.com/chunklist.m3u8",
			ErrCodeFetchFailed, "failed to fetch chunklist", cause)

		assert.Equal(t, "failed to fetch chunklist: connection reset", err.Error())
		assert.ErrorIs(t, err, cause)
		assert.NotNil(t, err.Fields)
	})

	t.Run("message without cause", func(t *testing.T) {
		err := NewStreamError(StreamTypeHLS, "", ErrCodeNoSegmentsFound, "no media segments found", nil)

		assert.Equal(t, "no media segments found", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("nil fields are replaced", func(t *testing.T) {
		err := NewStreamErrorWithFields(StreamTypeHLS, "", ErrCodeInternal, "boom", nil, nil)
		assert.NotNil(t, err.Fields)
	})
}

func TestCodeOf(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"stream error", NewStreamError(StreamTypeHLS, "", ErrCodeStationNotFound, "station not found", nil), ErrCodeStationNotFound},
		{"wrapped stream error", fmt.Errorf("recognize: %w",
			NewStreamError(StreamTypeHLS, "", ErrCodeNoPlayableStream, "no playable stream", nil)), ErrCodeNoPlayableStream},
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), ErrCodeTimeout},
		{"plain error", errors.New("unexpected"), ErrCodeInternal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CodeOf(tc.err))
		})
	}
}

func TestHTTPStatusIsDistinctPerCode(t *testing.T) {
	codes := []string{
		ErrCodeMissingParameter,
		ErrCodeStationNotFound,
		ErrCodeNoPlayableStream,
		ErrCodeNoSegmentsFound,
		ErrCodeFetchFailed,
		ErrCodeSegmentTooSmall,
		ErrCodeTimeout,
		ErrCodeInternal,
	}

	seen := make(map[int]string)
	for _, code := range codes {
		status := HTTPStatus(code)
		if previous, exists := seen[status]; exists {
			t.Fatalf("codes %s and %s share HTTP status %d", previous, code, status)
		}
		seen[status] = code
	}

	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrCodeMissingParameter))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrCodeStationNotFound))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus("SOMETHING_ELSE"))
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/live/am1296",
		BaseURL("https://cdn.example.com/live/am1296/chunklist.m3u8"))
	assert.Equal(t, "chunklist.m3u8", BaseURL("chunklist.m3u8"))
}
