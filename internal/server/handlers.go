package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/radio-sampler/pkg/stream/common"
)

// maxRequestBytes bounds the JSON request body
const maxRequestBytes = 64 << 10

type stationRequest struct {
	StationID string `json:"stationId"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	stationID, ok := s.decodeStationID(w, r)
	if !ok {
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	outcome, err := s.service.Recognize(ctx, stationID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body, err := outcome.Body()
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to encode recognition response: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Recognition-Outcome", string(outcome.Kind))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) handleDownloadSample(w http.ResponseWriter, r *http.Request) {
	stationID, ok := s.decodeStationID(w, r)
	if !ok {
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	sample, err := s.service.DownloadSample(ctx, stationID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", sample.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sample.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(sample.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(sample.Data)
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	stations := s.stations.Stations()
	writeJSON(w, http.StatusOK, map[string]any{
		"stations": stations,
		"count":    len(stations),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"stations": len(s.stations.Stations()),
	})
}

// decodeStationID reads {"stationId": "..."}. An unreadable body is treated
// the same as a missing id.
func (s *Server) decodeStationID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req stationRequest
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&req)
	if err != nil || req.StationID == "" {
		var cause error
		if err != nil && !errors.Is(err, io.EOF) {
			cause = err
		}
		s.writeError(w, r, common.NewStreamError(common.StreamTypeHLS, "",
			common.ErrCodeMissingParameter, "Station ID is required", cause))
		return "", false
	}
	return req.StationID, true
}

// writeError maps err onto its code's status and the JSON error body
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := common.CodeOf(err)
	status := common.HTTPStatus(code)

	resp := errorResponse{Code: code}

	var streamErr *common.StreamError
	if errors.As(err, &streamErr) {
		resp.Error = streamErr.Message
		if streamErr.Cause != nil {
			resp.Details = streamErr.Cause.Error()
		}
		if suggestion, ok := streamErr.Fields["suggestion"].(string); ok {
			resp.Suggestion = suggestion
		}
	} else if code == common.ErrCodeTimeout {
		resp.Error = "Request timed out"
		resp.Details = err.Error()
	} else {
		resp.Error = "Internal server error"
		resp.Details = err.Error()
	}

	fields := logging.Fields{
		"path":        r.URL.Path,
		"status_code": status,
		"error_code":  code,
	}
	if requestID := RequestIDFrom(r.Context()); requestID != "" {
		fields["request_id"] = requestID
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error(err, "Request failed", fields)
	} else {
		s.logger.Debug("Request rejected", fields)
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
