package recognition

import "encoding/json"

// StatusSuccess is the status reported by AudD when a request was processed
const StatusSuccess = "success"

// Response is a decoded AudD response. Raw holds the exact body so it can be
// passed through to callers unchanged.
type Response struct {
	Status string        `json:"status"`
	Result *Result       `json:"result"`
	Error  *ServiceError `json:"error,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Result is the song metadata of a match. Provider blocks are kept raw.
type Result struct {
	Artist      string          `json:"artist"`
	Title       string          `json:"title"`
	Album       string          `json:"album,omitempty"`
	ReleaseDate string          `json:"release_date,omitempty"`
	Label       string          `json:"label,omitempty"`
	Timecode    string          `json:"timecode,omitempty"`
	SongLink    string          `json:"song_link,omitempty"`
	AppleMusic  json.RawMessage `json:"apple_music,omitempty"`
	Spotify     json.RawMessage `json:"spotify,omitempty"`
}

// ServiceError is the error block AudD returns alongside a non-success status
type ServiceError struct {
	Code    int    `json:"error_code,omitempty"`
	Message string `json:"error_message"`
}

// Matched reports whether the service identified a song
func (r *Response) Matched() bool {
	return r != nil && r.Status == StatusSuccess && r.Result != nil
}

// ServiceFailed reports whether the service rejected the request itself
func (r *Response) ServiceFailed() bool {
	return r != nil && r.Status != StatusSuccess
}

// Body returns the JSON to hand back to callers: the raw service body when
// present, otherwise the encoded response.
func (r *Response) Body() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	return json.Marshal(r)
}

// Synthetic builds a success response with a null result and an optional
// diagnostic message, for outcomes where the service was never consulted or
// never answered
func Synthetic(message string) *Response {
	resp := &Response{Status: StatusSuccess}
	if message != "" {
		resp.Error = &ServiceError{Message: message}
	}
	return resp
}
