package sampler

import (
	"time"

	"github.com/RyanBlaney/radio-sampler/pkg/recognition"
	"github.com/RyanBlaney/radio-sampler/pkg/stream/hls"
)

// OutcomeKind tags how a recognition request ended
type OutcomeKind string

const (
	OutcomeMatched       OutcomeKind = "matched"
	OutcomeNoMatch       OutcomeKind = "no_match"
	OutcomeAttemptFailed OutcomeKind = "attempt_failed"
)

// NoAudioMessage is reported when no window produced audio worth submitting
const NoAudioMessage = "No valid audio segments found with sufficient content"

// Attempt results
const (
	AttemptSkipped      = "skipped"
	AttemptMatched      = "matched"
	AttemptNoMatch      = "no_match"
	AttemptServiceError = "service_error"
	AttemptCallFailed   = "call_failed"
)

// Outcome is the result of one recognition request. Response is what callers
// receive verbatim; the remaining fields are diagnostics.
type Outcome struct {
	Kind      OutcomeKind           `json:"kind"`
	StationID string                `json:"station_id"`
	Result    *recognition.Result   `json:"result,omitempty"`
	Reason    string                `json:"reason,omitempty"`
	Response  *recognition.Response `json:"-"`
	Attempts  []WindowAttempt       `json:"attempts"`
	Segments  int                   `json:"segments"`
	Duration  time.Duration         `json:"duration"`
}

// WindowAttempt records what happened to one candidate window
type WindowAttempt struct {
	Position       hls.WindowPosition `json:"position"`
	Indices        []int              `json:"indices"`
	SegmentsFailed int                `json:"segments_failed"`
	SegmentsValid  int                `json:"segments_valid"`
	Bytes          int                `json:"bytes"`
	Result         string             `json:"result"`
	Error          string             `json:"error,omitempty"`
}

// Body returns the JSON handed back to callers
func (o *Outcome) Body() ([]byte, error) {
	return o.Response.Body()
}

// Sample is one raw segment offered for download
type Sample struct {
	StationID   string `json:"station_id"`
	SegmentURL  string `json:"segment_url"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename"`
	Size        int    `json:"size"`
	Data        []byte `json:"-"`
}
