package sampler

import "time"

// UnknownStation is the station label recorded for requests whose identifier
// is blank or not in the catalog
const UnknownStation = "unknown"

// Recorder receives sampling events for metrics. Station labels are always
// catalogued identifiers or UnknownStation.
type Recorder interface {
	RecognitionCompleted(stationID, outcome string, duration time.Duration)
	WindowAttempted(position, result string)
	SegmentFetched(result string)
	SampleDownloaded(stationID, result string)
}

type nopRecorder struct{}

func (nopRecorder) RecognitionCompleted(string, string, time.Duration) {}
func (nopRecorder) WindowAttempted(string, string)                     {}
func (nopRecorder) SegmentFetched(string)                              {}
func (nopRecorder) SampleDownloaded(string, string)                    {}

// MultiRecorder fans events out to several recorders
type MultiRecorder []Recorder

func (m MultiRecorder) RecognitionCompleted(stationID, outcome string, duration time.Duration) {
	for _, r := range m {
		r.RecognitionCompleted(stationID, outcome, duration)
	}
}

func (m MultiRecorder) WindowAttempted(position, result string) {
	for _, r := range m {
		r.WindowAttempted(position, result)
	}
}

func (m MultiRecorder) SegmentFetched(result string) {
	for _, r := range m {
		r.SegmentFetched(result)
	}
}

func (m MultiRecorder) SampleDownloaded(stationID, result string) {
	for _, r := range m {
		r.SampleDownloaded(stationID, result)
	}
}
