package hls

import "iter"

// WindowPosition labels where in the chunklist a candidate window sits
type WindowPosition string

const (
	WindowEarly  WindowPosition = "early"
	WindowMiddle WindowPosition = "middle"
	WindowLate   WindowPosition = "late"
)

// CandidateWindow is an ordered set of segment indices tried together
type CandidateWindow struct {
	Position WindowPosition `json:"position"`
	Indices  []int          `json:"indices"`
}

// Empty reports whether the window selects no segments
func (w CandidateWindow) Empty() bool {
	return len(w.Indices) == 0
}

// SamplingStrategy selects early, middle and late windows over the first
// MaxCandidates segments of a chunklist
type SamplingStrategy struct {
	MaxCandidates int
	MaxCombined   int
}

// NewSamplingStrategy builds a strategy from the HLS configuration
func NewSamplingStrategy(config *Config) SamplingStrategy {
	if config == nil {
		config = DefaultConfig()
	}
	return SamplingStrategy{
		MaxCandidates: config.MaxCandidateSegments,
		MaxCombined:   config.MaxCombinedSegments,
	}
}

// Windows yields the early, middle and late windows for a chunklist of total
// segments. Windows may be empty or identical; they are yielded as computed.
func (s SamplingStrategy) Windows(total int) iter.Seq[CandidateWindow] {
	return func(yield func(CandidateWindow) bool) {
		segmentsToTry := min(total, s.MaxCandidates)
		segmentsToCombine := min(s.MaxCombined, segmentsToTry)
		if segmentsToTry < 0 {
			segmentsToTry = 0
		}
		if segmentsToCombine < 0 {
			segmentsToCombine = 0
		}

		early := make([]int, 0, segmentsToCombine)
		for i := range segmentsToCombine {
			early = append(early, i)
		}
		if !yield(CandidateWindow{Position: WindowEarly, Indices: early}) {
			return
		}

		middle := make([]int, 0, segmentsToCombine)
		start := segmentsToTry/2 - segmentsToCombine/2
		for i := range segmentsToCombine {
			if idx := start + i; idx >= 0 && idx < segmentsToTry {
				middle = append(middle, idx)
			}
		}
		if !yield(CandidateWindow{Position: WindowMiddle, Indices: middle}) {
			return
		}

		late := make([]int, 0, segmentsToCombine)
		for i := range segmentsToCombine {
			if idx := segmentsToTry - segmentsToCombine + i; idx >= 0 {
				late = append(late, idx)
			}
		}
		yield(CandidateWindow{Position: WindowLate, Indices: late})
	}
}

// CandidateWindows collects Windows into a slice
func (s SamplingStrategy) CandidateWindows(total int) []CandidateWindow {
	windows := make([]CandidateWindow, 0, 3)
	for w := range s.Windows(total) {
		windows = append(windows, w)
	}
	return windows
}
