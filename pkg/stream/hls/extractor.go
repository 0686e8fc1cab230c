package hls

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/RyanBlaney/radio-sampler/pkg/stream/common"
)

// SegmentExtractor pulls media segment filenames out of a chunklist
type SegmentExtractor struct {
	pattern *regexp.Regexp
}

// NewSegmentExtractor compiles the segment filename pattern
func NewSegmentExtractor(pattern string) (*SegmentExtractor, error) {
	if pattern == "" {
		pattern = DefaultSegmentPattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid segment pattern %q: %w", pattern, err)
	}

	return &SegmentExtractor{pattern: re}, nil
}

// Pattern returns the segment filename pattern
func (e *SegmentExtractor) Pattern() string {
	return e.pattern.String()
}

var defaultExtractor = &SegmentExtractor{pattern: regexp.MustCompile(DefaultSegmentPattern)}

// ExtractSegments returns the segment filenames of a chunklist using the default pattern
func ExtractSegments(chunklist string) ([]string, error) {
	return defaultExtractor.Extract(chunklist)
}

// Extract returns every trimmed line that fully matches the segment pattern, in
// the order it appears. An empty result is reported as NO_SEGMENTS_FOUND.
func (e *SegmentExtractor) Extract(chunklist string) ([]string, error) {
	var segments []string

	for _, line := range strings.Split(chunklist, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if e.pattern.MatchString(line) {
			segments = append(segments, line)
		}
	}

	if len(segments) == 0 {
		return nil, common.NewStreamError(common.StreamTypeHLS, "",
			common.ErrCodeNoSegmentsFound, "no media segments found in chunklist", nil)
	}

	return segments, nil
}

// SegmentURL resolves a segment filename against the directory of its chunklist
func SegmentURL(chunklistURL, segment string) string {
	return common.BaseURL(chunklistURL) + "/" + segment
}
