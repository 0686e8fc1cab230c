package hls

import (
	"fmt"
	"net/http"
	"regexp"
	"time"
)

// DefaultSegmentPattern matches the segment filenames listed by the station chunklists
const DefaultSegmentPattern = `^media_\d+\.aac$`

// Config holds configuration for chunklist parsing, segment fetching and window selection
type Config struct {
	// SegmentPattern is matched against each trimmed chunklist line
	SegmentPattern string `json:"segment_pattern"`

	// Window selection. Empirical tuning values.
	MaxCandidateSegments int `json:"max_candidate_segments"`
	MaxCombinedSegments  int `json:"max_combined_segments"`

	// Segment validity
	MinSegmentBytes int   `json:"min_segment_bytes"`
	MaxSegmentBytes int64 `json:"max_segment_bytes"`

	// Per-call timeouts
	ChunklistTimeout time.Duration `json:"chunklist_timeout"`
	SegmentTimeout   time.Duration `json:"segment_timeout"`

	UserAgent    string `json:"user_agent"`
	MaxRedirects int    `json:"max_redirects"`
}

// DefaultConfig returns the default HLS sampling configuration
func DefaultConfig() *Config {
	return &Config{
		SegmentPattern:       DefaultSegmentPattern,
		MaxCandidateSegments: 5,
		MaxCombinedSegments:  3,
		MinSegmentBytes:      10000,
		MaxSegmentBytes:      5 << 20,
		ChunklistTimeout:     10 * time.Second,
		SegmentTimeout:       10 * time.Second,
		UserAgent:            "Radio-Sampler/1.0",
		MaxRedirects:         3,
	}
}

// Validate checks the configuration for values that would make sampling undefined
func (c *Config) Validate() error {
	if _, err := regexp.Compile(c.SegmentPattern); err != nil {
		return fmt.Errorf("invalid segment pattern %q: %w", c.SegmentPattern, err)
	}
	if c.MaxCandidateSegments <= 0 {
		return fmt.Errorf("max candidate segments must be positive")
	}
	if c.MaxCombinedSegments <= 0 {
		return fmt.Errorf("max combined segments must be positive")
	}
	if c.MinSegmentBytes < 0 {
		return fmt.Errorf("min segment bytes cannot be negative")
	}
	if c.MaxSegmentBytes > 0 && c.MaxSegmentBytes < int64(c.MinSegmentBytes) {
		return fmt.Errorf("max segment bytes must not be below min segment bytes")
	}
	if c.ChunklistTimeout <= 0 || c.SegmentTimeout <= 0 {
		return fmt.Errorf("chunklist and segment timeouts must be positive")
	}
	return nil
}

// NewHTTPClient builds the client used for chunklist and segment requests.
// Timeouts are applied per call through contexts, not on the client.
func NewHTTPClient(config *Config) *http.Client {
	if config == nil {
		config = DefaultConfig()
	}

	maxRedirects := config.MaxRedirects
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}
