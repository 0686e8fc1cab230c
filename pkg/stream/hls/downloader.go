package hls

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/radio-sampler/pkg/stream/common"
)

// SegmentFetcher downloads chunklists and raw AAC segments from the streaming CDN
type SegmentFetcher struct {
	client *http.Client
	config *Config
	logger logging.Logger

	mu    sync.Mutex
	stats *DownloadStats
}

// maxRecordedErrors bounds the per-fetcher error history
const maxRecordedErrors = 50

// DownloadStats tracks fetch activity for one fetcher
type DownloadStats struct {
	ChunklistsFetched  int            `json:"chunklists_fetched"`
	SegmentsDownloaded int            `json:"segments_downloaded"`
	BytesDownloaded    int64          `json:"bytes_downloaded"`
	DownloadTime       time.Duration  `json:"download_time"`
	ErrorCount         int            `json:"error_count"`
	SegmentErrors      []SegmentError `json:"segment_errors,omitempty"`
}

// SegmentError represents an error downloading a specific segment
type SegmentError struct {
	URL       string    `json:"url"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"` // error code
}

// NewSegmentFetcher creates a fetcher. A nil client is built from config.
func NewSegmentFetcher(client *http.Client, config *Config, logger logging.Logger) *SegmentFetcher {
	if config == nil {
		config = DefaultConfig()
	}
	if client == nil {
		client = NewHTTPClient(config)
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &SegmentFetcher{
		client: client,
		config: config,
		logger: logger.WithFields(logging.Fields{"component": "segment_fetcher"}),
		stats:  &DownloadStats{SegmentErrors: make([]SegmentError, 0)},
	}
}

// Config returns the fetcher configuration
func (f *SegmentFetcher) Config() *Config {
	return f.config
}

// FetchChunklist downloads the chunklist text. Any failure is a hard FETCH_FAILED.
func (f *SegmentFetcher) FetchChunklist(ctx context.Context, chunklistURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.config.ChunklistTimeout)
	defer cancel()

	body, err := f.get(ctx, chunklistURL, "application/vnd.apple.mpegurl,application/x-mpegurl,text/plain", 0)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	f.stats.ChunklistsFetched++
	f.mu.Unlock()

	f.logger.Debug("Fetched chunklist", logging.Fields{
		"url":   chunklistURL,
		"bytes": len(body),
	})

	return string(body), nil
}

// Fetch downloads one segment and validates its size. Errors are soft: callers
// are expected to log them and move on to the next segment.
func (f *SegmentFetcher) Fetch(ctx context.Context, segmentURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.config.SegmentTimeout)
	defer cancel()

	startTime := time.Now()
	data, err := f.get(ctx, segmentURL, "*/*", f.config.MaxSegmentBytes)
	if err != nil {
		f.recordSegmentError(segmentURL, err)
		return nil, err
	}

	if len(data) < f.config.MinSegmentBytes {
		err := common.NewStreamErrorWithFields(common.StreamTypeHLS, segmentURL,
			common.ErrCodeSegmentTooSmall,
			fmt.Sprintf("segment too small: %d bytes", len(data)), nil,
			logging.Fields{
				"bytes":     len(data),
				"min_bytes": f.config.MinSegmentBytes,
			})
		f.recordSegmentError(segmentURL, err)
		return nil, err
	}

	f.mu.Lock()
	f.stats.SegmentsDownloaded++
	f.stats.BytesDownloaded += int64(len(data))
	f.stats.DownloadTime += time.Since(startTime)
	f.mu.Unlock()

	return data, nil
}

func (f *SegmentFetcher) get(ctx context.Context, targetURL, accept string, maxBytes int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, common.NewStreamError(common.StreamTypeHLS, targetURL,
			common.ErrCodeFetchFailed, "failed to create request", err)
	}

	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", accept)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, common.NewStreamError(common.StreamTypeHLS, targetURL,
				common.ErrCodeTimeout, "request timed out", err)
		}
		return nil, common.NewStreamError(common.StreamTypeHLS, targetURL,
			common.ErrCodeFetchFailed, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, common.NewStreamErrorWithFields(common.StreamTypeHLS, targetURL,
			common.ErrCodeFetchFailed, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status), nil,
			logging.Fields{"status_code": resp.StatusCode})
	}

	var reader io.Reader = resp.Body
	if maxBytes > 0 {
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, common.NewStreamError(common.StreamTypeHLS, targetURL,
			common.ErrCodeFetchFailed, "failed to read response", err)
	}

	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, common.NewStreamErrorWithFields(common.StreamTypeHLS, targetURL,
			common.ErrCodeFetchFailed, "response exceeds maximum size", nil,
			logging.Fields{"max_bytes": maxBytes})
	}

	return data, nil
}

func (f *SegmentFetcher) recordSegmentError(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stats.ErrorCount++
	if len(f.stats.SegmentErrors) >= maxRecordedErrors {
		f.stats.SegmentErrors = f.stats.SegmentErrors[1:]
	}
	f.stats.SegmentErrors = append(f.stats.SegmentErrors, SegmentError{
		URL:       url,
		Error:     err.Error(),
		Timestamp: time.Now(),
		Type:      common.CodeOf(err),
	})
}

// GetDownloadStats returns a snapshot of the fetch statistics
func (f *SegmentFetcher) GetDownloadStats() DownloadStats {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot := *f.stats
	snapshot.SegmentErrors = append([]SegmentError(nil), f.stats.SegmentErrors...)
	return snapshot
}
