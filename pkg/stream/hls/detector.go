package hls

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/radio-sampler/pkg/stream/common"
)

// DetectFromURL matches the URL with common HLS patterns
func DetectFromURL(streamURL string) common.StreamType {
	u, err := url.Parse(streamURL)
	if err != nil {
		logging.WithFields(logging.Fields{
			"url":   streamURL,
			"error": err.Error(),
		}).Debug("Failed to parse stream URL")
		return common.StreamTypeUnsupported
	}

	path := strings.ToLower(u.Path)

	if strings.HasSuffix(path, ".m3u8") ||
		strings.Contains(path, "/playlist.m3u8") ||
		strings.Contains(path, "/chunklist.m3u8") ||
		strings.Contains(u.RawQuery, "m3u8") {
		return common.StreamTypeHLS
	}
	return common.StreamTypeUnsupported
}

// IsChunklistURL reports whether the URL points at a media chunklist rather
// than a master playlist
func IsChunklistURL(streamURL string) bool {
	u, err := url.Parse(streamURL)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(u.Path), "chunklist")
}

// DetectFromHeaders matches the HTTP headers with common HLS patterns
func DetectFromHeaders(ctx context.Context, client *http.Client, streamURL, userAgent string) common.StreamType {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, streamURL, nil)
	if err != nil {
		return common.StreamTypeUnsupported
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := client.Do(req)
	if err != nil {
		logging.WithFields(logging.Fields{
			"url":   streamURL,
			"error": err.Error(),
		}).Debug("HEAD request failed")
		return common.StreamTypeUnsupported
	}
	defer resp.Body.Close()

	contentType := common.ExtractContentType(resp.Header.Get("Content-Type"))

	if strings.Contains(contentType, "application/vnd.apple.mpegurl") ||
		strings.Contains(contentType, "application/x-mpegurl") ||
		strings.Contains(contentType, "vnd.apple.mpegurl") {
		return common.StreamTypeHLS
	}
	return common.StreamTypeUnsupported
}
