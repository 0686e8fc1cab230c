package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/radio-sampler/pkg/stream/common"
	"golang.org/x/time/rate"
)

const (
	DefaultEndpoint        = "https://api.audd.io/"
	DefaultReturnProviders = "apple_music,spotify"

	// maxResponseBytes bounds the decoded response body
	maxResponseBytes = 4 << 20
)

// Config holds the recognition client settings
type Config struct {
	Endpoint        string        `json:"endpoint"`
	APIToken        string        `json:"-"`
	ReturnProviders string        `json:"return_providers"`
	Timeout         time.Duration `json:"timeout"`
	RateLimit       float64       `json:"rate_limit"` // requests per second, 0 disables
	Burst           int           `json:"burst"`
	UserAgent       string        `json:"user_agent"`
}

// DefaultConfig returns the default AudD client configuration
func DefaultConfig() *Config {
	return &Config{
		Endpoint:        DefaultEndpoint,
		ReturnProviders: DefaultReturnProviders,
		Timeout:         30 * time.Second,
		RateLimit:       2,
		Burst:           1,
		UserAgent:       "Radio-Sampler/1.0",
	}
}

// Client submits audio samples to AudD
type Client struct {
	httpClient *http.Client
	config     *Config
	limiter    *rate.Limiter
	logger     logging.Logger
}

// NewClient creates a recognition client. The limiter is shared by every
// request made through the client.
func NewClient(httpClient *http.Client, config *Config, logger logging.Logger) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}
	burst := max(config.Burst, 1)

	return &Client{
		httpClient: httpClient,
		config:     config,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger.WithFields(logging.Fields{"component": "recognition_client"}),
	}
}

// Recognize uploads an AAC sample and decodes the service response. Service
// level failures are reported in the response, not as errors; errors mean the
// call itself failed.
func (c *Client) Recognize(ctx context.Context, audio []byte) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	body, contentType, err := c.buildForm(audio)
	if err != nil {
		return nil, common.NewStreamError(common.StreamTypeUnsupported, c.config.Endpoint,
			common.ErrCodeInternal, "failed to build recognition request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, body)
	if err != nil {
		return nil, common.NewStreamError(common.StreamTypeUnsupported, c.config.Endpoint,
			common.ErrCodeInternal, "failed to create recognition request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		code := common.ErrCodeFetchFailed
		if ctx.Err() == context.DeadlineExceeded {
			code = common.ErrCodeTimeout
		}
		return nil, common.NewStreamError(common.StreamTypeUnsupported, c.config.Endpoint,
			code, "recognition request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, common.NewStreamError(common.StreamTypeUnsupported, c.config.Endpoint,
			common.ErrCodeFetchFailed, "failed to read recognition response", err)
	}

	var decoded Response
	if err := json.Unmarshal(raw, &decoded); err != nil || decoded.Status == "" {
		if err == nil {
			err = fmt.Errorf("response has no status")
		}
		return nil, common.NewStreamErrorWithFields(common.StreamTypeUnsupported, c.config.Endpoint,
			common.ErrCodeFetchFailed, fmt.Sprintf("undecodable recognition response (HTTP %d)", resp.StatusCode), err,
			logging.Fields{"status_code": resp.StatusCode})
	}
	decoded.Raw = json.RawMessage(raw)

	c.logger.Debug("Recognition response received", logging.Fields{
		"status":      decoded.Status,
		"matched":     decoded.Matched(),
		"http_status": resp.StatusCode,
		"sample_size": len(audio),
		"duration_ms": time.Since(startTime).Milliseconds(),
	})

	return &decoded, nil
}

func (c *Client) buildForm(audio []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="segment.aac"`)
	header.Set("Content-Type", common.AudioContentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("copy audio data: %w", err)
	}

	if err := writer.WriteField("api_token", c.config.APIToken); err != nil {
		return nil, "", fmt.Errorf("write api_token field: %w", err)
	}
	if c.config.ReturnProviders != "" {
		if err := writer.WriteField("return", c.config.ReturnProviders); err != nil {
			return nil, "", fmt.Errorf("write return field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}
