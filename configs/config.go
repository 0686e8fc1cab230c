package configs

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	OutputFormat string `mapstructure:"output_format"`

	Sampling    SamplingConfig    `mapstructure:"sampling"`
	Recognition RecognitionConfig `mapstructure:"recognition"`
	Stream      StreamConfig      `mapstructure:"stream"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Server      ServerConfig      `mapstructure:"server"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// SamplingConfig controls segment selection and validation
type SamplingConfig struct {
	MaxCandidateSegments int           `mapstructure:"max_candidate_segments"`
	MaxCombinedSegments  int           `mapstructure:"max_combined_segments"`
	MinSegmentBytes      int           `mapstructure:"min_segment_bytes"`
	MaxSegmentBytes      int64         `mapstructure:"max_segment_bytes"`
	FreshnessDelay       time.Duration `mapstructure:"freshness_delay"`
	ChunklistTimeout     time.Duration `mapstructure:"chunklist_timeout"`
	SegmentTimeout       time.Duration `mapstructure:"segment_timeout"`
	SegmentPattern       string        `mapstructure:"segment_pattern"`
}

// RecognitionConfig contains the music recognition service settings
type RecognitionConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	APIToken        string        `mapstructure:"api_token"`
	ReturnProviders string        `mapstructure:"return_providers"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	Burst           int           `mapstructure:"burst"`
}

// StreamConfig contains stream handling settings
type StreamConfig struct {
	UserAgent    string `mapstructure:"user_agent"`
	MaxRedirects int    `mapstructure:"max_redirects"`
}

// CatalogConfig points at an optional station catalog file
type CatalogConfig struct {
	File string `mapstructure:"file"`
}

// ServerConfig contains the HTTP API settings
type ServerConfig struct {
	ListenAddress string        `mapstructure:"listen_address"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
}

// MetricsConfig controls metric emission for one-shot commands
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	LogFile string `mapstructure:"log_file"`
}

// LoadConfig loads configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(viper.GetViper())
}

// LoadConfigFrom applies defaults to v and decodes it
func LoadConfigFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// RecognitionBudget is the longest a single recognition can take with these
// settings: the freshness wait, the chunklist, then three windows of segment
// fetches and a recognition call each. Rate limiter waits are not included.
func RecognitionBudget(config *Config) time.Duration {
	s := config.Sampling
	window := time.Duration(s.MaxCombinedSegments)*s.SegmentTimeout + config.Recognition.Timeout
	return s.FreshnessDelay + s.ChunklistTimeout + 3*window
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	s := config.Sampling
	if s.MaxCandidateSegments <= 0 {
		return fmt.Errorf("sampling.max_candidate_segments must be positive")
	}
	if s.MaxCombinedSegments <= 0 {
		return fmt.Errorf("sampling.max_combined_segments must be positive")
	}
	if s.MinSegmentBytes < 0 {
		return fmt.Errorf("sampling.min_segment_bytes cannot be negative")
	}
	if s.MaxSegmentBytes > 0 && s.MaxSegmentBytes < int64(s.MinSegmentBytes) {
		return fmt.Errorf("sampling.max_segment_bytes must not be below sampling.min_segment_bytes")
	}
	if s.FreshnessDelay < 0 {
		return fmt.Errorf("sampling.freshness_delay cannot be negative")
	}
	if s.ChunklistTimeout <= 0 || s.SegmentTimeout <= 0 {
		return fmt.Errorf("sampling timeouts must be positive")
	}
	if _, err := regexp.Compile(s.SegmentPattern); err != nil {
		return fmt.Errorf("sampling.segment_pattern is invalid: %w", err)
	}

	r := config.Recognition
	if !strings.HasPrefix(r.Endpoint, "http://") && !strings.HasPrefix(r.Endpoint, "https://") {
		return fmt.Errorf("recognition.endpoint must be an http(s) URL")
	}
	if r.Timeout <= 0 {
		return fmt.Errorf("recognition.timeout must be positive")
	}
	if r.RateLimit < 0 {
		return fmt.Errorf("recognition.rate_limit cannot be negative")
	}
	if r.Burst < 0 {
		return fmt.Errorf("recognition.burst cannot be negative")
	}

	if config.Stream.MaxRedirects < 0 {
		return fmt.Errorf("stream.max_redirects cannot be negative")
	}

	switch config.LogLevel {
	case "debug", "info":
	default:
		return fmt.Errorf("unsupported log level: %s (use debug or info)", config.LogLevel)
	}

	switch config.OutputFormat {
	case "json", "yaml", "table":
	default:
		return fmt.Errorf("unsupported output format: %s", config.OutputFormat)
	}

	return nil
}
