package configs

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets default configuration values for all components
func setDefaults(v *viper.Viper) {
	// Application defaults
	v.SetDefault("verbose", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("output_format", "table")

	// Sampling defaults. Candidate and combine counts are empirical.
	v.SetDefault("sampling.max_candidate_segments", 5)
	v.SetDefault("sampling.max_combined_segments", 3)
	v.SetDefault("sampling.min_segment_bytes", 10000)
	v.SetDefault("sampling.max_segment_bytes", 5<<20)
	v.SetDefault("sampling.freshness_delay", 5*time.Second)
	v.SetDefault("sampling.chunklist_timeout", 10*time.Second)
	v.SetDefault("sampling.segment_timeout", 10*time.Second)
	v.SetDefault("sampling.segment_pattern", `^media_\d+\.aac$`)

	// Recognition defaults
	v.SetDefault("recognition.endpoint", "https://api.audd.io/")
	v.SetDefault("recognition.api_token", "")
	v.SetDefault("recognition.return_providers", "apple_music,spotify")
	v.SetDefault("recognition.timeout", 30*time.Second)
	v.SetDefault("recognition.rate_limit", 2.0)
	v.SetDefault("recognition.burst", 1)

	// Stream defaults
	v.SetDefault("stream.user_agent", "Radio-Sampler/1.0")
	v.SetDefault("stream.max_redirects", 3)

	// Catalog defaults (empty file means built-in stations)
	v.SetDefault("catalog.file", "")

	// Server defaults
	v.SetDefault("server.listen_address", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 4*time.Minute)

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.log_file", "")
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	return &Config{
		Verbose:      false,
		LogLevel:     "info",
		OutputFormat: "table",
		Sampling:     GetDefaultSamplingConfig(),
		Recognition:  GetDefaultRecognitionConfig(),
		Stream: StreamConfig{
			UserAgent:    "Radio-Sampler/1.0",
			MaxRedirects: 3,
		},
		Server: ServerConfig{
			ListenAddress: ":8080",
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  4 * time.Minute,
		},
	}
}

// GetDefaultSamplingConfig returns default sampling settings
func GetDefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		MaxCandidateSegments: 5,
		MaxCombinedSegments:  3,
		MinSegmentBytes:      10000,
		MaxSegmentBytes:      5 << 20,
		FreshnessDelay:       5 * time.Second,
		ChunklistTimeout:     10 * time.Second,
		SegmentTimeout:       10 * time.Second,
		SegmentPattern:       `^media_\d+\.aac$`,
	}
}

// GetDefaultRecognitionConfig returns default recognition service settings
func GetDefaultRecognitionConfig() RecognitionConfig {
	return RecognitionConfig{
		Endpoint:        "https://api.audd.io/",
		ReturnProviders: "apple_music,spotify",
		Timeout:         30 * time.Second,
		RateLimit:       2,
		Burst:           1,
	}
}
