package app

import (
	"fmt"

	"github.com/RyanBlaney/radio-sampler/configs"
	"github.com/RyanBlaney/radio-sampler/internal/sampler"
	"github.com/RyanBlaney/radio-sampler/pkg/recognition"
	"github.com/RyanBlaney/radio-sampler/pkg/stream/hls"
)

// loadAndMergeConfig loads configuration from viper and applies CLI overrides
func loadAndMergeConfig(ctx *Context) (*configs.Config, error) {
	config, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load base configuration: %w", err)
	}

	if ctx.OutputFormat != "" {
		config.OutputFormat = ctx.OutputFormat
	}
	if ctx.CatalogFile != "" {
		config.Catalog.File = ctx.CatalogFile
	}
	if ctx.FreshnessDelay != nil {
		config.Sampling.FreshnessDelay = *ctx.FreshnessDelay
	}
	if ctx.Verbose {
		config.Verbose = true
	}

	if err := configs.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// hlsConfigFrom maps application settings onto the HLS fetcher configuration
func hlsConfigFrom(config *configs.Config) *hls.Config {
	hlsConfig := hls.DefaultConfig()

	s := config.Sampling
	hlsConfig.SegmentPattern = s.SegmentPattern
	hlsConfig.MaxCandidateSegments = s.MaxCandidateSegments
	hlsConfig.MaxCombinedSegments = s.MaxCombinedSegments
	hlsConfig.MinSegmentBytes = s.MinSegmentBytes
	hlsConfig.MaxSegmentBytes = s.MaxSegmentBytes
	hlsConfig.ChunklistTimeout = s.ChunklistTimeout
	hlsConfig.SegmentTimeout = s.SegmentTimeout

	if config.Stream.UserAgent != "" {
		hlsConfig.UserAgent = config.Stream.UserAgent
	}
	hlsConfig.MaxRedirects = config.Stream.MaxRedirects

	return hlsConfig
}

// recognitionConfigFrom maps application settings onto the AudD client configuration
func recognitionConfigFrom(config *configs.Config) *recognition.Config {
	recognitionConfig := recognition.DefaultConfig()

	r := config.Recognition
	recognitionConfig.Endpoint = r.Endpoint
	recognitionConfig.APIToken = r.APIToken
	recognitionConfig.ReturnProviders = r.ReturnProviders
	recognitionConfig.Timeout = r.Timeout
	recognitionConfig.RateLimit = r.RateLimit
	recognitionConfig.Burst = r.Burst

	if config.Stream.UserAgent != "" {
		recognitionConfig.UserAgent = config.Stream.UserAgent
	}

	return recognitionConfig
}

// samplerConfigFrom maps application settings onto the sampler configuration
func samplerConfigFrom(config *configs.Config) *sampler.Config {
	return &sampler.Config{
		SegmentPattern:       config.Sampling.SegmentPattern,
		MaxCandidateSegments: config.Sampling.MaxCandidateSegments,
		MaxCombinedSegments:  config.Sampling.MaxCombinedSegments,
		FreshnessDelay:       config.Sampling.FreshnessDelay,
	}
}
