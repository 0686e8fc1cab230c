package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/latency-benchmark-common/output"
	"github.com/RyanBlaney/radio-sampler/configs"
	"github.com/RyanBlaney/radio-sampler/internal/sampler"
	"github.com/RyanBlaney/radio-sampler/pkg/catalog"
	"github.com/RyanBlaney/radio-sampler/pkg/recognition"
	"github.com/RyanBlaney/radio-sampler/pkg/stream/hls"
)

// Context holds the application context and configuration
type Context struct {
	// CLI arguments
	ConfigFile     string
	CatalogFile    string
	OutputFile     string
	OutputFormat   string
	FreshnessDelay *time.Duration
	Verbose        bool
	Quiet          bool

	// Runtime context
	Logger logging.Logger
	Config *configs.Config
}

// SamplerApp wires the catalog, fetcher, recognition client and sampler
type SamplerApp struct {
	ctx     *Context
	config  *configs.Config
	logger  logging.Logger
	catalog *catalog.Catalog
	fetcher *hls.SegmentFetcher
	client  *recognition.Client
	sampler *sampler.Sampler
	metrics *metricEmitter
}

// NewSamplerApp creates a new sampler application
func NewSamplerApp(ctx *Context) (*SamplerApp, error) {
	config, err := loadAndMergeConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	ctx.Config = config

	logger := setupLogging(ctx)
	ctx.Logger = logger

	stations, err := catalog.Load(config.Catalog.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load station catalog: %w", err)
	}

	hlsConfig := hlsConfigFrom(config)
	fetcher := hls.NewSegmentFetcher(hls.NewHTTPClient(hlsConfig), hlsConfig, logger)

	if config.Recognition.APIToken == "" {
		logger.Warn("No recognition API token configured; requests will be rejected by the service")
	}
	client := recognition.NewClient(nil, recognitionConfigFrom(config), logger)

	s, err := sampler.New(samplerConfigFrom(config), stations, fetcher, client, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler: %w", err)
	}

	app := &SamplerApp{
		ctx:     ctx,
		config:  config,
		logger:  logger,
		catalog: stations,
		fetcher: fetcher,
		client:  client,
		sampler: s,
	}

	if config.Metrics.Enabled {
		app.metrics = newMetricEmitter(config.Metrics.LogFile)
		s.SetRecorder(app.metrics)
	}

	logger.Debug("Sampler application initialized", logging.Fields{
		"config_file":   ctx.ConfigFile,
		"catalog_file":  config.Catalog.File,
		"stations":      stations.Len(),
		"output_format": config.OutputFormat,
		"metrics":       config.Metrics.Enabled,
	})

	return app, nil
}

// setupLogging configures logging based on context
func setupLogging(ctx *Context) logging.Logger {
	level := logging.InfoLevel
	if ctx.Verbose || ctx.Config.Verbose || ctx.Config.LogLevel == "debug" {
		level = logging.DebugLevel
	}
	logging.SetLevel(level)

	return logging.NewDefaultLogger()
}

// Config returns the merged configuration
func (app *SamplerApp) Config() *configs.Config {
	return app.config
}

// Logger returns the application logger
func (app *SamplerApp) Logger() logging.Logger {
	return app.logger
}

// Catalog returns the station catalog
func (app *SamplerApp) Catalog() *catalog.Catalog {
	return app.catalog
}

// Fetcher returns the CDN segment fetcher
func (app *SamplerApp) Fetcher() *hls.SegmentFetcher {
	return app.fetcher
}

// Sampler returns the recognition orchestrator
func (app *SamplerApp) Sampler() *sampler.Sampler {
	return app.sampler
}

// Recognize runs one recognition and writes the formatted outcome
func (app *SamplerApp) Recognize(ctx context.Context, stationID string) (*sampler.Outcome, error) {
	outcome, err := app.sampler.Recognize(ctx, stationID)
	if err != nil {
		return nil, err
	}

	body, err := outcome.Body()
	if err != nil {
		return nil, fmt.Errorf("failed to encode recognition response: %w", err)
	}

	data := map[string]any{
		"station_id": outcome.StationID,
		"outcome":    outcome.Kind,
		"timestamp":  time.Now(),
		"duration":   outcome.Duration,
		"segments":   outcome.Segments,
		"attempts":   outcome.Attempts,
		"response":   rawJSON(body),
	}
	if outcome.Result != nil {
		data["song"] = map[string]any{
			"artist":    outcome.Result.Artist,
			"title":     outcome.Result.Title,
			"album":     outcome.Result.Album,
			"song_link": outcome.Result.SongLink,
		}
	}
	if outcome.Reason != "" {
		data["reason"] = outcome.Reason
	}

	view := &tableView{
		title:   "RECOGNITION RESULT",
		headers: []string{"STATION", "OUTCOME", "ARTIST", "TITLE", "SEGMENTS", "ATTEMPTS", "DURATION"},
	}
	artist, title := "-", "-"
	if outcome.Result != nil {
		artist, title = outcome.Result.Artist, outcome.Result.Title
	}
	view.rows = append(view.rows, []any{
		outcome.StationID, outcome.Kind, artist, title,
		outcome.Segments, len(outcome.Attempts), output.FormatDuration(outcome.Duration),
	})

	if err := app.writeOutput(data, view); err != nil {
		return nil, err
	}

	return outcome, nil
}

// DownloadSample fetches one raw segment and writes it to outputPath, or to
// the suggested filename inside outputPath when it is a directory
func (app *SamplerApp) DownloadSample(ctx context.Context, stationID, outputPath string) (string, error) {
	sample, err := app.sampler.DownloadSample(ctx, stationID)
	if err != nil {
		return "", err
	}

	target := outputPath
	if target == "" {
		target = sample.Filename
	} else if info, err := os.Stat(target); err == nil && info.IsDir() {
		target = filepath.Join(target, sample.Filename)
	}

	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(target, sample.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write sample: %w", err)
	}

	app.logger.Info("Sample written", logging.Fields{
		"station_id": stationID,
		"file":       target,
		"size_bytes": sample.Size,
	})

	return target, nil
}

// ListStations writes the station catalog
func (app *SamplerApp) ListStations() error {
	stations := app.catalog.Stations()

	view := &tableView{
		title:   fmt.Sprintf("STATIONS (%d)", len(stations)),
		headers: []string{"ID", "NAME", "COUNTRY", "LANGUAGE", "GENRES", "PLAYLIST"},
	}
	for _, station := range stations {
		playlist, err := station.PlaylistURL()
		if err != nil {
			playlist = "-"
		}
		view.rows = append(view.rows, []any{
			station.ID, station.Name, station.Country, station.Language,
			strings.Join(station.Genres, ", "), playlist,
		})
	}

	return app.writeOutput(map[string]any{"stations": stations, "count": len(stations)}, view)
}

// RecognizeBatch recognizes several stations concurrently, or every catalogued
// station when stationIDs is empty, and writes the formatted results
func (app *SamplerApp) RecognizeBatch(ctx context.Context, stationIDs []string, config *sampler.BatchConfig) (*sampler.BatchResult, error) {
	if len(stationIDs) == 0 {
		for _, station := range app.catalog.Stations() {
			stationIDs = append(stationIDs, station.ID)
		}
	}

	batch, err := app.sampler.RecognizeBatch(ctx, stationIDs, config)
	if err != nil {
		return nil, err
	}

	view := &tableView{
		title:   fmt.Sprintf("BATCH RECOGNITION (%d stations)", len(batch.Results)),
		headers: []string{"STATION", "OUTCOME", "ARTIST", "TITLE", "DURATION", "ERROR"},
	}
	results := make([]map[string]any, 0, len(batch.Results))

	for _, result := range batch.Results {
		entry := map[string]any{
			"station_id": result.StationID,
			"duration":   result.Duration,
		}
		kind, artist, title := "error", "-", "-"

		if result.Error != nil {
			entry["error_code"] = result.ErrorCode
			entry["error_message"] = result.Message
		} else {
			kind = string(result.Outcome.Kind)
			entry["outcome"] = result.Outcome.Kind
			if body, err := result.Outcome.Body(); err == nil {
				entry["response"] = rawJSON(body)
			}
			if result.Outcome.Result != nil {
				artist, title = result.Outcome.Result.Artist, result.Outcome.Result.Title
			}
		}

		results = append(results, entry)
		view.rows = append(view.rows, []any{
			result.StationID, kind, artist, title,
			output.FormatDuration(result.Duration), result.ErrorCode,
		})
	}

	data := map[string]any{
		"results":        results,
		"total_duration": batch.TotalDuration,
		"matched":        batch.Matched,
		"no_match":       batch.NoMatch,
		"attempt_failed": batch.AttemptFailed,
		"failed":         batch.Failed,
	}

	if err := app.writeOutput(data, view); err != nil {
		return nil, err
	}

	return batch, nil
}
