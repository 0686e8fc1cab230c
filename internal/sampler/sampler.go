package sampler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/radio-sampler/pkg/catalog"
	"github.com/RyanBlaney/radio-sampler/pkg/recognition"
	"github.com/RyanBlaney/radio-sampler/pkg/stream/common"
	"github.com/RyanBlaney/radio-sampler/pkg/stream/hls"
)

// StationResolver looks up stations by identifier
type StationResolver interface {
	Lookup(id string) (*catalog.Station, error)
}

// Fetcher downloads chunklists and segments
type Fetcher interface {
	FetchChunklist(ctx context.Context, chunklistURL string) (string, error)
	Fetch(ctx context.Context, segmentURL string) ([]byte, error)
}

// Recognizer submits combined audio to a music recognition service
type Recognizer interface {
	Recognize(ctx context.Context, audio []byte) (*recognition.Response, error)
}

// Config holds the sampler settings
type Config struct {
	SegmentPattern       string
	MaxCandidateSegments int
	MaxCombinedSegments  int
	// FreshnessDelay gives the CDN time to publish fresh segments before the
	// chunklist is read
	FreshnessDelay time.Duration
}

// DefaultConfig returns the default sampler configuration
func DefaultConfig() *Config {
	hlsConfig := hls.DefaultConfig()
	return &Config{
		SegmentPattern:       hlsConfig.SegmentPattern,
		MaxCandidateSegments: hlsConfig.MaxCandidateSegments,
		MaxCombinedSegments:  hlsConfig.MaxCombinedSegments,
		FreshnessDelay:       5 * time.Second,
	}
}

// Sampler identifies songs on live stations and serves raw samples
type Sampler struct {
	stations   StationResolver
	fetcher    Fetcher
	recognizer Recognizer
	extractor  *hls.SegmentExtractor
	strategy   hls.SamplingStrategy
	config     *Config
	recorder   Recorder
	logger     logging.Logger
	now        func() time.Time
}

// New creates a sampler
func New(config *Config, stations StationResolver, fetcher Fetcher, recognizer Recognizer, logger logging.Logger) (*Sampler, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if stations == nil || fetcher == nil || recognizer == nil {
		return nil, fmt.Errorf("sampler requires a station resolver, fetcher and recognizer")
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	extractor, err := hls.NewSegmentExtractor(config.SegmentPattern)
	if err != nil {
		return nil, err
	}

	return &Sampler{
		stations:   stations,
		fetcher:    fetcher,
		recognizer: recognizer,
		extractor:  extractor,
		strategy: hls.SamplingStrategy{
			MaxCandidates: config.MaxCandidateSegments,
			MaxCombined:   config.MaxCombinedSegments,
		},
		config:   config,
		recorder: nopRecorder{},
		logger:   logger.WithFields(logging.Fields{"component": "sampler"}),
		now:      time.Now,
	}, nil
}

// SetRecorder installs a metrics recorder
func (s *Sampler) SetRecorder(recorder Recorder) {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	s.recorder = recorder
}

// Recognize samples the station's live chunklist and tries the early, middle
// and late windows in turn, returning on the first match. Without a match the
// last service response is returned unchanged.
func (s *Sampler) Recognize(ctx context.Context, stationID string) (*Outcome, error) {
	startTime := s.now()

	outcome, err := s.recognize(ctx, stationID)
	duration := s.now().Sub(startTime)

	var result string
	if err != nil {
		result = strings.ToLower(common.CodeOf(err))
	} else {
		outcome.Duration = duration
		result = string(outcome.Kind)
	}
	s.recorder.RecognitionCompleted(stationLabel(stationID, err), result, duration)

	return outcome, err
}

func (s *Sampler) recognize(ctx context.Context, stationID string) (*Outcome, error) {
	stationID = strings.TrimSpace(stationID)
	playlistURL, err := s.resolve(stationID)
	if err != nil {
		return nil, err
	}

	logger := s.logger.WithFields(logging.Fields{
		"station_id": stationID,
		"url":        playlistURL,
	})

	if err := s.waitForFreshSegments(ctx); err != nil {
		return nil, err
	}

	segments, err := s.segments(ctx, playlistURL)
	if err != nil {
		if common.IsCode(err, common.ErrCodeNoSegmentsFound) {
			logger.Warn("Chunklist lists no media segments")
			return s.noAudioOutcome(stationID, 0, nil), nil
		}
		return nil, err
	}

	logger.Debug("Extracted segments", logging.Fields{"count": len(segments)})

	outcome := &Outcome{
		StationID: stationID,
		Segments:  len(segments),
		Attempts:  make([]WindowAttempt, 0, 3),
	}

	var (
		lastResponse *recognition.Response
		lastCallErr  error
	)

	for window := range s.strategy.Windows(len(segments)) {
		attempt := WindowAttempt{Position: window.Position, Indices: window.Indices}

		if window.Empty() {
			attempt.Result = AttemptSkipped
			s.finishAttempt(outcome, attempt)
			continue
		}

		buffers, err := s.fetchWindow(ctx, logger, playlistURL, segments, window, &attempt)
		if err != nil {
			return nil, err
		}

		if len(buffers) == 0 {
			attempt.Result = AttemptSkipped
			s.finishAttempt(outcome, attempt)
			logger.Warn("No valid segments in window", logging.Fields{"position": window.Position})
			continue
		}

		combined := hls.CombineSegments(buffers)
		attempt.Bytes = len(combined)

		resp, err := s.recognizer.Recognize(ctx, combined)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastCallErr = err
			attempt.Result = AttemptCallFailed
			attempt.Error = err.Error()
			s.finishAttempt(outcome, attempt)
			logger.Error(err, "Recognition call failed", logging.Fields{"position": window.Position})
			continue
		}

		if resp.Matched() {
			attempt.Result = AttemptMatched
			s.finishAttempt(outcome, attempt)

			outcome.Kind = OutcomeMatched
			outcome.Result = resp.Result
			outcome.Response = resp

			logger.Info("Song recognized", logging.Fields{
				"position": window.Position,
				"artist":   resp.Result.Artist,
				"title":    resp.Result.Title,
			})
			return outcome, nil
		}

		attempt.Result = AttemptNoMatch
		if resp.ServiceFailed() {
			attempt.Result = AttemptServiceError
			attempt.Error = serviceErrorMessage(resp)
		}
		s.finishAttempt(outcome, attempt)
		lastResponse = resp

		logger.Debug("No match in window", logging.Fields{
			"position": window.Position,
			"status":   resp.Status,
		})
	}

	switch {
	case lastResponse != nil:
		outcome.Response = lastResponse
		outcome.Kind = OutcomeNoMatch
		if lastResponse.ServiceFailed() {
			outcome.Kind = OutcomeAttemptFailed
			outcome.Reason = serviceErrorMessage(lastResponse)
		}
	case lastCallErr != nil:
		outcome.Response = recognition.Synthetic("")
		outcome.Kind = OutcomeAttemptFailed
		outcome.Reason = lastCallErr.Error()
	default:
		return s.noAudioOutcome(stationID, len(segments), outcome.Attempts), nil
	}

	logger.Info("No match found", logging.Fields{
		"outcome":  outcome.Kind,
		"attempts": len(outcome.Attempts),
	})

	return outcome, nil
}

// DownloadSample returns the first segment of the station's chunklist as-is.
// There is no freshness delay, retry or combining.
func (s *Sampler) DownloadSample(ctx context.Context, stationID string) (*Sample, error) {
	sample, err := s.downloadSample(ctx, strings.TrimSpace(stationID))

	result := "ok"
	if err != nil {
		result = strings.ToLower(common.CodeOf(err))
	}
	s.recorder.SampleDownloaded(stationLabel(stationID, err), result)

	return sample, err
}

func (s *Sampler) downloadSample(ctx context.Context, stationID string) (*Sample, error) {
	playlistURL, err := s.resolve(stationID)
	if err != nil {
		return nil, err
	}

	segments, err := s.segments(ctx, playlistURL)
	if err != nil {
		return nil, err
	}

	segmentURL := hls.SegmentURL(playlistURL, segments[0])
	data, err := s.fetcher.Fetch(ctx, segmentURL)
	s.recorder.SegmentFetched(fetchResult(err))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	s.logger.Debug("Sample downloaded", logging.Fields{
		"station_id": stationID,
		"url":        segmentURL,
		"bytes":      len(data),
	})

	return &Sample{
		StationID:   stationID,
		SegmentURL:  segmentURL,
		ContentType: common.AudioContentType,
		Filename:    fmt.Sprintf("radio-sample-%s-%d.aac", stationID, s.now().UnixMilli()),
		Size:        len(data),
		Data:        data,
	}, nil
}

// resolve validates the identifier and finds the playlist to sample. It makes
// no network calls.
func (s *Sampler) resolve(stationID string) (string, error) {
	if stationID == "" {
		return "", common.NewStreamError(common.StreamTypeUnsupported, "",
			common.ErrCodeMissingParameter, "Station ID is required", nil)
	}

	station, err := s.stations.Lookup(stationID)
	if err != nil {
		return "", err
	}

	return station.PlaylistURL()
}

func (s *Sampler) segments(ctx context.Context, playlistURL string) ([]string, error) {
	chunklist, err := s.fetcher.FetchChunklist(ctx, playlistURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	segments, err := s.extractor.Extract(chunklist)
	if err != nil {
		var streamErr *common.StreamError
		if errors.As(err, &streamErr) {
			streamErr.URL = playlistURL
		}
		return nil, err
	}

	return segments, nil
}

func (s *Sampler) fetchWindow(ctx context.Context, logger logging.Logger, playlistURL string,
	segments []string, window hls.CandidateWindow, attempt *WindowAttempt) ([][]byte, error) {
	buffers := make([][]byte, 0, len(window.Indices))

	for _, idx := range window.Indices {
		segmentURL := hls.SegmentURL(playlistURL, segments[idx])
		data, err := s.fetcher.Fetch(ctx, segmentURL)
		s.recorder.SegmentFetched(fetchResult(err))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			attempt.SegmentsFailed++

			var streamErr *common.StreamError
			if errors.As(err, &streamErr) {
				if streamErr.Fields == nil {
					streamErr.Fields = make(logging.Fields)
				}
				streamErr.Fields["position"] = string(window.Position)
				streamErr.LogWith(logger)
			} else {
				logger.Error(err, "Segment fetch failed", logging.Fields{"segment_url": segmentURL})
			}
			continue
		}

		attempt.SegmentsValid++
		buffers = append(buffers, data)
	}

	return buffers, nil
}

func (s *Sampler) waitForFreshSegments(ctx context.Context) error {
	if s.config.FreshnessDelay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(s.config.FreshnessDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Sampler) finishAttempt(outcome *Outcome, attempt WindowAttempt) {
	outcome.Attempts = append(outcome.Attempts, attempt)
	s.recorder.WindowAttempted(string(attempt.Position), attempt.Result)
}

func (s *Sampler) noAudioOutcome(stationID string, segments int, attempts []WindowAttempt) *Outcome {
	if attempts == nil {
		attempts = []WindowAttempt{}
	}
	return &Outcome{
		Kind:      OutcomeAttemptFailed,
		StationID: stationID,
		Reason:    NoAudioMessage,
		Response:  recognition.Synthetic(NoAudioMessage),
		Attempts:  attempts,
		Segments:  segments,
	}
}

func serviceErrorMessage(resp *recognition.Response) string {
	if resp.Error != nil && resp.Error.Message != "" {
		return resp.Error.Message
	}
	return fmt.Sprintf("recognition service returned status %q", resp.Status)
}

// stationLabel keeps metric labels to catalogued identifiers. Requests that
// never resolved a station share UnknownStation.
func stationLabel(stationID string, err error) string {
	if common.IsCode(err, common.ErrCodeMissingParameter) || common.IsCode(err, common.ErrCodeStationNotFound) {
		return UnknownStation
	}
	return strings.TrimSpace(stationID)
}

func fetchResult(err error) string {
	if err == nil {
		return "ok"
	}
	return common.CodeOf(err)
}
