package sampler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/radio-sampler/pkg/stream/common"
)

// BatchConfig controls a multi-station recognition run
type BatchConfig struct {
	// Timeout for each station's recognition
	StationTimeout time.Duration `json:"station_timeout"`
	// Overall timeout for the whole batch, zero for none
	OverallTimeout time.Duration `json:"overall_timeout"`
	// Maximum number of stations recognized at once
	MaxConcurrent int `json:"max_concurrent"`
}

// DefaultBatchConfig returns the default batch settings
func DefaultBatchConfig() *BatchConfig {
	return &BatchConfig{
		StationTimeout: 90 * time.Second,
		OverallTimeout: 5 * time.Minute,
		MaxConcurrent:  4,
	}
}

// StationResult is the recognition result for one station of a batch
type StationResult struct {
	StationID string    `json:"station_id"`
	Outcome   *Outcome  `json:"outcome,omitempty"`
	Error     error     `json:"-"`
	ErrorCode string    `json:"error_code,omitempty"`
	Message   string    `json:"error_message,omitempty"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	// Wall time including the wait for a free slot
	Duration time.Duration `json:"duration"`
}

// BatchResult contains the results of a multi-station run, in request order
type BatchResult struct {
	Results       []*StationResult `json:"results"`
	TotalDuration time.Duration    `json:"total_duration"`
	Matched       int              `json:"matched"`
	NoMatch       int              `json:"no_match"`
	AttemptFailed int              `json:"attempt_failed"`
	Failed        int              `json:"failed"`
}

// RecognizeBatch recognizes several stations concurrently. Per-station errors
// are reported in the results; only an empty request fails the batch.
func (s *Sampler) RecognizeBatch(ctx context.Context, stationIDs []string, config *BatchConfig) (*BatchResult, error) {
	if len(stationIDs) == 0 {
		return nil, common.NewStreamError(common.StreamTypeHLS, "", common.ErrCodeMissingParameter,
			"at least one station ID is required", nil)
	}
	if config == nil {
		config = DefaultBatchConfig()
	}
	concurrency := max(1, min(config.MaxConcurrent, len(stationIDs)))

	logger := s.logger.WithFields(logging.Fields{
		"function":       "RecognizeBatch",
		"station_count":  len(stationIDs),
		"max_concurrent": concurrency,
	})
	logger.Info("Starting batch recognition")

	if config.OverallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.OverallTimeout)
		defer cancel()
	}

	startTime := s.now()
	results := make([]*StationResult, len(stationIDs))
	slots := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i, stationID := range stationIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.recognizeOne(ctx, stationID, config.StationTimeout, slots)
		}()
	}
	wg.Wait()

	batch := &BatchResult{
		Results:       results,
		TotalDuration: s.now().Sub(startTime),
	}
	for _, result := range results {
		if result.Error != nil {
			batch.Failed++
			continue
		}
		switch result.Outcome.Kind {
		case OutcomeMatched:
			batch.Matched++
		case OutcomeNoMatch:
			batch.NoMatch++
		default:
			batch.AttemptFailed++
		}
	}

	logger.Info("Batch recognition completed", logging.Fields{
		"total_duration_ms": batch.TotalDuration.Milliseconds(),
		"matched":           batch.Matched,
		"no_match":          batch.NoMatch,
		"attempt_failed":    batch.AttemptFailed,
		"failed":            batch.Failed,
	})

	return batch, nil
}

func (s *Sampler) recognizeOne(ctx context.Context, stationID string, timeout time.Duration, slots chan struct{}) *StationResult {
	result := &StationResult{
		StationID: stationID,
		StartTime: s.now(),
	}
	finish := func(err error) *StationResult {
		if err != nil {
			result.Error = err
			result.ErrorCode = common.CodeOf(err)
			result.Message = err.Error()
		}
		result.EndTime = s.now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		return result
	}

	select {
	case slots <- struct{}{}:
		defer func() { <-slots }()
	case <-ctx.Done():
		return finish(fmt.Errorf("waiting for a free slot: %w", ctx.Err()))
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	outcome, err := s.Recognize(ctx, stationID)
	result.Outcome = outcome
	return finish(err)
}
