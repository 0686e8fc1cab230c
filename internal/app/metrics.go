package app

import (
	"syscall"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/tunein/go-logging/v7/pkg/logger"
	"github.com/tunein/go-logging/v7/pkg/logger/logtypes"
	"github.com/tunein/go-logging/v7/pkg/rootcollector"
	"github.com/tunein/go-logging/v7/pkg/rootlogger"
)

const defaultMetricsLogFile = "/tmp/radio-sampler.log"

// metricEmitter forwards sampler events to the root collector
type metricEmitter struct{}

func newMetricEmitter(logFile string) *metricEmitter {
	if logFile == "" {
		logFile = defaultMetricsLogFile
	}

	err := rootlogger.Configure(logger.LogOptions{
		Out:          logFile,
		ReopenSignal: syscall.SIGHUP,
		Level:        logtypes.InfoLevel,
	})
	if err != nil {
		logging.Error(err, "Failed configuring log writer")
	}

	return &metricEmitter{}
}

func (m *metricEmitter) RecognitionCompleted(stationID, outcome string, duration time.Duration) {
	tags := []string{"station:" + stationID, "outcome:" + outcome}
	rootcollector.Metric("radio.recognition.count", 1, tags)
	rootcollector.Metric("radio.recognition.duration.milliseconds", duration.Milliseconds(), tags)
}

func (m *metricEmitter) WindowAttempted(position, result string) {
	rootcollector.Metric("radio.recognition.window", 1, []string{"position:" + position, "result:" + result})
}

func (m *metricEmitter) SegmentFetched(result string) {
	rootcollector.Metric("radio.segment.fetch", 1, []string{"result:" + result})
}

func (m *metricEmitter) SampleDownloaded(stationID, result string) {
	rootcollector.Metric("radio.sample.download", 1, []string{"station:" + stationID, "result:" + result})
}
