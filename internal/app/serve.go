package app

import (
	"context"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/radio-sampler/configs"
	"github.com/RyanBlaney/radio-sampler/internal/metrics"
	"github.com/RyanBlaney/radio-sampler/internal/sampler"
	"github.com/RyanBlaney/radio-sampler/internal/server"
)

// Serve runs the HTTP API until ctx is canceled. Prometheus metrics are always
// collected in server mode; root collector metrics are added when enabled.
func (app *SamplerApp) Serve(ctx context.Context, listenAddress string) error {
	if listenAddress == "" {
		listenAddress = app.config.Server.ListenAddress
	}

	collector := metrics.NewCollector("radio_sampler")

	recorders := sampler.MultiRecorder{collector}
	if app.metrics != nil {
		recorders = append(recorders, app.metrics)
	}
	app.sampler.SetRecorder(recorders)

	if budget := configs.RecognitionBudget(app.config); app.config.Server.WriteTimeout > 0 &&
		app.config.Server.WriteTimeout <= budget {
		app.logger.Warn("server.write_timeout is below the worst-case recognition time; slow requests will end with TIMEOUT", logging.Fields{
			"write_timeout":      app.config.Server.WriteTimeout.String(),
			"recognition_budget": budget.String(),
		})
	}

	srv := server.New(server.Config{
		ListenAddress: listenAddress,
		ReadTimeout:   app.config.Server.ReadTimeout,
		WriteTimeout:  app.config.Server.WriteTimeout,
	}, app.sampler, app.catalog, collector, app.logger)

	app.logger.Info("Starting radio sampler API", logging.Fields{
		"address":  listenAddress,
		"stations": app.catalog.Len(),
	})

	return srv.Run(ctx)
}
