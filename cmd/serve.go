package cmd

import (
	"github.com/RyanBlaney/radio-sampler/internal/app"
	"github.com/spf13/cobra"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recognition and sample downloads over HTTP",
	Long: `Start the HTTP API.

Endpoints:
  POST /api/recognize        {"stationId": "..."} -> recognition service JSON
  POST /api/download-sample  {"stationId": "..."} -> audio/aac attachment
  GET  /api/stations         station catalog
  GET  /healthz              liveness
  GET  /metrics              Prometheus metrics

Examples:
  radio-sampler serve
  radio-sampler serve --listen 127.0.0.1:9000 --catalog-file stations.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		samplerApp, err := app.NewSamplerApp(newAppContext(cmd))
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(0)
		defer cancel()

		return samplerApp.Serve(ctx, serveListen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", "",
		"listen address (overrides server.listen_address)")
}
