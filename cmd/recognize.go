package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RyanBlaney/radio-sampler/internal/app"
	"github.com/RyanBlaney/radio-sampler/internal/sampler"
	"github.com/spf13/cobra"
)

var (
	recognizeOutputFile     string
	recognizeFreshnessDelay time.Duration
	recognizeTimeout        time.Duration
	recognizeQuiet          bool
	recognizeAll            bool
	recognizeConcurrency    int
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <station-id>...",
	Short: "Identify the song currently playing on a station",
	Long: `Fetch the station's live chunklist, combine recent AAC segments into
candidate windows and submit them to the music recognition service.

The command waits for the freshness delay first so the CDN has time to publish
new segments. The recognition service's response is printed as returned; a
station with no usable audio yields a successful result with no song.

Examples:
  # Recognize the song on the built-in AM1296 station
  radio-sampler recognize ming-pen-am1296

  # Skip the freshness delay and write JSON to a file
  radio-sampler recognize --freshness-delay 0 -o json --output-file result.json ming-pen-am855

  # Use a custom catalog and an API token from the environment
  AUDD_API_KEY=... radio-sampler --catalog-file stations.yaml recognize my-station

  # Recognize every catalogued station, two at a time
  radio-sampler recognize --all --concurrency 2 -o table`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !recognizeAll {
			return fmt.Errorf("requires at least one station ID or the --all flag")
		}
		return nil
	},
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().StringVar(&recognizeOutputFile, "output-file", "",
		"write the result to a file instead of stdout")
	recognizeCmd.Flags().DurationVar(&recognizeFreshnessDelay, "freshness-delay", 5*time.Second,
		"wait before reading the chunklist (overrides sampling.freshness_delay)")
	recognizeCmd.Flags().DurationVar(&recognizeTimeout, "timeout", 2*time.Minute,
		"overall operation timeout")
	recognizeCmd.Flags().BoolVarP(&recognizeQuiet, "quiet", "q", false,
		"suppress result output")
	recognizeCmd.Flags().BoolVar(&recognizeAll, "all", false,
		"recognize every station in the catalog")
	recognizeCmd.Flags().IntVar(&recognizeConcurrency, "concurrency", 4,
		"maximum stations recognized at once when several are given")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	appCtx := newAppContext(cmd)
	appCtx.OutputFile = recognizeOutputFile
	appCtx.Quiet = recognizeQuiet
	if cmd.Flags().Changed("freshness-delay") {
		appCtx.FreshnessDelay = &recognizeFreshnessDelay
	}

	samplerApp, err := app.NewSamplerApp(appCtx)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(recognizeTimeout)
	defer cancel()

	if len(args) == 1 && !recognizeAll {
		if _, err := samplerApp.Recognize(ctx, args[0]); err != nil {
			return fmt.Errorf("recognition failed: %w", err)
		}
		return nil
	}

	batchConfig := sampler.DefaultBatchConfig()
	batchConfig.MaxConcurrent = recognizeConcurrency
	batchConfig.OverallTimeout = 0

	stationIDs := args
	if recognizeAll {
		stationIDs = nil
	}

	batch, err := samplerApp.RecognizeBatch(ctx, stationIDs, batchConfig)
	if err != nil {
		return fmt.Errorf("batch recognition failed: %w", err)
	}
	if batch.Failed == len(batch.Results) {
		return fmt.Errorf("recognition failed for all %d stations", batch.Failed)
	}
	return nil
}

// newAppContext collects the global flags shared by every command
func newAppContext(cmd *cobra.Command) *app.Context {
	appCtx := &app.Context{
		ConfigFile: configFile,
		Verbose:    verbose,
	}
	if cmd.Flags().Changed("output") {
		appCtx.OutputFormat = outputFormat
	}
	if cmd.Flags().Changed("catalog-file") {
		appCtx.CatalogFile = catalogFile
	}
	return appCtx
}

// signalContext is canceled on SIGINT/SIGTERM or, when timeout is positive,
// once it elapses
func signalContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
