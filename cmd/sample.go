package cmd

import (
	"fmt"
	"time"

	"github.com/RyanBlaney/radio-sampler/internal/app"
	"github.com/spf13/cobra"
)

var (
	sampleOut     string
	sampleTimeout time.Duration
)

var sampleCmd = &cobra.Command{
	Use:   "sample <station-id>",
	Short: "Download one raw AAC segment from a station",
	Long: `Download the first segment listed in the station's live chunklist and
save it as an AAC file. No freshness delay is applied.

When --out names a directory, the file is saved there as
radio-sample-<station-id>-<unix-millis>.aac.

Examples:
  radio-sampler sample ming-pen-am1296
  radio-sampler sample --out ./samples ming-pen-am855`,
	Args: cobra.ExactArgs(1),
	RunE: runSample,
}

func init() {
	rootCmd.AddCommand(sampleCmd)

	sampleCmd.Flags().StringVar(&sampleOut, "out", "",
		"output file or directory (default is the current directory)")
	sampleCmd.Flags().DurationVar(&sampleTimeout, "timeout", time.Minute,
		"overall operation timeout")
}

func runSample(cmd *cobra.Command, args []string) error {
	samplerApp, err := app.NewSamplerApp(newAppContext(cmd))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(sampleTimeout)
	defer cancel()

	path, err := samplerApp.DownloadSample(ctx, args[0], sampleOut)
	if err != nil {
		return fmt.Errorf("sample download failed: %w", err)
	}

	fmt.Println(path)
	return nil
}
