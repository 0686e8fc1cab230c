package cmd

import (
	"github.com/RyanBlaney/radio-sampler/internal/app"
	"github.com/spf13/cobra"
)

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "List the station catalog",
	Long: `List every station in the catalog with its resolved playlist URL.

Examples:
  radio-sampler stations
  radio-sampler stations -o yaml --catalog-file stations.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		samplerApp, err := app.NewSamplerApp(newAppContext(cmd))
		if err != nil {
			return err
		}
		return samplerApp.ListStations()
	},
}

func init() {
	rootCmd.AddCommand(stationsCmd)
}
