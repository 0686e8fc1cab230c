package cmd

import (
	"fmt"
	"strings"

	"github.com/RyanBlaney/latency-benchmark-common/output"
	"github.com/RyanBlaney/radio-sampler/configs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configTestCmd represents the config test command
var configTestCmd = &cobra.Command{
	Use:   "config-test",
	Short: "Test and display all configuration values",
	Long: `Load the configuration from defaults, the config file, .env and the
environment, validate it and print the effective values.

The recognition API token is masked.

Examples:
  radio-sampler config-test
  radio-sampler --config ./configs/radio-sampler.yaml config-test`,
	Args: cobra.NoArgs,
	RunE: runConfigTest,
}

func init() {
	rootCmd.AddCommand(configTestCmd)
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	fmt.Println("RADIO SAMPLER CONFIGURATION TEST")
	fmt.Println(strings.Repeat("=", 80))

	config, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	printSection("APPLICATION SETTINGS")
	printKeyValue("Verbose", fmt.Sprintf("%t", config.Verbose))
	printKeyValue("Log Level", config.LogLevel)
	printKeyValue("Output Format", config.OutputFormat)

	s := config.Sampling
	printSection("SAMPLING")
	printKeyValue("Segment Pattern", s.SegmentPattern)
	printKeyValue("Max Candidate Segments", fmt.Sprintf("%d", s.MaxCandidateSegments))
	printKeyValue("Max Combined Segments", fmt.Sprintf("%d", s.MaxCombinedSegments))
	printKeyValue("Min Segment Size", output.FormatBytes(int64(s.MinSegmentBytes)))
	printKeyValue("Max Segment Size", output.FormatBytes(s.MaxSegmentBytes))
	printKeyValue("Freshness Delay", s.FreshnessDelay.String())
	printKeyValue("Chunklist Timeout", s.ChunklistTimeout.String())
	printKeyValue("Segment Timeout", s.SegmentTimeout.String())

	r := config.Recognition
	printSection("RECOGNITION")
	printKeyValue("Endpoint", r.Endpoint)
	printKeyValue("API Token", maskSecret(r.APIToken))
	printKeyValue("Return Providers", r.ReturnProviders)
	printKeyValue("Timeout", r.Timeout.String())
	printKeyValue("Rate Limit", fmt.Sprintf("%.2f req/s (burst %d)", r.RateLimit, r.Burst))

	printSection("STREAM")
	printKeyValue("User Agent", config.Stream.UserAgent)
	printKeyValue("Max Redirects", fmt.Sprintf("%d", config.Stream.MaxRedirects))

	printSection("CATALOG")
	if config.Catalog.File == "" {
		printKeyValue("File", "(built-in)")
	} else {
		printKeyValue("File", config.Catalog.File)
	}

	printSection("SERVER")
	printKeyValue("Listen Address", config.Server.ListenAddress)
	printKeyValue("Read Timeout", config.Server.ReadTimeout.String())
	printKeyValue("Write Timeout", config.Server.WriteTimeout.String())

	printSection("METRICS")
	printKeyValue("Enabled", fmt.Sprintf("%t", config.Metrics.Enabled))
	printKeyValue("Log File", config.Metrics.LogFile)

	fmt.Println()
	fmt.Println(strings.Repeat("-", 80))
	if err := configs.ValidateConfig(config); err != nil {
		fmt.Printf("CONFIGURATION INVALID: %v\n", err)
		fmt.Println(strings.Repeat("=", 80))
		return err
	}
	fmt.Println("CONFIGURATION TEST COMPLETED SUCCESSFULLY")
	fmt.Printf("Config file: %s\n", getConfigFilePath())
	fmt.Println(strings.Repeat("=", 80))

	return nil
}

func printSection(title string) {
	fmt.Printf("\n%s\n", title)
	fmt.Println(strings.Repeat("-", len(title)))
}

func printKeyValue(key, value string) {
	if value == "" {
		fmt.Printf("%-35s\n", key)
	} else {
		fmt.Printf("%-35s %s\n", key+":", value)
	}
}

func maskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}

func getConfigFilePath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return "(none, defaults and environment only)"
}
