package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/output"
	"github.com/RyanBlaney/radio-sampler/internal/app"
	"github.com/RyanBlaney/radio-sampler/pkg/stream/common"
	"github.com/RyanBlaney/radio-sampler/pkg/stream/hls"
	"github.com/spf13/cobra"
)

var (
	hlsFetchSegments bool
	hlsTimeout       time.Duration
)

var hlsCmd = &cobra.Command{
	Use:   "hls <station-id|chunklist-url>",
	Short: "Inspect a station's chunklist and candidate windows",
	Long: `Run the sampling pipeline up to, but not including, recognition.

This command checks:
- URL pattern detection
- HTTP header detection
- Chunklist download and segment extraction
- The early, middle and late candidate windows
- Segment downloads and size validation (with --fetch-segments)

Examples:
  # Inspect a catalogued station
  radio-sampler hls ming-pen-am1296

  # Inspect a chunklist directly and download its candidate segments
  radio-sampler hls --fetch-segments https://example.com/live/chunklist.m3u8`,
	Args: cobra.ExactArgs(1),
	RunE: runHLSTest,
}

func init() {
	rootCmd.AddCommand(hlsCmd)

	hlsCmd.Flags().BoolVar(&hlsFetchSegments, "fetch-segments", false,
		"download the candidate segments and validate their size")
	hlsCmd.Flags().DurationVar(&hlsTimeout, "timeout", 60*time.Second,
		"operation timeout")
}

func runHLSTest(cmd *cobra.Command, args []string) error {
	samplerApp, err := app.NewSamplerApp(newAppContext(cmd))
	if err != nil {
		return err
	}

	chunklistURL := args[0]
	if !common.IsValidURL(chunklistURL) {
		station, err := samplerApp.Catalog().Lookup(chunklistURL)
		if err != nil {
			return err
		}
		if chunklistURL, err = station.PlaylistURL(); err != nil {
			return err
		}
		fmt.Printf("Station: %s (%s)\n", station.Name, station.ID)
	}

	fetcher := samplerApp.Fetcher()
	config := fetcher.Config()

	fmt.Printf("HLS Chunklist Inspection: %s\n", chunklistURL)
	fmt.Printf("═══════════════════════════════════════════════════════════════\n\n")

	ctx, cancel := signalContext(hlsTimeout)
	defer cancel()

	// 1: URL pattern detection
	fmt.Printf("URL Pattern Detection\n")
	urlDetection := hls.DetectFromURL(chunklistURL)
	fmt.Printf("   %s URL pattern: %s\n", getCheckmark(urlDetection == common.StreamTypeHLS), urlDetection)
	fmt.Printf("   Chunklist URL: %t\n\n", hls.IsChunklistURL(chunklistURL))

	// 2: HTTP header detection
	fmt.Printf("HTTP Header Detection\n")
	headerDetection := hls.DetectFromHeaders(ctx, hls.NewHTTPClient(config), chunklistURL, config.UserAgent)
	fmt.Printf("   %s Content-Type: %s\n\n", getCheckmark(headerDetection == common.StreamTypeHLS), headerDetection)

	// 3: chunklist and segments
	fmt.Printf("Segment Extraction\n")
	text, err := fetcher.FetchChunklist(ctx, chunklistURL)
	if err != nil {
		fmt.Printf("   %s Chunklist download failed: %v\n", getCheckmark(false), err)
		return err
	}

	extractor, err := hls.NewSegmentExtractor(config.SegmentPattern)
	if err != nil {
		return err
	}
	segments, err := extractor.Extract(text)
	if err != nil {
		fmt.Printf("   %s %v\n", getCheckmark(false), err)
		return nil
	}
	fmt.Printf("   %s %d segments match %s\n", getCheckmark(true), len(segments), extractor.Pattern())
	for i, segment := range segments {
		fmt.Printf("      [%d] %s\n", i, segment)
	}
	fmt.Printf("\n")

	// 4: candidate windows
	fmt.Printf("Candidate Windows\n")
	strategy := hls.NewSamplingStrategy(config)
	for window := range strategy.Windows(len(segments)) {
		names := make([]string, 0, len(window.Indices))
		for _, idx := range window.Indices {
			names = append(names, segments[idx])
		}
		if window.Empty() {
			names = append(names, "(empty)")
		}
		fmt.Printf("   %-7s %v  %s\n", window.Position, window.Indices, strings.Join(names, ", "))
	}
	fmt.Printf("\n")

	// 5: segment downloads (if requested)
	if hlsFetchSegments {
		fmt.Printf("Segment Downloads\n")
		fetchCandidateSegments(ctx, fetcher, chunklistURL, segments)
		fmt.Printf("\n")
	}

	stats := fetcher.GetDownloadStats()
	fmt.Printf("Summary\n")
	fmt.Printf("═══════════════════════════════════════════════════════════════\n")
	fmt.Printf("URL Detection:       %s\n", getCheckmark(urlDetection == common.StreamTypeHLS))
	fmt.Printf("Header Detection:    %s\n", getCheckmark(headerDetection == common.StreamTypeHLS))
	fmt.Printf("Segments Found:      %d\n", len(segments))
	fmt.Printf("Segments Downloaded: %d (%s)\n", stats.SegmentsDownloaded, output.FormatBytes(stats.BytesDownloaded))
	fmt.Printf("Segment Errors:      %d\n", stats.ErrorCount)

	return nil
}

func fetchCandidateSegments(ctx context.Context, fetcher *hls.SegmentFetcher, chunklistURL string, segments []string) {
	limit := min(len(segments), fetcher.Config().MaxCandidateSegments)
	for _, segment := range segments[:limit] {
		startTime := time.Now()
		data, err := fetcher.Fetch(ctx, hls.SegmentURL(chunklistURL, segment))
		if err != nil {
			fmt.Printf("   %s %s: %s\n", getCheckmark(false), segment, common.CodeOf(err))
			continue
		}
		fmt.Printf("   %s %s: %s in %s\n", getCheckmark(true), segment,
			output.FormatBytes(int64(len(data))), output.FormatDuration(time.Since(startTime)))
	}
}

func getCheckmark(success bool) string {
	if success {
		return "✅ PASS"
	}
	return "❌ FAIL"
}
