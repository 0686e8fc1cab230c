package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/latency-benchmark-common/output"
)

// tableView is the human-readable rendering of a result
type tableView struct {
	title   string
	headers []string
	rows    [][]any
}

// tableFormatter renders a tableView, or any other value as flattened key/value pairs
type tableFormatter struct {
	view *tableView
}

func (f *tableFormatter) Format(data any, prettyPrint bool) ([]byte, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	view := f.view
	if view == nil {
		flat := output.ConvertToStringMap(output.ExtractFlattenedData(data, ""))
		view = &tableView{headers: []string{"KEY", "VALUE"}}
		for _, key := range slices.Sorted(maps.Keys(flat)) {
			view.rows = append(view.rows, []any{key, flat[key]})
		}
	}

	if view.title != "" {
		fmt.Fprintf(&buf, "%s\n%s\n\n", view.title, strings.Repeat("=", len(view.title)))
	}

	fmt.Fprintln(w, strings.Join(view.headers, "\t"))
	for _, row := range view.rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = output.ConvertValueToString(cell)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}

	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// newFormatter selects the output formatter for a format name
func newFormatter(format string, view *tableView) output.Formatter {
	switch format {
	case "json":
		return &output.JSONFormatter{}
	case "yaml":
		return &output.YAMLFormatter{}
	case "table":
		return &tableFormatter{view: view}
	default:
		return &output.JSONFormatter{}
	}
}

// writeOutput formats data and writes it to the output file or stdout
func (app *SamplerApp) writeOutput(data any, view *tableView) error {
	if app.ctx.Quiet {
		return nil
	}

	formattedData, err := newFormatter(app.config.OutputFormat, view).Format(data, true)
	if err != nil {
		return fmt.Errorf("failed to format output data: %w", err)
	}

	if app.ctx.OutputFile != "" {
		return app.writeToFile(formattedData)
	}

	_, err = os.Stdout.Write(formattedData)
	return err
}

// writeToFile writes data to the specified output file
func (app *SamplerApp) writeToFile(data []byte) error {
	dir := filepath.Dir(app.ctx.OutputFile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(app.ctx.OutputFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	app.logger.Debug("Results written to file", logging.Fields{
		"output_file": app.ctx.OutputFile,
		"size_bytes":  len(data),
	})

	return nil
}

// rawJSON decodes a passthrough body so every formatter renders it as a
// document rather than bytes
func rawJSON(body []byte) any {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return string(body)
	}
	return decoded
}
