// Package reporting writes finished scan reports to their destination.
package reporting

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/dappscan-cli/api/schemas"
)

// Reporter defines the interface for writing a scan report to an output.
type Reporter interface {
	// Write renders a single report.
	Write(report *schemas.Report) error
	// Close finalizes the report and closes any underlying resources
	// (e.g. file handles).
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a reporter for the given format and output path. An empty path
// or "stdout" writes to standard output.
func New(format, outputPath string) (Reporter, error) {
	var writer io.WriteCloser
	isStdOut := outputPath == "" || outputPath == "stdout"

	if isStdOut {
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	cleanup := func() {
		if !isStdOut {
			writer.Close()
		}
	}

	switch format {
	case "json", "":
		// The JSON reporter takes ownership of the writer.
		return NewJSONReporter(writer), nil
	default:
		cleanup()
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// JSONReporter renders the report as indented JSON.
type JSONReporter struct {
	writer io.WriteCloser
}

func NewJSONReporter(writer io.WriteCloser) *JSONReporter {
	return &JSONReporter{writer: writer}
}

func (r *JSONReporter) Write(report *schemas.Report) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

func (r *JSONReporter) Close() error {
	return r.writer.Close()
}
