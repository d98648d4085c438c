package reporting

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/dappscan-cli/api/schemas"
)

type bufCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufCloser) Close() error {
	b.closed = true
	return nil
}

func sampleReport() *schemas.Report {
	return &schemas.Report{
		ScanID:    "scan_abc123_d4e5f6",
		URL:       "https://dapp.example.com",
		Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Version:   "1.0.0",
		RiskSummary: schemas.RiskSummary{
			Level:  schemas.LevelSafe,
			Score:  95,
			Issues: []string{"No significant security issues detected"},
		},
	}
}

func TestJSONReporterWritesIndentedReport(t *testing.T) {
	buf := &bufCloser{}
	r := NewJSONReporter(buf)

	require.NoError(t, r.Write(sampleReport()))
	require.NoError(t, r.Close())
	assert.True(t, buf.closed)

	var decoded schemas.Report
	require.NoError(t, jsoniter.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "scan_abc123_d4e5f6", decoded.ScanID)
	assert.Equal(t, 95, decoded.RiskSummary.Score)
	assert.Contains(t, buf.String(), "\n  \"scanId\"")
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	r, err := New("json", path)
	require.NoError(t, err)

	require.NoError(t, r.Write(sampleReport()))
	require.NoError(t, r.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded schemas.Report
	require.NoError(t, jsoniter.Unmarshal(raw, &decoded))
	assert.Equal(t, "https://dapp.example.com", decoded.URL)
}

func TestNewDefaultsToJSON(t *testing.T) {
	r, err := New("", "stdout")
	require.NoError(t, err)
	assert.IsType(t, &JSONReporter{}, r)
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New("yaml", "stdout")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}
