package orchestrator

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dappscan-cli/api/schemas"
	"github.com/xkilldash9x/dappscan-cli/internal/config"
)

type fakeProber struct {
	findings schemas.FrontendFindings
	err      error
	gotURL   string
	sawCtx   context.Context
}

func (f *fakeProber) Probe(ctx context.Context, url string) (schemas.FrontendFindings, error) {
	f.gotURL = url
	f.sawCtx = ctx
	return f.findings, f.err
}

type fakeAnalyzer struct {
	findings schemas.ContractFindings
	gotAddrs []string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, addrs []string) schemas.ContractFindings {
	f.gotAddrs = addrs
	return f.findings
}

func newTestOrchestrator(t *testing.T, p *fakeProber, a *fakeAnalyzer) *Orchestrator {
	t.Helper()
	o, err := New(config.NewDefaultConfig(), zap.NewNop(), p, a, "1.2.3")
	require.NoError(t, err)
	return o
}

func TestNewRejectsNilDependencies(t *testing.T) {
	_, err := New(nil, zap.NewNop(), &fakeProber{}, &fakeAnalyzer{}, "dev")
	require.Error(t, err)

	_, err = New(config.NewDefaultConfig(), zap.NewNop(), nil, &fakeAnalyzer{}, "dev")
	require.Error(t, err)
}

func TestScanTargetWiresProbeIntoAnalysis(t *testing.T) {
	prober := &fakeProber{findings: schemas.FrontendFindings{
		ContractAddresses: []string{"0xaaaa", "0xbbbb"},
	}}
	analyzer := &fakeAnalyzer{findings: schemas.ContractFindings{
		Addresses: []string{"0xaaaa"},
		Verified:  []bool{true},
		Analysis:  []schemas.ContractRecord{{Address: "0xaaaa", Verified: true}},
	}}

	o := newTestOrchestrator(t, prober, analyzer)
	report, err := o.ScanTarget(context.Background(), "https://dapp.example.com")
	require.NoError(t, err)

	assert.Equal(t, "https://dapp.example.com", prober.gotURL)
	assert.Equal(t, []string{"0xaaaa", "0xbbbb"}, analyzer.gotAddrs)
	assert.Equal(t, "https://dapp.example.com", report.URL)
	assert.Equal(t, "1.2.3", report.Version)
	assert.Equal(t, 2, report.Metadata.AddressesScanned)
	assert.NotZero(t, report.RiskSummary.Score)
}

func TestScanTargetProbeFailureIsFatal(t *testing.T) {
	prober := &fakeProber{err: errors.New("page load failed")}
	o := newTestOrchestrator(t, prober, &fakeAnalyzer{})

	report, err := o.ScanTarget(context.Background(), "https://down.example.com")
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "down.example.com")
}

func TestScanTargetAppliesOperationTimeout(t *testing.T) {
	prober := &fakeProber{}
	o := newTestOrchestrator(t, prober, &fakeAnalyzer{})
	o.cfg.Scan.Timeout = time.Minute

	_, err := o.ScanTarget(context.Background(), "https://dapp.example.com")
	require.NoError(t, err)

	deadline, ok := prober.sawCtx.Deadline()
	require.True(t, ok, "probe context should carry the scan deadline")
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestScanIDFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^scan_[0-9a-z]+_[0-9a-z]{6}$`)
	now := time.Now()

	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		id := newScanID(now)
		assert.Regexp(t, pattern, id)
		seen[id] = struct{}{}
	}
	// The random suffix makes collisions across 20 draws vanishingly rare.
	assert.Greater(t, len(seen), 1)
}

func TestReportJSONKeys(t *testing.T) {
	prober := &fakeProber{findings: schemas.FrontendFindings{
		ContractAddresses: []string{"0xaaaa"},
	}}
	o := newTestOrchestrator(t, prober, &fakeAnalyzer{})

	report, err := o.ScanTarget(context.Background(), "https://dapp.example.com")
	require.NoError(t, err)

	raw, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, jsoniter.Unmarshal(raw, &decoded))
	for _, key := range []string{
		"scanId", "url", "timestamp", "version",
		"frontendAnalysis", "contractAnalysis", "riskSummary", "metadata",
	} {
		assert.Contains(t, decoded, key)
	}

	frontend, ok := decoded["frontendAnalysis"].(map[string]interface{})
	require.True(t, ok)
	for _, key := range []string{"summary", "buttons", "signatures", "apiCalls", "externalScripts", "walletInteractions"} {
		assert.Contains(t, frontend, key)
	}

	contract, ok := decoded["contractAnalysis"].(map[string]interface{})
	require.True(t, ok)
	for _, key := range []string{"summary", "addresses", "verified", "functions", "risks", "analysis"} {
		assert.Contains(t, contract, key)
	}
}
