// Package orchestrator manages the high-level lifecycle of a scan: probe the
// page, analyze the contracts it references, aggregate the risk, and shape
// the final report. It is injected with its collaborators via interfaces,
// keeping it decoupled and testable.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/dappscan-cli/api/schemas"
	"github.com/xkilldash9x/dappscan-cli/internal/config"
	"github.com/xkilldash9x/dappscan-cli/internal/risk"
)

// PageProber interrogates a live page and reports what it tried to do.
type PageProber interface {
	Probe(ctx context.Context, url string) (schemas.FrontendFindings, error)
}

// ContractAnalyzer inspects a batch of contract addresses.
type ContractAnalyzer interface {
	Analyze(ctx context.Context, addresses []string) schemas.ContractFindings
}

// Orchestrator runs one scan end to end.
type Orchestrator struct {
	cfg      *config.Config
	logger   *zap.Logger
	prober   PageProber
	analyzer ContractAnalyzer
	version  string
}

// New wires an orchestrator. All dependencies are required.
func New(cfg *config.Config, logger *zap.Logger, prober PageProber, analyzer ContractAnalyzer, version string) (*Orchestrator, error) {
	if cfg == nil || logger == nil || prober == nil || analyzer == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	return &Orchestrator{
		cfg:      cfg,
		logger:   logger,
		prober:   prober,
		analyzer: analyzer,
		version:  version,
	}, nil
}

// ScanTarget executes the full workflow against one URL. The scan honors the
// configured operation timeout: on expiry the browsing session is torn down
// and in-flight lookups are abandoned.
func (o *Orchestrator) ScanTarget(ctx context.Context, target string) (*schemas.Report, error) {
	if o.cfg.Scan.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Scan.Timeout)
		defer cancel()
	}

	start := time.Now()
	scanID := newScanID(start)
	o.logger.Info("Starting scan.", zap.String("scanID", scanID), zap.String("target", target))

	frontend, err := o.prober.Probe(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", target, err)
	}
	o.logger.Info("Probe complete.",
		zap.Int("controls", len(frontend.Buttons)),
		zap.Int("addresses", len(frontend.ContractAddresses)),
		zap.Int("walletCalls", len(frontend.WalletInteractions)))

	contracts := o.analyzer.Analyze(ctx, frontend.ContractAddresses)
	o.logger.Info("Contract analysis complete.",
		zap.Int("analyzed", len(contracts.Analysis)),
		zap.Int("risks", len(contracts.AllRisks)))

	summary := risk.Score(frontend, contracts)
	o.logger.Info("Scan finished.",
		zap.String("scanID", scanID),
		zap.Int("score", summary.Score),
		zap.String("level", string(summary.Level)),
		zap.Duration("elapsed", time.Since(start)))

	report := o.buildReport(scanID, target, start, frontend, contracts, summary)
	return report, nil
}
