package orchestrator

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/xkilldash9x/dappscan-cli/api/schemas"
)

const scanIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// newScanID builds an identifier of the form
// scan_<base36 millisecond timestamp>_<6 random base36 chars>.
func newScanID(now time.Time) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = scanIDAlphabet[rand.IntN(len(scanIDAlphabet))]
	}
	return fmt.Sprintf("scan_%s_%s", strconv.FormatInt(now.UnixMilli(), 36), suffix)
}

// buildReport shapes findings and summary into the renderer-ready report.
func (o *Orchestrator) buildReport(
	scanID, target string,
	start time.Time,
	frontend schemas.FrontendFindings,
	contracts schemas.ContractFindings,
	summary schemas.RiskSummary,
) *schemas.Report {
	return &schemas.Report{
		ScanID:    scanID,
		URL:       target,
		Timestamp: start.UTC(),
		Version:   o.version,
		FrontendAnalysis: schemas.FrontendAnalysis{
			Summary: fmt.Sprintf("%d controls tested, %d wallet interactions, %d API calls observed",
				len(frontend.Buttons), len(frontend.WalletInteractions), len(frontend.APICalls)),
			Buttons:            frontend.Buttons,
			Signatures:         frontend.Signatures,
			APICalls:           frontend.APICalls,
			ExternalScripts:    frontend.ExternalScripts,
			WalletInteractions: frontend.WalletInteractions,
		},
		ContractAnalysis: schemas.ContractAnalysis{
			Summary: fmt.Sprintf("%d contract(s) analyzed, %d function(s) decoded, %d risk finding(s)",
				len(contracts.Analysis), len(contracts.AllFunctions), len(contracts.AllRisks)),
			Addresses: contracts.Addresses,
			Verified:  contracts.Verified,
			Functions: contracts.AllFunctions,
			Risks:     contracts.AllRisks,
			Analysis:  contracts.Analysis,
		},
		RiskSummary: summary,
		Metadata: schemas.ReportMetadata{
			Tool:             "dappscan-cli",
			Duration:         time.Since(start).Round(time.Millisecond).String(),
			MaxContracts:     o.cfg.Analyzer.MaxContracts,
			MaxControls:      o.cfg.Probe.MaxControls,
			MaxTestedClicks:  o.cfg.Probe.MaxTestedClicks,
			AddressesScanned: len(frontend.ContractAddresses),
		},
	}
}
