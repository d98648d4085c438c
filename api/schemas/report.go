package schemas

import "time"

// Report is the renderer-ready scan result. The top-level keys are fixed and
// consumed verbatim by the CLI and any downstream renderer.
type Report struct {
	ScanID           string           `json:"scanId"`
	URL              string           `json:"url"`
	Timestamp        time.Time        `json:"timestamp"`
	Version          string           `json:"version"`
	FrontendAnalysis FrontendAnalysis `json:"frontendAnalysis"`
	ContractAnalysis ContractAnalysis `json:"contractAnalysis"`
	RiskSummary      RiskSummary      `json:"riskSummary"`
	Metadata         ReportMetadata   `json:"metadata"`
}

// FrontendAnalysis is the report view of FrontendFindings plus a summary line.
type FrontendAnalysis struct {
	Summary            string               `json:"summary"`
	Buttons            []InteractiveElement `json:"buttons"`
	Signatures         []WalletCall         `json:"signatures"`
	APICalls           []string             `json:"apiCalls"`
	ExternalScripts    []string             `json:"externalScripts"`
	WalletInteractions []WalletCall         `json:"walletInteractions"`
}

// ContractAnalysis is the report view of ContractFindings plus a summary line.
type ContractAnalysis struct {
	Summary   string           `json:"summary"`
	Addresses []string         `json:"addresses"`
	Verified  []bool           `json:"verified"`
	Functions []string         `json:"functions"`
	Risks     []string         `json:"risks"`
	Analysis  []ContractRecord `json:"analysis"`
}

// ReportMetadata records how the scan was run.
type ReportMetadata struct {
	Tool             string `json:"tool"`
	Duration         string `json:"duration"`
	MaxContracts     int    `json:"maxContracts"`
	MaxControls      int    `json:"maxControls"`
	MaxTestedClicks  int    `json:"maxTestedClicks"`
	AddressesScanned int    `json:"addressesScanned"`
}
