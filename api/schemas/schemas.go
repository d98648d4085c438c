// Package schemas defines the shared data model exchanged between the
// prober, the bytecode analyzer, the risk aggregator and the reporting layer.
package schemas

import (
	"encoding/json"
	"time"
)

// Risk classifies the observed behavior of a single interactive control.
type Risk string

const (
	RiskSafe    Risk = "safe"
	RiskWarning Risk = "warning"
	RiskDanger  Risk = "danger"
	RiskUnknown Risk = "unknown"
)

// RiskLevel is the overall verdict for a scan.
type RiskLevel string

const (
	LevelSafe    RiskLevel = "safe"
	LevelWarning RiskLevel = "warning"
	LevelDanger  RiskLevel = "danger"
)

// InteractiveElement describes one clickable control discovered on the page.
// Action and Risk are written exactly once, when the control is tested.
type InteractiveElement struct {
	Text    string   `json:"text"`
	TagName string   `json:"tagName"`
	Classes []string `json:"classes"`
	ID      string   `json:"id"`
	Action  string   `json:"action"`
	Risk    Risk     `json:"risk"`
}

// WalletCall is a single invocation of the injected mock wallet. Entries are
// append-only; they are never mutated or removed once recorded.
type WalletCall struct {
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// FrontendFindings is everything the Interaction Prober learned about a page.
type FrontendFindings struct {
	Buttons            []InteractiveElement `json:"buttons"`
	Signatures         []WalletCall         `json:"signatures"`
	APICalls           []string             `json:"apiCalls"`
	ExternalScripts    []string             `json:"externalScripts"`
	ContractAddresses  []string             `json:"contractAddresses"`
	WalletInteractions []WalletCall         `json:"walletInteractions"`
}

// ContractRecord is the analysis result for one contract address. It is
// immutable once produced by the analyzer.
type ContractRecord struct {
	Address        string   `json:"address"`
	Bytecode       string   `json:"bytecode,omitempty"`
	Verified       bool     `json:"verified"`
	SourceCode     string   `json:"sourceCode,omitempty"`
	Functions      []string `json:"functions"`
	Risks          []string `json:"risks"`
	BytecodeLength int      `json:"bytecodeLength"`
	IsProxy        bool     `json:"isProxy"`
}

// ContractFindings is the batch output of the bytecode analyzer.
//
// Addresses, Verified and Analysis are always the same length and positionally
// aligned: index i of each refers to the same contract. Addresses that turned
// out to be externally-owned accounts are present in none of them.
type ContractFindings struct {
	Addresses []string         `json:"addresses"`
	Verified  []bool           `json:"verified"`
	Analysis  []ContractRecord `json:"analysis"`

	// Flattened across all analyzed contracts, used for summary counts and
	// for per-address failures that produced no record.
	AllFunctions []string `json:"functions"`
	AllRisks     []string `json:"risks"`
}

// RiskSummary is the deterministic aggregation result. It is a pure function
// of the findings that produced it.
type RiskSummary struct {
	Level  RiskLevel `json:"level"`
	Score  int       `json:"score"`
	Issues []string  `json:"issues"`
}
