// Package risk turns probe and contract findings into one deterministic
// score, level and issue list. Score is a pure function of its inputs: same
// findings in, same summary out, byte for byte.
package risk

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/dappscan-cli/api/schemas"
)

const (
	penaltyDangerControl   = 15
	penaltyWarningControl  = 5
	penaltyManyScripts     = 10
	penaltyNoContracts     = 20
	penaltyUnverified      = 10
	penaltyCriticalFinding = 20
	penaltyHighFinding     = 15
	penaltyDefaultFinding  = 5

	scriptCountThreshold = 3

	levelSafeFloor    = 80
	levelWarningFloor = 50
)

// Score combines frontend and contract findings into a RiskSummary. All
// penalty terms are additive, so evaluation order only determines the issue
// list order, which is fixed for reproducibility.
func Score(frontend schemas.FrontendFindings, contracts schemas.ContractFindings) schemas.RiskSummary {
	score := 100
	var issues []string

	for _, btn := range frontend.Buttons {
		switch btn.Risk {
		case schemas.RiskDanger:
			score -= penaltyDangerControl
			issues = append(issues, fmt.Sprintf("Dangerous control %q triggers %s", btn.Text, btn.Action))
		case schemas.RiskWarning:
			score -= penaltyWarningControl
			issues = append(issues, fmt.Sprintf("Suspicious control %q (%s)", btn.Text, btn.Action))
		}
	}

	if len(frontend.ExternalScripts) > scriptCountThreshold {
		score -= penaltyManyScripts
		issues = append(issues, fmt.Sprintf("Page loads %d third-party scripts", len(frontend.ExternalScripts)))
	}

	if len(frontend.ContractAddresses) == 0 {
		score -= penaltyNoContracts
		issues = append(issues, "No contract addresses found; this may not be a genuine Web3 application")
	}

	for i, verified := range contracts.Verified {
		if !verified {
			score -= penaltyUnverified
			addr := ""
			if i < len(contracts.Addresses) {
				addr = contracts.Addresses[i]
			}
			issues = append(issues, fmt.Sprintf("Contract %s is not verified", addr))
		}
	}

	for _, finding := range contracts.AllRisks {
		score -= findingPenalty(finding)
		issues = append(issues, finding)
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	if len(issues) == 0 {
		issues = append(issues, "No significant security issues detected")
	}
	if verified := countVerified(contracts.Verified); verified > 0 {
		issues = append([]string{fmt.Sprintf("%d verified contract(s) found", verified)}, issues...)
	}

	return schemas.RiskSummary{
		Level:  levelFor(score),
		Score:  score,
		Issues: issues,
	}
}

// findingPenalty weighs a contract finding by keyword. Self-destruct and
// proxy findings cost the most, delegatecall and dangerous-function findings
// next, everything else a flat minimum.
func findingPenalty(finding string) int {
	lower := strings.ToLower(finding)
	switch {
	case strings.Contains(lower, "selfdestruct") || strings.Contains(lower, "proxy"):
		return penaltyCriticalFinding
	case strings.Contains(lower, "delegatecall") || strings.Contains(lower, "dangerous function"):
		return penaltyHighFinding
	default:
		return penaltyDefaultFinding
	}
}

func levelFor(score int) schemas.RiskLevel {
	switch {
	case score >= levelSafeFloor:
		return schemas.LevelSafe
	case score >= levelWarningFloor:
		return schemas.LevelWarning
	default:
		return schemas.LevelDanger
	}
}

func countVerified(flags []bool) int {
	n := 0
	for _, v := range flags {
		if v {
			n++
		}
	}
	return n
}
