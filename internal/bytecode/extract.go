// Package bytecode performs heuristic risk analysis of EVM bytecode. The
// scanning is regex/substring work over the hex text rather than real
// disassembly; the functions here are the stable seam behind which a proper
// disassembler could later be slotted.
package bytecode

import (
	"regexp"
	"strings"
)

// push4Pattern matches the PUSH4 opcode (0x63) followed by its 4-byte
// immediate. On dispatcher-style contracts the immediates are the function
// selectors the contract answers to.
var push4Pattern = regexp.MustCompile(`63([0-9a-f]{8})`)

// ExtractSelectors scans hex bytecode for PUSH4 immediates and returns them
// as 0x-prefixed selectors, duplicate-free, in first-occurrence order.
func ExtractSelectors(bytecode string) []string {
	hex := normalizeHex(bytecode)

	seen := make(map[string]struct{})
	var selectors []string
	for _, m := range push4Pattern.FindAllStringSubmatch(hex, -1) {
		sel := "0x" + m[1]
		if _, ok := seen[sel]; ok {
			continue
		}
		seen[sel] = struct{}{}
		selectors = append(selectors, sel)
	}
	return selectors
}

// proxySequences are byte patterns associated with common proxy delegation
// and initialization. The last entry is the bare DELEGATECALL opcode, so this
// predicate over-approximates: any contract that delegatecalls at all is
// flagged.
var proxySequences = []string{
	// EIP-1167 minimal proxy preamble.
	"363d3d373d3d3d363d73",
	// EIP-1967 implementation storage slot.
	"360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc",
	// DELEGATECALL.
	"f4",
}

// DetectProxy reports whether the bytecode looks like a proxy. It is a cheap
// substring heuristic, not a structural check, and errs toward true.
func DetectProxy(bytecode string) bool {
	hex := normalizeHex(bytecode)
	for _, seq := range proxySequences {
		if strings.Contains(hex, seq) {
			return true
		}
	}
	return false
}

// dangerousOpcodes maps opcode hex bytes to the fixed finding emitted when
// the byte value appears anywhere in the bytecode text. Like DetectProxy this
// over-approximates: the byte may be immediate data rather than an opcode.
var dangerousOpcodes = []struct {
	pattern string
	finding string
}{
	{"ff", "Contains selfdestruct opcode (contract can be destroyed)"},
	{"f4", "Contains delegatecall opcode (executes external code in own context)"},
	{"f1", "Contains call opcode (makes external calls)"},
	{"f2", "Contains callcode opcode (legacy external code execution)"},
}

// OpcodeRisks returns one finding per dangerous opcode byte present in the
// bytecode, in fixed order.
func OpcodeRisks(bytecode string) []string {
	hex := normalizeHex(bytecode)
	var risks []string
	for _, op := range dangerousOpcodes {
		if strings.Contains(hex, op.pattern) {
			risks = append(risks, op.finding)
		}
	}
	return risks
}

func normalizeHex(bytecode string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(bytecode)), "0x")
}
