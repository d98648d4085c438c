package bytecode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSelectorsFindsPush4Immediates(t *testing.T) {
	// Two dispatcher entries: transfer and approve.
	code := "0x6080604052" + "63a9059cbb" + "1461003b57" + "63095ea7b3" + "14610057"

	sels := ExtractSelectors(code)
	assert.Equal(t, []string{"0xa9059cbb", "0x095ea7b3"}, sels)
}

func TestExtractSelectorsDeduplicatesFirstOccurrence(t *testing.T) {
	code := "63aaaaaaaa" + "63bbbbbbbb" + "63aaaaaaaa"
	assert.Equal(t, []string{"0xaaaaaaaa", "0xbbbbbbbb"}, ExtractSelectors(code))
}

func TestExtractSelectorsNormalizesCase(t *testing.T) {
	assert.Equal(t, []string{"0xa9059cbb"}, ExtractSelectors("0x63A9059CBB"))
}

func TestExtractSelectorsEmpty(t *testing.T) {
	assert.Empty(t, ExtractSelectors(""))
	assert.Empty(t, ExtractSelectors("0x"))
	assert.Empty(t, ExtractSelectors("6080604052"))
}

func TestDetectProxyMinimalProxy(t *testing.T) {
	// Canonical EIP-1167 clone bytecode.
	clone := "363d3d373d3d3d363d73bebebebebebebebebebebebebebebebebebebebe5af43d82803e903d91602b57fd5bf3"
	assert.True(t, DetectProxy(clone))
}

func TestDetectProxyImplementationSlot(t *testing.T) {
	code := "608060405261" + "360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc" + "55"
	assert.True(t, DetectProxy(code))
}

func TestDetectProxyOverApproximates(t *testing.T) {
	// The predicate includes the bare delegatecall byte, so any bytecode
	// containing "f4" is flagged. Documented false-positive behavior.
	assert.True(t, DetectProxy("0x60f460"))
	assert.True(t, DetectProxy(strings.ToUpper("0xaaf4aa")))
}

func TestDetectProxyNegative(t *testing.T) {
	assert.False(t, DetectProxy("0x6080604052"))
	assert.False(t, DetectProxy(""))
}

func TestOpcodeRisksFixedOrder(t *testing.T) {
	// Bytecode containing selfdestruct (ff) and delegatecall (f4) bytes.
	risks := OpcodeRisks("0x60ff60f4")
	assert.Equal(t, []string{
		"Contains selfdestruct opcode (contract can be destroyed)",
		"Contains delegatecall opcode (executes external code in own context)",
	}, risks)
}

func TestOpcodeRisksNone(t *testing.T) {
	assert.Empty(t, OpcodeRisks("0x6080"))
}
