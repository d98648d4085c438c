package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/dappscan-cli/api/schemas"
	"github.com/xkilldash9x/dappscan-cli/internal/browser"
)

func TestExtractAddressesDeduplicatesAndLowercases(t *testing.T) {
	addrs := ExtractAddresses(
		"send funds to 0xABCDEF0123456789abcdef0123456789ABCDEF01 now",
		"https://api.example.com/token/0xabcdef0123456789abcdef0123456789abcdef01/meta",
		"other 0x1111111111111111111111111111111111111111",
	)

	assert.Equal(t, []string{
		"0x1111111111111111111111111111111111111111",
		"0xabcdef0123456789abcdef0123456789abcdef01",
	}, addrs)
}

func TestExtractAddressesIgnoresShortAndLongHex(t *testing.T) {
	// 39 hex chars is too short; transaction hashes (64) contain an
	// embedded 40-char match, which the regex accepts by design.
	addrs := ExtractAddresses("0x123456789012345678901234567890123456789")
	assert.Empty(t, addrs)

	addrs = ExtractAddresses("no addresses here")
	assert.Empty(t, addrs)
}

func TestClassifyClickSendDominates(t *testing.T) {
	calls := []schemas.WalletCall{
		{Method: "eth_requestAccounts"},
		{Method: "eth_sendTransaction"},
	}
	action, risk := classifyClick(calls, "https://evil.example/confirm")
	assert.Equal(t, schemas.RiskDanger, risk)
	assert.Contains(t, action, "eth_sendTransaction")
}

func TestClassifyClickWalletInteraction(t *testing.T) {
	calls := []schemas.WalletCall{{Method: "personal_sign"}}
	action, risk := classifyClick(calls, "")
	assert.Equal(t, schemas.RiskWarning, risk)
	assert.Contains(t, action, "personal_sign")
}

func TestClassifyClickNavigation(t *testing.T) {
	action, risk := classifyClick(nil, "https://other.example/page")
	assert.Equal(t, schemas.RiskWarning, risk)
	assert.Contains(t, action, "https://other.example/page")
}

func TestClassifyClickSafe(t *testing.T) {
	action, risk := classifyClick(nil, "")
	assert.Equal(t, schemas.RiskSafe, risk)
	assert.Equal(t, "UI interaction only", action)
}

func TestSignatureCalls(t *testing.T) {
	calls := []schemas.WalletCall{
		{Method: "eth_requestAccounts"},
		{Method: "personal_sign"},
		{Method: "eth_signTypedData_v4"},
		{Method: "eth_sendTransaction"},
	}
	sigs := signatureCalls(calls)
	assert.Len(t, sigs, 2)
	assert.Equal(t, "personal_sign", sigs[0].Method)
	assert.Equal(t, "eth_signTypedData_v4", sigs[1].Method)
}

func TestAPICallURLs(t *testing.T) {
	reqs := []browser.RequestRecord{
		{URL: "https://api.example.com/v1/price", Type: "Fetch"},
		{URL: "https://api.example.com/v1/price", Type: "Fetch"},
		{URL: "https://cdn.example.com/app.js", Type: "Script"},
		{URL: "https://api.example.com/v1/user", Type: "XHR"},
	}
	assert.Equal(t, []string{
		"https://api.example.com/v1/price",
		"https://api.example.com/v1/user",
	}, apiCallURLs(reqs))
}

func TestExternalScriptURLs(t *testing.T) {
	reqs := []browser.RequestRecord{
		{URL: "https://dapp.example.com/bundle.js", Type: "Script"},
		{URL: "https://cdn.thirdparty.net/lib.js", Type: "Script"},
		{URL: "https://cdn.thirdparty.net/lib.js", Type: "Script"},
		{URL: "https://api.example.com/v1/price", Type: "Fetch"},
	}
	urls := externalScriptURLs(reqs, "https://dapp.example.com/")
	assert.Equal(t, []string{"https://cdn.thirdparty.net/lib.js"}, urls)
}
