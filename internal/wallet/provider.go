// Package wallet implements the mock wallet provider injected into probed
// pages. It records every attempted wallet operation without performing any
// real blockchain action.
package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xkilldash9x/dappscan-cli/api/schemas"
)

// BindingName is the window-level function the injected shim reports through.
const BindingName = "__dappscan_wallet_call"

// ErrNoSuchMethod is returned by Dispatch for methods outside the fixed set.
var ErrNoSuchMethod = errors.New("wallet: no such method")

// Fixed mock identity. The address is deliberately recognizable as fake.
const (
	mockAccount = "0x0000000000000000000000000000000000d43b5e"
	mockChainID = "0x1"
	mockSig     = "0x" + "ab" + "00000000000000000000000000000000000000000000000000000000000000" +
		"0000000000000000000000000000000000000000000000000000000000000000" + "1b"
	mockTxHash = "0x0000000000000000000000000000000000000000000000000000000000d43b5e"
)

// Provider is the fixed-shape mock wallet. Its supported method set is closed:
// anything else gets a typed "no such method" result, never a null.
type Provider struct {
	log *CallLog
}

// NewProvider creates a provider with an empty interaction log.
func NewProvider() *Provider {
	return &Provider{log: NewCallLog()}
}

// Log exposes the provider's append-only interaction log.
func (p *Provider) Log() *CallLog {
	return p.log
}

// responses is the single source of truth for the supported method set and
// the canned result each method resolves to. The injected JS shim is rendered
// from this table so the two sides cannot drift.
func (p *Provider) responses() map[string]interface{} {
	accounts := []string{mockAccount}
	return map[string]interface{}{
		"eth_requestAccounts":  accounts,
		"eth_accounts":         accounts,
		"eth_chainId":          mockChainID,
		"personal_sign":        mockSig,
		"eth_signTypedData_v4": mockSig,
		"eth_sendTransaction":  mockTxHash,
		// Legacy aliases.
		"enable": accounts,
		"send":   accounts,
	}
}

// Methods returns the fixed supported method set.
func (p *Provider) Methods() []string {
	table := p.responses()
	out := make([]string, 0, len(table))
	for m := range table {
		out = append(out, m)
	}
	return out
}

// Dispatch returns the canned response for a supported method. Unsupported
// methods return ErrNoSuchMethod.
func (p *Provider) Dispatch(method string) (interface{}, error) {
	res, ok := p.responses()[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchMethod, method)
	}
	return res, nil
}

// bindingPayload is the wire shape the shim reports through the binding.
type bindingPayload struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Record parses a shim report and appends it to the interaction log. Malformed
// payloads are still logged, under a sentinel method name, so no invocation is
// ever silently dropped.
func (p *Provider) Record(payload string) {
	var call bindingPayload
	if err := json.Unmarshal([]byte(payload), &call); err != nil || call.Method == "" {
		p.log.Append(schemas.WalletCall{
			Method:    "unparsed_call",
			Params:    json.RawMessage(nil),
			Timestamp: time.Now(),
		})
		return
	}
	p.log.Append(schemas.WalletCall{
		Method:    call.Method,
		Params:    call.Params,
		Timestamp: time.Now(),
	})
}

// InjectionJS renders the window.ethereum shim. The shim reports every
// invocation through the binding before resolving with its canned response;
// no call ever reaches a real network.
func (p *Provider) InjectionJS() string {
	table, err := json.Marshal(p.responses())
	if err != nil {
		// The table is a static map of strings; this cannot fail at runtime.
		panic(fmt.Sprintf("wallet: failed to marshal response table: %v", err))
	}

	return fmt.Sprintf(`(() => {
	if (window.ethereum && window.ethereum.__dappscanMock) { return; }
	const responses = %s;
	const report = (method, params) => {
		try { window.%s(JSON.stringify({method: method || '', params: params || []})); } catch (e) {}
	};
	const dispatch = (method, params) => {
		report(method, params);
		if (!Object.prototype.hasOwnProperty.call(responses, method)) {
			return Promise.reject({code: -32601, message: 'no such method: ' + method});
		}
		return Promise.resolve(responses[method]);
	};
	const provider = {
		__dappscanMock: true,
		isMetaMask: true,
		selectedAddress: %q,
		chainId: %q,
		request: (args) => dispatch(args && args.method, args && args.params),
		enable: () => dispatch('enable', []),
		send: (methodOrPayload, params) => {
			if (typeof methodOrPayload === 'string') { return dispatch(methodOrPayload, params); }
			return dispatch((methodOrPayload && methodOrPayload.method) || 'send',
				methodOrPayload && methodOrPayload.params);
		},
		on: () => provider,
		removeListener: () => provider,
	};
	Object.defineProperty(window, 'ethereum', { value: provider, configurable: false });
})();`, table, BindingName, mockAccount, mockChainID)
}
