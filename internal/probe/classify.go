package probe

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/xkilldash9x/dappscan-cli/api/schemas"
	"github.com/xkilldash9x/dappscan-cli/internal/browser"
)

// classifyClick turns the side effects observed after one control click into
// the control's action description and risk. Wallet activity dominates
// navigation, and a transaction-style call dominates everything else.
func classifyClick(calls []schemas.WalletCall, navigatedTo string) (string, schemas.Risk) {
	for _, call := range calls {
		if strings.Contains(strings.ToLower(call.Method), "send") {
			return fmt.Sprintf("wallet transaction request (%s)", call.Method), schemas.RiskDanger
		}
	}
	if len(calls) > 0 {
		return fmt.Sprintf("wallet interaction (%s)", calls[0].Method), schemas.RiskWarning
	}
	if navigatedTo != "" {
		return fmt.Sprintf("navigates to %s", navigatedTo), schemas.RiskWarning
	}
	return "UI interaction only", schemas.RiskSafe
}

// signatureCalls filters the interaction log down to signature requests.
func signatureCalls(calls []schemas.WalletCall) []schemas.WalletCall {
	var sigs []schemas.WalletCall
	for _, call := range calls {
		if strings.Contains(strings.ToLower(call.Method), "sign") {
			sigs = append(sigs, call)
		}
	}
	return sigs
}

// apiCallURLs returns the deduplicated URLs of XHR and fetch requests, in
// first-seen order.
func apiCallURLs(requests []browser.RequestRecord) []string {
	seen := make(map[string]struct{})
	var urls []string
	for _, req := range requests {
		if req.Type != "XHR" && req.Type != "Fetch" {
			continue
		}
		if _, ok := seen[req.URL]; ok {
			continue
		}
		seen[req.URL] = struct{}{}
		urls = append(urls, req.URL)
	}
	return urls
}

// externalScriptURLs returns script requests served from a different host
// than the probed page, deduplicated in first-seen order.
func externalScriptURLs(requests []browser.RequestRecord, pageURL string) []string {
	pageHost := hostOf(pageURL)

	seen := make(map[string]struct{})
	var urls []string
	for _, req := range requests {
		if req.Type != "Script" {
			continue
		}
		if host := hostOf(req.URL); host == "" || host == pageHost {
			continue
		}
		if _, ok := seen[req.URL]; ok {
			continue
		}
		seen[req.URL] = struct{}{}
		urls = append(urls, req.URL)
	}
	return urls
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
