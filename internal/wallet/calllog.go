package wallet

import (
	"sync"

	"github.com/xkilldash9x/dappscan-cli/api/schemas"
)

// CallLog is an append-only, concurrency-safe record of wallet invocations.
// The binding callback fires on chromedp's event goroutine while the probe
// reads from its own, so every access is lock-guarded.
type CallLog struct {
	mu    sync.Mutex
	calls []schemas.WalletCall
}

func NewCallLog() *CallLog {
	return &CallLog{}
}

// Append adds one call to the log.
func (l *CallLog) Append(call schemas.WalletCall) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

// Reset clears the log. The probe resets between control clicks so each
// click's interactions can be attributed to it.
func (l *CallLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}

// Snapshot returns a copy of the current log contents.
func (l *CallLog) Snapshot() []schemas.WalletCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]schemas.WalletCall, len(l.calls))
	copy(out, l.calls)
	return out
}

// Len reports the number of recorded calls.
func (l *CallLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}
