// internal/browser/harvester.go
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// RequestRecord is one network request observed by the harvester. Only the
// fields the prober classifies on are kept; bodies are never captured.
type RequestRecord struct {
	URL       string
	Method    string
	Type      string // CDP resource type: Document, Script, XHR, Fetch, ...
	Timestamp time.Time
}

// Harvester listens to CDP network events for a single tab. It records every
// request and tracks in-flight counts for network-idle waits.
type Harvester struct {
	logger *zap.Logger

	// The context for the browser tab this harvester is attached to.
	sessionCtx context.Context

	lock     sync.RWMutex
	requests []RequestRecord
	inflight map[network.RequestID]bool

	isStarted bool
}

// NewHarvester creates a harvester bound to a tab context.
func NewHarvester(sessionCtx context.Context, logger *zap.Logger) *Harvester {
	return &Harvester{
		sessionCtx: sessionCtx,
		logger:     logger.Named("harvester"),
		inflight:   make(map[network.RequestID]bool),
	}
}

// Start enables the network domain and begins listening. Idempotent.
func (h *Harvester) Start() error {
	h.lock.Lock()
	defer h.lock.Unlock()

	if h.isStarted {
		return nil
	}

	chromedp.ListenTarget(h.sessionCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			h.handleRequestWillBeSent(e)
		case *network.EventLoadingFinished:
			h.handleDone(e.RequestID)
		case *network.EventLoadingFailed:
			h.handleDone(e.RequestID)
		}
	})

	if err := chromedp.Run(h.sessionCtx, network.Enable()); err != nil {
		return err
	}

	h.isStarted = true
	h.logger.Debug("Harvester listening for network events.")
	return nil
}

func (h *Harvester) handleRequestWillBeSent(e *network.EventRequestWillBeSent) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.inflight[e.RequestID] = true

	// A redirect means the previous leg under this ID already finished.
	rec := RequestRecord{
		URL:       e.Request.URL,
		Method:    e.Request.Method,
		Type:      e.Type.String(),
		Timestamp: time.Now(),
	}
	h.requests = append(h.requests, rec)
}

func (h *Harvester) handleDone(id network.RequestID) {
	h.lock.Lock()
	defer h.lock.Unlock()
	delete(h.inflight, id)
}

// Requests returns a copy of everything recorded so far.
func (h *Harvester) Requests() []RequestRecord {
	h.lock.RLock()
	defer h.lock.RUnlock()
	out := make([]RequestRecord, len(h.requests))
	copy(out, h.requests)
	return out
}

// WaitNetworkIdle polls until there have been no in-flight requests for the
// given quiet period, or the context ends.
func (h *Harvester) WaitNetworkIdle(ctx context.Context, quietPeriod time.Duration) error {
	ticker := time.NewTicker(quietPeriod / 2)
	defer ticker.Stop()

	lastActivity := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			h.lock.RLock()
			inflightCount := len(h.inflight)
			h.lock.RUnlock()

			if inflightCount > 0 {
				lastActivity = time.Now()
			} else if time.Since(lastActivity) >= quietPeriod {
				return nil
			}
		}
	}
}
