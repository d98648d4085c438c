// Package probe drives a sandboxed browser session against a target page:
// it injects the mock wallet, clicks through the page's controls one at a
// time, and records what each click tried to do.
package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/dappscan-cli/api/schemas"
	"github.com/xkilldash9x/dappscan-cli/internal/browser"
	"github.com/xkilldash9x/dappscan-cli/internal/config"
	"github.com/xkilldash9x/dappscan-cli/internal/observability"
	"github.com/xkilldash9x/dappscan-cli/internal/wallet"
)

// ErrPageLoad marks the one fatal probe failure: the target page never
// loaded. Everything after a successful load degrades per control instead.
var ErrPageLoad = errors.New("page load failed")

// pageSession is the slice of browser.Session the prober drives. Kept narrow
// so tests can substitute a scripted page.
type pageSession interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	Click(ctx context.Context, selector string) error
	ClickByText(ctx context.Context, tag, text string) error
	Evaluate(ctx context.Context, script string, res interface{}) error
	InjectScriptOnNewDocument(ctx context.Context, script string) error
	ExposeFunc(ctx context.Context, name string, fn func(payload string)) error
	Requests() []browser.RequestRecord
	Close()
}

var _ pageSession = (*browser.Session)(nil)

// Prober owns one browsing session for the duration of a single Probe call.
type Prober struct {
	session pageSession
	wallet  *wallet.Provider
	cfg     config.ProbeConfig
	logger  *zap.Logger

	// interactions accumulates every wallet call across the whole session;
	// the provider's live log is drained between control tests.
	interactions []schemas.WalletCall
}

// NewProber wires a prober over a session and a fresh mock wallet.
func NewProber(session *browser.Session, provider *wallet.Provider, cfg config.ProbeConfig) *Prober {
	return newProber(session, provider, cfg)
}

func newProber(session pageSession, provider *wallet.Provider, cfg config.ProbeConfig) *Prober {
	return &Prober{
		session: session,
		wallet:  provider,
		cfg:     cfg,
		logger:  observability.GetLogger().Named("prober"),
	}
}

// discoveredControl mirrors the JSON shape produced by the discovery script.
type discoveredControl struct {
	Text    string   `json:"text"`
	TagName string   `json:"tagName"`
	Classes []string `json:"classes"`
	ID      string   `json:"id"`
}

const discoverScript = `(() => {
	const nodes = document.querySelectorAll('button, a, [role="button"], input[type="submit"], input[type="button"]');
	const out = [];
	for (const el of nodes) {
		const text = (el.innerText || el.value || '').trim().slice(0, 100);
		out.push({
			text: text,
			tagName: el.tagName.toLowerCase(),
			classes: Array.from(el.classList),
			id: el.id || '',
		});
	}
	return out;
})()`

const pageTextScript = `document.body ? document.body.innerText : ''`

// Probe loads the target and interrogates it. The session is torn down on
// every exit path; a Prober must not be reused after Probe returns.
func (p *Prober) Probe(ctx context.Context, target string) (schemas.FrontendFindings, error) {
	defer p.session.Close()

	if err := p.session.ExposeFunc(ctx, wallet.BindingName, p.wallet.Record); err != nil {
		return schemas.FrontendFindings{}, fmt.Errorf("exposing wallet binding: %w", err)
	}
	if err := p.session.InjectScriptOnNewDocument(ctx, p.wallet.InjectionJS()); err != nil {
		return schemas.FrontendFindings{}, fmt.Errorf("injecting wallet shim: %w", err)
	}

	if err := p.session.Navigate(ctx, target); err != nil {
		return schemas.FrontendFindings{}, fmt.Errorf("%w: %s: %v", ErrPageLoad, target, err)
	}
	if err := p.settle(ctx, p.cfg.SettleDelay); err != nil {
		return schemas.FrontendFindings{}, err
	}

	// Wallet calls fired during page load belong to the session, not to any
	// control.
	loadCalls := p.drainWalletLog()
	if len(loadCalls) > 0 {
		p.logger.Info("Page called the wallet during load.", zap.Int("calls", len(loadCalls)))
	}

	controls, err := p.discoverControls(ctx)
	if err != nil {
		p.logger.Warn("Control discovery failed, continuing without controls.", zap.Error(err))
	}

	buttons := p.testControls(ctx, target, controls)

	var pageText string
	if err := p.session.Evaluate(ctx, pageTextScript, &pageText); err != nil {
		p.logger.Warn("Could not read page text.", zap.Error(err))
	}

	requests := p.session.Requests()
	texts := make([]string, 0, len(requests)+1)
	texts = append(texts, pageText)
	for _, req := range requests {
		texts = append(texts, req.URL)
	}

	return schemas.FrontendFindings{
		Buttons:            buttons,
		Signatures:         signatureCalls(p.interactions),
		APICalls:           apiCallURLs(requests),
		ExternalScripts:    externalScriptURLs(requests, target),
		ContractAddresses:  ExtractAddresses(texts...),
		WalletInteractions: p.interactions,
	}, nil
}

// discoverControls enumerates the page's clickable elements, capped at the
// configured maximum.
func (p *Prober) discoverControls(ctx context.Context) ([]discoveredControl, error) {
	var controls []discoveredControl
	if err := p.session.Evaluate(ctx, discoverScript, &controls); err != nil {
		return nil, err
	}
	if len(controls) > p.cfg.MaxControls {
		p.logger.Debug("Capping discovered controls.",
			zap.Int("found", len(controls)), zap.Int("cap", p.cfg.MaxControls))
		controls = controls[:p.cfg.MaxControls]
	}
	return controls, nil
}

// testControls clicks the first MaxTestedClicks controls sequentially. Each
// click's side effects are settled and attributed before the next control is
// touched; controls beyond the test budget are reported untested.
func (p *Prober) testControls(ctx context.Context, target string, controls []discoveredControl) []schemas.InteractiveElement {
	buttons := make([]schemas.InteractiveElement, 0, len(controls))
	for i, ctl := range controls {
		elem := schemas.InteractiveElement{
			Text:    ctl.Text,
			TagName: ctl.TagName,
			Classes: ctl.Classes,
			ID:      ctl.ID,
		}
		if i >= p.cfg.MaxTestedClicks {
			elem.Action = "not tested (click budget reached)"
			elem.Risk = schemas.RiskUnknown
			buttons = append(buttons, elem)
			continue
		}
		elem.Action, elem.Risk = p.testOne(ctx, target, ctl)
		buttons = append(buttons, elem)
	}
	return buttons
}

// testOne clicks a single control and classifies what happened. Failures are
// confined to the control: they produce an unknown-risk entry, never an
// aborted probe.
func (p *Prober) testOne(ctx context.Context, target string, ctl discoveredControl) (string, schemas.Risk) {
	p.drainWalletLog()

	if err := p.click(ctx, ctl); err != nil {
		p.logger.Debug("Control could not be clicked.",
			zap.String("text", ctl.Text), zap.Error(err))
		return "could not test (" + err.Error() + ")", schemas.RiskUnknown
	}
	if err := p.settle(ctx, p.cfg.PostClickWait); err != nil {
		return "could not test (cancelled)", schemas.RiskUnknown
	}

	calls := p.drainWalletLog()

	navigatedTo := ""
	if current, err := p.session.CurrentURL(ctx); err == nil && !sameURL(current, target) {
		navigatedTo = current
		// Put the page back so the remaining controls are tested against
		// the original document.
		if err := p.session.Navigate(ctx, target); err != nil {
			p.logger.Warn("Could not return to target after navigation.",
				zap.String("destination", current), zap.Error(err))
		}
	}

	return classifyClick(calls, navigatedTo)
}

// click resolves the most specific selector the control offers: id, then
// first class, then tag plus visible text.
func (p *Prober) click(ctx context.Context, ctl discoveredControl) error {
	switch {
	case ctl.ID != "":
		return p.session.Click(ctx, "#"+ctl.ID)
	case len(ctl.Classes) > 0:
		return p.session.Click(ctx, ctl.TagName+"."+ctl.Classes[0])
	case ctl.Text != "":
		return p.session.ClickByText(ctx, ctl.TagName, ctl.Text)
	default:
		return errors.New("control has no usable selector")
	}
}

// drainWalletLog moves the provider's pending calls into the session-level
// interaction record and returns them.
func (p *Prober) drainWalletLog() []schemas.WalletCall {
	calls := p.wallet.Log().Snapshot()
	p.wallet.Log().Reset()
	p.interactions = append(p.interactions, calls...)
	return calls
}

func (p *Prober) settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sameURL compares URLs ignoring a trailing slash, which navigation tends to
// add.
func sameURL(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}
