// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dappscan-cli/internal/config"
)

// Session is one isolated browser tab. It owns a network harvester and is the
// only handle through which the prober touches the page.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    *config.Config

	harvester *Harvester

	onClose   func()
	closeOnce sync.Once
}

// newSession creates the tab context and connects the harvester.
func newSession(parent context.Context, allocCtx context.Context, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	sessionID := uuid.New().String()

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	// Tie the tab to the caller's lifecycle as well.
	go func() {
		select {
		case <-parent.Done():
			tabCancel()
		case <-tabCtx.Done():
		}
	}()

	s := &Session{
		id:     sessionID,
		ctx:    tabCtx,
		cancel: tabCancel,
		logger: logger.With(zap.String("session_id", sessionID)),
		cfg:    cfg,
	}

	// Ensure the target exists and CDP is connected before anything else.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to initialize browser target: %w", err)
	}

	s.harvester = NewHarvester(tabCtx, s.logger)
	if err := s.harvester.Start(); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to start harvester: %w", err)
	}

	return s, nil
}

// ID returns the unique identifier for the session.
func (s *Session) ID() string {
	return s.id
}

// Close terminates the tab. Safe to call from any exit path, any number of times.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.logger.Debug("Closing browser session.")
		s.cancel()
		if s.onClose != nil {
			s.onClose()
		}
	})
}

// runActions executes chromedp actions, respecting both the session lifetime
// and the incoming request context.
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	return chromedp.Run(runCtx, actions...)
}

// Navigate loads the URL and waits for the page to stabilize (body ready,
// then network quiescence).
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating", zap.String("url", url))

	navTimeout := s.cfg.Probe.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	navCtx, navCancel := context.WithTimeout(ctx, navTimeout)
	defer navCancel()

	if err := s.runActions(navCtx, chromedp.Navigate(url)); err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation timed out after %s: %w", navTimeout, err)
		}
		return fmt.Errorf("navigation failed: %w", err)
	}

	if err := s.runActions(navCtx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		if navCtx.Err() != nil {
			return fmt.Errorf("page never became ready: %w", navCtx.Err())
		}
		s.logger.Debug("WaitReady failed after navigation.", zap.Error(err))
	}

	if err := s.WaitNetworkIdle(navCtx); err != nil && navCtx.Err() != nil {
		return navCtx.Err()
	}
	return nil
}

// WaitNetworkIdle blocks until no requests have been in flight for the
// configured quiet period.
func (s *Session) WaitNetworkIdle(ctx context.Context) error {
	quiet := s.cfg.Probe.NetworkQuiet
	if quiet <= 0 {
		quiet = 1500 * time.Millisecond
	}
	idleCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return s.harvester.WaitNetworkIdle(idleCtx, quiet)
}

// CurrentURL reads the page's present location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	if err := s.runActions(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("failed to read current location: %w", err)
	}
	return loc, nil
}

// Click clicks the first element matching the CSS selector.
func (s *Session) Click(ctx context.Context, selector string) error {
	clickCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := s.runActions(clickCtx, chromedp.Tasks{
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	})
	if err != nil {
		return fmt.Errorf("click failed for selector %q: %w", selector, err)
	}
	return nil
}

// ClickByText clicks the first element of the given tag whose trimmed text
// matches exactly. Used when a control exposes neither id nor class.
func (s *Session) ClickByText(ctx context.Context, tag, text string) error {
	clickCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	script := fmt.Sprintf(`(() => {
		const want = %q;
		const el = Array.from(document.querySelectorAll(%q))
			.find(e => (e.innerText || e.textContent || '').trim() === want);
		if (!el) { throw new Error('no ' + %q + ' element with text ' + want); }
		el.scrollIntoView({block: 'center'});
		el.click();
		return true;
	})()`, text, tag, tag)

	var clicked bool
	if err := s.runActions(clickCtx, chromedp.Evaluate(script, &clicked)); err != nil {
		return fmt.Errorf("click failed for <%s> with text %q: %w", tag, text, err)
	}
	return nil
}

// Evaluate runs a JavaScript expression and optionally unmarshals the result.
func (s *Session) Evaluate(ctx context.Context, script string, res interface{}) error {
	return s.runActions(ctx, chromedp.Evaluate(script, res))
}

// InjectScriptOnNewDocument registers a script that runs in every new document
// before any page script does.
func (s *Session) InjectScriptOnNewDocument(ctx context.Context, script string) error {
	var scriptID page.ScriptIdentifier
	err := s.runActions(ctx, chromedp.ActionFunc(func(c context.Context) error {
		var err error
		scriptID, err = page.AddScriptToEvaluateOnNewDocument(script).Do(c)
		return err
	}))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("could not inject persistent script: %w", err)
	}
	s.logger.Debug("Injected persistent script.", zap.String("scriptID", string(scriptID)))
	return nil
}

// ExposeFunc makes window.<name>(payload) available to page JavaScript; every
// invocation delivers the string payload to fn on a background goroutine.
func (s *Session) ExposeFunc(ctx context.Context, name string, fn func(payload string)) error {
	if err := s.runActions(ctx, chromedp.ActionFunc(func(c context.Context) error {
		return runtime.AddBinding(name).Do(c)
	})); err != nil {
		return fmt.Errorf("failed to add binding %q: %w", name, err)
	}

	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		if e, ok := ev.(*runtime.EventBindingCalled); ok && e.Name == name {
			fn(e.Payload)
		}
	})
	return nil
}

// Requests returns a snapshot of every network request observed so far.
func (s *Session) Requests() []RequestRecord {
	return s.harvester.Requests()
}

// CombineContext creates a context that is canceled when either input is.
func CombineContext(parentCtx, secondaryCtx context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(parentCtx)

	go func() {
		select {
		case <-secondaryCtx.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, cancel
}
