// internal/browser/manager.go
package browser

import (
	"context"
	"strings"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dappscan-cli/internal/config"
)

// Manager owns the browser process allocator. Sessions (tabs) are created
// from it and tracked so Shutdown can tear everything down.
type Manager struct {
	cfg    *config.Config
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a browser allocator from the application config. The
// browser process itself is launched lazily with the first session.
func NewManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) *Manager {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOptions(cfg)...)

	return &Manager{
		cfg:         cfg,
		logger:      logger.Named("browser"),
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		sessions:    make(map[string]*Session),
	}
}

// execOptions translates the application config into chromedp allocator options.
func execOptions(cfg *config.Config) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		// Required on hardened systems where the Chrome sandbox cannot start.
		chromedp.NoSandbox,
		// Recommended for stability in containers/headless environments.
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	if cfg.Browser.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.Browser.DisableGPU {
		opts = append(opts, chromedp.DisableGPU)
	}
	if cfg.Browser.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}

	// Additional flags from the config file's 'args' slice.
	for _, arg := range cfg.Browser.Args {
		if !strings.Contains(arg, "=") {
			opts = append(opts, chromedp.Flag(strings.TrimPrefix(arg, "--"), true))
			continue
		}
		parts := strings.SplitN(arg, "=", 2)
		opts = append(opts, chromedp.Flag(strings.TrimPrefix(parts[0], "--"), parts[1]))
	}
	return opts
}

// NewSession opens a fresh tab with its own harvester. The caller owns the
// returned session and must Close it on every exit path.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	s, err := newSession(ctx, m.allocCtx, m.cfg, m.logger)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	s.onClose = func() {
		m.mu.Lock()
		delete(m.sessions, s.ID())
		m.mu.Unlock()
	}
	return s, nil
}

// Shutdown closes all live sessions and the browser process.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	for _, s := range open {
		s.Close()
	}
	m.allocCancel()
	m.logger.Debug("Browser manager shut down.")
}
