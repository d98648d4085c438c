package selector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/dappscan-cli/api/schemas"
	"github.com/xkilldash9x/dappscan-cli/internal/config"
	"github.com/xkilldash9x/dappscan-cli/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FourByteClient resolves selectors against the 4byte.directory signature
// database. It rate-limits its own requests so batch resolution stays polite
// to the public API.
type FourByteClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewFourByteClient builds a client from resolver config. A zero LookupDelay
// disables throttling.
func NewFourByteClient(cfg config.ResolverConfig) *FourByteClient {
	limit := rate.Inf
	if cfg.LookupDelay > 0 {
		limit = rate.Every(cfg.LookupDelay)
	}
	return &FourByteClient{
		baseURL: cfg.LookupURL,
		client:  &http.Client{Timeout: cfg.LookupTimeout},
		limiter: rate.NewLimiter(limit, 1),
		logger:  observability.GetLogger().Named("fourbyte"),
	}
}

type fourByteResponse struct {
	Results []struct {
		ID            int    `json:"id"`
		TextSignature string `json:"text_signature"`
	} `json:"results"`
}

// Lookup queries the directory for one selector. It returns the known text
// signatures, earliest registration first, or an empty slice when the
// directory has no entry.
func (c *FourByteClient) Lookup(ctx context.Context, selector string) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s?hex_signature=%s&ordering=created_at", c.baseURL, url.QueryEscape(selector))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building lookup request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("signature lookup for %s: %w", selector, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("signature lookup for %s: unexpected status %d", selector, resp.StatusCode)
	}

	var parsed fourByteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding lookup response for %s: %w", selector, err)
	}

	sigs := make([]string, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.TextSignature != "" {
			sigs = append(sigs, r.TextSignature)
		}
	}
	c.logger.Debug("Selector lookup complete.",
		zap.String("selector", selector),
		zap.Int("matches", len(sigs)),
		zap.Duration("elapsed", time.Since(start)))
	return sigs, nil
}

// Resolver maps selectors to signatures: built-in table first, then the
// remote lookup. The remote budget is owned by the resolver and shared by
// every Resolve call it serves, so concurrently analyzed contracts draw from
// one pot; it exists to bound external call cost for the scan as a whole.
type Resolver struct {
	lookup schemas.SignatureLookup
	logger *zap.Logger

	remaining atomic.Int64
}

// NewResolver wires a resolver over any signature source. A nil lookup
// disables remote resolution entirely.
func NewResolver(lookup schemas.SignatureLookup, cfg config.ResolverConfig) *Resolver {
	r := &Resolver{
		lookup: lookup,
		logger: observability.GetLogger().Named("resolver"),
	}
	r.remaining.Store(int64(cfg.MaxLookups))
	return r
}

// Resolve maps each selector to a display string, preserving input order.
// Selectors the static table knows resolve for free; the remainder go to the
// remote source until the shared budget is spent. Unknowns render as
// "Unknown function: <selector>" and transport failures as
// "Failed to decode: <selector>".
func (r *Resolver) Resolve(ctx context.Context, selectors []string) []string {
	resolved := make([]string, 0, len(selectors))

	for _, sel := range selectors {
		if sig, ok := lookupStatic(sel); ok {
			resolved = append(resolved, sig)
			continue
		}
		if r.lookup == nil || r.remaining.Add(-1) < 0 {
			resolved = append(resolved, unknownFunction(sel))
			continue
		}

		sigs, err := r.lookup.Lookup(ctx, sel)
		if err != nil {
			r.logger.Debug("Remote selector lookup failed.", zap.String("selector", sel), zap.Error(err))
			resolved = append(resolved, fmt.Sprintf("Failed to decode: %s", sel))
			continue
		}
		if len(sigs) == 0 {
			resolved = append(resolved, unknownFunction(sel))
			continue
		}
		resolved = append(resolved, sigs[0])
	}
	return resolved
}

func unknownFunction(selector string) string {
	return fmt.Sprintf("Unknown function: %s", selector)
}
