// Package chain provides the on-chain code sources: an Etherscan-style API
// client that also reports verification metadata, and a bare JSON-RPC
// fallback that only returns bytecode.
package chain

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dappscan-cli/api/schemas"
	"github.com/xkilldash9x/dappscan-cli/internal/config"
	"github.com/xkilldash9x/dappscan-cli/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EtherscanClient fetches contract code and verification status from the
// Etherscan API family (any explorer exposing the module=contract endpoints).
type EtherscanClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

func NewEtherscanClient(cfg config.ChainConfig) *EtherscanClient {
	return &EtherscanClient{
		baseURL: cfg.EtherscanURL,
		apiKey:  cfg.EtherscanAPIKey,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		logger:  observability.GetLogger().Named("etherscan"),
	}
}

// envelope is the fixed Etherscan response wrapper. Status "1" means the
// result field is meaningful.
type envelope struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Result  jsoniter.RawMessage `json:"result"`
}

type sourceCodeResult struct {
	SourceCode string `json:"SourceCode"`
	ABI        string `json:"ABI"`
}

// GetCode fetches the deployed bytecode via eth_getCode proxying, then the
// verified source record. Verification is inferred from a non-empty
// SourceCode field; a missing or unverified contract still yields bytecode.
func (c *EtherscanClient) GetCode(ctx context.Context, address string) (schemas.ContractCode, error) {
	bytecode, err := c.fetchBytecode(ctx, address)
	if err != nil {
		return schemas.ContractCode{}, err
	}

	code := schemas.ContractCode{Bytecode: bytecode}
	if bytecode == "" || bytecode == "0x" {
		return code, nil
	}

	src, err := c.fetchSource(ctx, address)
	if err != nil {
		// Verification metadata is best-effort; the bytecode alone is
		// still a usable result.
		c.logger.Debug("Source lookup failed.", zap.String("address", address), zap.Error(err))
		return code, nil
	}
	if src.SourceCode != "" {
		code.Verified = true
		code.SourceCode = src.SourceCode
		if src.ABI != "" && src.ABI != "Contract source code not verified" {
			code.ABI = src.ABI
		}
	}
	return code, nil
}

func (c *EtherscanClient) fetchBytecode(ctx context.Context, address string) (string, error) {
	q := url.Values{
		"module":  {"proxy"},
		"action":  {"eth_getCode"},
		"address": {address},
		"tag":     {"latest"},
	}
	body, err := c.get(ctx, q)
	if err != nil {
		return "", fmt.Errorf("fetching bytecode for %s: %w", address, err)
	}

	// The proxy endpoints wrap a raw JSON-RPC response, not the status
	// envelope.
	var rpcResp struct {
		Result string `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return "", fmt.Errorf("decoding bytecode response for %s: %w", address, err)
	}
	if rpcResp.Error != nil {
		return "", fmt.Errorf("bytecode lookup for %s: %s", address, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

func (c *EtherscanClient) fetchSource(ctx context.Context, address string) (sourceCodeResult, error) {
	q := url.Values{
		"module":  {"contract"},
		"action":  {"getsourcecode"},
		"address": {address},
	}
	body, err := c.get(ctx, q)
	if err != nil {
		return sourceCodeResult{}, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return sourceCodeResult{}, fmt.Errorf("decoding source envelope: %w", err)
	}
	if env.Status != "1" {
		return sourceCodeResult{}, fmt.Errorf("source lookup rejected: %s", env.Message)
	}

	var results []sourceCodeResult
	if err := json.Unmarshal(env.Result, &results); err != nil {
		return sourceCodeResult{}, fmt.Errorf("decoding source result: %w", err)
	}
	if len(results) == 0 {
		return sourceCodeResult{}, nil
	}
	return results[0], nil
}

func (c *EtherscanClient) get(ctx context.Context, q url.Values) ([]byte, error) {
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
