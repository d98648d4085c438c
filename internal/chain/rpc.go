package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dappscan-cli/api/schemas"
	"github.com/xkilldash9x/dappscan-cli/internal/config"
	"github.com/xkilldash9x/dappscan-cli/internal/observability"
)

// RPCSource is the fallback code source: a plain eth_getCode over JSON-RPC.
// It carries no verification metadata, so everything it returns is treated
// as unverified.
type RPCSource struct {
	client  *ethclient.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewRPCSource dials the configured RPC endpoint. Dialing is lazy for HTTP
// transports, so this does not verify the endpoint is reachable.
func NewRPCSource(cfg config.ChainConfig) (*RPCSource, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("chain: rpc url not configured")
	}
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dialing rpc endpoint: %w", err)
	}
	return &RPCSource{
		client:  client,
		timeout: cfg.RequestTimeout,
		logger:  observability.GetLogger().Named("rpc"),
	}, nil
}

// GetCode returns the deployed bytecode at the address, hex-encoded with a
// 0x prefix. Addresses without code yield "0x", matching the primary
// source's no-code sentinel.
func (r *RPCSource) GetCode(ctx context.Context, address string) (schemas.ContractCode, error) {
	if !common.IsHexAddress(address) {
		return schemas.ContractCode{}, fmt.Errorf("chain: invalid address %q", address)
	}

	opCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	code, err := r.client.CodeAt(opCtx, common.HexToAddress(address), nil)
	if err != nil {
		return schemas.ContractCode{}, fmt.Errorf("chain: eth_getCode %s: %w", address, err)
	}
	r.logger.Debug("Fetched bytecode over RPC.",
		zap.String("address", address), zap.Int("bytes", len(code)))

	if len(code) == 0 {
		return schemas.ContractCode{Bytecode: "0x"}, nil
	}
	return schemas.ContractCode{Bytecode: fmt.Sprintf("0x%x", code)}, nil
}

// Close releases the underlying RPC connection.
func (r *RPCSource) Close() {
	r.client.Close()
}
