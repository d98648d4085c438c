package bytecode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/dappscan-cli/api/schemas"
	"github.com/xkilldash9x/dappscan-cli/internal/config"
	"github.com/xkilldash9x/dappscan-cli/internal/observability"
	"github.com/xkilldash9x/dappscan-cli/internal/selector"
)

// dangerousFunctionKeywords flags decoded function names that grant an
// operator outsized control over the contract.
var dangerousFunctionKeywords = []string{
	"transferownership",
	"selfdestruct",
	"suicide",
	"delegatecall",
	"upgradeto",
}

// Analyzer runs the per-contract risk pipeline: fetch code, extract and
// resolve selectors, and tag heuristically risky patterns.
type Analyzer struct {
	primary  schemas.CodeSource
	fallback schemas.CodeSource
	resolver *selector.Resolver
	cfg      config.AnalyzerConfig
	logger   *zap.Logger
}

// NewAnalyzer wires an analyzer over a primary code source and an optional
// fallback consulted when the primary yields no bytecode.
func NewAnalyzer(primary, fallback schemas.CodeSource, resolver *selector.Resolver, cfg config.AnalyzerConfig) *Analyzer {
	return &Analyzer{
		primary:  primary,
		fallback: fallback,
		resolver: resolver,
		cfg:      cfg,
		logger:   observability.GetLogger().Named("analyzer"),
	}
}

// Analyze inspects up to MaxContracts of the given addresses concurrently.
// The batch never fails as a whole: a per-address error becomes a single risk
// string naming the address, an address without code is skipped silently, and
// the returned Addresses/Verified/Analysis lists stay positionally aligned.
func (a *Analyzer) Analyze(ctx context.Context, addresses []string) schemas.ContractFindings {
	if len(addresses) > a.cfg.MaxContracts {
		a.logger.Info("Capping contract analysis batch.",
			zap.Int("found", len(addresses)),
			zap.Int("cap", a.cfg.MaxContracts))
		addresses = addresses[:a.cfg.MaxContracts]
	}

	type outcome struct {
		record *schemas.ContractRecord
		errMsg string
	}
	outcomes := make([]outcome, len(addresses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.MaxContracts)
	for i, addr := range addresses {
		g.Go(func() error {
			record, err := a.analyzeOne(gctx, addr)
			if err != nil {
				a.logger.Warn("Contract analysis failed.", zap.String("address", addr), zap.Error(err))
				outcomes[i] = outcome{errMsg: fmt.Sprintf("analysis failed for %s: %v", addr, err)}
				return nil
			}
			outcomes[i] = outcome{record: record}
			return nil
		})
	}
	// Workers never return errors; Wait is purely a join.
	_ = g.Wait()

	findings := schemas.ContractFindings{}
	for _, o := range outcomes {
		switch {
		case o.errMsg != "":
			findings.AllRisks = append(findings.AllRisks, o.errMsg)
		case o.record != nil:
			findings.Addresses = append(findings.Addresses, o.record.Address)
			findings.Verified = append(findings.Verified, o.record.Verified)
			findings.Analysis = append(findings.Analysis, *o.record)
			findings.AllFunctions = append(findings.AllFunctions, o.record.Functions...)
			findings.AllRisks = append(findings.AllRisks, o.record.Risks...)
		}
	}
	return findings
}

var errNoCode = errors.New("no bytecode available")

// analyzeOne fetches and inspects a single address. A nil record with nil
// error means the address holds no code (an externally-owned account).
func (a *Analyzer) analyzeOne(ctx context.Context, address string) (*schemas.ContractRecord, error) {
	code, err := a.fetchCode(ctx, address)
	if errors.Is(err, errNoCode) {
		a.logger.Debug("Address holds no code, skipping.", zap.String("address", address))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	selectors := ExtractSelectors(code.Bytecode)
	functions := a.resolver.Resolve(ctx, selectors)

	risks := OpcodeRisks(code.Bytecode)
	isProxy := DetectProxy(code.Bytecode)
	if isProxy {
		risks = append(risks, "Proxy contract detected (implementation can change)")
	}
	for _, fn := range functions {
		if kw, ok := dangerousFunction(fn); ok {
			risks = append(risks, fmt.Sprintf("Dangerous function %q (matches %s)", fn, kw))
		}
	}
	if len(code.Bytecode) > a.cfg.LargeBytecodeThreshold {
		risks = append(risks, "Large contract (high complexity)")
	}

	return &schemas.ContractRecord{
		Address:        address,
		Bytecode:       code.Bytecode,
		Verified:       code.Verified,
		SourceCode:     code.SourceCode,
		Functions:      functions,
		Risks:          risks,
		BytecodeLength: len(code.Bytecode),
		IsProxy:        isProxy,
	}, nil
}

// fetchCode tries the primary source and falls back when it errors or comes
// back empty. An address with no code on either source yields errNoCode.
func (a *Analyzer) fetchCode(ctx context.Context, address string) (schemas.ContractCode, error) {
	code, err := a.primary.GetCode(ctx, address)
	if err == nil && hasCode(code.Bytecode) {
		return code, nil
	}
	if err != nil {
		a.logger.Debug("Primary code source failed, trying fallback.",
			zap.String("address", address), zap.Error(err))
	}

	if a.fallback == nil {
		if err != nil {
			return schemas.ContractCode{}, err
		}
		return schemas.ContractCode{}, errNoCode
	}

	fbCode, fbErr := a.fallback.GetCode(ctx, address)
	if fbErr != nil {
		if err != nil {
			return schemas.ContractCode{}, fmt.Errorf("primary: %v; fallback: %w", err, fbErr)
		}
		return schemas.ContractCode{}, fbErr
	}
	if !hasCode(fbCode.Bytecode) {
		return schemas.ContractCode{}, errNoCode
	}
	return fbCode, nil
}

func hasCode(bytecode string) bool {
	trimmed := strings.TrimSpace(bytecode)
	return trimmed != "" && trimmed != "0x"
}

func dangerousFunction(fn string) (string, bool) {
	lower := strings.ToLower(fn)
	for _, kw := range dangerousFunctionKeywords {
		if strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}
