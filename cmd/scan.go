package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dappscan-cli/api/schemas"
	"github.com/xkilldash9x/dappscan-cli/internal/browser"
	"github.com/xkilldash9x/dappscan-cli/internal/bytecode"
	"github.com/xkilldash9x/dappscan-cli/internal/chain"
	"github.com/xkilldash9x/dappscan-cli/internal/config"
	"github.com/xkilldash9x/dappscan-cli/internal/observability"
	"github.com/xkilldash9x/dappscan-cli/internal/orchestrator"
	"github.com/xkilldash9x/dappscan-cli/internal/probe"
	"github.com/xkilldash9x/dappscan-cli/internal/reporting"
	"github.com/xkilldash9x/dappscan-cli/internal/selector"
	"github.com/xkilldash9x/dappscan-cli/internal/wallet"
)

// newScanCmd creates and configures the `scan` command.
func newScanCmd() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan [url]",
		Short: "Probes a dapp URL and produces a risk report",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their corresponding Viper keys so command-line
			// flags correctly override values from the config file and
			// environment variables.
			if err := viper.BindPFlag("analyzer.max_contracts", cmd.Flags().Lookup("max-contracts")); err != nil {
				return err
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use the context passed from main.go (signal-aware).
			ctx := cmd.Context()
			logger := observability.GetLogger()

			// Re-unmarshal the config now that flags are bound; Viper
			// applies the overrides with the right precedence.
			var cfg config.Config
			if err := viper.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("failed to unmarshal config with flag overrides: %w", err)
			}

			cfg.Scan.Target = normalizeTarget(args[0])
			cfg.Scan.Output = viper.GetString("output")
			cfg.Scan.Format = viper.GetString("format")
			cfg.Scan.Timeout = viper.GetDuration("timeout")

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger.Info("Starting new scan",
				zap.String("target", cfg.Scan.Target),
				zap.Int("max_contracts", cfg.Analyzer.MaxContracts),
				zap.Duration("timeout", cfg.Scan.Timeout),
			)

			report, err := runScan(ctx, &cfg, logger)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Warn("Scan aborted gracefully")
					return fmt.Errorf("scan aborted by user signal")
				}
				logger.Error("Scan failed", zap.Error(err))
				return err
			}

			reporter, err := reporting.New(cfg.Scan.Format, cfg.Scan.Output)
			if err != nil {
				return err
			}
			if err := reporter.Write(report); err != nil {
				reporter.Close()
				return fmt.Errorf("writing report: %w", err)
			}
			if err := reporter.Close(); err != nil {
				return fmt.Errorf("finalizing report: %w", err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "\nScan complete. Scan ID: %s | score %d (%s)\n",
				report.ScanID, report.RiskSummary.Score, report.RiskSummary.Level)
			return nil
		},
	}

	scanCmd.Flags().StringP("output", "o", "", "Output file path for the report. If unset, the report is written to stdout.")
	scanCmd.Flags().StringP("format", "f", "json", "Format for the output report.")
	scanCmd.Flags().Duration("timeout", 0, "Overall scan timeout (0 disables it).")
	scanCmd.Flags().Int("max-contracts", 0, "Maximum number of contracts to analyze. (Overrides config/env)")

	return scanCmd
}

// runScan assembles the scan components, runs the scan, and tears everything
// down before returning.
func runScan(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*schemas.Report, error) {
	manager := browser.NewManager(ctx, cfg, logger)
	defer manager.Shutdown()

	session, err := manager.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting browser session: %w", err)
	}
	// The prober owns the session; Shutdown covers the error paths before
	// Probe takes over.

	prober := probe.NewProber(session, wallet.NewProvider(), cfg.Probe)

	primary := chain.NewEtherscanClient(cfg.Chain)
	var fallback schemas.CodeSource
	if rpc, err := chain.NewRPCSource(cfg.Chain); err != nil {
		logger.Warn("RPC fallback unavailable, relying on primary code source only", zap.Error(err))
	} else {
		fallback = rpc
		defer rpc.Close()
	}

	resolver := selector.NewResolver(selector.NewFourByteClient(cfg.Resolver), cfg.Resolver)
	analyzer := bytecode.NewAnalyzer(primary, fallback, resolver, cfg.Analyzer)

	orch, err := orchestrator.New(cfg, logger, prober, analyzer, Version)
	if err != nil {
		return nil, err
	}
	return orch.ScanTarget(ctx, cfg.Scan.Target)
}

// normalizeTarget ensures the target carries a scheme.
func normalizeTarget(target string) string {
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return "https://" + target
	}
	return target
}
