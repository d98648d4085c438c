// File: cmd/root_test.go
package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withQuietPreRun swaps out the root command's PersistentPreRunE so command
// wiring can be exercised without touching global config or logger state.
func withQuietPreRun(t *testing.T) *bytes.Buffer {
	t.Helper()
	orig := rootCmd.PersistentPreRunE
	rootCmd.PersistentPreRunE = func(*cobra.Command, []string) error { return nil }
	// Flag values persist on the shared rootCmd across Execute calls; reset
	// the --version flag so a prior test's invocation doesn't leak in.
	if f := rootCmd.Flags().Lookup("version"); f != nil {
		_ = f.Value.Set("false")
		f.Changed = false
	}
	t.Cleanup(func() {
		rootCmd.PersistentPreRunE = orig
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	return &out
}

func TestRootCmdVersionFlag(t *testing.T) {
	out := withQuietPreRun(t)
	rootCmd.SetArgs([]string{"--version"})

	err := rootCmd.ExecuteContext(context.Background())

	require.NoError(t, err)
	assert.Contains(t, out.String(), Version)
}

func TestRootCmdNoArgsPrintsHelp(t *testing.T) {
	out := withQuietPreRun(t)
	rootCmd.SetArgs([]string{})

	err := rootCmd.ExecuteContext(context.Background())

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Dappscan probes a dapp's frontend")
}

func TestScanCmdRequiresExactlyOneURL(t *testing.T) {
	withQuietPreRun(t)
	rootCmd.SetArgs([]string{"scan"})

	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestNormalizeTarget(t *testing.T) {
	assert.Equal(t, "https://dapp.example.com", normalizeTarget("dapp.example.com"))
	assert.Equal(t, "http://dapp.example.com", normalizeTarget("http://dapp.example.com"))
	assert.Equal(t, "https://dapp.example.com", normalizeTarget("https://dapp.example.com"))
}
