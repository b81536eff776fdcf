package cli_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axellelanca/trackit/cmd"
	_ "github.com/axellelanca/trackit/cmd/cli"
)

// resetFlags restores every flag to its default so commands can run repeatedly
// in one process.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(cmd.RootCmd)

	var out bytes.Buffer
	cmd.RootCmd.SetOut(&out)
	cmd.RootCmd.SetErr(&out)
	cmd.RootCmd.SetArgs(args)
	err := cmd.RootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func useTempDatabase(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_NAME", filepath.Join(t.TempDir(), "trackit.db"))
	t.Setenv("LOGGING_LEVEL", "error")
	t.Setenv("REPORT_TIMEZONE", "UTC")
}

func TestCLI_Lifecycle(t *testing.T) {
	useTempDatabase(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Tracked roles: (none)")

	// Nothing is tracked until roles are selected.
	out, err = run(t, "record", "--url", "https://example.com/a", "--guest")
	require.NoError(t, err)
	assert.Contains(t, out, "Visit not recorded.")

	out, err = run(t, "settings", "set", "--roles", "guest,editor", "--erase-on-uninstall=true")
	require.NoError(t, err)
	assert.Contains(t, out, "Tracked roles: editor, guest")

	out, err = run(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "editor, guest")
	assert.Contains(t, out, "Delete data on uninstall: true")

	out, err = run(t, "record", "--url", "https://example.com/a", "--guest")
	require.NoError(t, err)
	assert.Contains(t, out, "Visit recorded.")

	out, err = run(t, "record", "--url", "https://example.com/a", "--roles", "subscriber")
	require.NoError(t, err)
	assert.Contains(t, out, "Visit not recorded.")

	out, err = run(t, "record", "--url", "https://example.com/a", "--element", "hero-cta", "--roles", "editor")
	require.NoError(t, err)
	assert.Contains(t, out, "Visit recorded.")

	out, err = run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "24 hours: 2")
	assert.Contains(t, out, "30 days:  2")
	assert.Contains(t, out, "hero-cta")
	assert.Contains(t, out, "Page 1 of 1")
	assert.Contains(t, out, "- - [1] - -")

	_, err = run(t, "reset")
	require.Error(t, err)

	out, err = run(t, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Tracking data reset.")

	out, err = run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "24 hours: 0")

	out, err = run(t, "uninstall")
	require.NoError(t, err)
	assert.Contains(t, out, "Tracking data and settings erased.")

	// The tables are gone: reading commands now fail.
	_, err = run(t, "stats")
	require.Error(t, err)
}

func TestCLI_UninstallKeepsDataByDefault(t *testing.T) {
	useTempDatabase(t)

	_, err := run(t, "migrate")
	require.NoError(t, err)

	out, err := run(t, "uninstall")
	require.NoError(t, err)
	assert.Contains(t, out, "Tracking data kept.")

	_, err = run(t, "stats")
	require.NoError(t, err)
}

func TestCLI_SettingsRejectsUnknownRole(t *testing.T) {
	useTempDatabase(t)

	_, err := run(t, "migrate")
	require.NoError(t, err)

	_, err = run(t, "settings", "set", "--roles", "shop_manager")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestCLI_RecordRequiresIdentity(t *testing.T) {
	useTempDatabase(t)

	_, err := run(t, "record", "--url", "https://example.com/")
	require.Error(t, err)

	_, err = run(t, "record", "--url", "https://example.com/", "--guest", "--roles", "editor")
	require.Error(t, err)
}
