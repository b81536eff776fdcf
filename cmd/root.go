package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/axellelanca/trackit/internal/config"
)

// Cfg holds the configuration loaded before any command runs.
var Cfg *config.Config

// verbose enables gorm SQL logging.
var verbose bool

// RootCmd is the base command. Subcommands register themselves from their own
// packages' init functions.
var RootCmd = &cobra.Command{
	Use:   "trackit",
	Short: "Role-gated page visit tracker",
	Long: `Trackit records page visits for the visitor roles an operator selects,
serves daily counters and a paginated visit listing, and exposes the
reset and uninstall data controls.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log SQL statements")
}

// initConfig loads the configuration. Failures are reported here and again by
// Bootstrap, which refuses to run without a configuration.
func initConfig() {
	var err error
	Cfg, err = config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: problem loading configuration: %v\n", err)
	}
}
