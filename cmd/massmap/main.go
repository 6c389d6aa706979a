// Command massmap reconstructs convergence maps from shear catalogs, stores
// them and serves them for browsing.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/banshee-data/massmap/internal/monitoring"
	"github.com/banshee-data/massmap/internal/version"
)

var (
	// Global flags
	verbose   bool
	logFormat string
	dbPath    string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "massmap",
	Short: "Weak-lensing convergence map reconstruction",
	Long: `massmap turns galaxy shear catalogs into convergence (kappa) maps.

A run reads a catalog, selects and calibrates galaxies, bins them onto a
flat or spherical grid and inverts the shear with a Kaiser-Squires
reconstructor. Results are stored in SQLite and can be exported as PNG and
HTML heat maps or browsed with 'massmap serve'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := monitoring.NewZapLogger(logFormat, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		monitoring.UseZap(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log encoding: console or json")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database (overrides output.db)")

	rootCmd.AddCommand(runCmd, serveCmd, migrateCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
