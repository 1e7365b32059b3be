package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pkgup/pkgup/internal/service/update"
	"github.com/pkgup/pkgup/internal/version"
)

var (
	// release is the explicit target release number (0 = reset to 1).
	release int
	// skipChecks disables the archive integrity check.
	skipChecks bool
	// format overrides the source archive extension.
	format string
	// dir is the recipe directory.
	dir string
	// configPath to the optional settings YAML file.
	configPath string
	// retries overrides the fetch/verify attempt bound.
	retries int
	// logLevel is the zap level name.
	logLevel string

	// rootCmd represents the base command that updates a recipe to a new version.
	rootCmd = &cobra.Command{
		Use:   "pkgup <pkgver>",
		Short: "Update a PKGBUILD to a new version",
		Long: "pkgup bumps the version and release fields of a PKGBUILD, downloads the " +
			"new source tarball, verifies and checksums it, patches the recipe and " +
			"regenerates .SRCINFO via makepkg.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Errors are logged by the service, cobra only sets the exit code.
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true

			options := &update.Options{
				Dir:        dir,
				Version:    args[0],
				Release:    release,
				SkipChecks: skipChecks,
				Format:     format,
				Retries:    retries,
				ConfigPath: configPath,
				LogLevel:   logLevel,
			}

			return update.Run(ctx, options)
		},
	}
)

// Execute runs the pkgup CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().IntVarP(&release, "pkgrel", "r", 0, "release number to update to (default: reset to 1)")
	rootCmd.Flags().BoolVarP(&skipChecks, "skip-checks", "s", false, "skip gzip integrity checks")
	rootCmd.Flags().StringVarP(&format, "format", "f", "", "custom source archive format (default \"tar.gz\")")
	rootCmd.Flags().StringVarP(&dir, "dir", "d", ".", "recipe directory")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to configuration file")
	rootCmd.Flags().IntVar(&retries, "retries", 0, "fetch attempts for a corrupted download (default 3)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, fatal)")
}
