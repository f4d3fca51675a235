package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/framestitch/internal/config"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "framestitch",
		Short: "Panorama builder for video frames and photographs",
		Long: `Framestitch keeps the editing state for panorama sessions: imported
images and videos, frames extracted from them, their placement on a canvas,
consents and undo history. Panoramas are produced by an external stitching
service.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			setupLogging(verbose)
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newProbeCmd())

	return cmd
}

// setupLogging honours LOG_LEVEL unless --verbose forces debug output
func setupLogging(verbose bool) {
	logLevel := config.ParseLevel(os.Getenv("LOG_LEVEL"))
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
