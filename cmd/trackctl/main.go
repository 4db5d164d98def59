// Package main implements trackctl, which renames tracking-label PDFs
// locally using the same pipeline as the server.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/markdave123-py/Trackname/internal/core/extraction"
	"github.com/markdave123-py/Trackname/internal/logging"
)

var (
	// extractorName selects the PDF text backend
	extractorName string
	logLevel      string
	version       = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "trackctl",
	Short: "Find tracking codes in PDF labels and rename the files",
	Long: `trackctl reads shipping label PDFs, finds the tracking code printed on
each one and renames the files after it, the way the upload server does.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&extractorName, "extractor", "pdf", "text extraction backend (pdf or docconv)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(renameCmd)
}

func newLogger() (*zap.Logger, error) {
	return logging.New(logLevel, "console")
}

func newExtractor(logger *zap.Logger) (*extraction.TextExtractor, error) {
	parser, err := extraction.NewParser(extractorName)
	if err != nil {
		return nil, err
	}
	return extraction.NewTextExtractor(parser, logger), nil
}
