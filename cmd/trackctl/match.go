package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/markdave123-py/Trackname/internal/core/matcher"
)

// matchCmd prints the code found in each file
var matchCmd = &cobra.Command{
	Use:   "match <pdf>...",
	Short: "Print the tracking code found in each PDF",
	Long: `Extract the text of each PDF and print the tracking code and the
strategy that found it. Files are not modified.

Examples:
  trackctl match label.pdf
  trackctl match --extractor docconv *.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMatch,
}

func runMatch(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	extractor, err := newExtractor(logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, file := range args {
		data, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(out, "%s\terror\t%v\n", file, err)
			continue
		}
		m := matcher.Find(extractor.ExtractText(cmd.Context(), data))
		if !m.Found() {
			fmt.Fprintf(out, "%s\t-\tnone\n", file)
			continue
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", file, m.Code, m.Strategy)
	}
	return nil
}
