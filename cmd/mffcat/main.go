package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgarage/mff/pkg/mff"
	"github.com/dgarage/mff/pkg/mffdiag"
)

var (
	segmentDir    string
	segmentPrefix string
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "mffcat",
	Short: "Dump a recorded mempool event stream",
	Long:  `mffcat replays a Mempool File Format segment directory, printing each event as it is decoded.`,
	RunE:  runCat,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&segmentDir, "dir", "d", "", "segment directory to read")
	rootCmd.Flags().StringVarP(&segmentPrefix, "prefix", "p", "stream", "segment filename prefix")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log decode-time tolerances (e.g. block_unmined on empty chain)")
	rootCmd.MarkFlagRequired("dir")
}

func runCat(cmd *cobra.Command, args []string) error {
	reader, err := mff.OpenSegmentReader(segmentDir, segmentPrefix)
	if err != nil {
		return fmt.Errorf("opening segments: %w", err)
	}
	defer reader.Close()

	var logger *zap.Logger
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
	} else {
		logger = zap.NewNop()
	}

	analyzer := mffdiag.NewAnalyzer()
	mffReader := mff.NewReader(reader.Reader(), analyzer, logger)

	for {
		more, err := mffReader.Iterate()
		if err != nil {
			return fmt.Errorf("decoding event: %w", err)
		}
		if !more {
			break
		}
		fmt.Println(analyzer.Last.String())
	}

	summary := analyzer.Summary()
	fmt.Fprintf(os.Stderr, "\n%d segments, events: %v\n", len(reader.Heights()), summary)
	return nil
}

func main() {
	Execute()
}
