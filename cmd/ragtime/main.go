package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"rag-harness/internal/analysis"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ragtime",
		Short: "Analyze evaluation CSVs from pipeline comparison sessions",
	}

	root.AddCommand(newProcessCmd())
	root.AddCommand(newWinrateCmd(false))
	root.AddCommand(newWinrateCmd(true))

	return root
}

func newProcessCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "process <timing-csv-glob>",
		Short: "Build long-format and overall timing reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := filepath.Glob(args[0])
			if err != nil {
				return fmt.Errorf("bad glob pattern: %w", err)
			}
			if len(paths) == 0 {
				return fmt.Errorf("no files match %q", args[0])
			}

			var rows []analysis.TimingRow
			for _, path := range paths {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				fileRows, err := analysis.LoadTimingCSV(f)
				f.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				rows = append(rows, fileRows...)
			}

			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return err
			}

			long := analysis.LongReport(rows)
			longFile, err := os.Create(filepath.Join(outputDir, "timings_long.csv"))
			if err != nil {
				return err
			}
			defer longFile.Close()
			if err := analysis.WriteLongCSV(longFile, long); err != nil {
				return err
			}

			overall := analysis.OverallReport(rows)
			overallFile, err := os.Create(filepath.Join(outputDir, "timings_overall.csv"))
			if err != nil {
				return err
			}
			defer overallFile.Close()
			if err := analysis.WriteOverallCSV(overallFile, overall); err != nil {
				return err
			}

			cmd.Printf("processed %d rows from %d files into %s\n", len(rows), len(paths), outputDir)
			for _, row := range overall {
				cmd.Printf("  %-8s mean %.3fs over %d queries\n", row.Pipeline, row.MeanSeconds, row.Samples)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "reports", "directory for the generated reports")
	return cmd
}

func newWinrateCmd(includeDontCare bool) *cobra.Command {
	use := "winrate <votes-csv>"
	short := "Compute per-pipeline win rates, ignoring don't-care votes"
	if includeDontCare {
		use = "winrate-dont-care <votes-csv>"
		short = "Compute win rates with don't-care counted as an outcome"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rows, err := analysis.LoadVotesCSV(f)
			if err != nil {
				return err
			}

			rates, total := analysis.WinRates(rows, includeDontCare)
			if total == 0 {
				cmd.Println("no countable votes")
				return nil
			}

			cmd.Printf("%d votes counted\n", total)
			for _, rate := range rates {
				label := rate.Outcome
				if label == analysis.LabelDontCare {
					label = "don't care"
				}
				cmd.Printf("  %-12s %3d  %6.1f%%\n", label, rate.Wins, rate.Rate*100)
			}
			return nil
		},
	}
}
