package main

import (
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/propval/internal/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Value every row of a CSV file",
	Long: `Reads valuation requests from a CSV file with a header row and writes one
JSON line per row, in input order. Rows that fail are reported and counted
but never abort the batch.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		if concurrency > 0 {
			cfg.Batch.MaxConcurrent = concurrency
		}

		env, err := initEngine(ctx, "batch", false)
		if err != nil {
			return err
		}
		defer env.Close()

		in, err := os.Open(input)
		if err != nil {
			return eris.Wrap(err, "batch: open input")
		}
		defer in.Close() //nolint:errcheck

		rows, err := batch.ReadRequests(in)
		if err != nil {
			return err
		}

		var w io.Writer = os.Stdout
		if output != "" && output != "-" {
			f, err := os.Create(output)
			if err != nil {
				return eris.Wrap(err, "batch: create output")
			}
			defer f.Close() //nolint:errcheck
			w = f
		}

		start := time.Now()
		outcomes, sum, err := batch.Run(ctx, env.Engine, rows, cfg.Batch.MaxConcurrent)
		if err != nil {
			return err
		}
		if err := batch.WriteJSONLines(w, outcomes); err != nil {
			return eris.Wrap(err, "batch: write output")
		}

		zap.L().Info("batch complete",
			zap.String("input", input),
			zap.Int("total", sum.Total),
			zap.Int64("succeeded", sum.Succeeded),
			zap.Int64("failed", sum.Failed),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().String("input", "", "CSV file of valuation requests")
	batchCmd.Flags().String("output", "-", "JSON lines output file (- for stdout)")
	batchCmd.Flags().Int("concurrency", 0, "max concurrent valuations (overrides batch.max_concurrent)")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
