package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/outcome/internal/member"
	"github.com/dwsmith1983/outcome/internal/report"
	"github.com/dwsmith1983/outcome/pkg/outcome"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	var (
		dir      string
		fidelity string
	)
	cmd := &cobra.Command{
		Use:   "report <batch-file>",
		Short: "Register a batch of members and print the grouped report",
		Long: `Reads a JSON batch of members, registers each one in the configured store and
prints the failures grouped by status. Exits non-zero when any member failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), cmd.OutOrStdout(), dir, args[0], fidelity)
		},
	}
	cmd.Flags().StringVar(&dir, "config-dir", ".", "Directory containing outcome.yaml")
	cmd.Flags().StringVar(&fidelity, "fidelity", "", "Report fidelity: flat or detailed (default from config)")
	return cmd
}

func runReport(ctx context.Context, w io.Writer, dir, path, fidelityFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fidelity := cfg.FidelityValue()
	if fidelityFlag != "" {
		if fidelity, err = outcome.ParseFidelity(fidelityFlag); err != nil {
			return err
		}
	}

	inputs, err := readBatchFile(path)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log, os.Stderr)
	st, err := newStore(ctx, cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	svc := member.NewService(st,
		member.WithLogger(logger),
		member.WithConcurrency(cfg.Aggregation.Concurrency),
	)

	results := svc.RegisterBatch(ctx, inputs)
	rep := report.NewBatchReport(len(inputs), fidelity, outcome.SummarizeWith(fidelity, results...))
	if err := report.NewConsoleSinkTo(w).Send(ctx, rep); err != nil {
		return err
	}

	merged := outcome.Merge(member.Voids(results)...)
	if merged.IsSuccess() {
		_, _ = fmt.Fprintf(w, "%s %d of %d members registered\n", color.GreenString("✓"), len(inputs), len(inputs))
		return nil
	}
	_, _ = fmt.Fprintf(w, "%s %d of %d members failed\n", color.RedString("✗"), rep.Failed, len(inputs))
	return fmt.Errorf("batch %s: %s", rep.BatchID, merged.Status())
}
