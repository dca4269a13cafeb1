package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/outcome/internal/config"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate outcome.yaml and ping the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.OutOrStdout(), dir)
		},
	}
	cmd.Flags().StringVar(&dir, "config-dir", ".", "Directory containing outcome.yaml")
	return cmd
}

func runCheck(w io.Writer, dir string) error {
	bold := color.New(color.Bold)

	cfg, err := config.Load(dir)
	if err != nil {
		_, _ = fmt.Fprintf(w, "  %s %v\n", color.RedString("✗"), err)
		return err
	}
	_, _ = fmt.Fprintf(w, "  %s %s is valid\n", color.GreenString("✓"), config.FileName)

	_, _ = bold.Fprintln(w, "Configuration:")
	_, _ = fmt.Fprintf(w, "  server:    %s (api key: %s)\n", cfg.Server.Addr, describeAPIKey(cfg.Server))
	_, _ = fmt.Fprintf(w, "  store:     %s\n", cfg.Store.Type)
	_, _ = fmt.Fprintf(w, "  fidelity:  %s\n", cfg.FidelityValue())
	_, _ = fmt.Fprintf(w, "  reports:   %s\n", describeReports(cfg.Reports))
	if cfg.Telemetry.OTLPEndpoint != "" {
		_, _ = fmt.Fprintf(w, "  telemetry: %s\n", cfg.Telemetry.OTLPEndpoint)
	} else {
		_, _ = fmt.Fprintln(w, "  telemetry: disabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := newStore(ctx, cfg, logger, nil)
	if err != nil {
		_, _ = fmt.Fprintf(w, "  %s store: %v\n", color.RedString("✗"), err)
		return err
	}
	if err := st.Ping(ctx); err != nil {
		_, _ = fmt.Fprintf(w, "  %s store: %v\n", color.RedString("✗"), err)
		return fmt.Errorf("pinging store: %w", err)
	}
	_, _ = fmt.Fprintf(w, "  %s store reachable\n", color.GreenString("✓"))
	return nil
}

func describeAPIKey(s config.ServerConfig) string {
	switch {
	case s.APIKey != "":
		return "set"
	case s.APIKeySecretARN != "":
		return "from " + s.APIKeySecretARN
	default:
		return "none"
	}
}

func describeReports(reports []config.ReportConfig) string {
	if len(reports) == 0 {
		return "none"
	}
	names := make([]string, len(reports))
	for i, r := range reports {
		names[i] = r.Type
	}
	return strings.Join(names, ", ")
}
