package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dwsmith1983/outcome/internal/commands"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "outcome",
		Short: "Member registry that reports results as typed outcomes",
		Long: `outcome registers members and reports every result as a typed outcome:
OK, ERROR, INVALID or NOT_FOUND. Batches are merged into one outcome or grouped
into a report, and HTTP responses carry RFC 7807 problem details.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		commands.NewInitCmd(),
		commands.NewCheckCmd(),
		commands.NewReportCmd(),
		commands.NewServeCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
