package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/dwsmith1983/outcome/pkg/types"
)

// ConsoleSink writes reports to the terminal with color.
type ConsoleSink struct {
	out io.Writer
}

// NewConsoleSink creates a console sink writing to stdout.
func NewConsoleSink() *ConsoleSink {
	return NewConsoleSinkTo(os.Stdout)
}

// NewConsoleSinkTo creates a console sink writing to w.
func NewConsoleSinkTo(w io.Writer) *ConsoleSink {
	return &ConsoleSink{out: w}
}

// Name returns the sink identifier.
func (s *ConsoleSink) Name() string { return "console" }

// Send writes one line per group, color-coded by status.
func (s *ConsoleSink) Send(_ context.Context, r BatchReport) error {
	if len(r.Groups) == 0 {
		_, err := fmt.Fprintf(s.out, "%s batch %s: %d members, no failures\n", color.GreenString("[OK]"), r.BatchID, r.Size)
		return err
	}
	for _, g := range r.Groups {
		var prefix string
		switch g.Status {
		case types.StatusError:
			prefix = color.RedString("[ERROR]")
		case types.StatusInvalid:
			prefix = color.YellowString("[INVALID]")
		default:
			prefix = color.CyanString("[%s]", g.Status)
		}

		detail := strings.Join(g.Messages, "; ")
		if len(g.Fields) > 0 {
			names := make([]string, len(g.Fields))
			for i, f := range g.Fields {
				names[i] = f.Field
			}
			detail = "fields: " + strings.Join(names, ", ")
		}
		if _, err := fmt.Fprintf(s.out, "%s batch %s: %d members: %s\n", prefix, r.BatchID, len(g.Members), detail); err != nil {
			return err
		}
	}
	return nil
}
