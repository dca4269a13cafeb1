package report

import (
	"context"
	"log/slog"
)

// LogSink writes reports as structured log records.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a log sink. A nil logger means slog.Default().
func NewLogSink(l *slog.Logger) *LogSink {
	if l == nil {
		l = slog.Default()
	}
	return &LogSink{logger: l}
}

// Name returns the sink identifier.
func (s *LogSink) Name() string { return "log" }

// Send logs one record per group.
func (s *LogSink) Send(ctx context.Context, r BatchReport) error {
	level := slog.LevelInfo
	if r.Failed > 0 {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "batch report",
		"batchId", r.BatchID, "size", r.Size, "failed", r.Failed, "groups", len(r.Groups))
	for _, g := range r.Groups {
		s.logger.Log(ctx, level, "batch report group",
			"batchId", r.BatchID,
			"status", g.Status.String(),
			"members", len(g.Members),
			"messages", g.Messages,
			"fields", len(g.Fields),
		)
	}
	return nil
}
