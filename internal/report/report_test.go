package report

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/outcome/internal/config"
	"github.com/dwsmith1983/outcome/pkg/outcome"
	"github.com/dwsmith1983/outcome/pkg/types"
)

type recordingSink struct {
	name string
	err  error

	mu   sync.Mutex
	sent []BatchReport
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Send(_ context.Context, r BatchReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, r)
	return s.err
}

func sampleReport() BatchReport {
	groups := outcome.SummarizeWith(outcome.FidelityDetailed,
		outcome.Invalid[outcome.Unit](map[string][]string{"Email": {"required"}}),
		outcome.Invalid[outcome.Unit](map[string][]string{"Age": {"must be positive"}}),
		outcome.Error[outcome.Unit]("db down"),
		outcome.OK(),
	)
	return NewBatchReport(4, outcome.FidelityDetailed, groups)
}

func TestNewBatchReport(t *testing.T) {
	r := sampleReport()
	assert.Len(t, r.BatchID, 26)
	assert.Equal(t, 4, r.Size)
	assert.Equal(t, 3, r.Failed)
	assert.Equal(t, "detailed", r.Fidelity)
	assert.Equal(t, []types.Status{types.StatusInvalid, types.StatusError}, r.Groups.Statuses())
}

func TestDispatcher_DeliversToAllSinks(t *testing.T) {
	a := &recordingSink{name: "a"}
	b := &recordingSink{name: "b", err: errors.New("unreachable")}
	c := &recordingSink{name: "c"}
	d, err := NewDispatcher(nil, WithSinks(a, b, c))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, d.Sinks())

	r := sampleReport()
	err = d.Dispatch(context.Background(), r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b: unreachable")

	for _, s := range []*recordingSink{a, b, c} {
		require.Len(t, s.sent, 1)
		assert.Equal(t, r.BatchID, s.sent[0].BatchID)
	}
}

func TestDispatcher_NoSinks(t *testing.T) {
	d, err := NewDispatcher(nil)
	require.NoError(t, err)
	assert.NoError(t, d.Dispatch(context.Background(), sampleReport()))
}

func TestNewDispatcher_FromConfig(t *testing.T) {
	d, err := NewDispatcher([]config.ReportConfig{
		{Type: "log"},
		{Type: "console"},
		{Type: "sqs", QueueURL: "https://sqs.us-east-1.amazonaws.com/123/reports"},
		{Type: "eventbridge", BusName: "outcome"},
	}, WithSQSClient(&mockSQS{}), WithEventBridgeClient(&mockEventBridge{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"log", "console", "sqs", "eventbridge"}, d.Sinks())
}

func TestNewDispatcher_UnknownType(t *testing.T) {
	_, err := NewDispatcher([]config.ReportConfig{{Type: "pager"}})
	assert.ErrorContains(t, err, `unknown report type "pager"`)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))
	assert.Equal(t, "log", sink.Name())

	require.NoError(t, sink.Send(context.Background(), sampleReport()))
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "status=INVALID")
	assert.Contains(t, out, "status=ERROR")
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	sink := &ConsoleSink{out: &buf}
	assert.Equal(t, "console", sink.Name())

	r := sampleReport()
	require.NoError(t, sink.Send(context.Background(), r))
	out := buf.String()
	assert.Contains(t, out, "[INVALID]")
	assert.Contains(t, out, "fields: Email, Age")
	assert.Contains(t, out, "[ERROR]")
	assert.Contains(t, out, "db down")

	buf.Reset()
	require.NoError(t, sink.Send(context.Background(), NewBatchReport(2, outcome.FidelityFlat, outcome.Summarize(outcome.OK()))))
	assert.Contains(t, buf.String(), "no failures")
}

func TestDispatcher_Deliver(t *testing.T) {
	failing := &recordingSink{name: "failing", err: errors.New("unreachable")}
	d, err := NewDispatcher(nil, WithSinks(failing), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	groups := outcome.Summarize(outcome.Error[outcome.Unit]("db down"), outcome.OK())
	r := d.Deliver(context.Background(), 2, outcome.FidelityFlat, groups)
	assert.Equal(t, 2, r.Size)
	assert.Equal(t, 1, r.Failed)
	require.Len(t, failing.sent, 1)
	assert.Equal(t, r.BatchID, failing.sent[0].BatchID)

	var none *Dispatcher
	r = none.Deliver(context.Background(), 1, outcome.FidelityDetailed, outcome.Report{})
	assert.Equal(t, "detailed", r.Fidelity)
	assert.NotEmpty(t, r.BatchID)
}
