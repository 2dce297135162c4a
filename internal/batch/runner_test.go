package batch

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"dealguard/internal/alert"
	"dealguard/internal/detect"
	"dealguard/internal/index"
	"dealguard/internal/metrics"
	"dealguard/internal/order"
	"dealguard/internal/report"
	"dealguard/internal/snapshot"
	"dealguard/internal/source"
)

const sampleBatch = `4
9,1,bugs@bunny.com,123 Sesame St.,New York,NY,10011,12345689010
8,1,elmer@fudd.com,123 Sesame st,New York,NY,10011,12345689011
7,2,bugs@bunny.com,123 Sesame St.,New York,NY,10011,12345689010
6,2,Bugs+x@Bunny.com,9 Elm Rd,Springfield,Illinois,62701,12345689012
`

type recordingWriter struct {
	alerts []alert.Alert
	fail   bool
}

func (w *recordingWriter) Append(a alert.Alert) error {
	if w.fail {
		return errors.New("sink down")
	}
	w.alerts = append(w.alerts, a)
	return nil
}

func fixedClock() func() time.Time {
	t0 := time.Unix(1700000000, 0)
	calls := 0
	return func() time.Time {
		calls++
		return t0.Add(time.Duration(calls) * 250 * time.Millisecond)
	}
}

func TestRunner_Run(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	reports := report.NewFilesystemReport(t.TempDir())
	alerts := &recordingWriter{}
	reg := metrics.NewRegistry()

	r := &Runner{
		Source:  source.NewLineSource(strings.NewReader(sampleBatch)),
		Alerts:  alerts,
		Reports: reports,
		Metrics: reg,
		Logger:  zap.New(core),
		Now:     fixedClock(),
	}
	out, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{9, 8, 7, 6}, out.Flagged)
	assert.Equal(t, "9,8,7,6", FormatIDs(out.Flagged))
	require.Len(t, alerts.alerts, 2)
	assert.Equal(t, detect.KindAddress, alerts.alerts[0].Kind)
	assert.Equal(t, detect.KindEmail, alerts.alerts[1].Kind)
	assert.Equal(t, out.RunID, alerts.alerts[0].RunID)

	rep, err := reports.ReadLatest()
	require.NoError(t, err)
	assert.Equal(t, out.RunID, rep.RunID)
	assert.Equal(t, 4, rep.Records)
	assert.Equal(t, 4, rep.Flagged)
	assert.Equal(t, 1, rep.EmailConflicts)
	assert.Equal(t, 1, rep.AddressConflicts)
	assert.Equal(t, int64(250), rep.DurationMillis)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Runs))
	assert.Equal(t, 4.0, testutil.ToFloat64(reg.Records))
	assert.Equal(t, 4.0, testutil.ToFloat64(reg.Flagged))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Conflicts.WithLabelValues("email")))
	assert.Zero(t, testutil.ToFloat64(reg.RunFailures))

	entries := logs.FilterMessage("run completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(4), entries[0].ContextMap()["flagged"])
}

func TestRunner_SortByID(t *testing.T) {
	r := &Runner{
		Source:      source.NewLineSource(strings.NewReader(sampleBatch)),
		OutputOrder: OrderByID,
	}
	out, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{6, 7, 8, 9}, out.Flagged)
	assert.Equal(t, []int{9, 8, 7, 6}, out.Result.Flagged)
}

func TestRunner_PebbleIndex(t *testing.T) {
	dir := t.TempDir()
	r := &Runner{
		Source:    source.NewLineSource(strings.NewReader(sampleBatch)),
		OpenIndex: func() (index.Store, error) { return index.Open(index.BackendPebble, dir) },
	}
	out, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{9, 8, 7, 6}, out.Flagged)
}

func TestRunner_IndexSnapshot(t *testing.T) {
	snaps := snapshot.NewFilesystemSnapshotter(t.TempDir())
	r := &Runner{
		Source:    source.NewLineSource(strings.NewReader(sampleBatch)),
		Snapshots: snaps,
	}
	out, err := r.Run(context.Background())
	require.NoError(t, err)

	dump, err := snaps.ReadSnapshot(out.RunID)
	require.NoError(t, err)
	assert.Len(t, dump, out.Result.IndexKeys)
	assert.Equal(t, 7, dump["email#2#bugs@bunny.com"].OrderID)
}

func TestRunner_NoFlags(t *testing.T) {
	r := &Runner{Source: source.NewLineSource(strings.NewReader("1\n1,1,a@x.com,1 Main,C,IL,1,1111\n"))}
	out, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out.Flagged)
	assert.Equal(t, "", FormatIDs(out.Flagged))
}

func TestRunner_MalformedAbortsBeforeSinks(t *testing.T) {
	alerts := &recordingWriter{}
	reports := report.NewFilesystemReport(t.TempDir())
	reg := metrics.NewRegistry()
	in := "2\n1,1,a@x.com,1 Main,C,IL,1,1111\nx,1,a@x.com,1 Main,C,IL,1,2222\n"

	r := &Runner{
		Source:  source.NewLineSource(strings.NewReader(in)),
		Alerts:  alerts,
		Reports: reports,
		Metrics: reg,
	}
	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, order.ErrMalformedRecord))
	assert.Empty(t, alerts.alerts)
	_, err = reports.ReadLatest()
	assert.Error(t, err, "no report for a failed run")
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.RunFailures))
}

func TestRunner_InvalidCount(t *testing.T) {
	r := &Runner{Source: source.NewLineSource(strings.NewReader("many\n"))}
	_, err := r.Run(context.Background())
	assert.True(t, errors.Is(err, source.ErrInvalidCount))
}

func TestRunner_AlertSinkFailure(t *testing.T) {
	r := &Runner{
		Source: source.NewLineSource(strings.NewReader(sampleBatch)),
		Alerts: &recordingWriter{fail: true},
	}
	_, err := r.Run(context.Background())
	assert.Error(t, err)
}

func TestFormatIDs(t *testing.T) {
	assert.Equal(t, "", FormatIDs(nil))
	assert.Equal(t, "5", FormatIDs([]int{5}))
	assert.Equal(t, "1,22,3", FormatIDs([]int{1, 22, 3}))
}
