// Package batch wires a source, the detector and the sinks into one run.
package batch

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"dealguard/internal/alert"
	"dealguard/internal/detect"
	"dealguard/internal/index"
	"dealguard/internal/metrics"
	"dealguard/internal/order"
	"dealguard/internal/report"
	"dealguard/internal/snapshot"
	"dealguard/internal/source"
)

// Output orders for flagged ids.
const (
	OrderFirstFlag = "first-flag"
	OrderByID      = "id"
)

// Runner executes one detection run per call to Run.
type Runner struct {
	Source  source.Source
	Alerts  alert.Writer
	Reports report.Publisher
	Metrics *metrics.Registry
	Logger  *zap.Logger

	// Snapshots, when set, receives the anchor index of every successful run.
	Snapshots snapshot.Snapshotter

	// OpenIndex returns a fresh index for each run.
	OpenIndex func() (index.Store, error)
	// OutputOrder is OrderFirstFlag (default) or OrderByID.
	OutputOrder string

	// Now is split for testability.
	Now func() time.Time
}

// Outcome is what a run hands back to the caller.
type Outcome struct {
	RunID   string
	Flagged []int
	Result  detect.Result
}

func (r *Runner) Run(ctx context.Context) (Outcome, error) {
	now := r.Now
	if now == nil {
		now = time.Now
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	runID := uuid.NewString()
	log = log.With(zap.String("run_id", runID))
	start := now()

	out, err := r.run(ctx, runID, log, start, now)
	if r.Metrics != nil {
		r.Metrics.Runs.Inc()
		if err != nil {
			r.Metrics.RunFailures.Inc()
		}
	}
	if err != nil {
		log.Error("run failed", zap.Error(err))
		return Outcome{}, err
	}
	return out, nil
}

func (r *Runner) run(ctx context.Context, runID string, log *zap.Logger, start time.Time, now func() time.Time) (Outcome, error) {
	lines, err := r.Source.ReadBatch(ctx)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "read batch")
	}
	orders, err := order.ParseAll(lines)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "parse batch")
	}
	log.Debug("batch parsed", zap.Int("records", len(orders)))

	openIndex := r.OpenIndex
	if openIndex == nil {
		openIndex = func() (index.Store, error) { return index.NewInMemoryStore(), nil }
	}
	st, err := openIndex()
	if err != nil {
		return Outcome{}, errors.Wrap(err, "open index")
	}
	res, err := detect.New(st).Run(ctx, orders)
	if err == nil && r.Snapshots != nil {
		if serr := r.Snapshots.WriteSnapshot(runID, st); serr != nil {
			err = errors.Wrap(serr, "write index snapshot")
		}
	}
	if cerr := st.Close(); cerr != nil && err == nil {
		err = errors.Wrap(cerr, "close index")
	}
	if err != nil {
		return Outcome{}, err
	}

	flagged := res.Flagged
	if r.OutputOrder == OrderByID {
		flagged = append([]int(nil), flagged...)
		sort.Ints(flagged)
	}

	finished := now()
	if r.Alerts != nil {
		for _, a := range res.Alerts {
			if err := r.Alerts.Append(alert.Alert{RunID: runID, Alert: a, TS: finished.Unix()}); err != nil {
				return Outcome{}, errors.Wrapf(err, "append alert for order %d", a.OrderID)
			}
		}
	}
	if r.Reports != nil {
		rep := report.Report{
			RunID:            runID,
			Records:          res.Records,
			Flagged:          len(flagged),
			FlaggedIDs:       flagged,
			EmailConflicts:   res.Conflicts(detect.KindEmail),
			AddressConflicts: res.Conflicts(detect.KindAddress),
			IndexKeys:        res.IndexKeys,
			DurationMillis:   finished.Sub(start).Milliseconds(),
			CreatedAt:        finished.UTC().Unix(),
		}
		if err := r.Reports.Publish(rep); err != nil {
			return Outcome{}, errors.Wrap(err, "publish report")
		}
	}
	if m := r.Metrics; m != nil {
		m.Records.Add(float64(res.Records))
		m.Flagged.Add(float64(len(flagged)))
		m.Conflicts.WithLabelValues(string(detect.KindEmail)).Add(float64(res.Conflicts(detect.KindEmail)))
		m.Conflicts.WithLabelValues(string(detect.KindAddress)).Add(float64(res.Conflicts(detect.KindAddress)))
		m.IndexKeys.Set(float64(res.IndexKeys))
		m.RunSeconds.Observe(finished.Sub(start).Seconds())
	}

	log.Info("run completed",
		zap.Int("records", res.Records),
		zap.Int("flagged", len(flagged)),
		zap.Int("alerts", len(res.Alerts)),
		zap.Duration("took", finished.Sub(start)),
	)
	return Outcome{RunID: runID, Flagged: flagged, Result: res}, nil
}
