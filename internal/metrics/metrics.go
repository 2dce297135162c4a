package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg         *prometheus.Registry
	Runs        prometheus.Counter
	RunFailures prometheus.Counter
	Records     prometheus.Counter
	Flagged     prometheus.Counter
	Conflicts   *prometheus.CounterVec
	IndexKeys   prometheus.Gauge
	RunSeconds  prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	runs := prometheus.NewCounter(prometheus.CounterOpts{Name: "dealguard_runs_total"})
	failures := prometheus.NewCounter(prometheus.CounterOpts{Name: "dealguard_run_failures_total"})
	records := prometheus.NewCounter(prometheus.CounterOpts{Name: "dealguard_records_total"})
	flagged := prometheus.NewCounter(prometheus.CounterOpts{Name: "dealguard_flagged_orders_total"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dealguard_conflicts_total",
		Help: "Credential conflicts by identity kind.",
	}, []string{"kind"})
	indexKeys := prometheus.NewGauge(prometheus.GaugeOpts{Name: "dealguard_index_keys"})
	runSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dealguard_run_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(runs, failures, records, flagged, conflicts, indexKeys, runSeconds)
	return &Registry{
		reg:         r,
		Runs:        runs,
		RunFailures: failures,
		Records:     records,
		Flagged:     flagged,
		Conflicts:   conflicts,
		IndexKeys:   indexKeys,
		RunSeconds:  runSeconds,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
