// Package metrics exposes index activity and tree shape as Prometheus
// metrics.
package metrics

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/student-index/sidx/index/bplustree"
)

// Operation results.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// StatsSource is anything that can report tree statistics.
type StatsSource interface {
	Stats() bplustree.Stats
}

type Metrics struct {
	Ops *prometheus.CounterVec
}

// New registers the sidx collectors on reg. Shape metrics are read from src
// at scrape time.
func New(reg prometheus.Registerer, src StatsSource) (*Metrics, error) {
	m := &Metrics{
		Ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sidx",
			Name:      "operations_total",
			Help:      "Index operations by kind and result.",
		}, []string{"op", "result"}),
	}

	gauge := func(name, help string, f func(bplustree.Stats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "sidx", Subsystem: "tree", Name: name, Help: help,
		}, func() float64 { return f(src.Stats()) })
	}
	counter := func(name, help string, f func(bplustree.Stats) float64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "sidx", Subsystem: "tree", Name: name, Help: help,
		}, func() float64 { return f(src.Stats()) })
	}

	collectors := []prometheus.Collector{
		m.Ops,
		gauge("height", "Number of levels in the tree.", func(s bplustree.Stats) float64 { return float64(s.Height) }),
		gauge("keys", "Number of stored keys.", func(s bplustree.Stats) float64 { return float64(s.Keys) }),
		gauge("nodes", "Number of live nodes.", func(s bplustree.Stats) float64 { return float64(s.Nodes) }),
		counter("splits_total", "Node splits.", func(s bplustree.Stats) float64 { return float64(s.Splits) }),
		counter("merges_total", "Node merges.", func(s bplustree.Stats) float64 { return float64(s.Merges) }),
		counter("borrows_total", "Entries moved between siblings during deletion.",
			func(s bplustree.Stats) float64 { return float64(s.BorrowsLeft + s.BorrowsRight) }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "metrics: register")
		}
	}
	return m, nil
}

// Observe counts one operation.
func (m *Metrics) Observe(op, result string) {
	m.Ops.WithLabelValues(op, result).Inc()
}

// WriteText writes every metric gathered from g in the Prometheus text
// exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, "metrics: gather")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, "metrics: write")
		}
	}
	return nil
}
