package antrsvp

// collector.go holds the accounting side of a run.  The control plane
// reports every message that completed or failed through the Accounting
// interface; the Collector turns those reports into prometheus metrics on a
// private registry and into an end-of-run summary.

import (
	"github.com/montanaflynn/stats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//go:generate mockgen -source collector.go -destination accounting_mock_test.go -package antrsvp

// Accounting receives the outcome of every ant and reservation attempt
type Accounting interface {
	AddSuccessful(msg Message)
	AddFailed(msg Message)
}

// InstantaneousRecorder is implemented by accounting that also wants a snapshot
// of link occupancy once per time slice
type InstantaneousRecorder interface {
	SetInstantaneousValues(now float64, links []LinkUsage)
}

const metricsNamespace = "antrsvp"

// Collector implements Accounting and InstantaneousRecorder
type Collector struct {
	registry *prometheus.Registry

	succeeded   *prometheus.CounterVec
	failed      *prometheus.CounterVec
	restored    prometheus.Counter
	utilization prometheus.Gauge

	setupLatency []float64
	utilSamples  []float64
	lpSucceeded  int
	lpFailed     int
}

// NewCollector registers the metrics on a fresh registry
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		succeeded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "succeeded_total",
			Help:      "Counter of the number of routed ants and established lightpaths.",
		}, []string{"kind"}),
		failed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "failed_total",
			Help:      "Counter of the number of killed ants and blocked lightpaths.",
		}, []string{"kind", "reason"}),
		restored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "restored_total",
			Help:      "Counter of the number of lightpaths restored after a failure.",
		}),
		utilization: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "wavelength_utilization",
			Help:      "Fraction of wavelengths in use over all links.",
		}),
	}
}

// Registry exposes the metrics, e.g. to a promhttp handler
func (col *Collector) Registry() *prometheus.Registry {
	return col.registry
}

func (col *Collector) AddSuccessful(msg Message) {
	col.succeeded.WithLabelValues(msg.Kind()).Inc()

	sig, ok := msg.(*SignalingMessage)
	if !ok {
		return
	}
	col.lpSucceeded += 1
	if sig.Restoration {
		col.restored.Inc()
	}
	if sig.Connection != nil && sig.Request != nil {
		col.setupLatency = append(col.setupLatency, sig.Connection.Ready-sig.Request.Arrival)
	}
}

func (col *Collector) AddFailed(msg Message) {
	reason := "killed"
	if sig, ok := msg.(*SignalingMessage); ok {
		col.lpFailed += 1
		reason = NoError.String()
		if sig.Err != nil {
			reason = sig.Err.Code.String()
		}
	}
	col.failed.WithLabelValues(msg.Kind(), reason).Inc()
}

// SetInstantaneousValues records the fraction of wavelengths in use
func (col *Collector) SetInstantaneousValues(now float64, links []LinkUsage) {
	total := 0
	used := 0
	for _, lu := range links {
		total += lu.Wavelengths
		used += lu.Used
	}
	if total == 0 {
		return
	}
	util := float64(used) / float64(total)
	col.utilization.Set(util)
	col.utilSamples = append(col.utilSamples, util)
}

// Summary is the end-of-run digest of what the collector saw
type Summary struct {
	Established     int     `json:"established" yaml:"established"`
	Blocked         int     `json:"blocked" yaml:"blocked"`
	Blocking        float64 `json:"blocking" yaml:"blocking"`
	MeanSetup       float64 `json:"meansetup" yaml:"meansetup"`
	P95Setup        float64 `json:"p95setup" yaml:"p95setup"`
	MeanUtilization float64 `json:"meanutilization" yaml:"meanutilization"`
	StdUtilization  float64 `json:"stdutilization" yaml:"stdutilization"`
}

func (col *Collector) Summary() Summary {
	sum := Summary{Established: col.lpSucceeded, Blocked: col.lpFailed}
	if attempts := col.lpSucceeded + col.lpFailed; attempts > 0 {
		sum.Blocking = float64(col.lpFailed) / float64(attempts)
	}
	if len(col.setupLatency) > 0 {
		sum.MeanSetup, _ = stats.Mean(col.setupLatency)        // nolint: errcheck
		sum.P95Setup, _ = stats.Percentile(col.setupLatency, 95) // nolint: errcheck
	}
	if len(col.utilSamples) > 0 {
		sum.MeanUtilization, _ = stats.Mean(col.utilSamples)             // nolint: errcheck
		sum.StdUtilization, _ = stats.StandardDeviation(col.utilSamples) // nolint: errcheck
	}
	return sum
}
