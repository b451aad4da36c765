// SPDX-License-Identifier: MPL-2.0

package metrics

import (
	"fmt"
	"sync"

	"github.com/monobuild/monobuild/internal/executor"
	"github.com/monobuild/monobuild/internal/plan"
	"github.com/monobuild/monobuild/pkg/manifest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "monobuild"

type (
	// Recorder collects the metrics of one run. It implements executor.Observer.
	Recorder struct {
		registry *prometheus.Registry

		planned  *prometheus.GaugeVec
		building prometheus.Gauge
		results  *prometheus.CounterVec
		duration *prometheus.HistogramVec
		runTime  prometheus.Gauge

		mu      sync.Mutex
		started map[string]bool
	}
)

var _ executor.Observer = (*Recorder)(nil)

// NewRecorder returns a Recorder whose metrics carry run_id and target as
// constant labels.
func NewRecorder(runID string, target manifest.Target) *Recorder {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"run_id": runID, "target": string(target)}
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		planned: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "plan",
			Name:        "packages",
			Help:        "Packages in the build plan by impact reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
		building: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "build",
			Name:        "in_progress",
			Help:        "Package builds currently running.",
			ConstLabels: labels,
		}),
		results: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "build",
			Name:        "results_total",
			Help:        "Finished package builds by kind and status.",
			ConstLabels: labels,
		}, []string{"kind", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "build",
			Name:        "duration_seconds",
			Help:        "Package build duration in seconds.",
			ConstLabels: labels,
			Buckets:     []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800},
		}, []string{"kind", "status"}),
		runTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "run",
			Name:        "duration_seconds",
			Help:        "Wall time of the whole run in seconds.",
			ConstLabels: labels,
		}),
		started: make(map[string]bool),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObservePlan records the size of p.
func (r *Recorder) ObservePlan(p *plan.Plan) {
	counts := make(map[string]int)
	for _, st := range p.Steps() {
		counts[st.Reason.String()]++
	}
	for reason, n := range counts {
		r.planned.WithLabelValues(reason).Set(float64(n))
	}
}

// Started implements executor.Observer.
func (r *Recorder) Started(pkg *manifest.Package) {
	r.mu.Lock()
	r.started[pkg.ID()] = true
	r.mu.Unlock()
	r.building.Inc()
}

// Finished implements executor.Observer. Durations are only observed for
// packages that actually ran.
func (r *Recorder) Finished(res executor.Result) {
	r.mu.Lock()
	ran := r.started[res.ID()]
	delete(r.started, res.ID())
	r.mu.Unlock()

	kind := string(res.Package.Kind())
	status := res.Status.String()
	r.results.WithLabelValues(kind, status).Inc()
	if ran {
		r.building.Dec()
		r.duration.WithLabelValues(kind, status).Observe(res.Duration.Seconds())
	}
}

// ObserveReport records the run duration from rep.
func (r *Recorder) ObserveReport(rep *executor.Report) {
	r.runTime.Set(rep.Duration.Seconds())
}

// WriteTextfile writes every metric to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
