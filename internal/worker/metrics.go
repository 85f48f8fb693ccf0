package worker

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry             *prometheus.Registry
	jobsTotal            *prometheus.CounterVec
	jobDuration          *prometheus.HistogramVec
	activeJobs           prometheus.Gauge
	stageFailures        *prometheus.CounterVec
	secondsRenderedTotal prometheus.Counter
	bytesWrittenTotal    prometheus.Counter
	assetsUsedTotal      prometheus.Counter
	computeTimeMSTotal   prometheus.Counter
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &metrics{
		registry: registry,
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clipwright_worker_jobs_total",
			Help: "Total render jobs by final status.",
		}, []string{"status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clipwright_worker_job_duration_seconds",
			Help:    "End-to-end render duration for each job.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"status"}),
		activeJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clipwright_worker_active_jobs",
			Help: "Current number of renders in flight.",
		}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clipwright_worker_stage_failures_total",
			Help: "Total job failures by pipeline stage.",
		}, []string{"stage"}),
		secondsRenderedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipwright_render_seconds_rendered_total",
			Help: "Total seconds of finished video across successful jobs.",
		}),
		bytesWrittenTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipwright_render_bytes_written_total",
			Help: "Total bytes of finished video across successful jobs.",
		}),
		assetsUsedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipwright_render_assets_used_total",
			Help: "Total stock assets placed into finished videos.",
		}),
		computeTimeMSTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipwright_render_compute_time_ms_total",
			Help: "Total compute time in milliseconds across successful jobs.",
		}),
	}

	registry.MustRegister(
		m.jobsTotal,
		m.jobDuration,
		m.activeJobs,
		m.stageFailures,
		m.secondsRenderedTotal,
		m.bytesWrittenTotal,
		m.assetsUsedTotal,
		m.computeTimeMSTotal,
	)
	return m
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
