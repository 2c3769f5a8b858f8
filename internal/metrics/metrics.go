// Package metrics instruments scans, classifications and health checks.
// Counters live on a private registry; the host decides whether and how to
// expose them.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the engine's instrumentation.
type Metrics struct {
	reg *prometheus.Registry

	PortsProbed       prometheus.Counter
	EndpointsDetected prometheus.Counter
	ScanDuration      prometheus.Histogram
	HealthChecks      *prometheus.CounterVec
	Connects          *prometheus.CounterVec
}

// New creates and registers the engine metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		PortsProbed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grpcscout_ports_probed_total",
			Help: "Candidate ports probed during scans.",
		}),
		EndpointsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grpcscout_grpc_endpoints_detected_total",
			Help: "Ports classified as gRPC during scans.",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grpcscout_scan_duration_seconds",
			Help:    "Wall-clock duration of full localhost scans.",
			Buckets: prometheus.DefBuckets,
		}),
		HealthChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grpcscout_health_checks_total",
			Help: "Health checks by result.",
		}, []string{"result"}),
		Connects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grpcscout_connects_total",
			Help: "Explicit connect attempts by outcome.",
		}, []string{"outcome"}),
	}

	m.reg.MustRegister(
		m.PortsProbed,
		m.EndpointsDetected,
		m.ScanDuration,
		m.HealthChecks,
		m.Connects,
	)
	return m
}

// Gatherer exposes the private registry for host-side exposition.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.reg
}
