// Package health re-probes known endpoints on demand.
package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/grpcscout/grpcscout/internal/domain"
	grpcx "github.com/grpcscout/grpcscout/internal/grpc"
	"github.com/grpcscout/grpcscout/internal/metrics"
	"github.com/grpcscout/grpcscout/internal/probe"
	"github.com/grpcscout/grpcscout/internal/registry"
)

// CheckResult reports one health check.
type CheckResult struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	Healthy        bool   `json:"healthy"`
	ResponseTimeMS int64  `json:"response_time_ms"`
}

// Monitor runs probe-and-classify checks against previously discovered
// endpoints and updates their registry metadata in place.
type Monitor struct {
	prober     *probe.Prober
	classifier *grpcx.Classifier
	registry   *registry.Registry
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewMonitor creates a Monitor reusing the scan pair of prober and
// classifier.
func NewMonitor(prober *probe.Prober, classifier *grpcx.Classifier, reg *registry.Registry, m *metrics.Metrics, logger *slog.Logger) *Monitor {
	return &Monitor{
		prober:     prober,
		classifier: classifier,
		registry:   reg,
		metrics:    m,
		logger:     logger,
	}
}

// Check probes host:port, classifies it, and measures the wall-clock time
// around both. An endpoint is healthy only if it is reachable and still
// speaks gRPC. If the endpoint is known to the registry its metadata is
// updated; otherwise the result is still returned but nothing is recorded.
func (m *Monitor) Check(ctx context.Context, host string, port int) CheckResult {
	start := time.Now()
	healthy := m.prober.TCP(host, port).IsOpen() && m.classifier.IsGRPCEndpoint(ctx, host, port)
	elapsed := time.Since(start).Milliseconds()

	status := domain.HealthUnhealthy
	result := "unhealthy"
	if healthy {
		status = domain.HealthHealthy
		result = "healthy"
	}
	m.metrics.HealthChecks.WithLabelValues(result).Inc()

	key := domain.Endpoint{Host: host, Port: port}.Key()
	updated := m.registry.UpdateHealth(key, status, elapsed)

	m.logger.Info("health check complete",
		slog.String("endpoint", key),
		slog.Bool("healthy", healthy),
		slog.Int64("response_time_ms", elapsed),
		slog.Bool("registry_updated", updated),
	)

	return CheckResult{
		Host:           host,
		Port:           port,
		Healthy:        healthy,
		ResponseTimeMS: elapsed,
	}
}
