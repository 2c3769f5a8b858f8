// Package scan sweeps the fixed candidate port list for gRPC endpoints.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/grpcscout/grpcscout/internal/domain"
	grpcx "github.com/grpcscout/grpcscout/internal/grpc"
	"github.com/grpcscout/grpcscout/internal/metrics"
	"github.com/grpcscout/grpcscout/internal/probe"
)

// CommonGRPCPorts is the fixed candidate list swept by every scan. Ports
// outside this list are never probed or reported.
var CommonGRPCPorts = []int{
	9090, 8080, 50051, 50052, 50053, 8081, 8082, 8083, 8084, 8085,
	9091, 9092, 9093, 9094, 9095, 3000, 3001, 3002, 4000, 4001,
	5000, 5001, 5002, 6000, 6001, 7000, 7001, 8000, 8001, 8002,
}

// StatusGRPCDetected marks a port that passed the reflection handshake.
const StatusGRPCDetected = "grpc_detected"

// Result is one per-port scan outcome reported back alongside the endpoint
// snapshot.
type Result struct {
	Endpoint string `json:"endpoint"`
	Status   string `json:"status"`
	Port     int    `json:"port"`
}

// Scanner probes candidate ports sequentially and classifies the open ones.
type Scanner struct {
	host       string
	ports      []int
	prober     *probe.Prober
	classifier *grpcx.Classifier
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New creates a Scanner over the given candidate ports.
func New(host string, ports []int, prober *probe.Prober, classifier *grpcx.Classifier, m *metrics.Metrics, logger *slog.Logger) *Scanner {
	return &Scanner{
		host:       host,
		ports:      ports,
		prober:     prober,
		classifier: classifier,
		metrics:    m,
		logger:     logger,
	}
}

// PortCount returns the number of candidate ports swept per scan.
func (s *Scanner) PortCount() int {
	return len(s.ports)
}

// Run sweeps all candidate ports in order, one probe per port, and returns
// the detected gRPC endpoints keyed by "host:port" plus the per-port
// results. Open-but-non-gRPC ports are silently skipped; there is no
// intra-scan parallelism.
func (s *Scanner) Run(ctx context.Context) (map[string]domain.LocalhostEndpoint, []Result) {
	s.logger.Info("starting localhost gRPC service discovery")
	start := time.Now()

	discovered := make(map[string]domain.LocalhostEndpoint)
	var results []Result

	for _, port := range s.ports {
		endpoint := domain.Endpoint{Host: s.host, Port: port}
		key := endpoint.Key()

		s.logger.Debug("scanning port", slog.Int("port", port))
		s.metrics.PortsProbed.Inc()

		if !s.prober.TCP(s.host, port).IsOpen() {
			continue
		}
		if !s.classifier.IsGRPCEndpoint(ctx, s.host, port) {
			s.logger.Debug("port is open but not gRPC", slog.Int("port", port))
			continue
		}

		s.logger.Info("found gRPC service", slog.String("endpoint", key))
		s.metrics.EndpointsDetected.Inc()

		discovered[key] = domain.LocalhostEndpoint{
			Endpoint: endpoint,
			IsGRPC:   true,
			Services: []domain.Service{}, // populated by explicit discovery
			Metadata: domain.NewServiceMetadata(s.host, port),
		}
		results = append(results, Result{
			Endpoint: key,
			Status:   StatusGRPCDetected,
			Port:     port,
		})
	}

	elapsed := time.Since(start)
	s.metrics.ScanDuration.Observe(elapsed.Seconds())
	s.logger.Info("discovery complete",
		slog.Int("grpc_services_found", len(discovered)),
		slog.Int("ports_scanned", len(s.ports)),
		slog.String("elapsed", fmt.Sprintf("%dms", elapsed.Milliseconds())),
	)

	return discovered, results
}
