// Package app wires the discovery components together and exposes the
// command surface consumed by the host.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grpcscout/grpcscout/internal/domain"
	grpcx "github.com/grpcscout/grpcscout/internal/grpc"
	"github.com/grpcscout/grpcscout/internal/health"
	"github.com/grpcscout/grpcscout/internal/metrics"
	"github.com/grpcscout/grpcscout/internal/probe"
	"github.com/grpcscout/grpcscout/internal/registry"
	"github.com/grpcscout/grpcscout/internal/scan"
	"github.com/prometheus/client_golang/prometheus"
)

// Response is the uniform command envelope. Expected failures (closed port,
// not gRPC, handshake timeout) come back as Success=false with a
// human-readable message, never as an error.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ScanData is the payload of a successful scan.
type ScanData struct {
	Services          map[string]domain.LocalhostEndpoint `json:"services"`
	ScanResults       []scan.Result                       `json:"scan_results"`
	PortsScanned      int                                 `json:"ports_scanned"`
	GRPCServicesFound int                                 `json:"grpc_services_found"`
}

// Engine is the application state constructed once at startup and shared by
// every command handler. Each stateful component guards its own fields.
type Engine struct {
	cfg      *Config
	logger   *slog.Logger
	registry *registry.Registry
	scanner  *scan.Scanner
	conns    *grpcx.ConnectionManager
	monitor  *health.Monitor
	metrics  *metrics.Metrics
}

// New creates an Engine with all components wired against the given
// configuration.
func New(cfg *Config, logger *slog.Logger) *Engine {
	m := metrics.New()
	prober := probe.New(cfg.ProbeTimeout, logger)
	classifier := grpcx.NewClassifier(cfg.ConnectTimeout, cfg.HandshakeTimeout, logger)
	reg := registry.New()

	logger.Info("initializing discovery engine",
		slog.Bool("debug", cfg.Debug),
		slog.String("scan_host", cfg.ScanHost),
	)

	return &Engine{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		scanner:  scan.New(cfg.ScanHost, scan.CommonGRPCPorts, prober, classifier, m, logger),
		conns:    grpcx.NewConnectionManager(logger),
		monitor:  health.NewMonitor(prober, classifier, reg, m, logger),
		metrics:  m,
	}
}

// ScanLocalhostServices sweeps the fixed candidate port list and replaces
// the registry with the scan snapshot.
func (e *Engine) ScanLocalhostServices(ctx context.Context) Response {
	discovered, results := e.scanner.Run(ctx)
	e.registry.ReplaceEndpoints(discovered)

	return Response{
		Success: true,
		Message: fmt.Sprintf("Discovered %d gRPC services on localhost", len(discovered)),
		Data: ScanData{
			Services:          discovered,
			ScanResults:       results,
			PortsScanned:      e.scanner.PortCount(),
			GRPCServicesFound: len(discovered),
		},
	}
}

// GetLocalhostServices returns the current registry snapshot.
func (e *Engine) GetLocalhostServices() []domain.LocalhostEndpoint {
	return e.registry.Endpoints()
}

// ConnectGRPC establishes the active connection. On failure the prior
// active state is untouched and the transport error is reported in the
// envelope.
func (e *Engine) ConnectGRPC(ctx context.Context, host string, port int, useTLS bool) Response {
	result, err := e.conns.Connect(ctx, host, port, useTLS)
	if err != nil {
		e.metrics.Connects.WithLabelValues("error").Inc()
		return Response{
			Success: false,
			Message: fmt.Sprintf("Failed to connect to gRPC server: %v", err),
		}
	}

	e.metrics.Connects.WithLabelValues("ok").Inc()
	return Response{
		Success: true,
		Message: fmt.Sprintf("Connected to gRPC server at %s", result.Endpoint),
		Data:    result,
	}
}

// DisconnectGRPC tears down the active connection, empties the active
// service list, and clears the whole connection pool.
func (e *Engine) DisconnectGRPC() Response {
	e.conns.Disconnect()
	e.registry.ClearActiveServices()

	return Response{
		Success: true,
		Message: "Disconnected from gRPC server",
	}
}

// DiscoverServices enumerates service names on the active connection via
// reflection. Method lists stay empty here; method-level enumeration is a
// separate explicit operation.
func (e *Engine) DiscoverServices(ctx context.Context) Response {
	client, ok := e.conns.Reflection()
	if !ok {
		return Response{
			Success: false,
			Message: "Not connected to gRPC server",
		}
	}

	e.logger.Info("discovering services via reflection")

	names, err := grpcx.ListServiceNames(ctx, client)
	if err != nil {
		e.logger.Error("service discovery failed", slog.Any("error", err))
		return Response{
			Success: false,
			Message: fmt.Sprintf("Failed to discover services: %v", err),
		}
	}

	// Snapshot the active connection once rather than re-reading it per
	// stream message.
	status := e.conns.Status()
	services := make([]domain.Service, 0, len(names))
	for _, name := range names {
		services = append(services, domain.Service{
			Name:     name,
			Methods:  []domain.Method{},
			Metadata: domain.NewServiceMetadata(status.Host, status.Port),
		})
	}

	e.registry.ReplaceActiveServices(services)
	e.logger.Info("discovered services", slog.Int("service_count", len(services)))

	return Response{
		Success: true,
		Message: fmt.Sprintf("Discovered %d services", len(services)),
		Data:    services,
	}
}

// EnumerateServiceMethods resolves the named service's method descriptors
// on the active connection.
func (e *Engine) EnumerateServiceMethods(ctx context.Context, serviceName string) Response {
	client, ok := e.conns.Descriptors()
	if !ok {
		return Response{
			Success: false,
			Message: "Not connected to gRPC server",
		}
	}

	methods, err := client.EnumerateMethods(ctx, serviceName)
	if err != nil {
		e.logger.Error("method enumeration failed",
			slog.String("service", serviceName),
			slog.Any("error", err),
		)
		return Response{
			Success: false,
			Message: fmt.Sprintf("Failed to enumerate methods: %v", err),
		}
	}

	return Response{
		Success: true,
		Message: fmt.Sprintf("Enumerated %d methods for %s", len(methods), serviceName),
		Data:    methods,
	}
}

// GetConnectionStatus returns a snapshot of the active connection.
func (e *Engine) GetConnectionStatus() domain.Connection {
	return e.conns.Status()
}

// GetServices returns the active connection's discovered service list.
func (e *Engine) GetServices() []domain.Service {
	return e.registry.ActiveServices()
}

// HealthCheckService re-probes one endpoint and updates its registry
// metadata when present. Success mirrors the health outcome.
func (e *Engine) HealthCheckService(ctx context.Context, host string, port int) Response {
	result := e.monitor.Check(ctx, host, port)

	message := fmt.Sprintf("Service at %s:%d is unhealthy", host, port)
	if result.Healthy {
		message = fmt.Sprintf("Service at %s:%d is healthy (%dms)", host, port, result.ResponseTimeMS)
	}

	return Response{
		Success: result.Healthy,
		Message: message,
		Data:    result,
	}
}

// Metrics exposes the engine's metric registry for host-side exposition.
func (e *Engine) Metrics() prometheus.Gatherer {
	return e.metrics.Gatherer()
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}
