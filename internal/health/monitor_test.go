package health

import (
	"context"
	"net"
	"strconv"
	"testing"

	"github.com/grpcscout/grpcscout/internal/domain"
	grpcx "github.com/grpcscout/grpcscout/internal/grpc"
	"github.com/grpcscout/grpcscout/internal/logging"
	"github.com/grpcscout/grpcscout/internal/metrics"
	"github.com/grpcscout/grpcscout/internal/probe"
	"github.com/grpcscout/grpcscout/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	googlegrpc "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

func newTestMonitor(t *testing.T) (*Monitor, *registry.Registry) {
	t.Helper()
	logger := logging.NewNopLogger()
	reg := registry.New()
	m := NewMonitor(
		probe.New(0, logger),
		grpcx.NewClassifier(0, 0, logger),
		reg,
		metrics.New(),
		logger,
	)
	return m, reg
}

func startReflectionServer(t *testing.T) (string, int) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := googlegrpc.NewServer()
	reflection.Register(server)
	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)

	host, portStr, err := net.SplitHostPort(lis.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func freePort(t *testing.T) (string, int) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(lis.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	require.NoError(t, lis.Close())
	return host, port
}

func TestCheck_HealthyEndpoint(t *testing.T) {
	host, port := startReflectionServer(t)
	m, reg := newTestMonitor(t)

	key := domain.Endpoint{Host: host, Port: port}.Key()
	reg.ReplaceEndpoints(map[string]domain.LocalhostEndpoint{
		key: {
			Endpoint: domain.Endpoint{Host: host, Port: port},
			IsGRPC:   true,
			Metadata: domain.NewServiceMetadata(host, port),
		},
	})

	result := m.Check(context.Background(), host, port)

	assert.True(t, result.Healthy)
	assert.GreaterOrEqual(t, result.ResponseTimeMS, int64(0))

	rec := reg.Endpoints()[0]
	assert.Equal(t, domain.HealthHealthy, rec.Metadata.HealthStatus)
	require.NotNil(t, rec.Metadata.ResponseTimeMS)
}

func TestCheck_ClosedPortIsUnhealthy(t *testing.T) {
	host, port := freePort(t)
	m, reg := newTestMonitor(t)

	key := domain.Endpoint{Host: host, Port: port}.Key()
	reg.ReplaceEndpoints(map[string]domain.LocalhostEndpoint{
		key: {
			Endpoint: domain.Endpoint{Host: host, Port: port},
			IsGRPC:   true,
			Metadata: domain.NewServiceMetadata(host, port),
		},
	})

	result := m.Check(context.Background(), host, port)

	assert.False(t, result.Healthy)
	assert.Equal(t, domain.HealthUnhealthy, reg.Endpoints()[0].Metadata.HealthStatus)
}

func TestCheck_OpenButNotGRPCIsUnhealthy(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lis.Close()
	go func() {
		for {
			conn, err := lis.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	host, portStr, err := net.SplitHostPort(lis.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	m, _ := newTestMonitor(t)
	result := m.Check(context.Background(), host, port)

	assert.False(t, result.Healthy, "an open socket without gRPC is unhealthy")
}

func TestCheck_UnknownEndpointStillReports(t *testing.T) {
	host, port := startReflectionServer(t)
	m, reg := newTestMonitor(t)

	result := m.Check(context.Background(), host, port)

	assert.True(t, result.Healthy)
	assert.Empty(t, reg.Endpoints(), "check must not insert a registry entry")
}
