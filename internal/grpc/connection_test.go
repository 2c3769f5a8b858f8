package grpc

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/grpcscout/grpcscout/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func joinTestTarget(host string, port int) string {
	return net.JoinHostPort(host, fmt.Sprintf("%d", port))
}

func TestConnect_Success(t *testing.T) {
	cm := NewConnectionManager(testLogger)
	defer cm.Disconnect()

	result, err := cm.Connect(context.Background(), testHost, testGRPCPort, false)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("http://%s:%d", testHost, testGRPCPort), result.Endpoint)
	assert.False(t, result.TLS)

	status := cm.Status()
	assert.True(t, status.Connected)
	assert.Equal(t, testHost, status.Host)
	assert.Equal(t, testGRPCPort, status.Port)
	assert.False(t, status.UseTLS)

	// Connected implies a reflection client exists.
	_, ok := cm.Reflection()
	assert.True(t, ok)
	_, ok = cm.Descriptors()
	assert.True(t, ok)
	assert.Equal(t, 1, cm.PoolSize())
}

func TestConnect_ClosedPort(t *testing.T) {
	cm := NewConnectionManager(testLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := cm.Connect(ctx, testHost, testClosedPort, false)
	require.Error(t, err)
	assert.NotEmpty(t, err.Error())

	// Failure leaves the default state untouched.
	assert.Equal(t, domain.DefaultConnection(), cm.Status())
	_, ok := cm.Reflection()
	assert.False(t, ok)
	assert.Equal(t, 0, cm.PoolSize())
}

func TestConnect_FailureLeavesPriorActiveUntouched(t *testing.T) {
	cm := NewConnectionManager(testLogger)
	defer cm.Disconnect()

	_, err := cm.Connect(context.Background(), testHost, testGRPCPort, false)
	require.NoError(t, err)
	before := cm.Status()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = cm.Connect(ctx, testHost, testClosedPort, false)
	require.Error(t, err)

	assert.Equal(t, before, cm.Status())
	_, ok := cm.Reflection()
	assert.True(t, ok, "prior reflection client must survive a failed connect")
	assert.Equal(t, 1, cm.PoolSize())
}

func TestConnect_SecondConnectSupersedes(t *testing.T) {
	// Second reflection-capable server for the superseding connect.
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	server, host2, port2 := startReflectionServer(t, lis)
	defer server.Stop()

	cm := NewConnectionManager(testLogger)
	defer cm.Disconnect()

	_, err = cm.Connect(context.Background(), testHost, testGRPCPort, false)
	require.NoError(t, err)

	// No explicit disconnect required.
	_, err = cm.Connect(context.Background(), host2, port2, false)
	require.NoError(t, err)

	status := cm.Status()
	assert.True(t, status.Connected)
	assert.Equal(t, port2, status.Port)
	assert.Equal(t, 2, cm.PoolSize(), "both endpoints stay pooled until disconnect")
}

func TestDisconnect_LeavesStaleHostPort(t *testing.T) {
	cm := NewConnectionManager(testLogger)

	_, err := cm.Connect(context.Background(), testHost, testGRPCPort, false)
	require.NoError(t, err)

	cm.Disconnect()

	// Only the Connected flag is reset; host and port intentionally keep
	// their last values.
	status := cm.Status()
	assert.False(t, status.Connected)
	assert.Equal(t, testHost, status.Host)
	assert.Equal(t, testGRPCPort, status.Port)

	_, ok := cm.Reflection()
	assert.False(t, ok)
	_, ok = cm.Descriptors()
	assert.False(t, ok)
	assert.Equal(t, 0, cm.PoolSize(), "disconnect clears the whole pool")
}

func TestDisconnect_WithoutConnect(t *testing.T) {
	cm := NewConnectionManager(testLogger)
	cm.Disconnect()

	assert.Equal(t, domain.DefaultConnection(), cm.Status())
}
