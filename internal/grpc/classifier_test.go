package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	googlegrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	reflectionpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
)

func TestIsGRPCEndpoint_ReflectionServer(t *testing.T) {
	c := NewClassifier(0, 0, testLogger)

	assert.True(t, c.IsGRPCEndpoint(context.Background(), testHost, testGRPCPort))
}

func TestIsGRPCEndpoint_PlainTCPListener(t *testing.T) {
	c := NewClassifier(0, 0, testLogger)

	// An open socket is not sufficient; the handshake must succeed.
	assert.False(t, c.IsGRPCEndpoint(context.Background(), testHost, testEchoPort))
}

func TestIsGRPCEndpoint_ClosedPort(t *testing.T) {
	c := NewClassifier(0, 0, testLogger)

	assert.False(t, c.IsGRPCEndpoint(context.Background(), testHost, testClosedPort))
}

func TestIsGRPCEndpoint_BoundedDuration(t *testing.T) {
	c := NewClassifier(200*time.Millisecond, 200*time.Millisecond, testLogger)

	start := time.Now()
	c.IsGRPCEndpoint(context.Background(), testHost, testEchoPort)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestListServiceNames(t *testing.T) {
	conn, err := googlegrpc.NewClient(
		joinTestTarget(testHost, testGRPCPort),
		googlegrpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	client := reflectionpb.NewServerReflectionClient(conn)
	names, err := ListServiceNames(context.Background(), client)
	require.NoError(t, err)
	require.NotEmpty(t, names)

	// The reflection service itself is listed; names are not filtered.
	assert.Contains(t, names, "grpc.reflection.v1.ServerReflection")
}

func TestListServiceNames_ClosedPort(t *testing.T) {
	conn, err := googlegrpc.NewClient(
		joinTestTarget(testHost, testClosedPort),
		googlegrpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := reflectionpb.NewServerReflectionClient(conn)
	_, err = ListServiceNames(ctx, client)
	assert.Error(t, err)
}
