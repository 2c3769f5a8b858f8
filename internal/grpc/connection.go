package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/grpcscout/grpcscout/internal/domain"
	scouterrors "github.com/grpcscout/grpcscout/internal/errors"
	"github.com/grpcscout/grpcscout/internal/reflection"
	googlegrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	reflectionpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
)

// ConnectResult describes a successful connect.
type ConnectResult struct {
	Endpoint string `json:"endpoint"`
	TLS      bool   `json:"tls"`
}

// ConnectionManager owns the pool of live channels and the single active
// connection with its reflection client. The active snapshot and the
// reflection client are always updated together under the same lock:
// Connected == true implies a reflection client exists.
type ConnectionManager struct {
	mu         sync.RWMutex
	active     domain.Connection
	pool       map[string]*googlegrpc.ClientConn
	refClient  reflectionpb.ServerReflectionClient
	descClient *reflection.Client
	logger     *slog.Logger
}

// NewConnectionManager creates a connection manager in the disconnected
// default state.
func NewConnectionManager(logger *slog.Logger) *ConnectionManager {
	return &ConnectionManager{
		active: domain.DefaultConnection(),
		pool:   make(map[string]*googlegrpc.ClientConn),
		logger: logger,
	}
}

// Connect establishes a channel to host:port and, on success, stores it in
// the pool, replaces the reflection client, and overwrites the active
// connection snapshot. A second Connect silently supersedes the first. On
// failure the prior active state is left untouched.
func (m *ConnectionManager) Connect(ctx context.Context, host string, port int, useTLS bool) (ConnectResult, error) {
	target := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	endpoint := endpointURL(host, port, useTLS)

	m.logger.Info("connecting to gRPC server", slog.String("endpoint", endpoint))

	// Keepalive keeps long-lived interactive connections from going stale.
	kaParams := keepalive.ClientParameters{
		Time:                10 * time.Second,
		Timeout:             3 * time.Second,
		PermitWithoutStream: true,
	}

	opts := []googlegrpc.DialOption{
		googlegrpc.WithKeepaliveParams(kaParams),
	}
	if useTLS {
		opts = append(opts, googlegrpc.WithTransportCredentials(credentials.NewTLS(nil)))
	} else {
		opts = append(opts, googlegrpc.WithTransportCredentials(insecure.NewCredentials()))
		m.logger.Warn("using insecure plaintext connection")
	}

	conn, err := googlegrpc.NewClient(target, opts...)
	if err != nil {
		m.logger.Error("failed to create gRPC client",
			slog.String("endpoint", endpoint),
			slog.Any("error", err),
		)
		return ConnectResult{}, &scouterrors.ConnectionError{Target: target, Err: err}
	}

	// No explicit deadline here: an explicit connect request blocks on the
	// transport's own connect behavior.
	if err := waitForReady(ctx, conn); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			m.logger.Debug("failed to close unready channel", slog.Any("error", closeErr))
		}
		m.logger.Error("failed to connect",
			slog.String("endpoint", endpoint),
			slog.Any("error", err),
		)
		return ConnectResult{}, &scouterrors.ConnectionError{Target: target, Err: err}
	}

	m.mu.Lock()
	if old, ok := m.pool[target]; ok && old != conn {
		// Same endpoint reconnected; the superseded channel would leak.
		oldConn := old
		go func() {
			if err := oldConn.Close(); err != nil {
				m.logger.Warn("failed to close superseded connection", slog.Any("error", err))
			}
		}()
	}
	m.pool[target] = conn
	if m.descClient != nil {
		m.descClient.Close()
	}
	m.refClient = reflectionpb.NewServerReflectionClient(conn)
	m.descClient = reflection.NewClient(conn, m.logger)
	m.active = domain.Connection{
		Host:      host,
		Port:      port,
		UseTLS:    useTLS,
		Connected: true,
	}
	m.mu.Unlock()

	m.logger.Info("gRPC connection established",
		slog.String("endpoint", endpoint),
		slog.Bool("tls", useTLS),
	)

	return ConnectResult{Endpoint: endpoint, TLS: useTLS}, nil
}

// Disconnect clears the reflection client and the whole connection pool.
// Only the Connected flag on the active snapshot is reset; host and port
// keep their last values.
func (m *ConnectionManager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for target, conn := range m.pool {
		if err := conn.Close(); err != nil {
			m.logger.Warn("failed to close pooled connection",
				slog.String("target", target),
				slog.Any("error", err),
			)
		}
	}
	m.pool = make(map[string]*googlegrpc.ClientConn)
	m.refClient = nil
	if m.descClient != nil {
		m.descClient.Close()
		m.descClient = nil
	}
	m.active.Connected = false

	m.logger.Info("gRPC connection closed")
}

// Status returns a read-only snapshot of the active connection.
func (m *ConnectionManager) Status() domain.Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Reflection returns the raw reflection client for the active connection.
func (m *ConnectionManager) Reflection() (reflectionpb.ServerReflectionClient, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refClient, m.refClient != nil
}

// Descriptors returns the descriptor-resolving reflection client for the
// active connection.
func (m *ConnectionManager) Descriptors() (*reflection.Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.descClient, m.descClient != nil
}

// PoolSize returns the number of channels currently held in the pool.
func (m *ConnectionManager) PoolSize() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pool)
}

func endpointURL(host string, port int, useTLS bool) string {
	scheme := "http"
	if useTLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}
