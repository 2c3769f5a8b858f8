package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	scouterrors "github.com/grpcscout/grpcscout/internal/errors"
	googlegrpc "google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	reflectionpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
)

const (
	// DefaultConnectTimeout bounds the channel-ready wait during scan
	// classification.
	DefaultConnectTimeout = 500 * time.Millisecond
	// DefaultHandshakeTimeout bounds the wait for the first reflection
	// response during scan classification.
	DefaultHandshakeTimeout = 1000 * time.Millisecond
)

// Classifier decides whether an open port speaks gRPC by attempting a
// one-shot server-reflection handshake.
type Classifier struct {
	connectTimeout   time.Duration
	handshakeTimeout time.Duration
	logger           *slog.Logger
}

// NewClassifier creates a Classifier. Non-positive timeouts fall back to the
// package defaults.
func NewClassifier(connectTimeout, handshakeTimeout time.Duration, logger *slog.Logger) *Classifier {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	if handshakeTimeout <= 0 {
		handshakeTimeout = DefaultHandshakeTimeout
	}
	return &Classifier{
		connectTimeout:   connectTimeout,
		handshakeTimeout: handshakeTimeout,
		logger:           logger,
	}
}

// IsGRPCEndpoint dials host:port in plaintext and attempts a reflection
// handshake: establish the channel, send a single list-services request,
// close the write side, and wait for the first response. Any failure along
// the way means "not gRPC" — open-but-non-gRPC ports are expected during a
// scan and are never escalated as errors.
func (c *Classifier) IsGRPCEndpoint(ctx context.Context, host string, port int) bool {
	target := net.JoinHostPort(host, fmt.Sprintf("%d", port))

	conn, err := googlegrpc.NewClient(target,
		googlegrpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		c.logger.Debug("failed to create channel", slog.String("target", target), slog.Any("error", err))
		return false
	}
	defer func() {
		if err := conn.Close(); err != nil {
			c.logger.Debug("failed to close classification channel", slog.Any("error", err))
		}
	}()

	connectCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()
	if err := waitForReady(connectCtx, conn); err != nil {
		c.logger.Debug("channel did not become ready",
			slog.String("target", target),
			slog.Any("error", err),
		)
		return false
	}

	handshakeCtx, cancel := context.WithTimeout(ctx, c.handshakeTimeout)
	defer cancel()

	stream, err := reflectionpb.NewServerReflectionClient(conn).ServerReflectionInfo(handshakeCtx)
	if err != nil {
		return false
	}
	if err := stream.Send(listServicesRequest()); err != nil {
		return false
	}
	// One-shot exchange, not a sustained stream.
	if err := stream.CloseSend(); err != nil {
		return false
	}
	if _, err := stream.Recv(); err != nil {
		c.logger.Debug("reflection handshake failed",
			slog.String("target", target),
			slog.Any("error", err),
		)
		return false
	}

	return true
}

// ListServiceNames performs a list-services exchange on an already
// established reflection client and drains the response stream until the
// list-services payload arrives. Other response kinds are ignored; the
// payload is assumed to be the sole or first relevant message.
func ListServiceNames(ctx context.Context, client reflectionpb.ServerReflectionClient) ([]string, error) {
	stream, err := client.ServerReflectionInfo(ctx)
	if err != nil {
		return nil, &scouterrors.DiscoveryError{Err: err}
	}
	if err := stream.Send(listServicesRequest()); err != nil {
		return nil, &scouterrors.DiscoveryError{Err: err}
	}
	if err := stream.CloseSend(); err != nil {
		return nil, &scouterrors.DiscoveryError{Err: err}
	}

	for {
		msg, err := stream.Recv()
		if err != nil {
			return nil, &scouterrors.ReflectionError{
				Detail: fmt.Sprintf("stream ended before list-services response: %v", err),
			}
		}
		list := msg.GetListServicesResponse()
		if list == nil {
			continue
		}
		names := make([]string, 0, len(list.GetService()))
		for _, svc := range list.GetService() {
			names = append(names, svc.GetName())
		}
		return names, nil
	}
}

func listServicesRequest() *reflectionpb.ServerReflectionRequest {
	return &reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_ListServices{
			ListServices: "",
		},
	}
}

// waitForReady blocks until the channel reaches Ready, the channel fails, or
// the context expires. gRPC channels connect lazily, so the first transient
// failure is reported as a connect error rather than retried.
func waitForReady(ctx context.Context, conn *googlegrpc.ClientConn) error {
	conn.Connect()
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.TransientFailure:
			return fmt.Errorf("channel entered %s while connecting", state)
		case connectivity.Shutdown:
			return fmt.Errorf("channel shut down while connecting")
		}
		if !conn.WaitForStateChange(ctx, state) {
			return ctx.Err()
		}
	}
}
