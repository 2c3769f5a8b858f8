// Package reflection resolves service and method descriptors over gRPC
// server reflection. It backs method-level enumeration, which the plain
// service-name discovery path deliberately leaves out.
package reflection

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grpcscout/grpcscout/internal/domain"
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/grpcreflect"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/reflect/protoregistry"
)

// Client resolves descriptors for a single connection with permissive error
// handling: v1/v1alpha auto-detection, fallback to locally registered
// well-known types, and tolerance for missing file descriptors.
type Client struct {
	conn   *grpc.ClientConn
	logger *slog.Logger
}

// NewClient creates a descriptor client for the given connection.
func NewClient(conn *grpc.ClientConn, logger *slog.Logger) *Client {
	return &Client{conn: conn, logger: logger}
}

// EnumerateMethods resolves the named service's descriptor and returns its
// methods in declaration order.
func (c *Client) EnumerateMethods(ctx context.Context, serviceName string) ([]domain.Method, error) {
	c.logger.Debug("enumerating methods", slog.String("service", serviceName))

	sd, err := c.resolveService(ctx, serviceName)
	if err != nil {
		return nil, err
	}

	descs := sd.GetMethods()
	methods := make([]domain.Method, 0, len(descs))
	for _, md := range descs {
		methods = append(methods, domain.Method{
			Name:            md.GetName(),
			InputType:       md.GetInputType().GetFullyQualifiedName(),
			OutputType:      md.GetOutputType().GetFullyQualifiedName(),
			ClientStreaming: md.IsClientStreaming(),
			ServerStreaming: md.IsServerStreaming(),
		})
	}

	c.logger.Info("enumerated methods",
		slog.String("service", serviceName),
		slog.Int("method_count", len(methods)),
	)
	return methods, nil
}

// resolveService loads the service descriptor via a fresh auto-detecting
// reflection session.
func (c *Client) resolveService(ctx context.Context, serviceName string) (*desc.ServiceDescriptor, error) {
	refClient := grpcreflect.NewClientAuto(ctx, c.conn)
	defer refClient.Reset()

	refClient.AllowFallbackResolver(protoregistry.GlobalFiles, protoregistry.GlobalTypes)
	refClient.AllowMissingFileDescriptors()

	sd, err := refClient.ResolveService(serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve service %s: %w", serviceName, err)
	}
	return sd, nil
}

// Close releases any per-connection resources. Present for lifecycle
// symmetry with the connection manager; descriptor sessions are per-call.
func (c *Client) Close() {}
