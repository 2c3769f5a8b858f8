package domain

import (
	"fmt"
	"time"
)

// HealthStatus describes the last known health of a discovered endpoint.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "Healthy"
	HealthUnhealthy HealthStatus = "Unhealthy"
	HealthUnknown   HealthStatus = "Unknown"
)

// Endpoint identifies a network service instance. Immutable once created.
type Endpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Key returns the "host:port" string used as the registry and pool key.
func (e Endpoint) Key() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// ServiceMetadata tracks discovery and health information for one endpoint.
// LastHealthCheck is monotonically non-decreasing per endpoint.
type ServiceMetadata struct {
	Host            string       `json:"host"`
	Port            int          `json:"port"`
	DiscoveredAt    int64        `json:"discovered_at"`
	LastHealthCheck int64        `json:"last_health_check"`
	HealthStatus    HealthStatus `json:"health_status"`
	ResponseTimeMS  *int64       `json:"response_time_ms"`
}

// NewServiceMetadata creates metadata for a freshly discovered endpoint.
// The endpoint starts out Healthy: it was reachable moments ago.
func NewServiceMetadata(host string, port int) ServiceMetadata {
	now := time.Now().Unix()
	return ServiceMetadata{
		Host:            host,
		Port:            port,
		DiscoveredAt:    now,
		LastHealthCheck: now,
		HealthStatus:    HealthHealthy,
	}
}

// LocalhostEndpoint is one registry record: an endpoint found during a scan,
// its gRPC classification, and whatever services have been enumerated on it.
type LocalhostEndpoint struct {
	Endpoint
	IsGRPC   bool            `json:"is_grpc"`
	Services []Service       `json:"services"`
	Metadata ServiceMetadata `json:"metadata"`
}
