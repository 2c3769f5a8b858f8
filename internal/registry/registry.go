// Package registry holds the in-memory discovery state: endpoints found by
// scans and the service list enumerated on the active connection. Nothing is
// persisted; the registry lives for the process lifetime only.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/grpcscout/grpcscout/internal/domain"
)

// Registry is the process-wide discovery state. Each top-level slot is
// guarded by its own lock; callers get copies, never internal references.
type Registry struct {
	endpointsMu sync.RWMutex
	endpoints   map[string]domain.LocalhostEndpoint

	activeMu sync.RWMutex
	active   []domain.Service
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		endpoints: make(map[string]domain.LocalhostEndpoint),
	}
}

// ReplaceEndpoints installs a fresh scan snapshot wholesale. Entries absent
// from the new snapshot are dropped: a scan is a full snapshot, not an
// incremental merge.
func (r *Registry) ReplaceEndpoints(endpoints map[string]domain.LocalhostEndpoint) {
	replacement := make(map[string]domain.LocalhostEndpoint, len(endpoints))
	for key, ep := range endpoints {
		replacement[key] = ep
	}

	r.endpointsMu.Lock()
	r.endpoints = replacement
	r.endpointsMu.Unlock()
}

// Endpoints returns a copy of all registry records, sorted by endpoint key
// so repeated reads are stable.
func (r *Registry) Endpoints() []domain.LocalhostEndpoint {
	r.endpointsMu.RLock()
	records := make([]domain.LocalhostEndpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		records = append(records, ep)
	}
	r.endpointsMu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].Key() < records[j].Key()
	})
	return records
}

// UpdateHealth mutates the matching record's metadata in place and reports
// whether a record was found. Unknown endpoints are a silent no-op: health
// checks never create registry entries. LastHealthCheck never goes
// backwards.
func (r *Registry) UpdateHealth(key string, status domain.HealthStatus, responseTimeMS int64) bool {
	r.endpointsMu.Lock()
	defer r.endpointsMu.Unlock()

	record, ok := r.endpoints[key]
	if !ok {
		return false
	}

	if now := time.Now().Unix(); now > record.Metadata.LastHealthCheck {
		record.Metadata.LastHealthCheck = now
	}
	record.Metadata.HealthStatus = status
	record.Metadata.ResponseTimeMS = &responseTimeMS
	r.endpoints[key] = record
	return true
}

// ReplaceActiveServices replaces the active connection's service list
// wholesale.
func (r *Registry) ReplaceActiveServices(services []domain.Service) {
	replacement := make([]domain.Service, len(services))
	copy(replacement, services)

	r.activeMu.Lock()
	r.active = replacement
	r.activeMu.Unlock()
}

// ActiveServices returns a copy of the active connection's service list.
func (r *Registry) ActiveServices() []domain.Service {
	r.activeMu.RLock()
	defer r.activeMu.RUnlock()

	services := make([]domain.Service, len(r.active))
	copy(services, r.active)
	return services
}

// ClearActiveServices empties the active connection's service list.
func (r *Registry) ClearActiveServices() {
	r.activeMu.Lock()
	r.active = nil
	r.activeMu.Unlock()
}
