// Package locsrv is the local-service directory: the in-process
// equivalent of a location service that maps registered console names
// to opaque service ids. Sessions register themselves here so local
// clients can find them without holding a session pointer.
package locsrv

import (
	"fmt"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// ServiceID is the opaque identifier handed out on registration.
type ServiceID string

// NilService is the sentinel for a not-yet-registered service.
const NilService ServiceID = ""

// Registry maps service names to ids and back.
type Registry struct {
	byName cmap.ConcurrentMap[string, ServiceID]
	byID   cmap.ConcurrentMap[string, string]
}

// NewRegistry creates an empty directory.
func NewRegistry() *Registry {
	return &Registry{
		byName: cmap.New[ServiceID](),
		byID:   cmap.New[string](),
	}
}

// Register allocates a fresh service id for name. Names are unique;
// registering a taken name fails.
func (r *Registry) Register(name string) (ServiceID, error) {
	id := ServiceID(uuid.NewString())
	if !r.byName.SetIfAbsent(name, id) {
		return NilService, fmt.Errorf("locsrv: name %q already registered", name)
	}
	r.byID.Set(string(id), name)
	return id, nil
}

// Unregister removes a service by id. Unknown ids are ignored.
func (r *Registry) Unregister(id ServiceID) {
	if name, ok := r.byID.Get(string(id)); ok {
		r.byName.Remove(name)
		r.byID.Remove(string(id))
	}
}

// Resolve returns the service id registered under name.
func (r *Registry) Resolve(name string) (ServiceID, bool) {
	return r.byName.Get(name)
}

// Name returns the name a service id was registered under.
func (r *Registry) Name(id ServiceID) (string, bool) {
	return r.byID.Get(string(id))
}

// Count returns the number of registered services.
func (r *Registry) Count() int {
	return r.byName.Count()
}
