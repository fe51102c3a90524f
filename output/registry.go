// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package output

import (
	"errors"
	"sort"
	"sync"

	"github.com/gogpu/compositor/render"
	"github.com/gogpu/gputypes"
)

// Options are passed to a SinkFactory.
type Options struct {
	// Device is the host GPU device, or nil for software output.
	Device render.DeviceHandle

	// PartialSwap requests damage-only presentation where supported.
	PartialSwap bool
}

// SinkFactory creates a Sink.
type SinkFactory func(opts Options) (Sink, error)

// RegistryEntry is a registered sink backend.
type RegistryEntry struct {
	// Name is the unique identifier for this backend.
	Name string

	// Priority determines selection order (higher = preferred).
	Priority int

	// Factory creates sink instances.
	Factory SinkFactory

	// Available reports if the backend can be used on this system.
	Available func() bool
}

var globalRegistry = &Registry{}

// Registry maps backend names to sink factories.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*RegistryEntry
}

// NewRegistry creates an empty registry.
// Most code should use the global registry via Register and NewSink.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*RegistryEntry)}
}

// Register adds a backend to the global registry. If available is nil the
// backend is always available. An existing name is replaced.
func Register(name string, priority int, factory SinkFactory, available func() bool) {
	globalRegistry.Register(name, priority, factory, available)
}

// Unregister removes a backend from the global registry.
func Unregister(name string) { globalRegistry.Unregister(name) }

// List returns all registered backend names, highest priority first.
func List() []string { return globalRegistry.List() }

// NewSink creates a sink using the best available backend.
func NewSink(opts Options) (Sink, error) { return globalRegistry.NewSink(opts) }

// NewSinkByName creates a sink using the named backend.
func NewSinkByName(name string, opts Options) (Sink, error) {
	return globalRegistry.NewSinkByName(name, opts)
}

// Register adds a backend to r.
func (r *Registry) Register(name string, priority int, factory SinkFactory, available func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]*RegistryEntry)
	}
	if available == nil {
		available = func() bool { return true }
	}
	r.entries[name] = &RegistryEntry{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// Unregister removes a backend from r.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// List returns all backend names, highest priority first.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames(false)
}

// Get returns a copy of the named entry.
func (r *Registry) Get(name string) (*RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	cp := *e
	return &cp, true
}

// NewSink tries the available backends in priority order and returns the
// first sink created.
func (r *Registry) NewSink(opts Options) (Sink, error) {
	r.mu.RLock()
	names := r.sortedNames(true)
	r.mu.RUnlock()

	var lastErr error
	for _, name := range names {
		s, err := r.NewSinkByName(name, opts)
		if err == nil {
			return s, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNoBackendAvailable
}

// NewSinkByName creates a sink using the named backend.
func (r *Registry) NewSinkByName(name string, opts Options) (Sink, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &BackendNotFoundError{Name: name}
	}
	if !e.Available() {
		return nil, &BackendUnavailableError{Name: name}
	}
	return e.Factory(opts)
}

// sortedNames must be called with the lock held.
func (r *Registry) sortedNames(onlyAvailable bool) []string {
	type entry struct {
		name     string
		priority int
	}
	entries := make([]entry, 0, len(r.entries))
	for name, e := range r.entries {
		if onlyAvailable && !e.Available() {
			continue
		}
		entries = append(entries, entry{name: name, priority: e.Priority})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority > entries[j].priority
		}
		return entries[i].name < entries[j].name
	})
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// ErrNoBackendAvailable is returned when no sink backend is registered or
// available.
var ErrNoBackendAvailable = errors.New("output: no backend available")

// BackendNotFoundError indicates a named backend is not registered.
type BackendNotFoundError struct {
	Name string
}

func (e *BackendNotFoundError) Error() string {
	return "output: backend not found: " + e.Name
}

// BackendUnavailableError indicates a backend exists but is not available.
type BackendUnavailableError struct {
	Name string
}

func (e *BackendUnavailableError) Error() string {
	return "output: backend unavailable: " + e.Name
}

func init() {
	Register("recording", 10, func(opts Options) (Sink, error) {
		return NewRecordingSink(WithCapabilities(Capabilities{
			ResourcelessSoftwareDraw: !render.HasDevice(opts.Device),
			PartialSwap:              opts.PartialSwap,
			Format:                   formatOf(opts.Device),
		}), WithHistory(64)), nil
	}, nil)
}

func formatOf(dev render.DeviceHandle) gputypes.TextureFormat {
	if dev == nil {
		return gputypes.TextureFormatRGBA8Unorm
	}
	if f := dev.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		return f
	}
	return gputypes.TextureFormatRGBA8Unorm
}
