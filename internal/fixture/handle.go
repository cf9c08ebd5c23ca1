package fixture

import (
	"fmt"

	"github.com/digitalocean/go-libvirt"
	"github.com/go-logr/logr"

	"github.com/jbweber/testbed/api/v1alpha1"
	"github.com/jbweber/testbed/internal/status"
)

// Handle is a live reference to one libvirt object created or looked up
// by a Harness. It must be reaped or released exactly once.
type Handle[T any] struct {
	kind  v1alpha1.ResourceKind
	name  string
	pool  string
	mode  v1alpha1.PersistenceMode
	phase v1alpha1.Phase
	obj   T

	// reused marks an object that existed before the build returned it.
	reused bool

	b         *binding[T]
	onRelease func()
}

// Handle aliases for each resource kind.
type (
	Domain      = Handle[libvirt.Domain]
	StoragePool = Handle[libvirt.StoragePool]
	StorageVol  = Handle[libvirt.StorageVol]
	Network     = Handle[libvirt.Network]
	Interface   = Handle[libvirt.Interface]
)

// Resource is any handle, regardless of kind.
type Resource interface {
	Kind() v1alpha1.ResourceKind
	Name() string
	Mode() v1alpha1.PersistenceMode
	Phase() v1alpha1.Phase
	Released() bool
	Reused() bool
	Status() v1alpha1.ResourceStatus
	Release() error

	reap(log logr.Logger) error
	activate() error
}

var (
	_ Resource = (*Domain)(nil)
	_ Resource = (*StoragePool)(nil)
	_ Resource = (*StorageVol)(nil)
	_ Resource = (*Network)(nil)
	_ Resource = (*Interface)(nil)
)

// Object returns the go-libvirt value for direct API calls.
func (h *Handle[T]) Object() T {
	return h.obj
}

// Kind returns the resource kind.
func (h *Handle[T]) Kind() v1alpha1.ResourceKind {
	return h.kind
}

// Name returns the namespaced name.
func (h *Handle[T]) Name() string {
	return h.name
}

// Pool returns the pool name for volumes and "" otherwise.
func (h *Handle[T]) Pool() string {
	return h.pool
}

// Mode returns the persistence mode.
func (h *Handle[T]) Mode() v1alpha1.PersistenceMode {
	return h.mode
}

// Phase returns the current lifecycle phase.
func (h *Handle[T]) Phase() v1alpha1.Phase {
	return h.phase
}

// Reused reports whether a build returned an object that already existed
// instead of creating one. Only volumes are reused.
func (h *Handle[T]) Reused() bool {
	return h.reused
}

// Released reports whether the handle was released.
func (h *Handle[T]) Released() bool {
	return status.IsTerminal(h.phase)
}

// Status describes the handle as a resource status entry.
func (h *Handle[T]) Status() v1alpha1.ResourceStatus {
	return v1alpha1.ResourceStatus{
		Kind:  h.kind,
		Name:  h.name,
		Mode:  h.mode,
		Phase: h.phase,
		Pool:  h.pool,
	}
}

// Release drops the local handle without touching the endpoint. A second
// Release returns a *ReleaseError wrapping ErrReleased.
func (h *Handle[T]) Release() error {
	if h.Released() {
		return &ReleaseError{Kind: h.kind, Name: h.name, Err: ErrReleased}
	}
	h.phase = v1alpha1.PhaseFreed
	if h.onRelease != nil {
		h.onRelease()
		h.onRelease = nil
	}
	return nil
}

func (h *Handle[T]) lifecycle() status.Lifecycle {
	return status.For(h.kind, h.mode)
}

// advance moves through the given phases in order, stopping at the first
// transition the lifecycle does not allow.
func (h *Handle[T]) advance(phases ...v1alpha1.Phase) {
	lc := h.lifecycle()
	for _, p := range phases {
		if err := lc.Transition(&h.phase, p); err != nil {
			return
		}
	}
}

func (h *Handle[T]) activate() error {
	if h.Released() {
		return &ReleaseError{Kind: h.kind, Name: h.name, Err: ErrReleased}
	}
	if h.b.start == nil || h.mode == v1alpha1.ModeTransient {
		return fmt.Errorf("activate %s %s: %w", h.kind, h.name, ErrUnsupported)
	}

	lc := h.lifecycle()
	if err := lc.Transition(&h.phase, v1alpha1.PhaseActivating); err != nil {
		return fmt.Errorf("activate %s %s: %w", h.kind, h.name, err)
	}
	if err := h.b.start(h.obj); err != nil {
		h.phase = v1alpha1.PhaseFailed
		return newBuildError(h.kind, h.name, "activate", err)
	}
	h.phase = v1alpha1.PhaseActive
	return nil
}
