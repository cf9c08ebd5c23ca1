package fixture

import (
	"context"
	"fmt"

	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/testbed/api/v1alpha1"
	testbedlibvirt "github.com/jbweber/testbed/internal/libvirt"
	"github.com/jbweber/testbed/internal/naming"
)

// BuildDomain creates domain short in mode, replacing any stale domain of
// the same name. An empty mode means persistent.
func (h *Harness) BuildDomain(ctx context.Context, short string, mode v1alpha1.PersistenceMode, spec *v1alpha1.DomainSpec) (*Domain, error) {
	return build(ctx, h, h.domains, short, mode, func(name string) (string, error) {
		return testbedlibvirt.GenerateDomainXML(name, spec)
	})
}

// BuildStoragePool creates storage pool short in mode, replacing any stale
// pool of the same name. A spec without a path uses the harness pool path.
func (h *Harness) BuildStoragePool(ctx context.Context, short string, mode v1alpha1.PersistenceMode, spec *v1alpha1.StoragePoolSpec) (*StoragePool, error) {
	s := v1alpha1.StoragePoolSpec{}
	if spec != nil {
		s = *spec
	}
	if s.Path == "" {
		s.Path = h.poolPath
	}
	return build(ctx, h, h.pools, short, mode, func(name string) (string, error) {
		return testbedlibvirt.GenerateStoragePoolXML(name, &s)
	})
}

// BuildNetwork creates network short in mode, replacing any stale network
// of the same name.
func (h *Harness) BuildNetwork(ctx context.Context, short string, mode v1alpha1.PersistenceMode, spec *v1alpha1.NetworkSpec) (*Network, error) {
	return build(ctx, h, h.networks, short, mode, func(name string) (string, error) {
		return testbedlibvirt.GenerateNetworkXML(name, spec)
	})
}

// BuildInterface defines host interface short, replacing any stale
// interface of the same name. Interfaces are always persistent.
func (h *Harness) BuildInterface(ctx context.Context, short string, spec *v1alpha1.InterfaceSpec) (*Interface, error) {
	return build(ctx, h, h.ifaces, short, v1alpha1.ModePersistent, func(name string) (string, error) {
		return testbedlibvirt.GenerateInterfaceXML(name, spec)
	})
}

// BuildStorageVol returns volume short in pool, creating it when absent.
// An existing volume is returned as-is with its content preserved.
func (h *Harness) BuildStorageVol(ctx context.Context, pool *StoragePool, short string, spec *v1alpha1.StorageVolSpec) (*StorageVol, error) {
	if err := h.usable(); err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, fmt.Errorf("storage pool handle is required")
	}
	if pool.Released() {
		return nil, &ReleaseError{Kind: pool.Kind(), Name: pool.Name(), Err: ErrReleased}
	}
	if err := naming.ValidateShort(short); err != nil {
		return nil, fmt.Errorf("invalid %s name: %w", v1alpha1.KindStorageVol, err)
	}

	b := storageVolBinding(h.client, pool.Object())
	name := h.ns.Name(short)
	log := h.logger(ctx).WithValues("kind", b.kind, "name", name, "pool", pool.Name())

	// Step 1: Reuse an existing volume
	existing, found, err := b.find(name)
	if err != nil {
		return nil, err
	}
	if found {
		log.V(1).Info("reusing existing volume")
		handle := b.adopt(existing)
		handle.pool = pool.Name()
		handle.reused = true
		handle.onRelease = h.track(handle.kind, handle.name)
		return handle, nil
	}

	// Step 2: Render descriptor
	xml, err := testbedlibvirt.GenerateStorageVolXML(name, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s descriptor for %s: %w", b.kind, name, err)
	}

	// Step 3: Create the volume
	handle := &StorageVol{
		kind:  b.kind,
		name:  name,
		pool:  pool.Name(),
		mode:  v1alpha1.ModePersistent,
		phase: v1alpha1.PhaseUndefined,
		b:     b,
	}
	handle.advance(v1alpha1.PhaseCreating)
	vol, err := b.create(xml)
	if err != nil {
		return nil, newBuildError(b.kind, name, "create", err)
	}
	handle.obj = vol
	handle.advance(v1alpha1.PhaseActive)
	handle.onRelease = h.track(handle.kind, handle.name)

	log.V(1).Info("created volume")
	return handle, nil
}

// build is the shared builder: look up, reap anything stale, render,
// then create (transient) or define (persistent).
func build[T any](ctx context.Context, h *Harness, b *binding[T], short string, mode v1alpha1.PersistenceMode, render func(name string) (string, error)) (*Handle[T], error) {
	if err := h.usable(); err != nil {
		return nil, err
	}
	if err := naming.ValidateShort(short); err != nil {
		return nil, fmt.Errorf("invalid %s name: %w", b.kind, err)
	}
	switch mode {
	case "":
		mode = v1alpha1.ModePersistent
	case v1alpha1.ModePersistent:
	case v1alpha1.ModeTransient:
		if b.create == nil {
			return nil, fmt.Errorf("transient %s: %w", b.kind, ErrUnsupported)
		}
	default:
		return nil, fmt.Errorf("mode %q for %s: %w", mode, b.kind, ErrUnsupported)
	}

	name := h.ns.Name(short)
	log := h.logger(ctx).WithValues("kind", b.kind, "name", name)

	// Step 1: Clear any stale resource with this name
	stale, found, err := b.find(name)
	if err != nil {
		return nil, err
	}
	if found {
		log.Info("reaping stale resource")
		if err := b.adopt(stale).reap(log); err != nil {
			return nil, err
		}
	}

	// Step 2: Render descriptor
	xml, err := render(name)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s descriptor for %s: %w", b.kind, name, err)
	}

	// Step 3: Create or define
	handle := &Handle[T]{
		kind:  b.kind,
		name:  name,
		mode:  mode,
		phase: v1alpha1.PhaseUndefined,
		b:     b,
	}

	var obj T
	if mode == v1alpha1.ModeTransient {
		handle.advance(v1alpha1.PhaseCreating)
		obj, err = b.create(xml)
		if err != nil {
			return nil, newBuildError(b.kind, name, "create", err)
		}
		handle.advance(v1alpha1.PhaseActive)
	} else {
		handle.advance(v1alpha1.PhaseDefining)
		obj, err = b.define(xml)
		if err != nil {
			return nil, newBuildError(b.kind, name, "define", err)
		}
		handle.advance(v1alpha1.PhaseDefined)
	}
	handle.obj = obj
	handle.onRelease = h.track(handle.kind, handle.name)

	log.V(1).Info("built resource", "mode", mode, "phase", handle.phase)
	return handle, nil
}

// volumePools returns every active pool; inactive pools cannot be searched
// for volumes.
func (h *Harness) volumePools() ([]libvirt.StoragePool, error) {
	pools, err := h.pools.list()
	if err != nil {
		return nil, fmt.Errorf("failed to list storage pools: %w", err)
	}
	var active []libvirt.StoragePool
	for _, p := range pools {
		if ok, err := h.pools.active(p); err == nil && ok {
			active = append(active, p)
		}
	}
	return active, nil
}
