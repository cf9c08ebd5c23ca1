package fixture

import (
	"context"
	"fmt"

	"github.com/jbweber/testbed/api/v1alpha1"
)

// LookupDomain returns a handle to existing domain short, or ErrNotFound.
// The handle must be reaped or released like a built one.
func (h *Harness) LookupDomain(ctx context.Context, short string) (*Domain, error) {
	return lookup(ctx, h, h.domains, short)
}

// LookupStoragePool returns a handle to existing pool short, or ErrNotFound.
func (h *Harness) LookupStoragePool(ctx context.Context, short string) (*StoragePool, error) {
	return lookup(ctx, h, h.pools, short)
}

// LookupNetwork returns a handle to existing network short, or ErrNotFound.
func (h *Harness) LookupNetwork(ctx context.Context, short string) (*Network, error) {
	return lookup(ctx, h, h.networks, short)
}

// LookupInterface returns a handle to existing interface short, or
// ErrNotFound.
func (h *Harness) LookupInterface(ctx context.Context, short string) (*Interface, error) {
	return lookup(ctx, h, h.ifaces, short)
}

// LookupStorageVol returns a handle to volume short in pool, or ErrNotFound.
func (h *Harness) LookupStorageVol(ctx context.Context, pool *StoragePool, short string) (*StorageVol, error) {
	if pool == nil || pool.Released() {
		return nil, fmt.Errorf("lookup %s %s: storage pool handle is required", v1alpha1.KindStorageVol, short)
	}
	handle, err := lookup(ctx, h, storageVolBinding(h.client, pool.Object()), short)
	if err != nil {
		return nil, err
	}
	handle.pool = pool.Name()
	return handle, nil
}

// Exists reports whether a resource of kind named short exists. Volumes
// are searched in every active pool.
func (h *Harness) Exists(ctx context.Context, kind v1alpha1.ResourceKind, short string) (bool, error) {
	if err := h.usable(); err != nil {
		return false, err
	}
	name := h.ns.Name(short)

	var (
		found bool
		err   error
	)
	switch kind {
	case v1alpha1.KindDomain:
		_, found, err = h.domains.find(name)
	case v1alpha1.KindStoragePool:
		_, found, err = h.pools.find(name)
	case v1alpha1.KindNetwork:
		_, found, err = h.networks.find(name)
	case v1alpha1.KindInterface:
		_, found, err = h.ifaces.find(name)
	case v1alpha1.KindStorageVol:
		pools, listErr := h.volumePools()
		if listErr != nil {
			return false, listErr
		}
		for _, p := range pools {
			_, found, err = storageVolBinding(h.client, p).find(name)
			if err != nil || found {
				break
			}
		}
	default:
		return false, fmt.Errorf("kind %q: %w", kind, ErrUnsupported)
	}
	return found, err
}

func lookup[T any](ctx context.Context, h *Harness, b *binding[T], short string) (*Handle[T], error) {
	if err := h.usable(); err != nil {
		return nil, err
	}
	name := h.ns.Name(short)
	log := h.logger(ctx).WithValues("kind", b.kind, "name", name)

	obj, found, err := b.find(name)
	if err != nil {
		return nil, err
	}
	if !found {
		log.V(1).Info("resource not found")
		return nil, fmt.Errorf("%s %s: %w", b.kind, name, ErrNotFound)
	}

	handle := b.adopt(obj)
	handle.onRelease = h.track(handle.kind, handle.name)
	log.V(1).Info("adopted existing resource", "phase", handle.phase)
	return handle, nil
}
