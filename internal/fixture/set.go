package fixture

import (
	"context"
	"errors"
	"fmt"

	"github.com/jbweber/testbed/api/v1alpha1"
	"github.com/jbweber/testbed/internal/status"
)

// Apply builds every resource of fs in declaration order, activating those
// that ask for it, and records each status on fs. On the first failure the
// resources already built are reaped in reverse order, except reused
// volumes, which are only released, and the failure is returned. On success the handles are returned to the caller, who must
// reap or release each of them.
func (h *Harness) Apply(ctx context.Context, fs *v1alpha1.FixtureSet) ([]Resource, error) {
	log := h.logger(ctx).WithValues("fixtureSet", fs.Name)
	pools := make(map[string]*StoragePool)
	var built []Resource

	rollback := func(r *v1alpha1.ResourceSpec, cause error) error {
		log.Info("apply failed, reaping built resources", "kind", r.Kind, "name", r.Name, "error", cause.Error(), "count", len(built))

		errs := []error{cause}
		for i := len(built) - 1; i >= 0; i-- {
			res := built[i]
			// Reused objects predate the set; drop the handle only.
			if res.Reused() {
				if err := res.Release(); err != nil {
					errs = append(errs, err)
				}
			} else if err := h.Reap(ctx, res); err != nil {
				errs = append(errs, err)
			}
			fs.SetResourceStatus(res.Status())
		}
		// Recorded last so a failed activation is not overwritten by the
		// reaped handle's status.
		status.MarkFailed(fs, r.Kind, h.Name(r.Name), cause)
		return errors.Join(errs...)
	}

	for i := range fs.Spec.Resources {
		r := &fs.Spec.Resources[i]

		res, err := h.buildResource(ctx, r, pools)
		if err != nil {
			return nil, rollback(r, err)
		}
		built = append(built, res)

		if r.Activate {
			if err := h.Activate(ctx, res); err != nil {
				return nil, rollback(r, err)
			}
		}
		if pool, ok := res.(*StoragePool); ok {
			pools[r.Name] = pool
		}

		fs.SetResourceStatus(res.Status())
		log.V(1).Info("applied resource", "kind", r.Kind, "name", res.Name(), "phase", res.Phase())
	}

	return built, nil
}

func (h *Harness) buildResource(ctx context.Context, r *v1alpha1.ResourceSpec, pools map[string]*StoragePool) (Resource, error) {
	switch r.Kind {
	case v1alpha1.KindDomain:
		return asResource(h.BuildDomain(ctx, r.Name, r.Mode, r.Domain))
	case v1alpha1.KindStoragePool:
		return asResource(h.BuildStoragePool(ctx, r.Name, r.Mode, r.StoragePool))
	case v1alpha1.KindStorageVol:
		if r.StorageVol == nil {
			return nil, newBuildError(r.Kind, h.Name(r.Name), "render", fmt.Errorf("storageVol descriptor is required"))
		}
		pool, ok := pools[r.StorageVol.Pool]
		if !ok {
			return nil, newBuildError(r.Kind, h.Name(r.Name), "render", fmt.Errorf("storage pool %q is not part of this set", r.StorageVol.Pool))
		}
		return asResource(h.BuildStorageVol(ctx, pool, r.Name, r.StorageVol))
	case v1alpha1.KindNetwork:
		return asResource(h.BuildNetwork(ctx, r.Name, r.Mode, r.Network))
	case v1alpha1.KindInterface:
		return asResource(h.BuildInterface(ctx, r.Name, r.Interface))
	}
	return nil, fmt.Errorf("build %s %s: %w", r.Kind, r.Name, ErrUnsupported)
}

// asResource keeps a failed build from yielding a non-nil Resource holding
// a nil handle.
func asResource[T any](handle *Handle[T], err error) (Resource, error) {
	if err != nil {
		return nil, err
	}
	return handle, nil
}

// Delete reaps the resources of fs in reverse declaration order and records
// each outcome on fs. Resources that do not exist are recorded as Undefined
// and skipped. Every resource is attempted; failures are joined.
func (h *Harness) Delete(ctx context.Context, fs *v1alpha1.FixtureSet) error {
	log := h.logger(ctx).WithValues("fixtureSet", fs.Name)
	var errs []error

	for i := len(fs.Spec.Resources) - 1; i >= 0; i-- {
		r := &fs.Spec.Resources[i]
		name := h.Name(r.Name)

		res, err := h.lookupResource(ctx, r)
		switch {
		case errors.Is(err, ErrNotFound):
			status.SetPhase(fs, r.Kind, name, v1alpha1.PhaseUndefined, "not found")
			log.V(1).Info("resource already gone", "kind", r.Kind, "name", name)
			continue
		case err != nil:
			status.MarkFailed(fs, r.Kind, name, err)
			errs = append(errs, err)
			continue
		}

		if err := h.Reap(ctx, res); err != nil {
			status.MarkFailed(fs, r.Kind, name, err)
			errs = append(errs, err)
			continue
		}
		fs.SetResourceStatus(res.Status())
		log.V(1).Info("deleted resource", "kind", r.Kind, "name", name)
	}

	return errors.Join(errs...)
}

func (h *Harness) lookupResource(ctx context.Context, r *v1alpha1.ResourceSpec) (Resource, error) {
	switch r.Kind {
	case v1alpha1.KindDomain:
		return asResource(h.LookupDomain(ctx, r.Name))
	case v1alpha1.KindStoragePool:
		return asResource(h.LookupStoragePool(ctx, r.Name))
	case v1alpha1.KindStorageVol:
		if r.StorageVol == nil {
			return nil, fmt.Errorf("lookup %s %s: storageVol descriptor is required", r.Kind, r.Name)
		}
		// A missing pool means the volume is gone with it.
		pool, err := h.LookupStoragePool(ctx, r.StorageVol.Pool)
		if err != nil {
			return nil, err
		}
		defer func() { _ = pool.Release() }()
		return asResource(h.LookupStorageVol(ctx, pool, r.Name))
	case v1alpha1.KindNetwork:
		return asResource(h.LookupNetwork(ctx, r.Name))
	case v1alpha1.KindInterface:
		return asResource(h.LookupInterface(ctx, r.Name))
	}
	return nil, fmt.Errorf("lookup %s %s: %w", r.Kind, r.Name, ErrUnsupported)
}
