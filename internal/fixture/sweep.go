package fixture

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/jbweber/testbed/api/v1alpha1"
)

// Sweep reaps every resource on the endpoint whose name carries the
// harness prefix, in dependency order: domains, volumes, pools, networks,
// interfaces. It returns the final status of each reaped resource.
// Listing failures are returned after the remaining kinds are swept.
func (h *Harness) Sweep(ctx context.Context) ([]v1alpha1.ResourceStatus, error) {
	return h.walk(ctx, true)
}

// List reports every resource on the endpoint that carries the harness
// prefix, in the same order as Sweep.
func (h *Harness) List(ctx context.Context) ([]v1alpha1.ResourceStatus, error) {
	return h.walk(ctx, false)
}

func (h *Harness) walk(ctx context.Context, reap bool) ([]v1alpha1.ResourceStatus, error) {
	if err := h.usable(); err != nil {
		return nil, err
	}
	log := h.logger(ctx)

	var (
		out  []v1alpha1.ResourceStatus
		errs []error
	)
	collect := func(st []v1alpha1.ResourceStatus, err error) {
		out = append(out, st...)
		if err != nil {
			errs = append(errs, err)
		}
	}

	collect(walkKind(h, h.domains, "", log, reap))

	pools, err := h.volumePools()
	if err != nil {
		errs = append(errs, err)
	}
	for _, p := range pools {
		collect(walkKind(h, storageVolBinding(h.client, p), p.Name, log, reap))
	}

	collect(walkKind(h, h.pools, "", log, reap))
	collect(walkKind(h, h.networks, "", log, reap))
	collect(walkKind(h, h.ifaces, "", log, reap))

	if reap {
		log.Info("sweep complete", "prefix", h.ns.Prefix(), "reaped", len(out))
	}
	return out, errors.Join(errs...)
}

func walkKind[T any](h *Harness, b *binding[T], pool string, log logr.Logger, reap bool) ([]v1alpha1.ResourceStatus, error) {
	objs, err := b.list()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s resources: %w", b.kind, err)
	}

	var (
		out  []v1alpha1.ResourceStatus
		errs []error
	)
	for _, obj := range objs {
		if !h.ns.Contains(b.name(obj)) {
			continue
		}
		handle := b.adopt(obj)
		handle.pool = pool
		if reap {
			if err := handle.reap(log); err != nil {
				errs = append(errs, err)
			}
		}
		out = append(out, handle.Status())
	}
	return out, errors.Join(errs...)
}
