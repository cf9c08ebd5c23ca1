// Package fixture builds and tears down ephemeral libvirt resources for
// tests.
//
// A Harness owns one session to a libvirt endpoint. Every resource it
// builds is named with the harness prefix ("testbed-" by default), so test
// resources never collide with pre-existing ones and crashed runs can be
// cleaned up with Sweep.
//
// Building:
//
// Builders look the name up first. A stale domain, pool, network or
// interface with the same name is reaped before the new one is created, so
// building twice never fails with "already exists". Volumes are the
// exception: an existing volume is returned unchanged.
//
//	h, err := fixture.Open(ctx, config.Default())
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	dom, err := h.BuildDomain(ctx, "alpha", v1alpha1.ModePersistent, &v1alpha1.DomainSpec{MemoryKiB: 128})
//	if err != nil {
//	    return err
//	}
//	defer h.Reap(ctx, dom)
//
// Transient resources are created live and vanish when destroyed.
// Persistent resources are defined and can be started with Activate.
// Interfaces have no transient mode.
//
// Reaping:
//
// Reap runs destroy and undefine (delete for volumes), logging and
// ignoring failures of either step, then releases the handle. Only a
// failed release is returned. Close reports handles that were never
// released with a *LeakError. Reaping after Close only releases the handle.
//
// Fixture sets:
//
// Apply builds the resources of a v1alpha1.FixtureSet in declaration order
// and records their status on the set. If one fails, the ones already built
// are reaped, except reused volumes, which are only released. Delete reaps
// a set in reverse order, skipping resources that are already gone.
//
// Logging:
//
// The harness logs through logr. A logger carried by the context
// (logr.NewContext) takes precedence over the one set with WithLogger.
// Ignored teardown failures are logged at V(1).
package fixture
