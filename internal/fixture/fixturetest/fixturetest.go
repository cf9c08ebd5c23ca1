// Package fixturetest wraps the fixture harness for use inside tests.
// Every helper fails the test on error and registers the matching reap or
// close with t.Cleanup.
package fixturetest

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/testbed/api/v1alpha1"
	"github.com/jbweber/testbed/internal/config"
	"github.com/jbweber/testbed/internal/fixture"
	testbedlibvirt "github.com/jbweber/testbed/internal/libvirt"
)

// Open returns a harness for cfg logging to t. The harness is closed when
// the test ends and any leaked handle fails the test. When no endpoint is
// reachable the test is skipped.
func Open(t testing.TB, cfg config.Config, opts ...fixture.Option) *fixture.Harness {
	t.Helper()

	opts = append([]fixture.Option{fixture.WithLogger(testr.NewWithInterface(t, testr.Options{}))}, opts...)
	h, err := fixture.Open(context.Background(), cfg, opts...)
	var connErr *testbedlibvirt.ConnectionError
	if errors.As(err, &connErr) {
		t.Skipf("libvirt not available: %v", err)
	}
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := h.Close(); err != nil && !errors.Is(err, fixture.ErrSessionClosed) {
			t.Errorf("closing harness: %v", err)
		}
	})
	return h
}

// OpenTestDriver opens a harness on test:///default, skipping in -short
// mode.
func OpenTestDriver(t testing.TB, opts ...fixture.Option) *fixture.Harness {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping libvirt test in short mode")
	}
	cfg := config.Default()
	cfg.URI = testbedlibvirt.TestURI
	return Open(t, cfg, opts...)
}

// Reap registers a reap of r at test cleanup. Reaping an already released
// handle at cleanup is not an error.
func Reap(t testing.TB, h *fixture.Harness, r fixture.Resource) {
	t.Helper()
	t.Cleanup(func() {
		if r.Released() {
			return
		}
		if err := h.Reap(context.Background(), r); err != nil {
			t.Errorf("reaping %s %s: %v", r.Kind(), r.Name(), err)
		}
	})
}

// Domain builds a domain reaped at test cleanup.
func Domain(t testing.TB, h *fixture.Harness, short string, mode v1alpha1.PersistenceMode, spec *v1alpha1.DomainSpec) *fixture.Domain {
	t.Helper()
	dom, err := h.BuildDomain(context.Background(), short, mode, spec)
	require.NoError(t, err)
	Reap(t, h, dom)
	return dom
}

// StoragePool builds a storage pool reaped at test cleanup.
func StoragePool(t testing.TB, h *fixture.Harness, short string, mode v1alpha1.PersistenceMode, spec *v1alpha1.StoragePoolSpec) *fixture.StoragePool {
	t.Helper()
	pool, err := h.BuildStoragePool(context.Background(), short, mode, spec)
	require.NoError(t, err)
	Reap(t, h, pool)
	return pool
}

// StorageVol builds or reuses a volume reaped at test cleanup. Cleanups run
// last-in first-out, so the volume is reaped before its pool.
func StorageVol(t testing.TB, h *fixture.Harness, pool *fixture.StoragePool, short string, spec *v1alpha1.StorageVolSpec) *fixture.StorageVol {
	t.Helper()
	vol, err := h.BuildStorageVol(context.Background(), pool, short, spec)
	require.NoError(t, err)
	Reap(t, h, vol)
	return vol
}

// Network builds a network reaped at test cleanup.
func Network(t testing.TB, h *fixture.Harness, short string, mode v1alpha1.PersistenceMode, spec *v1alpha1.NetworkSpec) *fixture.Network {
	t.Helper()
	network, err := h.BuildNetwork(context.Background(), short, mode, spec)
	require.NoError(t, err)
	Reap(t, h, network)
	return network
}

// Interface defines a host interface reaped at test cleanup.
func Interface(t testing.TB, h *fixture.Harness, short string, spec *v1alpha1.InterfaceSpec) *fixture.Interface {
	t.Helper()
	iface, err := h.BuildInterface(context.Background(), short, spec)
	require.NoError(t, err)
	Reap(t, h, iface)
	return iface
}

// Apply builds every resource of fs. The handles are reaped at test cleanup
// in reverse declaration order.
func Apply(t testing.TB, h *fixture.Harness, fs *v1alpha1.FixtureSet) []fixture.Resource {
	t.Helper()
	handles, err := h.Apply(context.Background(), fs)
	require.NoError(t, err)
	for _, r := range handles {
		Reap(t, h, r)
	}
	return handles
}
