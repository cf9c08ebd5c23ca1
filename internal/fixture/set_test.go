package fixture

import (
	"context"
	"errors"
	"testing"

	"github.com/digitalocean/go-libvirt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/testbed/api/v1alpha1"
	"github.com/jbweber/testbed/internal/status"
)

func smokeSet() *v1alpha1.FixtureSet {
	fs := v1alpha1.NewFixtureSet("smoke")
	fs.Spec.Resources = []v1alpha1.ResourceSpec{
		{Kind: v1alpha1.KindStoragePool, Name: "images", Mode: v1alpha1.ModeTransient},
		{Kind: v1alpha1.KindStorageVol, Name: "disk0", StorageVol: &v1alpha1.StorageVolSpec{Pool: "images", SizeKiB: 1024}},
		{Kind: v1alpha1.KindNetwork, Name: "net0", Activate: true},
		{Kind: v1alpha1.KindDomain, Name: "vm0"},
	}
	return fs
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	h, client := newTestHarness(t)
	fs := smokeSet()

	handles, err := h.Apply(ctx, fs)
	require.NoError(t, err)
	require.Len(t, handles, 4)
	assert.Len(t, h.Outstanding(), 4)

	want := map[string]v1alpha1.Phase{
		"StoragePool/testbed-images": v1alpha1.PhaseActive,
		"StorageVol/testbed-disk0":   v1alpha1.PhaseActive,
		"Network/testbed-net0":       v1alpha1.PhaseActive,
		"Domain/testbed-vm0":         v1alpha1.PhaseDefined,
	}
	for key, phase := range want {
		found := false
		for _, st := range fs.Status.Resources {
			if string(st.Kind)+"/"+st.Name == key {
				found = true
				assert.Equal(t, phase, st.Phase, key)
			}
		}
		assert.True(t, found, "missing status for %s", key)
	}
	assert.True(t, status.Ready(fs))
	assert.Equal(t, "testbed-images", status.GetResource(fs, v1alpha1.KindStorageVol, "testbed-disk0").Pool)

	assert.NotNil(t, client.volume("testbed-images", "testbed-disk0"))
	assert.True(t, client.object(client.networks, "testbed-net0").active)

	for _, r := range handles {
		require.NoError(t, r.Release())
	}
	assert.Empty(t, h.Outstanding())
}

func TestApply_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	h, client := newTestHarness(t)
	fs := smokeSet()

	boom := libvirt.Error{Code: uint32(libvirt.ErrOperationFailed), Message: "define refused"}
	client.failWith("DomainDefineXML", boom)

	handles, err := h.Apply(ctx, fs)
	require.Error(t, err)
	assert.Nil(t, handles)

	var buildErr *BuildError
	require.True(t, errors.As(err, &buildErr))
	assert.Equal(t, "testbed-vm0", buildErr.Name)

	// Built resources were reaped, newest first
	assert.Equal(t, []string{"testbed-disk0"}, client.callsTo("StorageVolDelete"))
	assert.Nil(t, client.object(client.networks, "testbed-net0"))
	assert.Nil(t, client.object(client.pools, "testbed-images"))
	assert.Empty(t, h.Outstanding())

	failed := status.GetResource(fs, v1alpha1.KindDomain, "testbed-vm0")
	require.NotNil(t, failed)
	assert.Equal(t, v1alpha1.PhaseFailed, failed.Phase)
	assert.Contains(t, failed.Message, "define refused")
	assert.Equal(t, v1alpha1.PhaseFreed, status.GetResource(fs, v1alpha1.KindNetwork, "testbed-net0").Phase)
	assert.False(t, status.Ready(fs))
}

func TestApply_ActivateFailure(t *testing.T) {
	ctx := context.Background()
	h, client := newTestHarness(t)
	fs := v1alpha1.NewFixtureSet("net")
	fs.Spec.Resources = []v1alpha1.ResourceSpec{
		{Kind: v1alpha1.KindNetwork, Name: "net0", Activate: true},
	}

	client.failWith("NetworkCreate", libvirt.Error{Code: uint32(libvirt.ErrOperationFailed), Message: "no bridge"})

	_, err := h.Apply(ctx, fs)
	require.Error(t, err)
	assert.Nil(t, client.object(client.networks, "testbed-net0"))
	assert.Empty(t, h.Outstanding())

	st := status.GetResource(fs, v1alpha1.KindNetwork, "testbed-net0")
	require.NotNil(t, st)
	assert.Equal(t, v1alpha1.PhaseFailed, st.Phase)
	assert.Contains(t, st.Message, "no bridge")
	assert.Len(t, fs.Status.Resources, 1)
}

func TestApply_RollbackKeepsReusedVolume(t *testing.T) {
	ctx := context.Background()
	h, client := newTestHarness(t)
	fs := smokeSet()

	client.seedVolume("testbed-images", "testbed-disk0", "golden")
	client.failWith("DomainDefineXML", libvirt.Error{Code: uint32(libvirt.ErrOperationFailed), Message: "define refused"})

	_, err := h.Apply(ctx, fs)
	require.Error(t, err)

	assert.Empty(t, client.callsTo("StorageVolCreateXML"))
	assert.Empty(t, client.callsTo("StorageVolDelete"))
	require.NotNil(t, client.volume("testbed-images", "testbed-disk0"))
	assert.Equal(t, "golden", client.volume("testbed-images", "testbed-disk0").xml)
	assert.Empty(t, h.Outstanding())

	// The pool the set created is still torn down
	assert.Nil(t, client.object(client.pools, "testbed-images"))
	assert.Equal(t, v1alpha1.PhaseFreed, status.GetResource(fs, v1alpha1.KindStorageVol, "testbed-disk0").Phase)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	h, client := newTestHarness(t)
	fs := smokeSet()

	handles, err := h.Apply(ctx, fs)
	require.NoError(t, err)
	for _, r := range handles {
		require.NoError(t, r.Release())
	}
	client.resetCalls()

	require.NoError(t, h.Delete(ctx, fs))

	// Reverse declaration order
	var order []string
	for _, c := range client.callLog() {
		switch c {
		case "DomainUndefine testbed-vm0", "NetworkUndefine testbed-net0",
			"StorageVolDelete testbed-disk0", "StoragePoolDestroy testbed-images":
			order = append(order, c)
		}
	}
	assert.Equal(t, []string{
		"DomainUndefine testbed-vm0",
		"NetworkUndefine testbed-net0",
		"StorageVolDelete testbed-disk0",
		"StoragePoolDestroy testbed-images",
	}, order)

	assert.Nil(t, client.object(client.domains, "testbed-vm0"))
	assert.Nil(t, client.object(client.pools, "testbed-images"))
	assert.Empty(t, h.Outstanding())
	assert.Equal(t, v1alpha1.PhaseFreed, status.GetResource(fs, v1alpha1.KindDomain, "testbed-vm0").Phase)
}

func TestDelete_MissingResourcesSkipped(t *testing.T) {
	ctx := context.Background()
	h, client := newTestHarness(t)
	fs := smokeSet()

	client.seed(client.domains, "testbed-vm0", true, false)

	require.NoError(t, h.Delete(ctx, fs))
	assert.Nil(t, client.object(client.domains, "testbed-vm0"))

	for _, key := range []struct {
		kind v1alpha1.ResourceKind
		name string
	}{
		{v1alpha1.KindNetwork, "testbed-net0"},
		{v1alpha1.KindStorageVol, "testbed-disk0"},
		{v1alpha1.KindStoragePool, "testbed-images"},
	} {
		st := status.GetResource(fs, key.kind, key.name)
		require.NotNil(t, st, key.name)
		assert.Equal(t, v1alpha1.PhaseUndefined, st.Phase, key.name)
		assert.Equal(t, "not found", st.Message)
	}
	assert.Empty(t, h.Outstanding())
}

func TestDelete_LookupFaultReported(t *testing.T) {
	ctx := context.Background()
	h, client := newTestHarness(t)
	fs := smokeSet()

	client.seed(client.domains, "testbed-vm0", true, false)
	client.failWith("NetworkLookupByName", libvirt.Error{Code: uint32(libvirt.ErrOperationFailed), Message: "rpc failure"})

	err := h.Delete(ctx, fs)
	require.Error(t, err)

	var lookupErr *LookupError
	assert.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, v1alpha1.PhaseFailed, status.GetResource(fs, v1alpha1.KindNetwork, "testbed-net0").Phase)
	// The remaining resources were still attempted
	assert.Nil(t, client.object(client.domains, "testbed-vm0"))
}
