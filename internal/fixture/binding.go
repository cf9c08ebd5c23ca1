package fixture

import (
	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/testbed/api/v1alpha1"
	testbedlibvirt "github.com/jbweber/testbed/internal/libvirt"
)

// binding adapts one libvirt object kind to the generic builder and reaper.
// A nil operation means the kind does not support it.
type binding[T any] struct {
	kind     v1alpha1.ResourceKind
	notFound libvirt.ErrorNumber

	lookup func(name string) (T, error)
	// define registers a persistent definition.
	define func(xml string) (T, error)
	// create starts a transient object (or creates a volume).
	create func(xml string) (T, error)
	// start activates a defined object.
	start    func(obj T) error
	destroy  func(obj T) error
	undefine func(obj T) error
	// remove deletes a volume.
	remove func(obj T) error

	active     func(obj T) (bool, error)
	persistent func(obj T) (bool, error)
	list       func() ([]T, error)
	name       func(obj T) string
}

// find looks name up. Absence is reported as found == false, never as an
// error.
func (b *binding[T]) find(name string) (obj T, found bool, err error) {
	obj, err = b.lookup(name)
	if err == nil {
		return obj, true, nil
	}
	var zero T
	if testbedlibvirt.HasCode(err, b.notFound) {
		return zero, false, nil
	}
	return zero, false, newLookupError(b.kind, name, err)
}

// adopt wraps an object that already exists on the endpoint, reading its
// persistence and state. Probe failures fall back to persistent and active
// so the reaper attempts every step.
func (b *binding[T]) adopt(obj T) *Handle[T] {
	mode := v1alpha1.ModePersistent
	if b.persistent != nil {
		if p, err := b.persistent(obj); err == nil && !p {
			mode = v1alpha1.ModeTransient
		}
	}
	phase := v1alpha1.PhaseActive
	if b.active != nil {
		if a, err := b.active(obj); err == nil && !a {
			phase = v1alpha1.PhaseDefined
		}
	}
	return &Handle[T]{
		kind:  b.kind,
		name:  b.name(obj),
		mode:  mode,
		phase: phase,
		obj:   obj,
		b:     b,
	}
}

func flag(v int32, err error) (bool, error) {
	return v == 1, err
}

func domainBinding(c libvirtClient) *binding[libvirt.Domain] {
	return &binding[libvirt.Domain]{
		kind:     v1alpha1.KindDomain,
		notFound: libvirt.ErrNoDomain,
		lookup:   c.DomainLookupByName,
		define:   c.DomainDefineXML,
		create: func(xml string) (libvirt.Domain, error) {
			return c.DomainCreateXML(xml, 0)
		},
		start:    c.DomainCreate,
		destroy:  c.DomainDestroy,
		undefine: c.DomainUndefine,
		active: func(d libvirt.Domain) (bool, error) {
			return flag(c.DomainIsActive(d))
		},
		persistent: func(d libvirt.Domain) (bool, error) {
			return flag(c.DomainIsPersistent(d))
		},
		list: func() ([]libvirt.Domain, error) {
			domains, _, err := c.ConnectListAllDomains(1, 0)
			return domains, err
		},
		name: func(d libvirt.Domain) string { return d.Name },
	}
}

func storagePoolBinding(c libvirtClient) *binding[libvirt.StoragePool] {
	return &binding[libvirt.StoragePool]{
		kind:     v1alpha1.KindStoragePool,
		notFound: libvirt.ErrNoStoragePool,
		lookup:   c.StoragePoolLookupByName,
		define: func(xml string) (libvirt.StoragePool, error) {
			return c.StoragePoolDefineXML(xml, 0)
		},
		create: func(xml string) (libvirt.StoragePool, error) {
			return c.StoragePoolCreateXML(xml, 0)
		},
		start: func(p libvirt.StoragePool) error {
			return c.StoragePoolCreate(p, 0)
		},
		destroy:  c.StoragePoolDestroy,
		undefine: c.StoragePoolUndefine,
		active: func(p libvirt.StoragePool) (bool, error) {
			return flag(c.StoragePoolIsActive(p))
		},
		persistent: func(p libvirt.StoragePool) (bool, error) {
			return flag(c.StoragePoolIsPersistent(p))
		},
		list: func() ([]libvirt.StoragePool, error) {
			pools, _, err := c.ConnectListAllStoragePools(1, 0)
			return pools, err
		},
		name: func(p libvirt.StoragePool) string { return p.Name },
	}
}

// storageVolBinding is scoped to one pool. Volumes have no define, start,
// destroy or undefine; they are created and deleted.
func storageVolBinding(c libvirtClient, pool libvirt.StoragePool) *binding[libvirt.StorageVol] {
	return &binding[libvirt.StorageVol]{
		kind:     v1alpha1.KindStorageVol,
		notFound: libvirt.ErrNoStorageVol,
		lookup: func(name string) (libvirt.StorageVol, error) {
			return c.StorageVolLookupByName(pool, name)
		},
		create: func(xml string) (libvirt.StorageVol, error) {
			return c.StorageVolCreateXML(pool, xml, 0)
		},
		remove: func(v libvirt.StorageVol) error {
			return c.StorageVolDelete(v, 0)
		},
		list: func() ([]libvirt.StorageVol, error) {
			vols, _, err := c.StoragePoolListAllVolumes(pool, 1, 0)
			return vols, err
		},
		name: func(v libvirt.StorageVol) string { return v.Name },
	}
}

func networkBinding(c libvirtClient) *binding[libvirt.Network] {
	return &binding[libvirt.Network]{
		kind:     v1alpha1.KindNetwork,
		notFound: libvirt.ErrNoNetwork,
		lookup:   c.NetworkLookupByName,
		define:   c.NetworkDefineXML,
		create:   c.NetworkCreateXML,
		start:    c.NetworkCreate,
		destroy:  c.NetworkDestroy,
		undefine: c.NetworkUndefine,
		active: func(n libvirt.Network) (bool, error) {
			return flag(c.NetworkIsActive(n))
		},
		persistent: func(n libvirt.Network) (bool, error) {
			return flag(c.NetworkIsPersistent(n))
		},
		list: func() ([]libvirt.Network, error) {
			networks, _, err := c.ConnectListAllNetworks(1, 0)
			return networks, err
		},
		name: func(n libvirt.Network) string { return n.Name },
	}
}

// interfaceBinding has no create: host interfaces are always defined.
func interfaceBinding(c libvirtClient) *binding[libvirt.Interface] {
	return &binding[libvirt.Interface]{
		kind:     v1alpha1.KindInterface,
		notFound: libvirt.ErrNoInterface,
		lookup:   c.InterfaceLookupByName,
		define: func(xml string) (libvirt.Interface, error) {
			return c.InterfaceDefineXML(xml, 0)
		},
		start: func(i libvirt.Interface) error {
			return c.InterfaceCreate(i, 0)
		},
		destroy: func(i libvirt.Interface) error {
			return c.InterfaceDestroy(i, 0)
		},
		undefine: c.InterfaceUndefine,
		active: func(i libvirt.Interface) (bool, error) {
			return flag(c.InterfaceIsActive(i))
		},
		list: func() ([]libvirt.Interface, error) {
			ifaces, _, err := c.ConnectListAllInterfaces(1, 0)
			return ifaces, err
		},
		name: func(i libvirt.Interface) string { return i.Name },
	}
}
