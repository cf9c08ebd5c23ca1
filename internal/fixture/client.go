package fixture

import (
	"github.com/digitalocean/go-libvirt"
)

// libvirtClient defines the libvirt operations the harness needs.
//
// In production, this is satisfied by *libvirt.Libvirt directly.
// In tests, this is satisfied by an in-memory fake.
type libvirtClient interface {
	DomainLookupByName(name string) (libvirt.Domain, error)
	DomainDefineXML(xml string) (libvirt.Domain, error)
	DomainCreateXML(xml string, flags libvirt.DomainCreateFlags) (libvirt.Domain, error)
	DomainCreate(dom libvirt.Domain) error
	DomainDestroy(dom libvirt.Domain) error
	DomainUndefine(dom libvirt.Domain) error
	DomainIsActive(dom libvirt.Domain) (int32, error)
	DomainIsPersistent(dom libvirt.Domain) (int32, error)
	ConnectListAllDomains(needResults int32, flags libvirt.ConnectListAllDomainsFlags) ([]libvirt.Domain, uint32, error)

	StoragePoolLookupByName(name string) (libvirt.StoragePool, error)
	StoragePoolDefineXML(xml string, flags uint32) (libvirt.StoragePool, error)
	StoragePoolCreateXML(xml string, flags libvirt.StoragePoolCreateFlags) (libvirt.StoragePool, error)
	StoragePoolCreate(pool libvirt.StoragePool, flags libvirt.StoragePoolCreateFlags) error
	StoragePoolDestroy(pool libvirt.StoragePool) error
	StoragePoolUndefine(pool libvirt.StoragePool) error
	StoragePoolIsActive(pool libvirt.StoragePool) (int32, error)
	StoragePoolIsPersistent(pool libvirt.StoragePool) (int32, error)
	StoragePoolListAllVolumes(pool libvirt.StoragePool, needResults int32, flags uint32) ([]libvirt.StorageVol, uint32, error)
	ConnectListAllStoragePools(needResults int32, flags libvirt.ConnectListAllStoragePoolsFlags) ([]libvirt.StoragePool, uint32, error)

	StorageVolLookupByName(pool libvirt.StoragePool, name string) (libvirt.StorageVol, error)
	StorageVolCreateXML(pool libvirt.StoragePool, xml string, flags libvirt.StorageVolCreateFlags) (libvirt.StorageVol, error)
	StorageVolDelete(vol libvirt.StorageVol, flags libvirt.StorageVolDeleteFlags) error

	NetworkLookupByName(name string) (libvirt.Network, error)
	NetworkDefineXML(xml string) (libvirt.Network, error)
	NetworkCreateXML(xml string) (libvirt.Network, error)
	NetworkCreate(net libvirt.Network) error
	NetworkDestroy(net libvirt.Network) error
	NetworkUndefine(net libvirt.Network) error
	NetworkIsActive(net libvirt.Network) (int32, error)
	NetworkIsPersistent(net libvirt.Network) (int32, error)
	ConnectListAllNetworks(needResults int32, flags libvirt.ConnectListAllNetworksFlags) ([]libvirt.Network, uint32, error)

	InterfaceLookupByName(name string) (libvirt.Interface, error)
	InterfaceDefineXML(xml string, flags uint32) (libvirt.Interface, error)
	InterfaceCreate(iface libvirt.Interface, flags uint32) error
	InterfaceDestroy(iface libvirt.Interface, flags uint32) error
	InterfaceUndefine(iface libvirt.Interface) error
	InterfaceIsActive(iface libvirt.Interface) (int32, error)
	ConnectListAllInterfaces(needResults int32, flags libvirt.ConnectListAllInterfacesFlags) ([]libvirt.Interface, uint32, error)
}

var _ libvirtClient = (*libvirt.Libvirt)(nil)
