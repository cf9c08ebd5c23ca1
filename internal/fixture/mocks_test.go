package fixture

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/digitalocean/go-libvirt"
	"libvirt.org/go/libvirtxml"
)

// fakeObject is one object held by the fake endpoint.
type fakeObject struct {
	name       string
	xml        string
	persistent bool
	active     bool
}

// fakeStore models the define/create/destroy/undefine semantics libvirt
// applies to domains, pools, networks and interfaces.
type fakeStore struct {
	noun     string
	notFound libvirt.ErrorNumber
	objs     map[string]*fakeObject
}

func newFakeStore(noun string, notFound libvirt.ErrorNumber) *fakeStore {
	return &fakeStore{noun: noun, notFound: notFound, objs: make(map[string]*fakeObject)}
}

func lverr(code libvirt.ErrorNumber, format string, args ...any) error {
	return libvirt.Error{Code: uint32(code), Message: fmt.Sprintf(format, args...)}
}

func (s *fakeStore) get(name string) (*fakeObject, error) {
	obj, ok := s.objs[name]
	if !ok {
		return nil, lverr(s.notFound, "%s not found: no %s with matching name '%s'", s.noun, s.noun, name)
	}
	return obj, nil
}

func (s *fakeStore) define(name, xml string) {
	if obj, ok := s.objs[name]; ok {
		obj.xml = xml
		obj.persistent = true
		return
	}
	s.objs[name] = &fakeObject{name: name, xml: xml, persistent: true}
}

func (s *fakeStore) create(name, xml string) error {
	if _, ok := s.objs[name]; ok {
		return lverr(libvirt.ErrOperationFailed, "%s '%s' already exists", s.noun, name)
	}
	s.objs[name] = &fakeObject{name: name, xml: xml, active: true}
	return nil
}

func (s *fakeStore) start(name string) error {
	obj, err := s.get(name)
	if err != nil {
		return err
	}
	if obj.active {
		return lverr(libvirt.ErrOperationInvalid, "%s is already active", s.noun)
	}
	obj.active = true
	return nil
}

func (s *fakeStore) destroy(name string) error {
	obj, err := s.get(name)
	if err != nil {
		return err
	}
	if !obj.active {
		return lverr(libvirt.ErrOperationInvalid, "%s '%s' is not active", s.noun, name)
	}
	obj.active = false
	if !obj.persistent {
		delete(s.objs, name)
	}
	return nil
}

func (s *fakeStore) undefine(name string) error {
	obj, err := s.get(name)
	if err != nil {
		return err
	}
	if !obj.persistent {
		return lverr(libvirt.ErrOperationInvalid, "cannot undefine transient %s", s.noun)
	}
	obj.persistent = false
	if !obj.active {
		delete(s.objs, name)
	}
	return nil
}

func (s *fakeStore) names() []string {
	names := make([]string, 0, len(s.objs))
	for name := range s.objs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func boolFlag(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// mockLibvirtClient is an in-memory implementation of libvirtClient.
type mockLibvirtClient struct {
	mu sync.Mutex

	domains  *fakeStore
	pools    *fakeStore
	networks *fakeStore
	ifaces   *fakeStore
	// vols maps pool name to volume name to volume.
	vols map[string]map[string]*fakeObject

	// Configurable failures, keyed by method name
	errs map[string]error

	// Call tracking, "Method name" in call order
	calls []string
}

func newMockLibvirtClient() *mockLibvirtClient {
	return &mockLibvirtClient{
		domains:  newFakeStore("domain", libvirt.ErrNoDomain),
		pools:    newFakeStore("storage pool", libvirt.ErrNoStoragePool),
		networks: newFakeStore("network", libvirt.ErrNoNetwork),
		ifaces:   newFakeStore("interface", libvirt.ErrNoInterface),
		vols:     make(map[string]map[string]*fakeObject),
		errs:     make(map[string]error),
	}
}

// failWith makes every call to method return err until cleared with nil.
func (m *mockLibvirtClient) failWith(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, method)
		return
	}
	m.errs[method] = err
}

// record logs the call and returns the injected failure, if any.
func (m *mockLibvirtClient) record(method, name string) error {
	m.calls = append(m.calls, method+" "+name)
	return m.errs[method]
}

// callsTo returns the names passed to method, in call order.
func (m *mockLibvirtClient) callsTo(method string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for _, c := range m.calls {
		if strings.HasPrefix(c, method+" ") {
			names = append(names, strings.TrimPrefix(c, method+" "))
		}
	}
	return names
}

// callLog returns a copy of every recorded call.
func (m *mockLibvirtClient) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockLibvirtClient) resetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *mockLibvirtClient) seed(store *fakeStore, name string, persistent, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	store.objs[name] = &fakeObject{name: name, persistent: persistent, active: active}
}

func (m *mockLibvirtClient) seedVolume(pool, name, xml string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vols[pool] == nil {
		m.vols[pool] = make(map[string]*fakeObject)
	}
	m.vols[pool][name] = &fakeObject{name: name, xml: xml, persistent: true, active: true}
}

func (m *mockLibvirtClient) object(store *fakeStore, name string) *fakeObject {
	m.mu.Lock()
	defer m.mu.Unlock()
	return store.objs[name]
}

func (m *mockLibvirtClient) volume(pool, name string) *fakeObject {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vols[pool][name]
}

// Domains

func domainName(xml string) (string, error) {
	var d libvirtxml.Domain
	if err := d.Unmarshal(xml); err != nil {
		return "", lverr(libvirt.ErrOperationFailed, "invalid domain XML: %v", err)
	}
	return d.Name, nil
}

func (m *mockLibvirtClient) DomainLookupByName(name string) (libvirt.Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DomainLookupByName", name); err != nil {
		return libvirt.Domain{}, err
	}
	if _, err := m.domains.get(name); err != nil {
		return libvirt.Domain{}, err
	}
	return libvirt.Domain{Name: name}, nil
}

func (m *mockLibvirtClient) DomainDefineXML(xml string) (libvirt.Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, err := domainName(xml)
	if err != nil {
		return libvirt.Domain{}, err
	}
	if err := m.record("DomainDefineXML", name); err != nil {
		return libvirt.Domain{}, err
	}
	m.domains.define(name, xml)
	return libvirt.Domain{Name: name}, nil
}

func (m *mockLibvirtClient) DomainCreateXML(xml string, flags libvirt.DomainCreateFlags) (libvirt.Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, err := domainName(xml)
	if err != nil {
		return libvirt.Domain{}, err
	}
	if err := m.record("DomainCreateXML", name); err != nil {
		return libvirt.Domain{}, err
	}
	if err := m.domains.create(name, xml); err != nil {
		return libvirt.Domain{}, err
	}
	return libvirt.Domain{Name: name, ID: 1}, nil
}

func (m *mockLibvirtClient) DomainCreate(dom libvirt.Domain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DomainCreate", dom.Name); err != nil {
		return err
	}
	return m.domains.start(dom.Name)
}

func (m *mockLibvirtClient) DomainDestroy(dom libvirt.Domain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DomainDestroy", dom.Name); err != nil {
		return err
	}
	return m.domains.destroy(dom.Name)
}

func (m *mockLibvirtClient) DomainUndefine(dom libvirt.Domain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DomainUndefine", dom.Name); err != nil {
		return err
	}
	return m.domains.undefine(dom.Name)
}

func (m *mockLibvirtClient) DomainIsActive(dom libvirt.Domain) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, err := m.domains.get(dom.Name)
	if err != nil {
		return 0, err
	}
	return boolFlag(obj.active), nil
}

func (m *mockLibvirtClient) DomainIsPersistent(dom libvirt.Domain) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, err := m.domains.get(dom.Name)
	if err != nil {
		return 0, err
	}
	return boolFlag(obj.persistent), nil
}

func (m *mockLibvirtClient) ConnectListAllDomains(needResults int32, flags libvirt.ConnectListAllDomainsFlags) ([]libvirt.Domain, uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ConnectListAllDomains", ""); err != nil {
		return nil, 0, err
	}
	var out []libvirt.Domain
	for _, name := range m.domains.names() {
		out = append(out, libvirt.Domain{Name: name})
	}
	return out, uint32(len(out)), nil
}

// Storage pools

func poolName(xml string) (string, error) {
	var p libvirtxml.StoragePool
	if err := p.Unmarshal(xml); err != nil {
		return "", lverr(libvirt.ErrOperationFailed, "invalid pool XML: %v", err)
	}
	return p.Name, nil
}

func (m *mockLibvirtClient) StoragePoolLookupByName(name string) (libvirt.StoragePool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("StoragePoolLookupByName", name); err != nil {
		return libvirt.StoragePool{}, err
	}
	if _, err := m.pools.get(name); err != nil {
		return libvirt.StoragePool{}, err
	}
	return libvirt.StoragePool{Name: name}, nil
}

func (m *mockLibvirtClient) StoragePoolDefineXML(xml string, flags uint32) (libvirt.StoragePool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, err := poolName(xml)
	if err != nil {
		return libvirt.StoragePool{}, err
	}
	if err := m.record("StoragePoolDefineXML", name); err != nil {
		return libvirt.StoragePool{}, err
	}
	m.pools.define(name, xml)
	return libvirt.StoragePool{Name: name}, nil
}

func (m *mockLibvirtClient) StoragePoolCreateXML(xml string, flags libvirt.StoragePoolCreateFlags) (libvirt.StoragePool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, err := poolName(xml)
	if err != nil {
		return libvirt.StoragePool{}, err
	}
	if err := m.record("StoragePoolCreateXML", name); err != nil {
		return libvirt.StoragePool{}, err
	}
	if err := m.pools.create(name, xml); err != nil {
		return libvirt.StoragePool{}, err
	}
	return libvirt.StoragePool{Name: name}, nil
}

func (m *mockLibvirtClient) StoragePoolCreate(pool libvirt.StoragePool, flags libvirt.StoragePoolCreateFlags) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("StoragePoolCreate", pool.Name); err != nil {
		return err
	}
	return m.pools.start(pool.Name)
}

func (m *mockLibvirtClient) StoragePoolDestroy(pool libvirt.StoragePool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("StoragePoolDestroy", pool.Name); err != nil {
		return err
	}
	return m.pools.destroy(pool.Name)
}

func (m *mockLibvirtClient) StoragePoolUndefine(pool libvirt.StoragePool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("StoragePoolUndefine", pool.Name); err != nil {
		return err
	}
	return m.pools.undefine(pool.Name)
}

func (m *mockLibvirtClient) StoragePoolIsActive(pool libvirt.StoragePool) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, err := m.pools.get(pool.Name)
	if err != nil {
		return 0, err
	}
	return boolFlag(obj.active), nil
}

func (m *mockLibvirtClient) StoragePoolIsPersistent(pool libvirt.StoragePool) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, err := m.pools.get(pool.Name)
	if err != nil {
		return 0, err
	}
	return boolFlag(obj.persistent), nil
}

func (m *mockLibvirtClient) StoragePoolListAllVolumes(pool libvirt.StoragePool, needResults int32, flags uint32) ([]libvirt.StorageVol, uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("StoragePoolListAllVolumes", pool.Name); err != nil {
		return nil, 0, err
	}
	if err := m.activePool(pool.Name); err != nil {
		return nil, 0, err
	}
	names := make([]string, 0, len(m.vols[pool.Name]))
	for name := range m.vols[pool.Name] {
		names = append(names, name)
	}
	sort.Strings(names)
	var out []libvirt.StorageVol
	for _, name := range names {
		out = append(out, libvirt.StorageVol{Pool: pool.Name, Name: name})
	}
	return out, uint32(len(out)), nil
}

func (m *mockLibvirtClient) ConnectListAllStoragePools(needResults int32, flags libvirt.ConnectListAllStoragePoolsFlags) ([]libvirt.StoragePool, uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ConnectListAllStoragePools", ""); err != nil {
		return nil, 0, err
	}
	var out []libvirt.StoragePool
	for _, name := range m.pools.names() {
		out = append(out, libvirt.StoragePool{Name: name})
	}
	return out, uint32(len(out)), nil
}

// Storage volumes

func (m *mockLibvirtClient) activePool(name string) error {
	obj, err := m.pools.get(name)
	if err != nil {
		return err
	}
	if !obj.active {
		return lverr(libvirt.ErrOperationInvalid, "storage pool '%s' is not active", name)
	}
	return nil
}

func (m *mockLibvirtClient) StorageVolLookupByName(pool libvirt.StoragePool, name string) (libvirt.StorageVol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("StorageVolLookupByName", name); err != nil {
		return libvirt.StorageVol{}, err
	}
	if err := m.activePool(pool.Name); err != nil {
		return libvirt.StorageVol{}, err
	}
	if _, ok := m.vols[pool.Name][name]; !ok {
		return libvirt.StorageVol{}, lverr(libvirt.ErrNoStorageVol, "Storage volume not found: no storage vol with matching name '%s'", name)
	}
	return libvirt.StorageVol{Pool: pool.Name, Name: name, Key: "/pool/" + pool.Name + "/" + name}, nil
}

func (m *mockLibvirtClient) StorageVolCreateXML(pool libvirt.StoragePool, xml string, flags libvirt.StorageVolCreateFlags) (libvirt.StorageVol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var v libvirtxml.StorageVolume
	if err := v.Unmarshal(xml); err != nil {
		return libvirt.StorageVol{}, lverr(libvirt.ErrOperationFailed, "invalid volume XML: %v", err)
	}
	if err := m.record("StorageVolCreateXML", v.Name); err != nil {
		return libvirt.StorageVol{}, err
	}
	if err := m.activePool(pool.Name); err != nil {
		return libvirt.StorageVol{}, err
	}
	if _, ok := m.vols[pool.Name][v.Name]; ok {
		return libvirt.StorageVol{}, lverr(libvirt.ErrOperationFailed, "storage volume '%s' already exists", v.Name)
	}
	if m.vols[pool.Name] == nil {
		m.vols[pool.Name] = make(map[string]*fakeObject)
	}
	m.vols[pool.Name][v.Name] = &fakeObject{name: v.Name, xml: xml, persistent: true, active: true}
	return libvirt.StorageVol{Pool: pool.Name, Name: v.Name, Key: "/pool/" + pool.Name + "/" + v.Name}, nil
}

func (m *mockLibvirtClient) StorageVolDelete(vol libvirt.StorageVol, flags libvirt.StorageVolDeleteFlags) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("StorageVolDelete", vol.Name); err != nil {
		return err
	}
	if _, ok := m.vols[vol.Pool][vol.Name]; !ok {
		return lverr(libvirt.ErrNoStorageVol, "Storage volume not found: no storage vol with matching name '%s'", vol.Name)
	}
	delete(m.vols[vol.Pool], vol.Name)
	return nil
}

// Networks

func networkName(xml string) (string, error) {
	var n libvirtxml.Network
	if err := n.Unmarshal(xml); err != nil {
		return "", lverr(libvirt.ErrOperationFailed, "invalid network XML: %v", err)
	}
	return n.Name, nil
}

func (m *mockLibvirtClient) NetworkLookupByName(name string) (libvirt.Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("NetworkLookupByName", name); err != nil {
		return libvirt.Network{}, err
	}
	if _, err := m.networks.get(name); err != nil {
		return libvirt.Network{}, err
	}
	return libvirt.Network{Name: name}, nil
}

func (m *mockLibvirtClient) NetworkDefineXML(xml string) (libvirt.Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, err := networkName(xml)
	if err != nil {
		return libvirt.Network{}, err
	}
	if err := m.record("NetworkDefineXML", name); err != nil {
		return libvirt.Network{}, err
	}
	m.networks.define(name, xml)
	return libvirt.Network{Name: name}, nil
}

func (m *mockLibvirtClient) NetworkCreateXML(xml string) (libvirt.Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, err := networkName(xml)
	if err != nil {
		return libvirt.Network{}, err
	}
	if err := m.record("NetworkCreateXML", name); err != nil {
		return libvirt.Network{}, err
	}
	if err := m.networks.create(name, xml); err != nil {
		return libvirt.Network{}, err
	}
	return libvirt.Network{Name: name}, nil
}

func (m *mockLibvirtClient) NetworkCreate(net libvirt.Network) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("NetworkCreate", net.Name); err != nil {
		return err
	}
	return m.networks.start(net.Name)
}

func (m *mockLibvirtClient) NetworkDestroy(net libvirt.Network) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("NetworkDestroy", net.Name); err != nil {
		return err
	}
	return m.networks.destroy(net.Name)
}

func (m *mockLibvirtClient) NetworkUndefine(net libvirt.Network) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("NetworkUndefine", net.Name); err != nil {
		return err
	}
	return m.networks.undefine(net.Name)
}

func (m *mockLibvirtClient) NetworkIsActive(net libvirt.Network) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, err := m.networks.get(net.Name)
	if err != nil {
		return 0, err
	}
	return boolFlag(obj.active), nil
}

func (m *mockLibvirtClient) NetworkIsPersistent(net libvirt.Network) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, err := m.networks.get(net.Name)
	if err != nil {
		return 0, err
	}
	return boolFlag(obj.persistent), nil
}

func (m *mockLibvirtClient) ConnectListAllNetworks(needResults int32, flags libvirt.ConnectListAllNetworksFlags) ([]libvirt.Network, uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ConnectListAllNetworks", ""); err != nil {
		return nil, 0, err
	}
	var out []libvirt.Network
	for _, name := range m.networks.names() {
		out = append(out, libvirt.Network{Name: name})
	}
	return out, uint32(len(out)), nil
}

// Interfaces

func (m *mockLibvirtClient) InterfaceLookupByName(name string) (libvirt.Interface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("InterfaceLookupByName", name); err != nil {
		return libvirt.Interface{}, err
	}
	obj, err := m.ifaces.get(name)
	if err != nil {
		return libvirt.Interface{}, err
	}
	return libvirt.Interface{Name: name, Mac: interfaceMAC(obj.xml)}, nil
}

func interfaceMAC(xml string) string {
	var i libvirtxml.Interface
	if err := i.Unmarshal(xml); err != nil || i.MAC == nil {
		return ""
	}
	return i.MAC.Address
}

func (m *mockLibvirtClient) InterfaceDefineXML(xml string, flags uint32) (libvirt.Interface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var i libvirtxml.Interface
	if err := i.Unmarshal(xml); err != nil {
		return libvirt.Interface{}, lverr(libvirt.ErrOperationFailed, "invalid interface XML: %v", err)
	}
	if err := m.record("InterfaceDefineXML", i.Name); err != nil {
		return libvirt.Interface{}, err
	}
	m.ifaces.define(i.Name, xml)
	return libvirt.Interface{Name: i.Name, Mac: interfaceMAC(xml)}, nil
}

func (m *mockLibvirtClient) InterfaceCreate(iface libvirt.Interface, flags uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("InterfaceCreate", iface.Name); err != nil {
		return err
	}
	return m.ifaces.start(iface.Name)
}

func (m *mockLibvirtClient) InterfaceDestroy(iface libvirt.Interface, flags uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("InterfaceDestroy", iface.Name); err != nil {
		return err
	}
	return m.ifaces.destroy(iface.Name)
}

func (m *mockLibvirtClient) InterfaceUndefine(iface libvirt.Interface) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("InterfaceUndefine", iface.Name); err != nil {
		return err
	}
	return m.ifaces.undefine(iface.Name)
}

func (m *mockLibvirtClient) InterfaceIsActive(iface libvirt.Interface) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, err := m.ifaces.get(iface.Name)
	if err != nil {
		return 0, err
	}
	return boolFlag(obj.active), nil
}

func (m *mockLibvirtClient) ConnectListAllInterfaces(needResults int32, flags libvirt.ConnectListAllInterfacesFlags) ([]libvirt.Interface, uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ConnectListAllInterfaces", ""); err != nil {
		return nil, 0, err
	}
	var out []libvirt.Interface
	for _, name := range m.ifaces.names() {
		out = append(out, libvirt.Interface{Name: name})
	}
	return out, uint32(len(out)), nil
}
