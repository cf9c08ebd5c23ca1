package v1alpha1

import (
	"github.com/google/uuid"
)

const (
	// GroupName is the API group for testbed manifests.
	GroupName = "testbed.jbweber.dev"

	// Version is the API version.
	Version = "v1alpha1"

	// FixtureSetKind is the kind string for FixtureSet manifests.
	FixtureSetKind = "FixtureSet"
)

// Default descriptor values. They mirror the minimal objects the libvirt
// test driver accepts.
const (
	DefaultDomainType      = DomainTypeTest
	DefaultDomainMemoryKiB = 128
	DefaultDomainVCPUs     = 1
	DefaultPoolType        = StoragePoolTypeDir
	DefaultPoolPath        = "/var/lib/libvirt/images"
	DefaultVolumeType      = "file"
	DefaultNetworkBridge   = "testbr0"
	DefaultNetworkAddress  = "192.168.0.1"
	DefaultNetworkNetmask  = "255.255.255.0"
	DefaultInterfaceMAC    = "aa:bb:cc:dd:ee:ff"
)

// NewFixtureSet creates a FixtureSet with TypeMeta and ObjectMeta populated.
func NewFixtureSet(name string) *FixtureSet {
	return &FixtureSet{
		TypeMeta: TypeMeta{
			APIVersion: GroupName + "/" + Version,
			Kind:       FixtureSetKind,
		},
		ObjectMeta: ObjectMeta{
			Name:              name,
			UID:               uuid.New().String(),
			CreationTimestamp: Now(),
		},
	}
}

// SetDefaultAPIVersion ensures the set has the correct apiVersion and kind.
func SetDefaultAPIVersion(fs *FixtureSet) {
	if fs.APIVersion == "" {
		fs.APIVersion = GroupName + "/" + Version
	}
	if fs.Kind == "" {
		fs.Kind = FixtureSetKind
	}
}

// EnsureIdentity assigns a UID and creation timestamp if missing.
func (fs *FixtureSet) EnsureIdentity() {
	if fs.UID == "" {
		fs.UID = uuid.New().String()
	}
	if fs.CreationTimestamp.IsZero() {
		fs.CreationTimestamp = Now()
	}
}

// SetResourceStatus records the status of a resource, replacing any
// previous entry with the same kind and name.
func (fs *FixtureSet) SetResourceStatus(st ResourceStatus) {
	if st.LastTransitionTime.IsZero() {
		st.LastTransitionTime = Now()
	}
	for i := range fs.Status.Resources {
		cur := &fs.Status.Resources[i]
		if cur.Kind == st.Kind && cur.Name == st.Name {
			*cur = st
			return
		}
	}
	fs.Status.Resources = append(fs.Status.Resources, st)
}

// Pool returns the StoragePool resource with the given short name.
func (fs *FixtureSet) Pool(name string) *ResourceSpec {
	for i := range fs.Spec.Resources {
		r := &fs.Spec.Resources[i]
		if r.Kind == KindStoragePool && r.Name == name {
			return r
		}
	}
	return nil
}

// EffectiveMode returns the persistence mode with defaults applied.
// Interfaces are always persistent; volumes report persistent.
func (r *ResourceSpec) EffectiveMode() PersistenceMode {
	switch r.Kind {
	case KindInterface, KindStorageVol:
		return ModePersistent
	}
	if r.Mode == "" {
		return ModePersistent
	}
	return r.Mode
}

// ApplyDefaults fills unset descriptor fields with the package defaults.
func (s *DomainSpec) ApplyDefaults() {
	if s.Type == "" {
		s.Type = DefaultDomainType
	}
	if s.MemoryKiB == 0 {
		s.MemoryKiB = DefaultDomainMemoryKiB
	}
	if s.VCPUs == 0 {
		s.VCPUs = DefaultDomainVCPUs
	}
}

// ApplyDefaults fills unset descriptor fields with the package defaults.
func (s *StoragePoolSpec) ApplyDefaults() {
	if s.Type == "" {
		s.Type = DefaultPoolType
	}
	if s.Path == "" {
		s.Path = DefaultPoolPath
	}
}

// ApplyDefaults fills unset descriptor fields with the package defaults.
func (s *StorageVolSpec) ApplyDefaults() {
	if s.Type == "" {
		s.Type = DefaultVolumeType
	}
}

// ApplyDefaults fills unset descriptor fields with the package defaults.
func (s *NetworkSpec) ApplyDefaults() {
	if s.Bridge == "" {
		s.Bridge = DefaultNetworkBridge
	}
	if s.Address == "" {
		s.Address = DefaultNetworkAddress
	}
	if s.Netmask == "" {
		s.Netmask = DefaultNetworkNetmask
	}
}
