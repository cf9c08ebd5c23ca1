package v1alpha1

// FixtureSet declares a group of libvirt resources a test run needs.
// Resources are built in list order and reaped in reverse order.
type FixtureSet struct {
	TypeMeta   `json:",inline" yaml:",inline"`
	ObjectMeta `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	Spec   FixtureSetSpec   `json:"spec,omitempty" yaml:"spec,omitempty"`
	Status FixtureSetStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// FixtureSetSpec is the desired set of resources.
type FixtureSetSpec struct {
	Resources []ResourceSpec `json:"resources" yaml:"resources"`
}

// FixtureSetStatus is the observed state of each resource.
type FixtureSetStatus struct {
	Resources []ResourceStatus `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// ResourceKind names one of the libvirt object kinds the harness manages.
type ResourceKind string

const (
	KindDomain      ResourceKind = "Domain"
	KindStoragePool ResourceKind = "StoragePool"
	KindStorageVol  ResourceKind = "StorageVol"
	KindNetwork     ResourceKind = "Network"
	KindInterface   ResourceKind = "Interface"
)

// Kinds lists every resource kind in teardown dependency order.
var Kinds = []ResourceKind{KindDomain, KindStorageVol, KindStoragePool, KindNetwork, KindInterface}

// PersistenceMode selects between live-only and defined resources.
type PersistenceMode string

const (
	// ModeTransient resources exist only while active.
	ModeTransient PersistenceMode = "transient"
	// ModePersistent resources have a definition independent of whether
	// they are active.
	ModePersistent PersistenceMode = "persistent"
)

// Phase is the lifecycle phase of a resource handle.
type Phase string

const (
	PhaseUndefined    Phase = "Undefined"
	PhaseDefining     Phase = "Defining"
	PhaseCreating     Phase = "Creating"
	PhaseDefined      Phase = "Defined"
	PhaseActivating   Phase = "Activating"
	PhaseActive       Phase = "Active"
	PhaseDeactivating Phase = "Deactivating"
	PhaseDestroying   Phase = "Destroying"
	PhaseUndefining   Phase = "Undefining"
	PhaseDeleting     Phase = "Deleting"
	PhaseFailed       Phase = "Failed"
	// PhaseFreed means the local handle was released. It is terminal.
	PhaseFreed Phase = "Freed"
)

// ResourceSpec describes one resource. Exactly one of the kind-specific
// fields must be set and it must match Kind.
type ResourceSpec struct {
	Kind ResourceKind `json:"kind" yaml:"kind"`

	// Name is the short name; the harness prefix is added when building.
	Name string `json:"name" yaml:"name"`

	// Mode is ignored for StorageVol and must be persistent for Interface.
	Mode PersistenceMode `json:"mode,omitempty" yaml:"mode,omitempty"`

	// Activate starts a persistent resource after defining it.
	Activate bool `json:"activate,omitempty" yaml:"activate,omitempty"`

	Domain      *DomainSpec      `json:"domain,omitempty" yaml:"domain,omitempty"`
	StoragePool *StoragePoolSpec `json:"storagePool,omitempty" yaml:"storagePool,omitempty"`
	StorageVol  *StorageVolSpec  `json:"storageVol,omitempty" yaml:"storageVol,omitempty"`
	Network     *NetworkSpec     `json:"network,omitempty" yaml:"network,omitempty"`
	Interface   *InterfaceSpec   `json:"interface,omitempty" yaml:"interface,omitempty"`
}

// ResourceStatus reports where a resource is in its lifecycle.
type ResourceStatus struct {
	Kind               ResourceKind    `json:"kind" yaml:"kind"`
	Name               string          `json:"name" yaml:"name"`
	Mode               PersistenceMode `json:"mode,omitempty" yaml:"mode,omitempty"`
	Phase              Phase           `json:"phase,omitempty" yaml:"phase,omitempty"`
	Pool               string          `json:"pool,omitempty" yaml:"pool,omitempty"`
	Message            string          `json:"message,omitempty" yaml:"message,omitempty"`
	LastTransitionTime Time            `json:"lastTransitionTime,omitempty" yaml:"lastTransitionTime,omitempty"`
}

// DomainType is the virtualization type of a domain.
type DomainType string

const (
	DomainTypeTest DomainType = "test"
	DomainTypeQEMU DomainType = "qemu"
	DomainTypeKVM  DomainType = "kvm"
)

// DomainSpec describes a minimal bootable domain.
type DomainSpec struct {
	Type      DomainType `json:"type,omitempty" yaml:"type,omitempty"`
	MemoryKiB uint       `json:"memoryKiB,omitempty" yaml:"memoryKiB,omitempty"`
	VCPUs     uint       `json:"vcpus,omitempty" yaml:"vcpus,omitempty"`
	// Arch is optional; the hypervisor picks its default when empty.
	Arch string `json:"arch,omitempty" yaml:"arch,omitempty"`
}

// StoragePoolType is the backing type of a storage pool.
type StoragePoolType string

const (
	StoragePoolTypeDir StoragePoolType = "dir"
)

// StoragePoolSpec describes a storage pool.
type StoragePoolSpec struct {
	Type StoragePoolType `json:"type,omitempty" yaml:"type,omitempty"`
	Path string          `json:"path,omitempty" yaml:"path,omitempty"`
}

// StorageVolSpec describes a volume. Allocation and capacity are both
// registered from SizeKiB.
type StorageVolSpec struct {
	// Pool is the short name of a StoragePool resource in the same set.
	Pool    string `json:"pool" yaml:"pool"`
	SizeKiB uint64 `json:"sizeKiB" yaml:"sizeKiB"`
	Type    string `json:"type,omitempty" yaml:"type,omitempty"`
}

// NetworkSpec describes a virtual network.
type NetworkSpec struct {
	Bridge string `json:"bridge,omitempty" yaml:"bridge,omitempty"`
	// ForwardMode is empty for the hypervisor default (nat), or one of
	// nat, route, bridge. Isolated disables forwarding.
	ForwardMode string `json:"forwardMode,omitempty" yaml:"forwardMode,omitempty"`
	Isolated    bool   `json:"isolated,omitempty" yaml:"isolated,omitempty"`
	Address     string `json:"address,omitempty" yaml:"address,omitempty"`
	Netmask     string `json:"netmask,omitempty" yaml:"netmask,omitempty"`
}

// InterfaceSpec describes a host ethernet interface.
type InterfaceSpec struct {
	MAC string `json:"mac,omitempty" yaml:"mac,omitempty"`
	// IP, when set and MAC is empty, derives the MAC deterministically.
	IP string `json:"ip,omitempty" yaml:"ip,omitempty"`
}
