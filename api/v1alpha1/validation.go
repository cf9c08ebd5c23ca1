package v1alpha1

import (
	"fmt"
	"net"
)

// Validate checks the domain spec. Defaults must already be applied.
func (s *DomainSpec) Validate() error {
	switch s.Type {
	case DomainTypeTest, DomainTypeQEMU, DomainTypeKVM:
	default:
		return fmt.Errorf("unsupported domain type: %q (must be test, qemu or kvm)", s.Type)
	}
	if s.MemoryKiB == 0 {
		return fmt.Errorf("domain memory must be greater than 0")
	}
	if s.VCPUs == 0 {
		return fmt.Errorf("domain vcpus must be greater than 0")
	}
	return nil
}

// Validate checks the storage pool spec. Defaults must already be applied.
func (s *StoragePoolSpec) Validate() error {
	if s.Type != StoragePoolTypeDir {
		return fmt.Errorf("unsupported pool type: %q", s.Type)
	}
	if s.Path == "" {
		return fmt.Errorf("pool path is required")
	}
	return nil
}

// Validate checks the volume spec.
func (s *StorageVolSpec) Validate() error {
	if s.SizeKiB == 0 {
		return fmt.Errorf("volume size must be greater than 0")
	}
	switch s.Type {
	case "", "file", "block":
	default:
		return fmt.Errorf("unsupported volume type: %q", s.Type)
	}
	return nil
}

// Validate checks the network spec. Defaults must already be applied.
func (s *NetworkSpec) Validate() error {
	if net.ParseIP(s.Address).To4() == nil {
		return fmt.Errorf("invalid network address: %q", s.Address)
	}
	if net.ParseIP(s.Netmask).To4() == nil {
		return fmt.Errorf("invalid network netmask: %q", s.Netmask)
	}
	if s.Isolated && s.ForwardMode != "" {
		return fmt.Errorf("isolated network cannot set forward mode %q", s.ForwardMode)
	}
	switch s.ForwardMode {
	case "", "nat", "route", "bridge":
	default:
		return fmt.Errorf("unsupported forward mode: %q", s.ForwardMode)
	}
	return nil
}

// Validate checks the interface spec.
func (s *InterfaceSpec) Validate() error {
	if s.MAC != "" {
		if _, err := net.ParseMAC(s.MAC); err != nil {
			return fmt.Errorf("invalid interface MAC %q: %w", s.MAC, err)
		}
	}
	return nil
}

// Validate checks that exactly the descriptor matching Kind is present and
// that it is valid.
func (r *ResourceSpec) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch r.Mode {
	case "", ModeTransient, ModePersistent:
	default:
		return fmt.Errorf("unsupported mode: %q (must be transient or persistent)", r.Mode)
	}
	if r.Activate && r.EffectiveMode() == ModeTransient {
		return fmt.Errorf("activate applies only to persistent resources")
	}

	set := 0
	for _, present := range []bool{r.Domain != nil, r.StoragePool != nil, r.StorageVol != nil, r.Network != nil, r.Interface != nil} {
		if present {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("only one descriptor may be set")
	}

	switch r.Kind {
	case KindDomain:
		if r.Domain == nil && set > 0 {
			return fmt.Errorf("kind Domain requires a domain descriptor")
		}
	case KindStoragePool:
		if r.StoragePool == nil && set > 0 {
			return fmt.Errorf("kind StoragePool requires a storagePool descriptor")
		}
	case KindStorageVol:
		if r.StorageVol == nil {
			return fmt.Errorf("kind StorageVol requires a storageVol descriptor")
		}
		if r.StorageVol.Pool == "" {
			return fmt.Errorf("storageVol.pool is required")
		}
		if r.Activate {
			return fmt.Errorf("volumes cannot be activated")
		}
		return r.StorageVol.Validate()
	case KindNetwork:
		if r.Network == nil && set > 0 {
			return fmt.Errorf("kind Network requires a network descriptor")
		}
	case KindInterface:
		if r.Mode == ModeTransient {
			return fmt.Errorf("interfaces have no transient mode")
		}
		if r.Interface == nil && set > 0 {
			return fmt.Errorf("kind Interface requires an interface descriptor")
		}
		if r.Interface != nil {
			return r.Interface.Validate()
		}
	default:
		return fmt.Errorf("unsupported kind: %q", r.Kind)
	}
	return nil
}
