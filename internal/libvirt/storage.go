package libvirt

import (
	"fmt"

	"libvirt.org/go/libvirtxml"

	"github.com/jbweber/testbed/api/v1alpha1"
)

// GenerateStoragePoolXML generates a storage pool definition for name.
// A nil spec selects a dir pool at the default images path.
func GenerateStoragePoolXML(name string, spec *v1alpha1.StoragePoolSpec) (string, error) {
	s := v1alpha1.StoragePoolSpec{}
	if spec != nil {
		s = *spec
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return "", err
	}

	pool := &libvirtxml.StoragePool{
		Type: string(s.Type),
		Name: name,
		Target: &libvirtxml.StoragePoolTarget{
			Path: s.Path,
		},
	}

	xml, err := pool.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal pool XML: %w", err)
	}

	return xml, nil
}

// GenerateStorageVolXML generates a volume definition for name with
// allocation and capacity both set to SizeKiB.
func GenerateStorageVolXML(name string, spec *v1alpha1.StorageVolSpec) (string, error) {
	if spec == nil {
		return "", fmt.Errorf("volume spec is required")
	}
	s := *spec
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return "", err
	}

	vol := &libvirtxml.StorageVolume{
		Type: s.Type,
		Name: name,
		Allocation: &libvirtxml.StorageVolumeSize{
			Value: s.SizeKiB,
			Unit:  "KiB",
		},
		Capacity: &libvirtxml.StorageVolumeSize{
			Value: s.SizeKiB,
			Unit:  "KiB",
		},
	}

	xml, err := vol.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal volume XML: %w", err)
	}

	return xml, nil
}
