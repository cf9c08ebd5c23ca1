package libvirt

import (
	"fmt"

	"libvirt.org/go/libvirtxml"

	"github.com/jbweber/testbed/api/v1alpha1"
)

// GenerateDomainXML generates the minimal domain definition for name.
// A nil spec selects the package defaults.
func GenerateDomainXML(name string, spec *v1alpha1.DomainSpec) (string, error) {
	s := v1alpha1.DomainSpec{}
	if spec != nil {
		s = *spec
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return "", err
	}

	domain := &libvirtxml.Domain{
		Type: string(s.Type),
		Name: name,
		Memory: &libvirtxml.DomainMemory{
			Value: s.MemoryKiB,
			Unit:  "KiB",
		},
		VCPU: &libvirtxml.DomainVCPU{
			Value: s.VCPUs,
		},
		Features: &libvirtxml.DomainFeatureList{
			ACPI: &libvirtxml.DomainFeature{},
			APIC: &libvirtxml.DomainFeatureAPIC{},
		},
		OS: &libvirtxml.DomainOS{
			Type: &libvirtxml.DomainOSType{
				Arch: s.Arch,
				Type: "hvm",
			},
		},
	}

	xml, err := domain.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal domain XML: %w", err)
	}

	return xml, nil
}
