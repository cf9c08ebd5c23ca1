package libvirt

import (
	"fmt"

	"libvirt.org/go/libvirtxml"

	"github.com/jbweber/testbed/api/v1alpha1"
)

// GenerateNetworkXML generates a network definition for name.
//
// A network that is not isolated always carries a forward element; an
// empty forward mode leaves the choice to the hypervisor.
func GenerateNetworkXML(name string, spec *v1alpha1.NetworkSpec) (string, error) {
	s := v1alpha1.NetworkSpec{}
	if spec != nil {
		s = *spec
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return "", err
	}

	network := &libvirtxml.Network{
		Name: name,
		Bridge: &libvirtxml.NetworkBridge{
			Name: s.Bridge,
		},
		IPs: []libvirtxml.NetworkIP{
			{Address: s.Address, Netmask: s.Netmask},
		},
	}
	if !s.Isolated {
		network.Forward = &libvirtxml.NetworkForward{Mode: s.ForwardMode}
	}

	xml, err := network.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal network XML: %w", err)
	}

	return xml, nil
}
