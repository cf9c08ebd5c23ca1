package libvirt

import (
	"fmt"

	"libvirt.org/go/libvirtxml"

	"github.com/jbweber/testbed/api/v1alpha1"
	"github.com/jbweber/testbed/internal/naming"
)

// InterfaceMAC resolves the MAC address for an interface spec: the explicit
// MAC, else one derived from IP, else DefaultInterfaceMAC.
func InterfaceMAC(spec *v1alpha1.InterfaceSpec) (string, error) {
	if spec == nil {
		return v1alpha1.DefaultInterfaceMAC, nil
	}
	if spec.MAC != "" {
		return spec.MAC, nil
	}
	if spec.IP != "" {
		mac, err := naming.MACFromIP(spec.IP)
		if err != nil {
			return "", fmt.Errorf("failed to calculate MAC address for %s: %w", spec.IP, err)
		}
		return mac, nil
	}
	return v1alpha1.DefaultInterfaceMAC, nil
}

// GenerateInterfaceXML generates an ethernet host interface definition.
func GenerateInterfaceXML(name string, spec *v1alpha1.InterfaceSpec) (string, error) {
	if spec != nil {
		if err := spec.Validate(); err != nil {
			return "", err
		}
	}
	mac, err := InterfaceMAC(spec)
	if err != nil {
		return "", err
	}

	iface := &libvirtxml.Interface{
		Name: name,
		MAC: &libvirtxml.InterfaceMAC{
			Address: mac,
		},
	}

	xml, err := iface.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal interface XML: %w", err)
	}

	return xml, nil
}
