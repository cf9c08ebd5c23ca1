// Package libvirt manages sessions to a libvirt endpoint and renders
// resource descriptors.
//
// This package wraps github.com/digitalocean/go-libvirt to provide:
//   - Session management (open, close, ping, version)
//   - Descriptor XML generation for domains, storage pools, volumes,
//     networks and host interfaces
//   - Helpers for reading libvirt error codes
//
// Session Management:
//
// Local URIs go through the libvirtd unix socket; +tcp URIs dial the
// remote daemon directly:
//
//	s, err := libvirt.Open("test:///default")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
// A Session is closed exactly once. Close on a closed session returns
// ErrSessionClosed.
//
// Descriptor Generation:
//
//	xml, err := libvirt.GenerateDomainXML("testbed-alpha", &v1alpha1.DomainSpec{MemoryKiB: 128})
//	if err != nil {
//	    return err
//	}
//	dom, err := s.Libvirt().DomainDefineXML(xml)
//
// Consumer-Side Interfaces:
//
// This package does not define interfaces for the libvirt API. Consumers
// (internal/fixture) declare the operations they need and *libvirt.Libvirt
// satisfies them implicitly.
package libvirt
