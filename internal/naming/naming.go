// Package naming provides the naming conventions for harness-created
// libvirt resources: the namespace prefix that separates test resources
// from pre-existing ones, unique per-run names, and deterministic MAC
// addresses.
package naming

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// DefaultPrefix is the namespace prefix applied to every resource the
// harness creates.
const DefaultPrefix = "testbed-"

// shortNamePattern matches names libvirt accepts for every resource kind,
// including host interfaces.
var shortNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// Namespace maps short names to namespaced resource names.
type Namespace struct {
	prefix string
}

// NewNamespace returns a Namespace for prefix. An empty prefix selects
// DefaultPrefix.
func NewNamespace(prefix string) Namespace {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Namespace{prefix: prefix}
}

// Prefix returns the namespace prefix.
func (n Namespace) Prefix() string {
	return n.prefix
}

// Name returns the namespaced name for short.
//
// Example: "alpha" → "testbed-alpha"
func (n Namespace) Name(short string) string {
	return n.prefix + short
}

// Contains reports whether name belongs to this namespace.
func (n Namespace) Contains(name string) bool {
	return strings.HasPrefix(name, n.prefix) && len(name) > len(n.prefix)
}

// Short strips the namespace prefix. ok is false when name is not in the
// namespace.
func (n Namespace) Short(name string) (short string, ok bool) {
	if !n.Contains(name) {
		return "", false
	}
	return strings.TrimPrefix(name, n.prefix), true
}

// ValidateShort checks that short is usable as a resource name.
func ValidateShort(short string) error {
	if short == "" {
		return fmt.Errorf("name is required")
	}
	if !shortNamePattern.MatchString(short) {
		return fmt.Errorf("invalid name %q: must start with an alphanumeric character and contain only alphanumerics, '.', '_' or '-'", short)
	}
	return nil
}

// Unique returns short with a random suffix, for tests that must not share
// a name with a concurrent run.
//
// Example: "alpha" → "alpha-1f0c9a2b"
func Unique(short string) string {
	return fmt.Sprintf("%s-%s", short, uuid.NewString()[:8])
}

// MACFromIP calculates a deterministic MAC address from an IP address.
// Uses the RFC 2731 local assignment prefix be:ef:.
//
// Example: IP 10.55.22.22 → MAC be:ef:0a:37:16:16
func MACFromIP(ip string) (string, error) {
	ipStr := ip
	if strings.Contains(ip, "/") {
		ipAddr, _, err := net.ParseCIDR(ip)
		if err != nil {
			return "", fmt.Errorf("invalid IP/CIDR: %w", err)
		}
		ipStr = ipAddr.String()
	}

	parsedIP := net.ParseIP(ipStr)
	if parsedIP == nil {
		return "", fmt.Errorf("invalid IP address: %s", ipStr)
	}

	ipv4 := parsedIP.To4()
	if ipv4 == nil {
		return "", fmt.Errorf("not an IPv4 address: %s", ipStr)
	}

	return fmt.Sprintf("be:ef:%02x:%02x:%02x:%02x",
		ipv4[0], ipv4[1], ipv4[2], ipv4[3]), nil
}
