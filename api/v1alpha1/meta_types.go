// Package v1alpha1 contains API types for testbed.jbweber.dev/v1alpha1.
//
// The types follow Kubernetes API conventions (TypeMeta, ObjectMeta,
// spec/status) so fixture manifests read like any other declarative
// resource, without pulling in k8s.io/apimachinery.
package v1alpha1

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// TypeMeta describes an individual object's type and API version.
type TypeMeta struct {
	// Kind is the resource kind, e.g. FixtureSet.
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`

	// APIVersion is the versioned schema of this representation.
	APIVersion string `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
}

// ObjectMeta is the metadata carried by every manifest.
type ObjectMeta struct {
	// Name identifies the manifest. It is not used for resource naming.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Labels are free-form key/value pairs.
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`

	// CreationTimestamp is set when the manifest is first applied.
	CreationTimestamp Time `json:"creationTimestamp,omitempty" yaml:"creationTimestamp,omitempty"`

	// UID is assigned when the manifest is first applied.
	UID string `json:"uid,omitempty" yaml:"uid,omitempty"`
}

// Time is a timestamp serialized as RFC3339 in UTC at second precision.
// The zero Time is written as null and read back from null or "".
type Time struct {
	time.Time `json:"-" yaml:"-"`
}

// Now returns the current time, truncated the same way serialization does.
func Now() Time {
	return Time{Time: time.Now().UTC().Truncate(time.Second)}
}

func (t Time) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (Time, error) {
	if s == "" || s == "null" {
		return Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Time{}, fmt.Errorf("timestamp %q: %w", s, err)
	}
	return Time{Time: parsed.UTC().Truncate(time.Second)}, nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *Time) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == nil {
		*t = Time{}
		return nil
	}
	parsed, err := parseTime(*s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Time) MarshalYAML() (interface{}, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.String(), nil
}

func (t *Time) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: timestamp must be a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		*t = Time{}
		return nil
	}
	parsed, err := parseTime(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*t = parsed
	return nil
}
