package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jbweber/testbed/api/v1alpha1"
)

// ResourceListKind is the kind of the JSON wrapper around a resource list.
const ResourceListKind = "ResourceStatusList"

// JSONFormatter formats results as JSON.
type JSONFormatter struct{}

// FormatSet formats a FixtureSet as JSON.
func (f *JSONFormatter) FormatSet(fs *v1alpha1.FixtureSet) (string, error) {
	v1alpha1.SetDefaultAPIVersion(fs)

	data, err := json.MarshalIndent(fs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal fixture set to JSON: %w", err)
	}

	return string(data) + "\n", nil
}

// FormatResources formats resource statuses as a JSON object with an items
// array:
//
//	{
//	  "apiVersion": "testbed.jbweber.dev/v1alpha1",
//	  "kind": "ResourceStatusList",
//	  "items": [...]
//	}
func (f *JSONFormatter) FormatResources(resources []v1alpha1.ResourceStatus) (string, error) {
	if resources == nil {
		resources = []v1alpha1.ResourceStatus{}
	}

	wrapper := map[string]interface{}{
		"apiVersion": v1alpha1.GroupName + "/" + v1alpha1.Version,
		"kind":       ResourceListKind,
		"items":      resources,
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(wrapper); err != nil {
		return "", fmt.Errorf("failed to marshal resource list to JSON: %w", err)
	}

	return buf.String(), nil
}
