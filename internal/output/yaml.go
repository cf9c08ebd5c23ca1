package output

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/testbed/api/v1alpha1"
)

// YAMLFormatter formats results as YAML.
type YAMLFormatter struct{}

// FormatSet formats a FixtureSet as YAML. The output loads again with
// loader.LoadFromYAML.
func (f *YAMLFormatter) FormatSet(fs *v1alpha1.FixtureSet) (string, error) {
	v1alpha1.SetDefaultAPIVersion(fs)

	data, err := yaml.Marshal(fs)
	if err != nil {
		return "", fmt.Errorf("failed to marshal fixture set to YAML: %w", err)
	}

	return string(data), nil
}

// FormatResources formats resource statuses as a YAML stream, one document
// per resource.
func (f *YAMLFormatter) FormatResources(resources []v1alpha1.ResourceStatus) (string, error) {
	var buf bytes.Buffer

	for i := range resources {
		data, err := yaml.Marshal(&resources[i])
		if err != nil {
			return "", fmt.Errorf("failed to marshal %s %s to YAML: %w", resources[i].Kind, resources[i].Name, err)
		}

		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(data)
	}

	return buf.String(), nil
}
