// Package loader provides functions for loading FixtureSet manifests from
// YAML files.
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/testbed/api/v1alpha1"
	"github.com/jbweber/testbed/internal/naming"
)

// LoadFromFile loads a FixtureSet from a YAML file.
// The file must be in the testbed.jbweber.dev/v1alpha1 format.
func LoadFromFile(path string) (*v1alpha1.FixtureSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return LoadFromYAML(data)
}

// LoadFromYAML loads a FixtureSet from YAML bytes.
func LoadFromYAML(data []byte) (*v1alpha1.FixtureSet, error) {
	var fs v1alpha1.FixtureSet
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	// Validate that apiVersion and kind are present
	if fs.APIVersion == "" {
		return nil, fmt.Errorf("missing required field: apiVersion")
	}
	if fs.Kind == "" {
		return nil, fmt.Errorf("missing required field: kind")
	}

	expectedAPIVersion := v1alpha1.GroupName + "/" + v1alpha1.Version
	if fs.APIVersion != expectedAPIVersion {
		return nil, fmt.Errorf("unsupported apiVersion: %s (expected: %s)", fs.APIVersion, expectedAPIVersion)
	}
	if fs.Kind != v1alpha1.FixtureSetKind {
		return nil, fmt.Errorf("unsupported kind: %s (expected: %s)", fs.Kind, v1alpha1.FixtureSetKind)
	}

	applyDefaults(&fs)

	if err := validateSpec(&fs); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &fs, nil
}

// SaveToFile saves a FixtureSet, including its status, to a YAML file.
func SaveToFile(fs *v1alpha1.FixtureSet, path string) error {
	v1alpha1.SetDefaultAPIVersion(fs)

	data, err := yaml.Marshal(fs)
	if err != nil {
		return fmt.Errorf("failed to marshal fixture set to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}

// applyDefaults fills omitted descriptors and descriptor fields.
func applyDefaults(fs *v1alpha1.FixtureSet) {
	fs.EnsureIdentity()

	for i := range fs.Spec.Resources {
		r := &fs.Spec.Resources[i]
		switch r.Kind {
		case v1alpha1.KindDomain:
			if r.Domain == nil {
				r.Domain = &v1alpha1.DomainSpec{}
			}
			r.Domain.ApplyDefaults()
		case v1alpha1.KindStoragePool:
			if r.StoragePool == nil {
				r.StoragePool = &v1alpha1.StoragePoolSpec{}
			}
			// Path stays empty so the harness pool path applies
			if r.StoragePool.Type == "" {
				r.StoragePool.Type = v1alpha1.DefaultPoolType
			}
		case v1alpha1.KindStorageVol:
			if r.StorageVol != nil {
				r.StorageVol.ApplyDefaults()
			}
		case v1alpha1.KindNetwork:
			if r.Network == nil {
				r.Network = &v1alpha1.NetworkSpec{}
			}
			r.Network.ApplyDefaults()
		case v1alpha1.KindInterface:
			if r.Interface == nil {
				r.Interface = &v1alpha1.InterfaceSpec{}
			}
		}
	}
}

// validateSpec checks every resource and the references between them.
func validateSpec(fs *v1alpha1.FixtureSet) error {
	if fs.Name == "" {
		return fmt.Errorf("metadata.name is required")
	}
	if len(fs.Spec.Resources) == 0 {
		return fmt.Errorf("spec.resources must have at least one resource")
	}

	seen := make(map[string]bool)
	for i := range fs.Spec.Resources {
		r := &fs.Spec.Resources[i]
		if err := r.Validate(); err != nil {
			return fmt.Errorf("spec.resources[%d]: %w", i, err)
		}
		if err := naming.ValidateShort(r.Name); err != nil {
			return fmt.Errorf("spec.resources[%d]: %w", i, err)
		}
		if err := validateDescriptor(r); err != nil {
			return fmt.Errorf("spec.resources[%d]: %w", i, err)
		}

		key := string(r.Kind) + "/" + r.Name
		if seen[key] {
			return fmt.Errorf("spec.resources[%d]: %s %q is duplicated", i, r.Kind, r.Name)
		}
		seen[key] = true

		// Volumes need an active pool declared before them
		if r.Kind == v1alpha1.KindStorageVol {
			pool := fs.Pool(r.StorageVol.Pool)
			if pool == nil || !seen[string(v1alpha1.KindStoragePool)+"/"+pool.Name] {
				return fmt.Errorf("spec.resources[%d]: storageVol.pool %q must name a StoragePool declared earlier", i, r.StorageVol.Pool)
			}
			if pool.EffectiveMode() == v1alpha1.ModePersistent && !pool.Activate {
				return fmt.Errorf("spec.resources[%d]: storage pool %q must be transient or set activate: true to hold volumes", i, pool.Name)
			}
		}
	}

	return nil
}

func validateDescriptor(r *v1alpha1.ResourceSpec) error {
	switch r.Kind {
	case v1alpha1.KindDomain:
		return r.Domain.Validate()
	case v1alpha1.KindStoragePool:
		pool := *r.StoragePool
		pool.ApplyDefaults()
		return pool.Validate()
	case v1alpha1.KindNetwork:
		return r.Network.Validate()
	}
	return nil
}
