package status

import (
	"github.com/jbweber/testbed/api/v1alpha1"
)

// SetPhase records phase for the resource kind/name on the fixture set.
// LastTransitionTime only moves when the phase changes.
func SetPhase(fs *v1alpha1.FixtureSet, kind v1alpha1.ResourceKind, name string, phase v1alpha1.Phase, message string) {
	now := v1alpha1.Now()

	if existing := GetResource(fs, kind, name); existing != nil {
		if existing.Phase != phase {
			existing.LastTransitionTime = now
		}
		existing.Phase = phase
		existing.Message = message
		return
	}

	fs.Status.Resources = append(fs.Status.Resources, v1alpha1.ResourceStatus{
		Kind:               kind,
		Name:               name,
		Phase:              phase,
		Message:            message,
		LastTransitionTime: now,
	})
}

// GetResource returns the status of kind/name, or nil if not recorded.
func GetResource(fs *v1alpha1.FixtureSet, kind v1alpha1.ResourceKind, name string) *v1alpha1.ResourceStatus {
	for i := range fs.Status.Resources {
		if fs.Status.Resources[i].Kind == kind && fs.Status.Resources[i].Name == name {
			return &fs.Status.Resources[i]
		}
	}
	return nil
}

// RemoveResource drops the status of kind/name.
func RemoveResource(fs *v1alpha1.FixtureSet, kind v1alpha1.ResourceKind, name string) {
	filtered := make([]v1alpha1.ResourceStatus, 0, len(fs.Status.Resources))
	for _, r := range fs.Status.Resources {
		if r.Kind != kind || r.Name != name {
			filtered = append(filtered, r)
		}
	}
	fs.Status.Resources = filtered
}

// MarkFailed records the Failed phase with the error as message.
func MarkFailed(fs *v1alpha1.FixtureSet, kind v1alpha1.ResourceKind, name string, err error) {
	SetPhase(fs, kind, name, v1alpha1.PhaseFailed, err.Error())
}

// Ready reports whether every recorded resource is Defined or Active.
func Ready(fs *v1alpha1.FixtureSet) bool {
	for _, r := range fs.Status.Resources {
		if r.Phase != v1alpha1.PhaseActive && r.Phase != v1alpha1.PhaseDefined {
			return false
		}
	}
	return true
}
