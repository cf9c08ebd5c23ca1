// Package status validates lifecycle phase transitions of harness resources
// and records resource status on fixture sets.
package status

import (
	"fmt"

	"github.com/jbweber/testbed/api/v1alpha1"
)

// Lifecycle is the phase graph one resource follows.
type Lifecycle struct {
	name  string
	edges map[v1alpha1.Phase][]v1alpha1.Phase
}

var (
	// Persistent resources have a definition and an optional active facet.
	Persistent = Lifecycle{
		name: "persistent",
		edges: map[v1alpha1.Phase][]v1alpha1.Phase{
			v1alpha1.PhaseUndefined:    {v1alpha1.PhaseDefining},
			v1alpha1.PhaseDefining:     {v1alpha1.PhaseDefined},
			v1alpha1.PhaseDefined:      {v1alpha1.PhaseActivating, v1alpha1.PhaseUndefining},
			v1alpha1.PhaseActivating:   {v1alpha1.PhaseActive},
			v1alpha1.PhaseActive:       {v1alpha1.PhaseDeactivating},
			v1alpha1.PhaseDeactivating: {v1alpha1.PhaseDefined},
			v1alpha1.PhaseUndefining:   {v1alpha1.PhaseUndefined},
		},
	}

	// Transient resources exist only while active.
	Transient = Lifecycle{
		name: "transient",
		edges: map[v1alpha1.Phase][]v1alpha1.Phase{
			v1alpha1.PhaseUndefined:  {v1alpha1.PhaseCreating},
			v1alpha1.PhaseCreating:   {v1alpha1.PhaseActive},
			v1alpha1.PhaseActive:     {v1alpha1.PhaseDestroying},
			v1alpha1.PhaseDestroying: {v1alpha1.PhaseUndefined},
		},
	}

	// Volume is the lifecycle of storage volumes, which are created and
	// deleted but never defined or activated.
	Volume = Lifecycle{
		name: "volume",
		edges: map[v1alpha1.Phase][]v1alpha1.Phase{
			v1alpha1.PhaseUndefined: {v1alpha1.PhaseCreating},
			v1alpha1.PhaseCreating:  {v1alpha1.PhaseActive},
			v1alpha1.PhaseActive:    {v1alpha1.PhaseDeleting},
			v1alpha1.PhaseDeleting:  {v1alpha1.PhaseUndefined},
		},
	}
)

// For returns the lifecycle of a resource of kind in mode.
func For(kind v1alpha1.ResourceKind, mode v1alpha1.PersistenceMode) Lifecycle {
	switch {
	case kind == v1alpha1.KindStorageVol:
		return Volume
	case kind == v1alpha1.KindInterface:
		return Persistent
	case mode == v1alpha1.ModeTransient:
		return Transient
	default:
		return Persistent
	}
}

func (l Lifecycle) String() string {
	return l.name
}

// CanTransition reports whether from → to is allowed. Freed is reachable
// from every phase and Failed from every phase except Freed.
func (l Lifecycle) CanTransition(from, to v1alpha1.Phase) bool {
	if IsTerminal(from) {
		return false
	}
	if to == v1alpha1.PhaseFreed || to == v1alpha1.PhaseFailed {
		return true
	}
	for _, next := range l.edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves *phase to next, leaving it unchanged on error.
func (l Lifecycle) Transition(phase *v1alpha1.Phase, next v1alpha1.Phase) error {
	if !l.CanTransition(*phase, next) {
		return fmt.Errorf("cannot transition %s resource to %s from phase %s", l.name, next, *phase)
	}
	*phase = next
	return nil
}

// IsTerminal returns true if the phase is Freed. A freed handle is never
// used again.
func IsTerminal(phase v1alpha1.Phase) bool {
	return phase == v1alpha1.PhaseFreed
}

// IsActive returns true if the resource is running.
func IsActive(phase v1alpha1.Phase) bool {
	return phase == v1alpha1.PhaseActive
}

// IsTransitioning returns true if the resource is between two stable phases.
func IsTransitioning(phase v1alpha1.Phase) bool {
	switch phase {
	case v1alpha1.PhaseDefining, v1alpha1.PhaseCreating, v1alpha1.PhaseActivating,
		v1alpha1.PhaseDeactivating, v1alpha1.PhaseDestroying, v1alpha1.PhaseUndefining,
		v1alpha1.PhaseDeleting:
		return true
	}
	return false
}
