package fixture

import (
	"github.com/go-logr/logr"

	"github.com/jbweber/testbed/api/v1alpha1"
)

// teardownStep is one attempt-and-ignore step of a reaper. On success the
// handle advances through phases when the lifecycle allows it.
type teardownStep[T any] struct {
	name   string
	run    func(obj T) error
	phases []v1alpha1.Phase
}

// steps returns the reaper sequence for the handle's kind:
// destroy then undefine, or delete for volumes.
func (h *Handle[T]) steps() []teardownStep[T] {
	var steps []teardownStep[T]

	if h.b.destroy != nil {
		phases := []v1alpha1.Phase{v1alpha1.PhaseDeactivating, v1alpha1.PhaseDefined}
		if h.mode == v1alpha1.ModeTransient {
			phases = []v1alpha1.Phase{v1alpha1.PhaseDestroying, v1alpha1.PhaseUndefined}
		}
		steps = append(steps, teardownStep[T]{name: "destroy", run: h.b.destroy, phases: phases})
	}
	if h.b.undefine != nil {
		steps = append(steps, teardownStep[T]{
			name:   "undefine",
			run:    h.b.undefine,
			phases: []v1alpha1.Phase{v1alpha1.PhaseUndefining, v1alpha1.PhaseUndefined},
		})
	}
	if h.b.remove != nil {
		steps = append(steps, teardownStep[T]{
			name:   "delete",
			run:    h.b.remove,
			phases: []v1alpha1.Phase{v1alpha1.PhaseDeleting, v1alpha1.PhaseUndefined},
		})
	}

	return steps
}

// reap tears the resource down and releases the handle. Step failures are
// logged at V(1) and dropped; only a failed release is returned.
func (h *Handle[T]) reap(log logr.Logger) error {
	if h.Released() {
		return &ReleaseError{Kind: h.kind, Name: h.name, Err: ErrReleased}
	}
	log = log.WithValues("kind", h.kind, "name", h.name)

	for _, step := range h.steps() {
		if err := step.run(h.obj); err != nil {
			stepErr := &TeardownStepError{Kind: h.kind, Name: h.name, Step: step.name, Err: err}
			log.V(1).Info("teardown step failed, continuing", "step", step.name, "error", stepErr.Error())
			continue
		}
		h.advance(step.phases...)
	}

	if err := h.Release(); err != nil {
		return err
	}
	log.V(1).Info("reaped resource")
	return nil
}
