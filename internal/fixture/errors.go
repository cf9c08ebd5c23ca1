package fixture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jbweber/testbed/api/v1alpha1"
	testbedlibvirt "github.com/jbweber/testbed/internal/libvirt"
)

var (
	// ErrNotFound is returned by the Lookup methods when no resource has
	// the requested name.
	ErrNotFound = errors.New("resource not found")

	// ErrReleased is returned when a handle is released or reaped twice.
	ErrReleased = errors.New("handle already released")

	// ErrSessionClosed is returned when a closed harness is used.
	ErrSessionClosed = testbedlibvirt.ErrSessionClosed

	// ErrUnsupported is returned for operations a kind does not have, such
	// as activating a volume or creating a transient interface.
	ErrUnsupported = errors.New("operation not supported for resource kind")
)

// LookupError reports a lookup that failed for a reason other than absence.
type LookupError struct {
	Kind    v1alpha1.ResourceKind
	Name    string
	Code    uint32
	Message string
	Err     error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %s %s failed with code %d, message: %s", e.Kind, e.Name, e.Code, e.Message)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// BuildError reports a failed define, create or activate call.
type BuildError struct {
	Kind    v1alpha1.ResourceKind
	Name    string
	Op      string
	Code    uint32
	Message string
	Err     error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s %s %s failed with code %d, message: %s", e.Op, e.Kind, e.Name, e.Code, e.Message)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// TeardownStepError is a failed destroy, undefine or delete step. Reapers
// log it and continue.
type TeardownStepError struct {
	Kind v1alpha1.ResourceKind
	Name string
	Step string
	Err  error
}

func (e *TeardownStepError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Step, e.Kind, e.Name, e.Err)
}

func (e *TeardownStepError) Unwrap() error {
	return e.Err
}

// ReleaseError reports a handle that could not be released.
type ReleaseError struct {
	Kind v1alpha1.ResourceKind
	Name string
	Err  error
}

func (e *ReleaseError) Error() string {
	return fmt.Sprintf("release %s %s: %v", e.Kind, e.Name, e.Err)
}

func (e *ReleaseError) Unwrap() error {
	return e.Err
}

// LeakError lists handles still outstanding when the harness closed.
type LeakError struct {
	Names []string
}

func (e *LeakError) Error() string {
	return fmt.Sprintf("%d resource handle(s) not released: %s", len(e.Names), strings.Join(e.Names, ", "))
}

func newLookupError(kind v1alpha1.ResourceKind, name string, err error) *LookupError {
	code, msg := testbedlibvirt.ErrorDetail(err)
	return &LookupError{Kind: kind, Name: name, Code: code, Message: msg, Err: err}
}

func newBuildError(kind v1alpha1.ResourceKind, name, op string, err error) *BuildError {
	code, msg := testbedlibvirt.ErrorDetail(err)
	return &BuildError{Kind: kind, Name: name, Op: op, Code: code, Message: msg, Err: err}
}
