package vkframe

import (
	"fmt"

	"github.com/pkg/errors"
)

// constError is an error that can be declared as a constant.
type constError string

func (e constError) Error() string { return string(e) }

const (
	// ErrNotFound reports a lookup of a handle that was never issued or has
	// been removed.
	ErrNotFound = constError("handle not found")
	// ErrInvalidState reports a call made in a frame state that does not
	// allow it.
	ErrInvalidState = constError("call not valid in the current frame state")
	// ErrNoColorTargets reports a render scope without color targets.
	ErrNoColorTargets = constError("at least one color target is required")
	// ErrIncompatiblePipeline reports a pipeline whose attachment formats do
	// not match the active render scope.
	ErrIncompatiblePipeline = constError("pipeline attachment formats do not match the render scope")
	// ErrInvalidDescription reports a resource description that failed
	// validation.
	ErrInvalidDescription = constError("invalid resource description")
	// ErrUnsupportedFormat reports a format lacking a required feature.
	ErrUnsupportedFormat = constError("format not supported")
	// ErrDeviceTimeout reports a bounded device wait that expired.
	ErrDeviceTimeout = constError("device wait timed out")
	// ErrClosed reports a call on a closed Renderer.
	ErrClosed = constError("renderer closed")
)

// Kind classifies a failure by what the caller can do about it.
type Kind int

const (
	// KindProgrammer is a misuse of the API, such as drawing outside a
	// render scope or using an unknown handle. Nothing was changed.
	KindProgrammer Kind = iota + 1
	// KindTransient is a surface condition recovered by a rebuild. It is
	// reported in logs and statistics, never returned.
	KindTransient
	// KindCreation is a failure to create a resource. Nothing was
	// registered.
	KindCreation
	// KindFatal is a device failure. The Renderer is unusable afterwards.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindProgrammer:
		return "programmer error"
	case KindTransient:
		return "transient device condition"
	case KindCreation:
		return "resource creation failure"
	case KindFatal:
		return "fatal device error"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned by Renderer methods.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("vkframe: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func programmerError(op string, err error) error {
	return &Error{Kind: KindProgrammer, Op: op, Err: err}
}

func creationError(op string, err error) error {
	return &Error{Kind: KindCreation, Op: op, Err: err}
}

func fatalError(op string, err error) error {
	return &Error{Kind: KindFatal, Op: op, Err: err}
}

func kindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsProgrammerError reports whether err is a misuse of the API.
func IsProgrammerError(err error) bool { return kindOf(err) == KindProgrammer }

// IsCreationFailure reports whether err is a failure to create a resource.
func IsCreationFailure(err error) bool { return kindOf(err) == KindCreation }

// IsFatal reports whether err left the Renderer unusable.
func IsFatal(err error) bool { return kindOf(err) == KindFatal }
