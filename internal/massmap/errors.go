package massmap

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks an unsupported tag, a missing option or an
	// invalid combination of options. It is always fatal to the invocation.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotImplemented is returned for algorithm or projection tags that
	// are not recognised. It matches ErrConfiguration under errors.Is.
	ErrNotImplemented = fmt.Errorf("%w: not implemented", ErrConfiguration)

	// ErrShapeMismatch marks arrays whose sizes disagree with each other or
	// with the grid they claim to describe.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// ConfigErrorf formats an error that matches ErrConfiguration.
func ConfigErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// ShapeErrorf formats an error that matches ErrShapeMismatch.
func ShapeErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrShapeMismatch, fmt.Sprintf(format, args...))
}

// NotImplementedf formats an error for an unrecognised tag.
func NotImplementedf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotImplemented, fmt.Sprintf(format, args...))
}
