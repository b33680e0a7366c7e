package puppet

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported matches every error returned for an operation the
	// injected agent does not implement.
	ErrUnsupported = errors.New("operation not supported by sidecar")

	// ErrNotLoggedIn is returned by Logout on a puppet without a self id.
	ErrNotLoggedIn = errors.New("puppet is not logged in")
)

// UnsupportedError names the operation the agent lacks.
type UnsupportedError struct {
	Operation string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, ErrUnsupported.Error())
}

func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

// IsUnsupported reports whether err is an unsupported operation error.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}
