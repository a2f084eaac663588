package mutator

import (
	"errors"
	"fmt"
)

var (
	// ErrStructureMismatch is returned when a path walk meets a node that is
	// not a mapping where a mapping is required.
	ErrStructureMismatch = errors.New("structure mismatch: not a mapping")

	// ErrKeyNotFound is returned by Lookup when a key on the path is absent.
	ErrKeyNotFound = errors.New("key not found")
)

// IOError reports a failed read or write of a configuration artifact.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
