package treesync

import (
	"errors"
	"fmt"
)

var (
	ErrRootProtected   = errors.New("root protected")
	ErrPersist         = errors.New("persist failed")
	ErrPersistInFlight = errors.New("persist already in flight")
	ErrCycle           = errors.New("move would create a cycle")
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// RootProtectedError is returned when deleting the main node while other nodes exist.
type RootProtectedError struct {
	NodeID string
	Others int
}

func (e RootProtectedError) Error() string {
	return fmt.Sprintf("node %s is the main node and %d other node(s) still exist", e.NodeID, e.Others)
}

func (e RootProtectedError) Unwrap() error { return ErrRootProtected }

// PersistError wraps a failed replace-all transaction. Nothing was written.
type PersistError struct {
	DocumentID string
	Err        error
}

func (e PersistError) Error() string {
	return fmt.Sprintf("persist document %s: %v", e.DocumentID, e.Err)
}

func (e PersistError) Unwrap() []error { return []error{ErrPersist, e.Err} }
