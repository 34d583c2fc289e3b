// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a mutation target is absent from the local mirror
	ErrNotFound = errors.New("inventory item not found")
	// ErrInvalidItem wraps every validation failure
	ErrInvalidItem = errors.New("invalid inventory item")
	// ErrRemoteWrite marks a write the authoritative store rejected or never received
	ErrRemoteWrite = errors.New("remote write failed")
	// ErrRemoteUnavailable is returned by stores that have no connection at all
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	// ErrInvalidTransfer wraps transfer validation failures
	ErrInvalidTransfer = errors.New("invalid transfer")
)

// MutationOp names the operation a MutationError came from
type MutationOp string

const (
	OpCreate       MutationOp = "create"
	OpUpdate       MutationOp = "update"
	OpDelete       MutationOp = "delete"
	OpReorderStock MutationOp = "reorder_stock"
	OpImport       MutationOp = "import"
	OpTransfer     MutationOp = "transfer"
)

// MutationError reports a mutation whose remote write failed after the local
// mirror already accepted the change. The data is retained locally.
type MutationError struct {
	Op     MutationOp
	ItemID string
	Err    error
}

func (e *MutationError) Error() string {
	if e.ItemID == "" {
		return fmt.Sprintf("%s: %v (kept locally)", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v (kept locally)", e.Op, e.ItemID, e.Err)
}

func (e *MutationError) Unwrap() []error {
	return []error{ErrRemoteWrite, e.Err}
}

// IsPartialSuccess reports whether err describes a change that reached the
// local mirror but not the remote store.
func IsPartialSuccess(err error) bool {
	var me *MutationError
	return errors.As(err, &me)
}
