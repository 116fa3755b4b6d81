package pipeline

import (
	"errors"
	"fmt"
)

// ErrInvalidTarget is returned when a branch or jump resolves to an address
// that is misaligned or below the code base.
var ErrInvalidTarget = errors.New("invalid branch target")

// TargetFault describes a control transfer to an invalid address.
type TargetFault struct {
	PC     int
	Target int
}

// Error implements the error interface.
func (f *TargetFault) Error() string {
	return fmt.Sprintf("branch at pc %d: target %d: %v", f.PC, f.Target, ErrInvalidTarget)
}

// Unwrap returns ErrInvalidTarget.
func (f *TargetFault) Unwrap() error {
	return ErrInvalidTarget
}

// StallReason identifies why decode could not dispatch this cycle.
type StallReason uint8

// Stall reasons.
const (
	StallNone StallReason = iota
	StallIQFull
	StallROBFull
	StallNoFreeRegister
	StallBranchPending
)

// String returns a short description of the stall reason.
func (r StallReason) String() string {
	switch r {
	case StallIQFull:
		return "issue queue full"
	case StallROBFull:
		return "reorder buffer full"
	case StallNoFreeRegister:
		return "no free physical register"
	case StallBranchPending:
		return "branch pending"
	default:
		return "none"
	}
}
