package sra

import (
	"errors"
	"fmt"
)

// Kind classifies an accession failure. Only Network failures are worth
// retrying; everything else is terminal for the accession.
type Kind int

const (
	// NotFound means the archive has no data for the accession.
	NotFound Kind = iota
	// Network is a transient transport failure (retryable).
	Network
	// Tool means an external utility exited non-zero for a reason other
	// than the above.
	Tool
	// EmptyResult means pairing completed but zero mate pairs remained.
	EmptyResult
	// IO is a local read/write failure.
	IO
	// Canceled means the run was interrupted by the caller.
	Canceled
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Network:
		return "network error"
	case Tool:
		return "tool failure"
	case EmptyResult:
		return "empty result"
	case IO:
		return "io error"
	case Canceled:
		return "canceled"
	}
	return "unknown"
}

// Retryable reports whether a failure of this kind may succeed on retry.
func (k Kind) Retryable() bool {
	return k == Network
}

// Error is the failure type every Retriever operation returns. It carries
// the kind, the operation that failed, and the wrapped cause.
type Error struct {
	Kind      Kind
	Op        string
	Accession string
	Err       error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Accession, e.Kind)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Accession, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from err, or Tool when err is not an *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return Tool
}
