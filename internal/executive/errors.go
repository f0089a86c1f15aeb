package executive

import (
	"errors"
	"fmt"
)

var (
	// ErrPreconditionFailed is wrapped by every rejection that happens
	// before dispatch. Rejected extrinsics leave no trace in state.
	ErrPreconditionFailed = errors.New("precondition failed")

	ErrBadSignature      = fmt.Errorf("%w: bad signature", ErrPreconditionFailed)
	ErrStale             = fmt.Errorf("%w: stale", ErrPreconditionFailed)
	ErrFuture            = fmt.Errorf("%w: future", ErrPreconditionFailed)
	ErrCannotPay         = fmt.Errorf("%w: cannot pay fee", ErrPreconditionFailed)
	ErrExhaustsResources = fmt.Errorf("%w: exhausts block resources", ErrPreconditionFailed)
	ErrAncientBirthBlock = fmt.Errorf("%w: ancient birth block", ErrPreconditionFailed)
	ErrUnknownAccount    = fmt.Errorf("%w: unknown account", ErrPreconditionFailed)
	ErrBadMandatory      = fmt.Errorf("%w: unsigned extrinsic is not an inherent", ErrPreconditionFailed)

	// ErrBlockImportFatal aborts a whole block. The host must discard the
	// block's writes and not advance its head.
	ErrBlockImportFatal = errors.New("block import fatal")

	// ErrWrongState is returned when an entrypoint is called out of order,
	// e.g. ApplyExtrinsic before InitializeBlock.
	ErrWrongState = errors.New("executive in wrong state")
)

// ErrWrongLinkage is returned when a header does not extend the last
// committed block.
type ErrWrongLinkage struct {
	Reason string
}

func (e ErrWrongLinkage) Error() string {
	return fmt.Sprintf("wrong block linkage: %s", e.Reason)
}

// ErrRootMismatch is returned by ExecuteBlock when a root computed while
// executing differs from the one in the header.
type ErrRootMismatch struct {
	Root     string
	Expected []byte
	Got      []byte
}

func (e ErrRootMismatch) Error() string {
	return fmt.Sprintf("wrong %s root. Expected %X, got %X", e.Root, e.Expected, e.Got)
}

// fatalError matches ErrBlockImportFatal and unwraps to its cause.
type fatalError struct {
	cause error
}

func (e fatalError) Error() string {
	return fmt.Sprintf("%v: %v", ErrBlockImportFatal, e.cause)
}

func (e fatalError) Unwrap() error { return e.cause }

func (e fatalError) Is(target error) bool { return target == ErrBlockImportFatal }

// fatal wraps err so that it matches ErrBlockImportFatal.
func fatal(err error) error {
	if errors.Is(err, ErrBlockImportFatal) {
		return err
	}
	return fatalError{cause: err}
}

// rejectReason is the metrics label of a rejected extrinsic.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrStale):
		return "stale"
	case errors.Is(err, ErrFuture):
		return "future"
	case errors.Is(err, ErrCannotPay):
		return "cannot_pay"
	case errors.Is(err, ErrExhaustsResources):
		return "exhausts_resources"
	case errors.Is(err, ErrAncientBirthBlock):
		return "ancient_birth_block"
	case errors.Is(err, ErrUnknownAccount):
		return "unknown_account"
	case errors.Is(err, ErrPreconditionFailed):
		return "precondition"
	default:
		return "malformed"
	}
}
