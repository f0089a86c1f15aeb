package types

import (
	"errors"
	"fmt"
)

// ErrBadOrigin is returned by a call dispatched with an origin it does not
// accept.
var ErrBadOrigin = errors.New("bad origin")

// ModuleError is a business-rule failure declared by a module. Code is the
// position of the error in the module's error list and is stable. Module is
// the declaring module's name, which the registry maps back to its index.
type ModuleError struct {
	Module  string `json:"module"`
	Code    uint8  `json:"code"`
	Message string `json:"message"`
}

// NewModuleError declares a module error. Modules keep the returned values
// as package-level sentinels.
func NewModuleError(module string, code uint8, msg string) *ModuleError {
	return &ModuleError{Module: module, Code: code, Message: msg}
}

func (e *ModuleError) Error() string { return e.Message }

// DispatchErrorKind classifies a DispatchError.
type DispatchErrorKind uint8

const (
	DispatchErrorOther DispatchErrorKind = iota
	DispatchErrorBadOrigin
	DispatchErrorModule
)

// DispatchError is the Err side of a DispatchResult: a call was included but
// stopped at a module-level failure.
type DispatchError struct {
	Kind    DispatchErrorKind `json:"kind"`
	Module  uint8             `json:"module"`
	Code    uint8             `json:"code"`
	Message string            `json:"message"`

	Cause error `json:"-"`
}

// NewDispatchError classifies err as returned by the module at index module.
// A nil err yields nil.
func NewDispatchError(module uint8, err error) *DispatchError {
	if err == nil {
		return nil
	}

	var de *DispatchError
	if errors.As(err, &de) {
		// already classified by a nested dispatch
		return de
	}

	out := &DispatchError{Module: module, Message: err.Error(), Cause: err}
	var me *ModuleError
	switch {
	case errors.Is(err, ErrBadOrigin):
		out.Kind = DispatchErrorBadOrigin
	case errors.As(err, &me):
		out.Kind = DispatchErrorModule
		out.Code = me.Code
	default:
		out.Kind = DispatchErrorOther
	}
	return out
}

func (e *DispatchError) Error() string {
	switch e.Kind {
	case DispatchErrorBadOrigin:
		return fmt.Sprintf("dispatch error (module %d): %s", e.Module, e.Message)
	case DispatchErrorModule:
		return fmt.Sprintf("dispatch error (module %d, code %d): %s", e.Module, e.Code, e.Message)
	default:
		return fmt.Sprintf("dispatch error: %s", e.Message)
	}
}

func (e *DispatchError) Unwrap() error { return e.Cause }
