package types

// DispatchClass tells the executive how a call counts against block limits
// and fees.
type DispatchClass uint8

const (
	// DispatchNormal calls are user transactions.
	DispatchNormal DispatchClass = iota
	// DispatchOperational calls are privileged and may use the whole block.
	DispatchOperational
	// DispatchMandatory calls are inherents; they are always included.
	DispatchMandatory
)

// DispatchInfo is the static cost declaration of a decoded call.
type DispatchInfo struct {
	Weight  Weight        `json:"weight"`
	Class   DispatchClass `json:"class"`
	PaysFee bool          `json:"pays_fee"`
}

// ApplyResult reports an included extrinsic. Err is the module-level
// failure, if any; the extrinsic is included either way.
type ApplyResult struct {
	Index uint32         `json:"index"`
	Info  DispatchInfo   `json:"info"`
	Fee   Balance        `json:"fee"`
	Err   *DispatchError `json:"err,omitempty"`
}

// Ok reports whether the call itself succeeded.
func (r ApplyResult) Ok() bool { return r.Err == nil }
