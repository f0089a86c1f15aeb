// Package currency converts between economic balances and the bounded vote
// weights used by elections.
package currency

import (
	"math"

	"github.com/tendermint/executive/internal/storage"
	tmmath "github.com/tendermint/executive/libs/math"
	"github.com/tendermint/executive/types"
)

// IssuanceSource reports the current total issuance.
type IssuanceSource interface {
	TotalIssuance(r storage.Reader) types.Balance
}

// Converter scales balances into [0, MaxNarrow] by
//
//	factor = max(1, total_issuance / MaxNarrow)
//
// The factor is recomputed from the current issuance on every call.
// Narrowing is lossy, so Widen(Narrow(x)) may be less than x.
type Converter struct {
	source    IssuanceSource
	maxNarrow uint64
}

// NewConverter returns a converter into [0, maxNarrow]. maxNarrow must be
// positive.
func NewConverter(source IssuanceSource, maxNarrow uint64) Converter {
	if maxNarrow == 0 {
		panic("currency: maxNarrow must be positive")
	}
	return Converter{source: source, maxNarrow: maxNarrow}
}

// NewVoteConverter returns a converter into types.VoteWeight.
func NewVoteConverter(source IssuanceSource) Converter {
	return NewConverter(source, math.MaxUint32)
}

// Factor returns the current scale factor. It is always at least 1.
func (c Converter) Factor(r storage.Reader) uint64 {
	f := c.source.TotalIssuance(r) / c.maxNarrow
	if f < 1 {
		return 1
	}
	return f
}

// Narrow scales x down. The result never exceeds MaxNarrow, even for
// balances above the total issuance.
func (c Converter) Narrow(r storage.Reader, x types.Balance) uint64 {
	v := x / c.Factor(r)
	if v > c.maxNarrow {
		return c.maxNarrow
	}
	return v
}

// Widen scales y back up, saturating at the largest balance.
func (c Converter) Widen(r storage.Reader, y uint64) types.Balance {
	return tmmath.SaturatingMul(y, c.Factor(r))
}

// ToVote narrows x into a vote weight. It is only meaningful for converters
// built with NewVoteConverter.
func (c Converter) ToVote(r storage.Reader, x types.Balance) types.VoteWeight {
	return tmmath.SafeConvertUint32(c.Narrow(r, x))
}
