package fees

import (
	"github.com/tendermint/executive/config"
	tmmath "github.com/tendermint/executive/libs/math"
	"github.com/tendermint/executive/types"
)

// Schedule computes transaction fees:
//
//	fee = base + byte_fee * encoded_length + weight * weight_to_fee
//
// Arithmetic saturates, so an absurd transaction gets an unpayable fee
// rather than a wrapped small one.
type Schedule struct {
	BaseFee     types.Balance
	ByteFee     types.Balance
	WeightToFee types.Balance
}

// NewSchedule reads the fee constants from the runtime configuration.
func NewSchedule(cfg *config.RuntimeConfig) Schedule {
	return Schedule{
		BaseFee:     cfg.TransactionBaseFee,
		ByteFee:     cfg.TransactionByteFee,
		WeightToFee: cfg.WeightToFee,
	}
}

// Compute returns the fee for an extrinsic of length bytes declaring info.
// Calls that do not pay fees cost nothing.
func (s Schedule) Compute(length uint64, info types.DispatchInfo) types.Balance {
	if !info.PaysFee {
		return 0
	}
	fee := s.BaseFee
	fee = tmmath.SaturatingAdd(fee, tmmath.SaturatingMul(s.ByteFee, length))
	fee = tmmath.SaturatingAdd(fee, tmmath.SaturatingMul(s.WeightToFee, info.Weight))
	return fee
}
