package executive

import (
	"errors"
	"fmt"
	"time"

	"github.com/tendermint/executive/internal/modules/balances"
	"github.com/tendermint/executive/internal/modules/system"
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/internal/storage"
	tmmath "github.com/tendermint/executive/libs/math"
	"github.com/tendermint/executive/types"
)

// share of the block limits available to normal transactions; the rest is
// reserved for operational calls
const (
	normalLimitNum = 3
	normalLimitDen = 4
)

// ApplyExtrinsic decodes, authenticates, charges and dispatches one
// extrinsic in the open block.
//
// A returned error means the extrinsic was rejected and left no trace: it
// wraps types.ErrMalformed or ErrPreconditionFailed, or ErrBlockImportFatal
// if execution panicked, in which case the block was dropped. Otherwise the
// extrinsic is included and its call outcome is reported in the result.
func (e *Executive) ApplyExtrinsic(bz []byte) (types.ApplyResult, error) {
	if e.state != stateBlockOpen {
		return types.ApplyResult{}, fmt.Errorf("%w: %v", ErrWrongState, e.state)
	}
	defer func(start time.Time) {
		e.metrics.ApplyDuration.Observe(time.Since(start).Seconds())
	}(time.Now())

	var res types.ApplyResult
	mark := e.events.Len()
	err := e.protect(func() error {
		var err error
		res, err = e.applyExtrinsic(bz)
		return err
	})
	switch {
	case errors.Is(err, ErrBlockImportFatal):
		e.abort(err)
		return types.ApplyResult{}, err
	case err != nil:
		e.events.Truncate(mark)
		e.metrics.RejectedExtrinsics.With("reason", rejectReason(err)).Add(1)
		e.logger.Debug("rejected extrinsic", "height", e.ctx.Number, "err", err)
		return types.ApplyResult{}, err
	}

	if res.Err != nil {
		e.metrics.FailedExtrinsics.Add(1)
		e.logger.Debug("extrinsic failed", "height", e.ctx.Number, "index", res.Index, "err", res.Err)
	}
	e.metrics.FeesCollected.Add(float64(res.Fee))
	return res, nil
}

func (e *Executive) applyExtrinsic(bz []byte) (types.ApplyResult, error) {
	xt, err := types.DecodeExtrinsic(bz)
	if err != nil {
		return types.ApplyResult{}, err
	}
	d, err := e.registry.Resolve(xt.Call)
	if err != nil {
		return types.ApplyResult{}, err
	}
	info := d.Info()
	length := uint64(len(bz))
	index := uint32(len(e.extrinsics))

	if !xt.IsSigned() && info.Class != types.DispatchMandatory {
		return types.ApplyResult{}, fmt.Errorf("%w: call %v", ErrBadMandatory, xt.Call)
	}

	// everything below writes into a nested overlay, so a rejection
	// discards the extrinsic's writes together
	xo := storage.NewOverlay(e.overlay)
	ctx := e.ctx.WithStore(xo).WithPhase(types.ApplyExtrinsicPhase(index))

	origin := types.NoneOrigin()
	if xt.IsSigned() {
		who, err := e.checkSigned(xo, xt, ctx.Number)
		if err != nil {
			return types.ApplyResult{}, err
		}
		if nonce, expected := xt.Signature.Nonce, system.AccountNonce(xo, who); nonce != expected {
			return types.ApplyResult{}, nonceError(nonce, expected)
		}
		origin = types.SignedOrigin(who)
	}

	if err := checkLimits(e.cfg.MaximumBlockWeight, e.cfg.MaximumBlockLength, xo, info, length); err != nil {
		return types.ApplyResult{}, err
	}

	var fee types.Balance
	if xt.IsSigned() {
		fee = e.schedule.Compute(length, info)
		if err := e.chargeFee(ctx, origin.Account, fee); err != nil {
			return types.ApplyResult{}, err
		}
		system.IncAccountNonce(xo, origin.Account)
	}

	res := types.ApplyResult{
		Index: index,
		Info:  info,
		Fee:   fee,
		Err:   e.registry.Execute(ctx, xt.Call.Module, d, origin),
	}
	if res.Err != nil && info.Class == types.DispatchMandatory {
		// a block whose inherent fails is invalid
		return types.ApplyResult{}, fmt.Errorf("%w: %v", ErrBadMandatory, res.Err)
	}

	system.NoteExtrinsic(xo, info.Weight, length)
	e.system.NoteApplied(ctx, res)
	xo.Commit()
	e.extrinsics = append(e.extrinsics, bz)
	return res, nil
}

// checkSigned resolves the signer of xt and verifies its signature against
// the era checkpoint valid at block number.
func (e *Executive) checkSigned(r storage.Reader, xt types.Extrinsic, number types.BlockNumber) (types.AccountID, error) {
	sig := xt.Signature
	who, err := e.lookup.Lookup(r, sig.Signer)
	if err != nil {
		return types.AccountID{}, fmt.Errorf("%w: %v", ErrUnknownAccount, err)
	}
	checkpoint, err := eraCheckpoint(r, sig.Era, number)
	if err != nil {
		return types.AccountID{}, err
	}
	payload := types.SigningPayload(xt.Call, sig.Nonce, sig.Era, checkpoint)
	if err := sig.Signature.Verify(payload, who); err != nil {
		return types.AccountID{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return who, nil
}

// eraCheckpoint returns the hash of the block era was born at. A mortal
// extrinsic whose era has passed is born at a block it was not signed for,
// so its signature no longer verifies.
func eraCheckpoint(r storage.Reader, era types.Era, number types.BlockNumber) (types.Hash, error) {
	if era.IsImmortal() {
		return system.GenesisHash(r), nil
	}
	birth := era.Birth(number)
	h, ok := system.BlockHash(r, birth)
	if !ok {
		return types.Hash{}, fmt.Errorf("%w: block %d", ErrAncientBirthBlock, birth)
	}
	return h, nil
}

func nonceError(nonce, expected types.Nonce) error {
	if nonce < expected {
		return fmt.Errorf("%w: nonce %d, expected %d", ErrStale, nonce, expected)
	}
	return fmt.Errorf("%w: nonce %d, expected %d", ErrFuture, nonce, expected)
}

// checkLimits rejects an extrinsic that would push the block over its
// weight or length limit. Inherents are always admitted.
func checkLimits(maxWeight types.Weight, maxLength uint64, r storage.Reader, info types.DispatchInfo, length uint64) error {
	switch info.Class {
	case types.DispatchMandatory:
		return nil
	case types.DispatchNormal:
		maxWeight = maxWeight / normalLimitDen * normalLimitNum
		maxLength = maxLength / normalLimitDen * normalLimitNum
	}
	if w, ok := tmmath.SafeAdd(system.AllExtrinsicsWeight(r), info.Weight); !ok || w > maxWeight {
		return fmt.Errorf("%w: weight %d over limit %d", ErrExhaustsResources, info.Weight, maxWeight)
	}
	if l, ok := tmmath.SafeAdd(system.AllExtrinsicsLen(r), length); !ok || l > maxLength {
		return fmt.Errorf("%w: length %d over limit %d", ErrExhaustsResources, length, maxLength)
	}
	return nil
}

// chargeFee withdraws fee from who and distributes it. The sender is kept
// alive so fees can never reap an account.
func (e *Executive) chargeFee(ctx *registry.Context, who types.AccountID, fee types.Balance) error {
	if fee == 0 {
		return nil
	}
	imb, err := e.currency.Withdraw(ctx, who, fee, balances.KeepAlive)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCannotPay, err)
	}
	e.splitter.Distribute(ctx, imb)
	return nil
}
