package executive

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/tendermint/executive/internal/modules/balances"
	"github.com/tendermint/executive/internal/modules/system"
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/types"
)

// ValidateTransaction checks whether bz could be included in the next
// block, for transaction pool admission. It runs against a throwaway view
// of the committed state and never mutates it. A valid verdict is no
// guarantee of later inclusion: balances and nonces may change meanwhile.
func (e *Executive) ValidateTransaction(bz []byte) (validity types.TransactionValidity) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic validating transaction", "err", r)
			validity = unknown(fmt.Errorf("panic: %v", r))
		}
	}()

	xt, err := types.DecodeExtrinsic(bz)
	if err != nil {
		return invalid(err)
	}
	d, err := e.registry.Resolve(xt.Call)
	if err != nil {
		return invalid(err)
	}
	if !xt.IsSigned() {
		return invalid(errors.New("unsigned transactions are not accepted"))
	}
	info := d.Info()
	length := uint64(len(bz))

	// validate as the first extrinsic of the next block
	height, hash, err := e.Head()
	if err != nil {
		return unknown(err)
	}
	number := height + 1
	view := storage.NewOverlay(e.store)
	e.system.Initialize(view, types.Header{Number: number, ParentHash: hash})
	ctx := registry.NewContext(e.registry, view, &registry.EventLog{}, number, e.cfg.MaxCallDepth, e.logger).
		WithPhase(types.ApplyExtrinsicPhase(0))

	sig := xt.Signature
	who, err := e.checkSigned(view, xt, number)
	switch {
	case errors.Is(err, ErrUnknownAccount):
		// the address may refer to an index not assigned yet
		return unknown(err)
	case err != nil:
		return invalid(err)
	}

	expected := system.AccountNonce(view, who)
	if sig.Nonce < expected {
		return invalid(nonceError(sig.Nonce, expected))
	}
	if err := checkLimits(e.cfg.MaximumBlockWeight, e.cfg.MaximumBlockLength, view, info, length); err != nil {
		return invalid(err)
	}

	fee := e.schedule.Compute(length, info)
	if fee > 0 {
		imb, err := e.currency.Withdraw(ctx, who, fee, balances.KeepAlive)
		if err != nil {
			return invalid(fmt.Errorf("%w: %v", ErrCannotPay, err))
		}
		imb.Take()
	}

	valid := &types.ValidTransaction{
		Priority:  fee,
		Provides:  []types.TransactionTag{types.NonceTag(who, sig.Nonce)},
		Longevity: longevity(sig.Era, number),
		Propagate: true,
	}
	if sig.Nonce > expected {
		valid.Requires = []types.TransactionTag{types.NonceTag(who, sig.Nonce-1)}
	}
	return types.TransactionValidity{Kind: types.ValidityValid, Valid: valid}
}

// longevity is the number of blocks an extrinsic stays valid for, counted
// from number.
func longevity(era types.Era, number types.BlockNumber) uint64 {
	if era.IsImmortal() {
		return math.MaxUint64
	}
	return era.Death(number) - number
}

func invalid(err error) types.TransactionValidity {
	return types.TransactionValidity{Kind: types.ValidityInvalid, Reason: err.Error()}
}

func unknown(err error) types.TransactionValidity {
	return types.TransactionValidity{Kind: types.ValidityUnknown, Reason: err.Error()}
}

// InherentExtrinsics builds the inherent extrinsics for the open block from
// the author's inherent data, in registration order.
func (e *Executive) InherentExtrinsics(data *types.InherentData) ([][]byte, error) {
	var out [][]byte
	r := e.reader()
	for _, p := range e.registry.InherentProviders() {
		call, err := p.CreateInherent(r, data)
		if err != nil {
			return nil, fmt.Errorf("create inherent %s: %w", p.InherentIdentifier(), err)
		}
		if call != nil {
			out = append(out, types.NewInherent(*call).Bytes())
		}
	}
	return out, nil
}

// CheckInherents checks the inherents of block against the local inherent
// data. Inherents are checked against the committed state the block builds
// on. Every failed check is fatal to the block.
func (e *Executive) CheckInherents(block *types.Block, data *types.InherentData) *types.CheckInherentsResult {
	res := types.NewCheckInherentsResult()
	providers := e.registry.InherentProviders()
	for _, bz := range block.Extrinsics {
		xt, err := types.DecodeExtrinsic(bz)
		if err != nil {
			// reported by execution
			continue
		}
		if xt.IsSigned() {
			// inherents come first
			break
		}
		for _, p := range providers {
			if !p.IsInherent(xt.Call) {
				continue
			}
			if err := p.CheckInherent(e.store, xt.Call, data); err != nil {
				res.PutError(p.InherentIdentifier(), err, true)
			}
		}
	}
	return res
}

// OffchainWorker runs the offchain logic of every module after block number
// was imported. Workers read the committed state and run concurrently; their
// only effect is submitting calls signed by local. submit must be safe for
// concurrent use.
func (e *Executive) OffchainWorker(
	ctx context.Context,
	number types.BlockNumber,
	local types.AccountID,
	submit func(call types.Call) error,
) error {
	oc := &registry.OffchainContext{
		State:  e.store.ReadOnly(),
		Number: number,
		Local:  local,
		Submit: submit,
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range e.registry.OffchainWorkers() {
		w := w
		g.Go(func() error {
			return w.OffchainWorker(ctx, oc)
		})
	}
	return g.Wait()
}
