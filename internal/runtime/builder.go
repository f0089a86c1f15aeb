package runtime

import (
	"errors"
	"fmt"

	"github.com/tendermint/executive/internal/executive"
	"github.com/tendermint/executive/internal/modules/aura"
	"github.com/tendermint/executive/types"
)

// BuildResult is the outcome of authoring a block.
type BuildResult struct {
	Block *types.Block
	// Results of the included extrinsics, inherents first.
	Results []types.ApplyResult
	// Rejected maps the position of a transaction that was left out to the
	// reason.
	Rejected map[int]error
}

// ProduceBlock authors and commits the next block. The block time is taken
// from the timestamp inherent in data and fixes the aura slot. Transactions
// that are rejected are left out of the block.
func (rt *Runtime) ProduceBlock(data *types.InherentData, txs [][]byte) (*BuildResult, error) {
	now, ok, err := data.GetUint64(types.TimestampInherent)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("inherent data has no %s", types.TimestampInherent)
	}

	ex := rt.Executive
	height, parent, err := ex.Head()
	if err != nil {
		return nil, err
	}
	header := types.Header{Number: height + 1, ParentHash: parent}
	header.Digest.Push(aura.PreDigest(now / rt.Aura.SlotDuration()))
	if err := ex.InitializeBlock(header); err != nil {
		return nil, err
	}

	inherents, err := ex.InherentExtrinsics(data)
	if err != nil {
		ex.Discard()
		return nil, err
	}

	res := &BuildResult{Rejected: make(map[int]error)}
	for i, bz := range inherents {
		r, err := ex.ApplyExtrinsic(bz)
		if err != nil {
			ex.Discard()
			return nil, fmt.Errorf("inherent %d: %w", i, err)
		}
		res.Results = append(res.Results, r)
	}
	for i, bz := range txs {
		r, err := ex.ApplyExtrinsic(bz)
		switch {
		case errors.Is(err, executive.ErrBlockImportFatal):
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		case err != nil:
			res.Rejected[i] = err
			continue
		}
		res.Results = append(res.Results, r)
	}

	if _, err := ex.FinalizeBlock(); err != nil {
		return nil, err
	}
	res.Block, err = ex.Commit()
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ImportBlock checks the inherents of a block produced elsewhere against
// local data, if any, and executes it.
func (rt *Runtime) ImportBlock(block *types.Block, data *types.InherentData) error {
	if data != nil {
		if check := rt.Executive.CheckInherents(block, data); check.FatalError {
			return fmt.Errorf("%w: inherent check failed: %v", executive.ErrBlockImportFatal, check.Errors)
		}
	}
	return rt.Executive.ExecuteBlock(block)
}
