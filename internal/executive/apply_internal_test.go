package executive

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/tendermint/executive/internal/modules/system"
	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/types"
)

func TestCheckLimits(t *testing.T) {
	const (
		maxWeight types.Weight = 1000000000
		maxLength uint64       = 5242880
	)
	normal := func(w types.Weight) types.DispatchInfo {
		return types.DispatchInfo{Weight: w, Class: types.DispatchNormal, PaysFee: true}
	}

	kv := storage.NewOverlay(storage.NewStore(dbm.NewMemDB()))
	require.NoError(t, checkLimits(maxWeight, maxLength, kv, normal(10), 100), "empty block")

	// normal extrinsics get three quarters of the limits
	require.NoError(t, checkLimits(maxWeight, maxLength, kv, normal(maxWeight/4*3), 100))
	assert.True(t, errors.Is(checkLimits(maxWeight, maxLength, kv, normal(maxWeight/4*3+1), 100), ErrExhaustsResources))
	assert.True(t, errors.Is(checkLimits(maxWeight, maxLength, kv, normal(10), maxLength/4*3+1), ErrExhaustsResources))

	operational := types.DispatchInfo{Weight: maxWeight, Class: types.DispatchOperational}
	require.NoError(t, checkLimits(maxWeight, maxLength, kv, operational, 100))

	system.NoteExtrinsic(kv, maxWeight/2, 1000)
	require.NoError(t, checkLimits(maxWeight, maxLength, kv, normal(maxWeight/4), 100))
	assert.True(t, errors.Is(checkLimits(maxWeight, maxLength, kv, normal(maxWeight/4+1), 100), ErrExhaustsResources))

	// a weight that wraps around is over the limit, not under it
	assert.True(t, errors.Is(checkLimits(maxWeight, maxLength, kv, types.DispatchInfo{Weight: math.MaxUint64, Class: types.DispatchOperational}, 100), ErrExhaustsResources))

	mandatory := types.DispatchInfo{Weight: math.MaxUint64, Class: types.DispatchMandatory}
	require.NoError(t, checkLimits(maxWeight, maxLength, kv, mandatory, math.MaxUint64))
}
