package indices_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/modules/indices"
	"github.com/tendermint/executive/internal/modules/moduletest"
	"github.com/tendermint/executive/types"
)

func TestAssignAndLookup(t *testing.T) {
	idx := indices.New()
	env := moduletest.NewEnv(t, config.TestRuntimeConfig(), idx)
	a, b := moduletest.Account(1), moduletest.Account(2)

	idx.OnNewAccount(env.Ctx, a)
	idx.OnNewAccount(env.Ctx, b)
	idx.OnNewAccount(env.Ctx, a)

	got, ok := indices.IndexOf(env.Overlay, b)
	require.True(t, ok)
	assert.EqualValues(t, 1, got)
	assert.Equal(t, []string{"NewAccountIndex", "NewAccountIndex"}, env.EventNames())

	who, err := idx.Lookup(env.Overlay, types.AddressFromIndex(0))
	require.NoError(t, err)
	assert.Equal(t, a, who)

	who, err = idx.Lookup(env.Overlay, types.AddressFromID(moduletest.Account(9)))
	require.NoError(t, err)
	assert.Equal(t, moduletest.Account(9), who)

	_, err = idx.Lookup(env.Overlay, types.AddressFromIndex(2))
	assert.True(t, errors.Is(err, indices.ErrUnknownIndex))
}
