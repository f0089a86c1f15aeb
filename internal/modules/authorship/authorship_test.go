package authorship_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/modules/authorship"
	"github.com/tendermint/executive/internal/modules/moduletest"
	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/types"
)

type fixedFinder struct {
	author types.AccountID
	ok     bool
}

func (f *fixedFinder) Author(storage.Reader) (types.AccountID, bool) { return f.author, f.ok }

func TestAuthorLivesForOneBlock(t *testing.T) {
	finder := &fixedFinder{author: moduletest.Account(7), ok: true}
	au := authorship.New(finder)
	env := moduletest.NewEnv(t, config.TestRuntimeConfig(), au)

	_, ok := au.Author(env.Overlay)
	assert.False(t, ok)

	require.NoError(t, env.Registry.Initialize(env.Ctx, 1))
	author, ok := au.Author(env.Overlay)
	require.True(t, ok)
	assert.Equal(t, moduletest.Account(7), author)

	require.NoError(t, env.Registry.Finalize(env.Ctx, 1))
	_, ok = au.Author(env.Overlay)
	assert.False(t, ok)

	finder.ok = false
	require.NoError(t, env.Registry.Initialize(env.Ctx, 2))
	_, ok = au.Author(env.Overlay)
	assert.False(t, ok)
}
