package timestamp_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/modules/moduletest"
	"github.com/tendermint/executive/internal/modules/timestamp"
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/types"
)

type observerMock struct {
	mock.Mock
}

func (o *observerMock) OnTimestampSet(_ *registry.Context, now types.Moment) error {
	return o.Called(now).Error(0)
}

func setup(t *testing.T) (*moduletest.Env, *timestamp.Module, *observerMock) {
	cfg := config.TestRuntimeConfig()
	obs := &observerMock{}
	ts := timestamp.New(cfg, obs)
	return moduletest.NewEnv(t, cfg, ts), ts, obs
}

func TestSetOncePerBlock(t *testing.T) {
	env, ts, obs := setup(t)
	obs.On("OnTimestampSet", uint64(5000)).Return(nil).Once()

	require.Nil(t, env.Dispatch(t, ts.Set(5000), types.NoneOrigin()))
	assert.EqualValues(t, 5000, timestamp.Now(env.Overlay))

	derr := env.Dispatch(t, ts.Set(9000), types.NoneOrigin())
	require.NotNil(t, derr)
	assert.Equal(t, types.DispatchErrorModule, derr.Kind)
	assert.True(t, errors.Is(derr, timestamp.ErrAlreadySet))
	obs.AssertExpectations(t)

	require.NoError(t, env.Registry.Finalize(env.Ctx, 1))
}

func TestSetRequiresNoneOrigin(t *testing.T) {
	env, ts, _ := setup(t)
	derr := env.Dispatch(t, ts.Set(5000), types.SignedOrigin(moduletest.Account(1)))
	require.NotNil(t, derr)
	assert.Equal(t, types.DispatchErrorBadOrigin, derr.Kind)
}

func TestMinimumPeriod(t *testing.T) {
	env, ts, obs := setup(t)
	period := env.Config.MinimumPeriod
	obs.On("OnTimestampSet", mock.Anything).Return(nil)

	require.Nil(t, env.Dispatch(t, ts.Set(10000), types.NoneOrigin()))
	require.NoError(t, env.Registry.Finalize(env.Ctx, 1))

	derr := env.Dispatch(t, ts.Set(10000+period-1), types.NoneOrigin())
	require.NotNil(t, derr)
	assert.True(t, errors.Is(derr, timestamp.ErrTooEarly))
	assert.EqualValues(t, 10000, timestamp.Now(env.Overlay))

	require.Nil(t, env.Dispatch(t, ts.Set(10000+period), types.NoneOrigin()))
}

func TestFinalizeWithoutSet(t *testing.T) {
	env, _, _ := setup(t)
	err := env.Registry.Finalize(env.Ctx, 1)
	assert.True(t, errors.Is(err, timestamp.ErrNotSet), err)
}

func TestCreateAndCheckInherent(t *testing.T) {
	env, ts, obs := setup(t)
	period := env.Config.MinimumPeriod
	obs.On("OnTimestampSet", mock.Anything).Return(nil)
	require.Nil(t, env.Dispatch(t, ts.Set(100000), types.NoneOrigin()))
	require.NoError(t, env.Registry.Finalize(env.Ctx, 1))

	data := types.NewInherentData()
	data.PutUint64(types.TimestampInherent, 100001)

	// the author's clock is behind the minimum, the inherent moves it forward
	call, err := ts.CreateInherent(env.Overlay, data)
	require.NoError(t, err)
	require.True(t, ts.IsInherent(*call))
	assert.Equal(t, ts.Set(100000+period), *call)
	assert.NoError(t, ts.CheckInherent(env.Overlay, *call, data))

	far := ts.Set(100001 + timestamp.MaxDrift + 1)
	assert.True(t, errors.Is(ts.CheckInherent(env.Overlay, far, data), timestamp.ErrTooFarInFuture))

	early := ts.Set(100000 + period - 1)
	assert.True(t, errors.Is(ts.CheckInherent(env.Overlay, early, data), timestamp.ErrValidAtTimestamp))

	_, err = ts.CreateInherent(env.Overlay, types.NewInherentData())
	assert.Error(t, err)
}
