package fees

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"
	"pgregory.net/rapid"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/libs/log"
	"github.com/tendermint/executive/types"
)

var (
	treasuryAccount = types.AccountID{0xaa}
	authorAccount   = types.AccountID{0xbb}
)

// recordingCurrency credits into a map.
type recordingCurrency struct {
	credited map[types.AccountID]types.Balance
	burned   types.Balance
}

func newRecordingCurrency() *recordingCurrency {
	return &recordingCurrency{credited: make(map[types.AccountID]types.Balance)}
}

func (c *recordingCurrency) ResolveCreating(_ *registry.Context, who types.AccountID, imb *types.NegativeImbalance) {
	c.credited[who] += imb.Take()
}

func (c *recordingCurrency) Burn(_ *registry.Context, imb *types.NegativeImbalance) {
	c.burned += imb.Take()
}

type fixedAccount struct {
	id types.AccountID
	ok bool
}

func (f fixedAccount) Key(storage.Reader) (types.AccountID, bool)    { return f.id, f.ok }
func (f fixedAccount) Author(storage.Reader) (types.AccountID, bool) { return f.id, f.ok }

func testContext() *registry.Context {
	kv := storage.NewStore(dbm.NewMemDB()).NewOverlay()
	return registry.NewContext(nil, kv, &registry.EventLog{}, 1, 1, log.NewNopLogger())
}

func newTestSplitter(cur Currency, key, author fixedAccount, remainderTo string) *Splitter {
	cfg := config.DefaultRuntimeConfig()
	cfg.FeeRemainderTo = remainderTo
	treasury := TreasurySink{Currency: cur, Keys: key}
	return NewSplitter(cfg, treasury, AuthorSink{Currency: cur, Authors: author, Fallback: treasury}, log.NewNopLogger())
}

func TestScheduleCompute(t *testing.T) {
	s := Schedule{BaseFee: 100, ByteFee: 2, WeightToFee: 3}

	assert.EqualValues(t, 100+2*50+3*10, s.Compute(50, types.DispatchInfo{Weight: 10, PaysFee: true}))
	assert.Zero(t, s.Compute(50, types.DispatchInfo{Weight: 10, PaysFee: false}))

	// saturates instead of wrapping
	assert.EqualValues(t, uint64(math.MaxUint64), s.Compute(math.MaxUint64, types.DispatchInfo{PaysFee: true}))

	d := NewSchedule(config.DefaultRuntimeConfig())
	assert.EqualValues(t, 1000000+1000*10, d.Compute(10, types.DispatchInfo{PaysFee: true}))
}

func TestSplitRemainder(t *testing.T) {
	dist, err := Split(7, 4, 1, false)
	require.NoError(t, err)
	assert.Equal(t, Distribution{Treasury: 5, Author: 2}, dist)

	dist, err = Split(7, 4, 1, true)
	require.NoError(t, err)
	assert.Equal(t, Distribution{Treasury: 6, Author: 1}, dist)

	dist, err = Split(10, 4, 1, false)
	require.NoError(t, err)
	assert.Equal(t, Distribution{Treasury: 8, Author: 2}, dist)

	_, err = Split(10, 0, 0, false)
	assert.Error(t, err)
}

func TestSplitConservesValue(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		amount := rapid.Uint64().Draw(t, "amount").(uint64)
		p := rapid.Uint64Range(0, 1000).Draw(t, "p").(uint64)
		q := rapid.Uint64Range(0, 1000).Draw(t, "q").(uint64)
		toTreasury := rapid.Bool().Draw(t, "toTreasury").(bool)
		if p+q == 0 {
			t.Skip("zero ratio")
		}

		dist, err := Split(amount, p, q, toTreasury)
		require.NoError(t, err)
		assert.Equal(t, amount, dist.Treasury+dist.Author)
		if p == 0 {
			assert.Zero(t, dist.Treasury)
		}
		if q == 0 {
			assert.Zero(t, dist.Author)
		}
	})
}

func TestDistributeConservesValue(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		amount := rapid.Uint64Range(0, 1<<62).Draw(t, "amount").(uint64)
		remainderTo := rapid.SampledFrom([]string{config.FeeRemainderAuthor, config.FeeRemainderTreasury}).Draw(t, "side").(string)

		cur := newRecordingCurrency()
		s := newTestSplitter(cur, fixedAccount{treasuryAccount, true}, fixedAccount{authorAccount, true}, remainderTo)

		dist := s.Distribute(testContext(), types.NewNegativeImbalance(amount))
		assert.Equal(t, amount, cur.credited[treasuryAccount]+cur.credited[authorAccount])
		assert.Equal(t, dist.Treasury, cur.credited[treasuryAccount])
		assert.Equal(t, dist.Author, cur.credited[authorAccount])
	})
}

func TestAuthorSinkFallsBackToTreasury(t *testing.T) {
	cur := newRecordingCurrency()
	s := newTestSplitter(cur, fixedAccount{treasuryAccount, true}, fixedAccount{}, config.FeeRemainderAuthor)

	s.Distribute(testContext(), types.NewNegativeImbalance(11))
	assert.EqualValues(t, 11, cur.credited[treasuryAccount])
	assert.Len(t, cur.credited, 1)
}

func TestTreasurySinkBurnsWithoutKey(t *testing.T) {
	cur := newRecordingCurrency()
	s := newTestSplitter(cur, fixedAccount{}, fixedAccount{authorAccount, true}, config.FeeRemainderAuthor)

	s.Distribute(testContext(), types.NewNegativeImbalance(10))
	assert.EqualValues(t, 8, cur.burned)
	assert.EqualValues(t, 2, cur.credited[authorAccount])
}

type mockCurrency struct {
	mock.Mock
}

func (m *mockCurrency) ResolveCreating(ctx *registry.Context, who types.AccountID, imb *types.NegativeImbalance) {
	m.Called(who, imb.Peek())
	imb.Take()
}

func (m *mockCurrency) Burn(ctx *registry.Context, imb *types.NegativeImbalance) {
	m.Called(imb.Peek())
	imb.Take()
}

func TestDistributeCreditsEachSinkOnce(t *testing.T) {
	cur := new(mockCurrency)
	cur.On("ResolveCreating", treasuryAccount, types.Balance(800)).Once()
	cur.On("ResolveCreating", authorAccount, types.Balance(200)).Once()

	s := newTestSplitter(cur, fixedAccount{treasuryAccount, true}, fixedAccount{authorAccount, true}, config.FeeRemainderAuthor)
	s.Distribute(testContext(), types.NewNegativeImbalance(1000))

	cur.AssertExpectations(t)
}

// leakySink forgets to consume its share.
type leakySink struct{}

func (leakySink) Credit(*registry.Context, *types.NegativeImbalance) {}

func TestDistributePanicsOnUnresolvedImbalance(t *testing.T) {
	s := NewSplitter(config.DefaultRuntimeConfig(), leakySink{}, leakySink{}, nil)
	assert.Panics(t, func() {
		s.Distribute(testContext(), types.NewNegativeImbalance(5))
	})
}
