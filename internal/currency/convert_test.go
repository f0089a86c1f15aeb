package currency

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/types"
)

type fixedIssuance types.Balance

func (f fixedIssuance) TotalIssuance(storage.Reader) types.Balance { return types.Balance(f) }

// mutableIssuance lets a test change the issuance between calls.
type mutableIssuance struct{ v types.Balance }

func (m *mutableIssuance) TotalIssuance(storage.Reader) types.Balance { return m.v }

func TestConverterScenario(t *testing.T) {
	c := NewConverter(fixedIssuance(10000), 100)

	assert.EqualValues(t, 100, c.Factor(nil))
	assert.EqualValues(t, 50, c.Narrow(nil, 5000))
	assert.EqualValues(t, 5000, c.Widen(nil, 50))
}

func TestConverterIsLossy(t *testing.T) {
	c := NewConverter(fixedIssuance(10000), 100)
	assert.EqualValues(t, 50, c.Narrow(nil, 5099))
	assert.EqualValues(t, 5000, c.Widen(nil, c.Narrow(nil, 5099)))
}

func TestConverterSmallIssuance(t *testing.T) {
	c := NewConverter(fixedIssuance(0), 100)
	assert.EqualValues(t, 1, c.Factor(nil))
	// balances above issuance still fit
	assert.EqualValues(t, 100, c.Narrow(nil, 1000))
}

func TestConverterTracksCurrentIssuance(t *testing.T) {
	src := &mutableIssuance{v: 10000}
	c := NewConverter(src, 100)
	assert.EqualValues(t, 100, c.Factor(nil))

	src.v = 20000
	assert.EqualValues(t, 200, c.Factor(nil))
	assert.EqualValues(t, 25, c.Narrow(nil, 5000))
}

func TestNarrowIsBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		issuance := rapid.Uint64().Draw(t, "issuance").(uint64)
		x := rapid.Uint64().Draw(t, "x").(uint64)
		maxNarrow := rapid.Uint64Range(1, math.MaxUint64).Draw(t, "max").(uint64)

		c := NewConverter(fixedIssuance(issuance), maxNarrow)
		assert.GreaterOrEqual(t, c.Factor(nil), uint64(1))
		assert.LessOrEqual(t, c.Narrow(nil, x), maxNarrow)
		if x <= issuance {
			assert.LessOrEqual(t, c.Widen(nil, c.Narrow(nil, x)), x)
		}
	})
}

func TestToVoteFitsVoteWeight(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		issuance := rapid.Uint64().Draw(t, "issuance").(uint64)
		x := rapid.Uint64().Draw(t, "x").(uint64)

		c := NewVoteConverter(fixedIssuance(issuance))
		assert.NotPanics(t, func() { c.ToVote(nil, x) })
	})
}
