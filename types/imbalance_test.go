package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNegativeImbalanceSplitConserves(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.Uint64().Draw(t, "total").(uint64)
		amount := rapid.Uint64().Draw(t, "amount").(uint64)

		imb := NewNegativeImbalance(total)
		first, second := imb.Split(amount)
		assert.True(t, imb.Consumed())
		assert.Equal(t, total, first.Peek()+second.Peek())
		if amount <= total {
			assert.Equal(t, amount, first.Peek())
		}
	})
}

func TestImbalanceSingleConsumption(t *testing.T) {
	neg := NewNegativeImbalance(10)
	require.EqualValues(t, 10, neg.Take())
	assert.Panics(t, func() { neg.Take() })
	assert.Panics(t, func() { neg.Split(1) })

	a, b := NewNegativeImbalance(3), NewNegativeImbalance(4)
	a.Merge(b)
	assert.EqualValues(t, 7, a.Peek())
	assert.True(t, b.Consumed())
	assert.Panics(t, func() { a.Merge(b) })

	pos := NewPositiveImbalance(5)
	pos.Merge(NewPositiveImbalance(6))
	assert.EqualValues(t, 11, pos.Take())
	assert.Panics(t, func() { pos.Take() })
}
