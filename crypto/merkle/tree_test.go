package merkle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFromByteSlices(t *testing.T) {
	testcases := map[string]struct {
		slices [][]byte
	}{
		"nil":          {nil},
		"empty":        {[][]byte{}},
		"single":       {[][]byte{{1, 2, 3}}},
		"single blank": {[][]byte{{}}},
		"two":          {[][]byte{{1, 2, 3}, {4, 5, 6}}},
		"many":         {[][]byte{{1, 2}, {3, 4}, {5, 6}, {7, 8}, {9, 10}}},
	}
	for name, tc := range testcases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			hash := HashFromByteSlices(tc.slices)
			require.Len(t, hash, 32)
			assert.Equal(t, hash, HashFromByteSlicesIterative(tc.slices))
		})
	}
}

func TestHashOrderMatters(t *testing.T) {
	a := HashFromByteSlices([][]byte{[]byte("a"), []byte("b")})
	b := HashFromByteSlices([][]byte{[]byte("b"), []byte("a")})
	assert.NotEqual(t, a, b)

	// a leaf never collides with an inner node built from the same bytes
	left, right := leafHash([]byte("a")), leafHash([]byte("b"))
	assert.NotEqual(t, a, HashFromByteSlices([][]byte{append(left, right...)}))
}

func TestGetSplitPoint(t *testing.T) {
	tests := []struct {
		length int64
		want   int64
	}{
		{1, 0},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 4},
		{10, 8},
		{20, 16},
		{100, 64},
		{255, 128},
		{256, 128},
		{257, 256},
	}
	for _, tt := range tests {
		got := getSplitPoint(tt.length)
		require.EqualValues(t, tt.want, got, "getSplitPoint(%d) = %v, want %v", tt.length, got, tt.want)
	}
}

func BenchmarkHashAlternatives(b *testing.B) {
	total := 100
	items := make([][]byte, total)
	for i := 0; i < total; i++ {
		items[i] = []byte(fmt.Sprintf("item %d", i))
	}

	b.ResetTimer()
	b.Run("recursive", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = HashFromByteSlices(items)
		}
	})

	b.Run("iterative", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = HashFromByteSlicesIterative(items)
		}
	})
}
