package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"
	"pgregory.net/rapid"
)

func collect(r Reader, prefix []byte) map[string]string {
	out := make(map[string]string)
	var last string
	r.Iterate(prefix, func(key, value []byte) bool {
		if last != "" && string(key) <= last {
			panic("iteration out of order")
		}
		last = string(key)
		out[string(key)] = string(value)
		return true
	})
	return out
}

func TestOverlayCommitAndDiscard(t *testing.T) {
	store := NewStore(dbm.NewMemDB())

	ov := store.NewOverlay()
	ov.Set([]byte("a"), []byte("1"))
	ov.Set([]byte("b"), []byte("2"))
	assert.Equal(t, []byte("1"), ov.Get([]byte("a")))
	assert.Nil(t, store.Get([]byte("a")), "uncommitted write leaked into the store")

	ov.Discard()
	assert.Nil(t, ov.Get([]byte("a")))
	assert.False(t, ov.Dirty())

	ov.Set([]byte("a"), []byte("1"))
	ov.Commit()
	assert.Equal(t, []byte("1"), store.Get([]byte("a")))
	assert.False(t, ov.Dirty())

	ov.Delete([]byte("a"))
	assert.False(t, ov.Has([]byte("a")))
	assert.True(t, store.Has([]byte("a")))
	ov.Commit()
	assert.False(t, store.Has([]byte("a")))
}

func TestNestedOverlay(t *testing.T) {
	store := NewStore(dbm.NewMemDB())
	block := store.NewOverlay()
	block.Set([]byte("k"), []byte("block"))

	tx := NewOverlay(block)
	tx.Set([]byte("k"), []byte("tx"))
	tx.Set([]byte("j"), []byte("tx"))
	assert.Equal(t, []byte("tx"), tx.Get([]byte("k")))
	tx.Discard()
	assert.Equal(t, []byte("block"), block.Get([]byte("k")))

	tx.Delete([]byte("k"))
	tx.Commit()
	assert.Nil(t, block.Get([]byte("k")))
}

func TestOverlayIterateMergesParent(t *testing.T) {
	store := NewStore(dbm.NewMemDB())
	ov := store.NewOverlay()
	ov.Set([]byte("p/1"), []byte("a"))
	ov.Set([]byte("p/3"), []byte("c"))
	ov.Set([]byte("q/1"), []byte("x"))
	ov.Commit()

	ov.Set([]byte("p/2"), []byte("b"))
	ov.Set([]byte("p/3"), []byte("C"))
	ov.Delete([]byte("p/1"))

	assert.Equal(t, map[string]string{"p/2": "b", "p/3": "C"}, collect(ov, []byte("p/")))
	assert.Len(t, collect(ov, nil), 3)
}

func TestReadOnlyPanicsOnWrite(t *testing.T) {
	ro := NewStore(dbm.NewMemDB()).ReadOnly()
	assert.Panics(t, func() { ro.Set([]byte("a"), []byte("b")) })
	assert.Panics(t, func() { ro.Delete([]byte("a")) })
}

func TestPrefixRange(t *testing.T) {
	start, end := prefixRange([]byte{1, 0xff})
	assert.Equal(t, []byte{1, 0xff}, start)
	assert.Equal(t, []byte{2}, end)

	_, end = prefixRange([]byte{0xff, 0xff})
	assert.Nil(t, end)
}

func TestRootIgnoresWriteOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "n").(int)
		keys := make([][]byte, n)
		for i := range keys {
			keys[i] = rapid.SliceOfN(rapid.Byte(), 1, 8).Draw(t, "key").([]byte)
		}

		a := NewOverlay(NewStore(dbm.NewMemDB()))
		b := NewOverlay(NewStore(dbm.NewMemDB()))
		for i := range keys {
			a.Set(keys[i], []byte{byte(i)})
		}
		// b writes in reverse, but the last write of a key must win in both
		seen := make(map[string]bool)
		for i := len(keys) - 1; i >= 0; i-- {
			if seen[string(keys[i])] {
				continue
			}
			seen[string(keys[i])] = true
			b.Set(keys[i], []byte{byte(i)})
		}
		assert.Equal(t, Root(a), Root(b))
	})
}

func TestRootChangesWithState(t *testing.T) {
	ov := NewStore(dbm.NewMemDB()).NewOverlay()
	empty := Root(ov)
	ov.Set([]byte("a"), []byte("1"))
	one := Root(ov)
	assert.NotEqual(t, empty, one)
	ov.Commit()
	assert.Equal(t, one, Root(ov))
}

func TestNamespaceKeys(t *testing.T) {
	ns := NewNamespace("Balances")
	k1 := ns.Key("FreeBalance", "alice")
	k2 := ns.Key("FreeBalance", "bob")
	other := NewNamespace("System").Key("FreeBalance", "alice")

	prefix := ns.Prefix("FreeBalance")
	assert.True(t, hasPrefix(k1, prefix))
	assert.True(t, hasPrefix(k2, prefix))
	assert.False(t, hasPrefix(other, prefix))
	assert.True(t, hasPrefix(k1, ns.ModulePrefix()))

	var who string
	require.NoError(t, ns.ParseKey(k2, "FreeBalance", &who))
	assert.Equal(t, "bob", who)
	assert.Error(t, ns.ParseKey(k2, "Reserved", &who))

	// numeric parts keep their order
	assert.Less(t, string(ns.Key("Ledger", uint64(2))), string(ns.Key("Ledger", uint64(10))))
}

func TestValueHelpers(t *testing.T) {
	ov := NewStore(dbm.NewMemDB()).NewOverlay()
	key := []byte("n")
	assert.Zero(t, GetUint64(ov, key))
	SetUint64(ov, key, 300)
	assert.EqualValues(t, 300, GetUint64(ov, key))

	ov.Set(key, []byte{0x80})
	assert.Panics(t, func() { GetUint64(ov, key) })
}
