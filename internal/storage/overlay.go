package storage

import (
	"sort"
)

// Overlay buffers writes on top of a parent Reader. Overlays nest: an
// overlay over another overlay can be discarded without touching its parent,
// which is how transaction validation runs against a block in progress
// without mutating it.
type Overlay struct {
	parent  Reader
	writes  map[string][]byte
	deletes map[string]struct{}
}

var _ KVStore = (*Overlay)(nil)

// NewOverlay returns an empty overlay over parent.
func NewOverlay(parent Reader) *Overlay {
	return &Overlay{
		parent:  parent,
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
}

func (o *Overlay) Get(key []byte) []byte {
	k := string(key)
	if v, ok := o.writes[k]; ok {
		return v
	}
	if _, ok := o.deletes[k]; ok {
		return nil
	}
	return o.parent.Get(key)
}

func (o *Overlay) Has(key []byte) bool {
	return o.Get(key) != nil
}

func (o *Overlay) Set(key, value []byte) {
	if value == nil {
		value = []byte{}
	}
	k := string(key)
	delete(o.deletes, k)
	o.writes[k] = append([]byte(nil), value...)
}

func (o *Overlay) Delete(key []byte) {
	k := string(key)
	delete(o.writes, k)
	o.deletes[k] = struct{}{}
}

// Iterate merges the buffered writes with the parent's entries.
func (o *Overlay) Iterate(prefix []byte, fn func(key, value []byte) bool) {
	local := make([]string, 0)
	for k := range o.writes {
		if hasPrefix([]byte(k), prefix) {
			local = append(local, k)
		}
	}
	sort.Strings(local)

	type entry struct {
		key, value []byte
	}
	var parent []entry
	o.parent.Iterate(prefix, func(key, value []byte) bool {
		k := string(key)
		if _, ok := o.deletes[k]; ok {
			return true
		}
		if _, ok := o.writes[k]; ok {
			return true
		}
		parent = append(parent, entry{append([]byte(nil), key...), append([]byte(nil), value...)})
		return true
	})

	i, j := 0, 0
	for i < len(local) || j < len(parent) {
		var key, value []byte
		if j >= len(parent) || (i < len(local) && local[i] < string(parent[j].key)) {
			key, value = []byte(local[i]), o.writes[local[i]]
			i++
		} else {
			key, value = parent[j].key, parent[j].value
			j++
		}
		if !fn(key, value) {
			return
		}
	}
}

// Dirty reports whether the overlay holds any writes.
func (o *Overlay) Dirty() bool {
	return len(o.writes) > 0 || len(o.deletes) > 0
}

// Discard drops all buffered writes.
func (o *Overlay) Discard() {
	o.writes = make(map[string][]byte)
	o.deletes = make(map[string]struct{})
}

// Commit flushes the buffered writes into the parent and resets the
// overlay. The parent must be a *Store or another *Overlay.
func (o *Overlay) Commit() {
	switch p := o.parent.(type) {
	case *Store:
		p.write(o.writes, o.deletes)
	case *Overlay:
		for k := range o.deletes {
			p.Delete([]byte(k))
		}
		for k, v := range o.writes {
			p.Set([]byte(k), v)
		}
	default:
		panic("overlay parent does not accept commits")
	}
	o.Discard()
}
