package types

import (
	"fmt"
	"sort"
)

// InherentIdentifier keys one entry of InherentData.
type InherentIdentifier [8]byte

var (
	TimestampInherent = InherentIdentifier{'t', 'i', 'm', 's', 't', 'a', 'p', '0'}
	FinalNumInherent  = InherentIdentifier{'f', 'i', 'n', 'a', 'l', 'n', 'u', 'm'}
)

func (id InherentIdentifier) String() string { return string(id[:]) }

// InherentData is the author supplied data inherent extrinsics are built
// from, e.g. the current time.
type InherentData struct {
	data map[InherentIdentifier][]byte
}

func NewInherentData() *InherentData {
	return &InherentData{data: make(map[InherentIdentifier][]byte)}
}

// Put stores the encoded value for id, replacing any previous value.
func (d *InherentData) Put(id InherentIdentifier, value []byte) {
	d.data[id] = value
}

// PutUint64 stores a varint encoded value.
func (d *InherentData) PutUint64(id InherentIdentifier, v uint64) {
	d.Put(id, NewEncoder().Uint64(v).Result())
}

// Get returns the raw value for id.
func (d *InherentData) Get(id InherentIdentifier) ([]byte, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.data[id]
	return v, ok
}

// GetUint64 decodes a value stored by PutUint64.
func (d *InherentData) GetUint64(id InherentIdentifier) (uint64, bool, error) {
	bz, ok := d.Get(id)
	if !ok {
		return 0, false, nil
	}
	dec := NewDecoder(bz)
	v := dec.Uint64()
	if err := dec.Finish(); err != nil {
		return 0, true, fmt.Errorf("inherent %s: %w", id, err)
	}
	return v, true, nil
}

// Identifiers returns the stored identifiers in byte order.
func (d *InherentData) Identifiers() []InherentIdentifier {
	ids := make([]InherentIdentifier, 0, len(d.data))
	for id := range d.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return string(ids[i][:]) < string(ids[j][:])
	})
	return ids
}

// CheckInherentsResult collects the outcome of checking a block's inherents
// against local inherent data.
type CheckInherentsResult struct {
	Okay       bool                          `json:"okay"`
	FatalError bool                          `json:"fatal_error"`
	Errors     map[InherentIdentifier]string `json:"errors,omitempty"`
}

func NewCheckInherentsResult() *CheckInherentsResult {
	return &CheckInherentsResult{Okay: true, Errors: make(map[InherentIdentifier]string)}
}

// PutError records a failed check. Fatal errors make the block invalid;
// others only signal that the local node disagrees (e.g. a timestamp in the
// future).
func (r *CheckInherentsResult) PutError(id InherentIdentifier, err error, fatal bool) {
	r.Okay = false
	if fatal {
		r.FatalError = true
	}
	r.Errors[id] = err.Error()
}
