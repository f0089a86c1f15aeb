package types

import (
	"errors"
	"fmt"

	tmbytes "github.com/tendermint/executive/libs/bytes"
)

// ConsensusEngineID tags digest items with the engine they belong to.
type ConsensusEngineID [4]byte

var (
	AuraEngineID    = ConsensusEngineID{'a', 'u', 'r', 'a'}
	GrandpaEngineID = ConsensusEngineID{'F', 'R', 'N', 'K'}
)

func (id ConsensusEngineID) String() string { return string(id[:]) }

// DigestItemKind is the kind of a digest log entry.
type DigestItemKind uint8

const (
	DigestOther DigestItemKind = iota
	DigestChangesTrieRoot
	DigestPreRuntime
	DigestConsensus
	DigestSeal
)

// DigestItem is one consensus log entry in a header digest.
type DigestItem struct {
	Kind   DigestItemKind    `json:"kind"`
	Engine ConsensusEngineID `json:"engine"`
	Data   tmbytes.HexBytes  `json:"data"`
}

func (it DigestItem) Encode(e *Encoder) {
	e.Uint8(uint8(it.Kind)).Fixed(it.Engine[:]).Bytes(it.Data)
}

func decodeDigestItem(d *Decoder) DigestItem {
	it := DigestItem{Kind: DigestItemKind(d.Uint8())}
	copy(it.Engine[:], d.Fixed(len(it.Engine)))
	it.Data = d.Bytes()
	if it.Kind > DigestSeal {
		d.Failf("unknown digest item kind %d", it.Kind)
	}
	return it
}

// Digest is the ordered list of consensus logs of a header.
type Digest struct {
	Logs []DigestItem `json:"logs"`
}

// Push appends a log entry.
func (dg *Digest) Push(it DigestItem) {
	dg.Logs = append(dg.Logs, it)
}

// Find returns the first log of the given kind and engine.
func (dg Digest) Find(kind DigestItemKind, engine ConsensusEngineID) (DigestItem, bool) {
	for _, it := range dg.Logs {
		if it.Kind == kind && it.Engine == engine {
			return it, true
		}
	}
	return DigestItem{}, false
}

// Header is the block header.
type Header struct {
	ParentHash     Hash        `json:"parent_hash"`
	Number         BlockNumber `json:"number"`
	StateRoot      Hash        `json:"state_root"`
	ExtrinsicsRoot Hash        `json:"extrinsics_root"`
	Digest         Digest      `json:"digest"`
}

func (h Header) Encode(e *Encoder) {
	e.Hash(h.ParentHash).Uint64(h.Number).Hash(h.StateRoot).Hash(h.ExtrinsicsRoot)
	e.Uint64(uint64(len(h.Digest.Logs)))
	for _, it := range h.Digest.Logs {
		it.Encode(e)
	}
}

// Bytes returns the canonical encoding of the header.
func (h Header) Bytes() []byte {
	e := NewEncoder()
	h.Encode(e)
	return e.Result()
}

// Hash returns the blake2b-256 hash of the encoded header.
func (h Header) Hash() Hash { return HashOf(h.Bytes()) }

func DecodeHeader(d *Decoder) Header {
	h := Header{
		ParentHash:     d.Hash(),
		Number:         d.Uint64(),
		StateRoot:      d.Hash(),
		ExtrinsicsRoot: d.Hash(),
	}
	n := d.Uint64()
	if d.Err() != nil {
		return h
	}
	if n > uint64(d.Remaining()) {
		d.Failf("digest length %d exceeds input", n)
		return h
	}
	for i := uint64(0); i < n && d.Err() == nil; i++ {
		h.Digest.Push(decodeDigestItem(d))
	}
	return h
}

// HeaderFromBytes decodes a complete header encoding.
func HeaderFromBytes(bz []byte) (Header, error) {
	d := NewDecoder(bz)
	h := DecodeHeader(d)
	if err := d.Finish(); err != nil {
		return Header{}, err
	}
	return h, nil
}

// ValidateBasic performs stateless checks on the header.
func (h Header) ValidateBasic() error {
	if h.Number == 0 {
		return errors.New("block number must be positive")
	}
	for i, it := range h.Digest.Logs {
		if it.Kind > DigestSeal {
			return fmt.Errorf("digest log %d: unknown kind %d", i, it.Kind)
		}
	}
	return nil
}

// Block is a header plus the ordered, encoded extrinsics of the body.
type Block struct {
	Header     Header             `json:"header"`
	Extrinsics []tmbytes.HexBytes `json:"extrinsics"`
}

// Hash returns the header hash.
func (b Block) Hash() Hash { return b.Header.Hash() }

func (b Block) String() string {
	return fmt.Sprintf("Block{#%d %v %d extrinsics}", b.Header.Number, b.Hash(), len(b.Extrinsics))
}

// ExtrinsicBytes returns the body as raw byte slices.
func (b Block) ExtrinsicBytes() [][]byte {
	out := make([][]byte, len(b.Extrinsics))
	for i, x := range b.Extrinsics {
		out[i] = x
	}
	return out
}

func (b Block) Encode(e *Encoder) {
	b.Header.Encode(e)
	e.Uint64(uint64(len(b.Extrinsics)))
	for _, x := range b.Extrinsics {
		e.Bytes(x)
	}
}

// Bytes returns the canonical encoding of the block.
func (b Block) Bytes() []byte {
	e := NewEncoder()
	b.Encode(e)
	return e.Result()
}

// BlockFromBytes decodes a complete block encoding.
func BlockFromBytes(bz []byte) (Block, error) {
	d := NewDecoder(bz)
	b := Block{Header: DecodeHeader(d)}
	n := d.Uint64()
	if d.Err() == nil && n > uint64(d.Remaining()) {
		d.Failf("extrinsic count %d exceeds input", n)
	}
	for i := uint64(0); i < n && d.Err() == nil; i++ {
		b.Extrinsics = append(b.Extrinsics, d.Bytes())
	}
	if err := d.Finish(); err != nil {
		return Block{}, err
	}
	return b, nil
}
