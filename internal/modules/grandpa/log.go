package grandpa

import (
	"github.com/tendermint/executive/types"
)

// Authority is a finality voter and its weight.
type Authority struct {
	ID     types.AccountID `json:"id"`
	Weight uint64          `json:"weight,string"`
}

// ScheduledChange announces the next authority set, effective Delay blocks
// after the block carrying the log.
type ScheduledChange struct {
	NextAuthorities []Authority       `json:"next_authorities"`
	Delay           types.BlockNumber `json:"delay"`
}

// ForcedChange is a change applied without waiting for finality of the
// announcing block. Median is the finalized height voters reset to.
type ForcedChange struct {
	Median types.BlockNumber `json:"median"`
	Change ScheduledChange   `json:"change"`
}

// consensus log kinds in the FRNK digest items
const (
	logScheduledChange uint8 = iota + 1
	logForcedChange
)

func encodeAuthorities(e *types.Encoder, auths []Authority) {
	e.Uint32(uint32(len(auths)))
	for _, a := range auths {
		e.Account(a.ID).Uint64(a.Weight)
	}
}

func decodeAuthorities(d *types.Decoder) []Authority {
	n := d.Uint32()
	// each authority takes at least 33 bytes
	if uint64(n)*33 > uint64(d.Remaining()) {
		d.Failf("%d authorities exceed input", n)
		return nil
	}
	out := make([]Authority, 0, n)
	for i := uint32(0); i < n && d.Err() == nil; i++ {
		out = append(out, Authority{ID: d.Account(), Weight: d.Uint64()})
	}
	return out
}

func (c ScheduledChange) encode(e *types.Encoder) {
	encodeAuthorities(e, c.NextAuthorities)
	e.Uint64(c.Delay)
}

func decodeScheduledChange(d *types.Decoder) ScheduledChange {
	return ScheduledChange{NextAuthorities: decodeAuthorities(d), Delay: d.Uint64()}
}

func scheduledLog(c ScheduledChange) types.DigestItem {
	e := types.NewEncoder().Uint8(logScheduledChange)
	c.encode(e)
	return types.DigestItem{Kind: types.DigestConsensus, Engine: types.GrandpaEngineID, Data: e.Result()}
}

func forcedLog(f ForcedChange) types.DigestItem {
	e := types.NewEncoder().Uint8(logForcedChange).Uint64(f.Median)
	f.Change.encode(e)
	return types.DigestItem{Kind: types.DigestConsensus, Engine: types.GrandpaEngineID, Data: e.Result()}
}

// PendingChange returns the scheduled change announced in dg, if any.
func PendingChange(dg types.Digest) (ScheduledChange, bool) {
	for _, it := range grandpaLogs(dg) {
		d := types.NewDecoder(it.Data)
		if d.Uint8() != logScheduledChange {
			continue
		}
		c := decodeScheduledChange(d)
		if d.Finish() == nil {
			return c, true
		}
	}
	return ScheduledChange{}, false
}

// ForcedChangeOf returns the forced change announced in dg, if any.
func ForcedChangeOf(dg types.Digest) (ForcedChange, bool) {
	for _, it := range grandpaLogs(dg) {
		d := types.NewDecoder(it.Data)
		if d.Uint8() != logForcedChange {
			continue
		}
		f := ForcedChange{Median: d.Uint64()}
		f.Change = decodeScheduledChange(d)
		if d.Finish() == nil {
			return f, true
		}
	}
	return ForcedChange{}, false
}

func grandpaLogs(dg types.Digest) []types.DigestItem {
	var out []types.DigestItem
	for _, it := range dg.Logs {
		if it.Kind == types.DigestConsensus && it.Engine == types.GrandpaEngineID {
			out = append(out, it)
		}
	}
	return out
}
