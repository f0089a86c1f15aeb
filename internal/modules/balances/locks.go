package balances

import (
	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/types"
)

// LockID names the owner of a lock.
type LockID [8]byte

// Lock holds part of a free balance until a block number. An Until of zero
// never expires.
type Lock struct {
	ID     LockID
	Amount types.Balance
	Until  types.BlockNumber
}

func locksKey(who types.AccountID) []byte { return ns.Key("Locks", string(who[:])) }

// Locks returns the locks on who.
func Locks(r storage.Reader, who types.AccountID) []Lock {
	var locks []Lock
	storage.Decode(r, locksKey(who), func(d *types.Decoder) {
		n := d.Uint32()
		for i := uint32(0); i < n && d.Err() == nil; i++ {
			var l Lock
			copy(l.ID[:], d.Fixed(len(l.ID)))
			l.Amount = d.Uint64()
			l.Until = d.Uint64()
			locks = append(locks, l)
		}
	})
	return locks
}

// Locked is the largest amount held by a lock still active at now. Locks
// overlap rather than add up.
func Locked(r storage.Reader, who types.AccountID, now types.BlockNumber) types.Balance {
	var max types.Balance
	for _, l := range Locks(r, who) {
		if (l.Until == 0 || l.Until > now) && l.Amount > max {
			max = l.Amount
		}
	}
	return max
}

// SetLock creates or replaces the lock id on who.
func SetLock(kv storage.KVStore, who types.AccountID, lock Lock) {
	locks := Locks(kv, who)
	replaced := false
	for i := range locks {
		if locks[i].ID == lock.ID {
			locks[i] = lock
			replaced = true
		}
	}
	if !replaced {
		locks = append(locks, lock)
	}
	writeLocks(kv, who, locks)
}

// RemoveLock drops the lock id from who.
func RemoveLock(kv storage.KVStore, who types.AccountID, id LockID) {
	locks := Locks(kv, who)
	kept := locks[:0]
	for _, l := range locks {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	writeLocks(kv, who, kept)
}

func writeLocks(kv storage.KVStore, who types.AccountID, locks []Lock) {
	if len(locks) == 0 {
		kv.Delete(locksKey(who))
		return
	}
	storage.Encode(kv, locksKey(who), func(e *types.Encoder) {
		e.Uint32(uint32(len(locks)))
		for _, l := range locks {
			e.Fixed(l.ID[:]).Uint64(l.Amount).Uint64(l.Until)
		}
	})
}
