package store

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"

	"github.com/tendermint/executive/types"
)

/*
BlockStore is a simple low level store for committed blocks.

There are two types of information stored:
  - Block:      the header and the encoded extrinsics, keyed by number
  - Block hash: an index from header hash to block number

The store can be assumed to contain all contiguous blocks between base and
height (inclusive). State lives elsewhere; the block store only records what
the executive committed so that imports can be checked against their parent.

// NOTE: BlockStore methods will panic if they encounter errors
// deserializing loaded data, indicating probable corruption on disk.
*/
type BlockStore struct {
	db dbm.DB
}

// NewBlockStore returns a new BlockStore with the given DB.
func NewBlockStore(db dbm.DB) *BlockStore {
	return &BlockStore{db}
}

// Base returns the first known contiguous block number, or 0 for empty
// block stores.
func (bs *BlockStore) Base() types.BlockNumber {
	iter, err := bs.db.Iterator(blockKey(1), blockKey(1<<63-1))
	if err != nil {
		panic(err)
	}
	defer iter.Close()

	if iter.Valid() {
		number, err := decodeBlockKey(iter.Key())
		if err == nil {
			return number
		}
	}
	if err := iter.Error(); err != nil {
		panic(err)
	}
	return 0
}

// Height returns the last known contiguous block number, or 0 for empty
// block stores.
func (bs *BlockStore) Height() types.BlockNumber {
	iter, err := bs.db.ReverseIterator(blockKey(1), blockKey(1<<63-1))
	if err != nil {
		panic(err)
	}
	defer iter.Close()

	if iter.Valid() {
		number, err := decodeBlockKey(iter.Key())
		if err == nil {
			return number
		}
	}
	if err := iter.Error(); err != nil {
		panic(err)
	}
	return 0
}

// Size returns the number of blocks in the block store.
func (bs *BlockStore) Size() uint64 {
	height := bs.Height()
	if height == 0 {
		return 0
	}
	return height + 1 - bs.Base()
}

// LoadBlock returns the block with the given number.
// If no block is found for that number, it returns nil.
func (bs *BlockStore) LoadBlock(number types.BlockNumber) *types.Block {
	bz, err := bs.db.Get(blockKey(number))
	if err != nil {
		panic(err)
	}
	if len(bz) == 0 {
		return nil
	}
	block, err := types.BlockFromBytes(bz)
	if err != nil {
		panic(fmt.Errorf("error reading block %d: %w", number, err))
	}
	return &block
}

// LoadHeader returns the header of the block with the given number, or nil.
func (bs *BlockStore) LoadHeader(number types.BlockNumber) *types.Header {
	block := bs.LoadBlock(number)
	if block == nil {
		return nil
	}
	return &block.Header
}

// LoadBlockByHash returns the block with the given hash.
// If no block is found for that hash, it returns nil.
func (bs *BlockStore) LoadBlockByHash(hash types.Hash) *types.Block {
	bz, err := bs.db.Get(blockHashKey(hash))
	if err != nil {
		panic(err)
	}
	if len(bz) == 0 {
		return nil
	}
	d := types.NewDecoder(bz)
	number := d.Uint64()
	if err := d.Finish(); err != nil {
		panic(fmt.Errorf("failed to extract number from %X: %w", bz, err))
	}
	return bs.LoadBlock(number)
}

// SaveBlock persists block. Blocks must be saved in order.
func (bs *BlockStore) SaveBlock(block *types.Block) {
	if block == nil {
		panic("BlockStore can only save a non-nil block")
	}
	number := block.Header.Number
	if height := bs.Height(); height != 0 && number != height+1 {
		panic(fmt.Sprintf("BlockStore can only save contiguous blocks. Wanted %v, got %v", height+1, number))
	}

	batch := bs.db.NewBatch()
	defer batch.Close()

	if err := batch.Set(blockKey(number), block.Bytes()); err != nil {
		panic(err)
	}
	if err := batch.Set(blockHashKey(block.Hash()), types.NewEncoder().Uint64(number).Result()); err != nil {
		panic(err)
	}
	if err := batch.WriteSync(); err != nil {
		panic(err)
	}
}

// PruneBlocks removes blocks up to (but not including) a number. It returns
// the number of blocks pruned.
func (bs *BlockStore) PruneBlocks(number types.BlockNumber) (uint64, error) {
	if number == 0 {
		return 0, errors.New("number must be greater than 0")
	}
	if number > bs.Height() {
		return 0, fmt.Errorf("number must be equal to or less than the latest height %d", bs.Height())
	}

	// when removing the block, use its hash to remove the hash key at the
	// same time
	removeBlockHash := func(key, value []byte, batch dbm.Batch) error {
		block, err := types.BlockFromBytes(value)
		if err != nil {
			return fmt.Errorf("decode block: %w", err)
		}
		if err := batch.Delete(blockHashKey(block.Hash())); err != nil {
			return fmt.Errorf("failed to delete hash key: %X: %w", blockHashKey(block.Hash()), err)
		}
		return nil
	}

	return bs.pruneRange(blockKey(0), blockKey(number), removeBlockHash)
}

// pruneRange is a generic function for deleting a range of values based on
// the lowest number up to but excluding retainNumber. For each key/value
// pair, an optional hook can be executed before the deletion itself is made.
// pruneRange will use batch delete to delete keys in batches of at most 1000
// keys.
func (bs *BlockStore) pruneRange(
	start []byte,
	end []byte,
	preDeletionHook func(key, value []byte, batch dbm.Batch) error,
) (uint64, error) {
	var (
		err         error
		pruned      uint64
		totalPruned uint64
	)

	batch := bs.db.NewBatch()
	defer batch.Close()

	pruned, start, err = bs.batchDelete(batch, start, end, preDeletionHook)
	if err != nil {
		return totalPruned, err
	}

	// loop until we have finished iterating over all the keys by writing,
	// opening a new batch and incrementing through the next range of keys.
	for !bytes.Equal(start, end) {
		if err := batch.Write(); err != nil {
			return totalPruned, err
		}

		totalPruned += pruned

		if err := batch.Close(); err != nil {
			return totalPruned, err
		}

		batch = bs.db.NewBatch()

		pruned, start, err = bs.batchDelete(batch, start, end, preDeletionHook)
		if err != nil {
			return totalPruned, err
		}
	}

	// once we looped over all keys we do a final flush to disk
	if err := batch.WriteSync(); err != nil {
		return totalPruned, err
	}
	totalPruned += pruned
	return totalPruned, nil
}

// batchDelete runs an iterator over a set of keys, first preforming a pre
// deletion hook before adding it to the batch. The function ends when either
// 1000 keys have been added to the batch or the iterator has reached the end.
func (bs *BlockStore) batchDelete(
	batch dbm.Batch,
	start, end []byte,
	preDeletionHook func(key, value []byte, batch dbm.Batch) error,
) (uint64, []byte, error) {
	var pruned uint64
	iter, err := bs.db.Iterator(start, end)
	if err != nil {
		return pruned, start, err
	}
	defer iter.Close()

	for ; iter.Valid(); iter.Next() {
		key := iter.Key()
		if preDeletionHook != nil {
			if err := preDeletionHook(key, iter.Value(), batch); err != nil {
				return 0, start, fmt.Errorf("pruning error at key %X: %w", iter.Key(), err)
			}
		}

		if err := batch.Delete(key); err != nil {
			return 0, start, fmt.Errorf("pruning error at key %X: %w", iter.Key(), err)
		}

		pruned++
		if pruned == 1000 {
			return pruned, iter.Key(), iter.Error()
		}
	}

	return pruned, end, iter.Error()
}

func (bs *BlockStore) Close() error {
	return bs.db.Close()
}

//---------------------------------- KEY ENCODING -----------------------------------------

// key prefixes
const (
	prefixBlock     = int64(0)
	prefixBlockHash = int64(1)
)

func blockKey(number types.BlockNumber) []byte {
	key, err := orderedcode.Append(nil, prefixBlock, number)
	if err != nil {
		panic(err)
	}
	return key
}

func decodeBlockKey(key []byte) (number types.BlockNumber, err error) {
	var prefix int64
	remaining, err := orderedcode.Parse(string(key), &prefix, &number)
	if err != nil {
		return
	}
	if len(remaining) != 0 {
		return 0, fmt.Errorf("expected complete key but got remainder: %s", remaining)
	}
	if prefix != prefixBlock {
		return 0, fmt.Errorf("incorrect prefix. Expected %v, got %v", prefixBlock, prefix)
	}
	return
}

func blockHashKey(hash types.Hash) []byte {
	key, err := orderedcode.Append(nil, prefixBlockHash, string(hash[:]))
	if err != nil {
		panic(err)
	}
	return key
}
