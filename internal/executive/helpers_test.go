package executive_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/crypto"
	"github.com/tendermint/executive/crypto/ed25519"
	"github.com/tendermint/executive/internal/executive"
	"github.com/tendermint/executive/internal/fees"
	"github.com/tendermint/executive/internal/modules/aura"
	"github.com/tendermint/executive/internal/modules/balances"
	"github.com/tendermint/executive/internal/modules/moduletest"
	"github.com/tendermint/executive/internal/modules/system"
	"github.com/tendermint/executive/internal/runtime"
	"github.com/tendermint/executive/libs/log"
	"github.com/tendermint/executive/types"
)

var (
	aliceKey = ed25519.GenPrivKeyFromSecret([]byte("alice"))
	bobKey   = ed25519.GenPrivKeyFromSecret([]byte("bob"))
	poorKey  = ed25519.GenPrivKeyFromSecret([]byte("poor"))
	rootKey  = ed25519.GenPrivKeyFromSecret([]byte("root"))

	alice = types.AccountIDFromPubKey(aliceKey.PubKey())
	bob   = types.AccountIDFromPubKey(bobKey.PubKey())
	poor  = types.AccountIDFromPubKey(poorKey.PubKey())
	root  = types.AccountIDFromPubKey(rootKey.PubKey())

	// the single aura authority authors every block
	author = moduletest.Account(0xaa)
)

const (
	initialBalance types.Balance = 100 * types.Milli
	poorBalance    types.Balance = 1000
)

type testChain struct {
	rt *runtime.Runtime
	ex *executive.Executive
}

func genesisDoc() *types.GenesisDoc {
	doc := moduletest.Genesis(
		types.GenesisAccount{Account: alice, Balance: initialBalance},
		types.GenesisAccount{Account: bob, Balance: initialBalance},
		types.GenesisAccount{Account: poor, Balance: poorBalance},
		types.GenesisAccount{Account: root, Balance: initialBalance},
		types.GenesisAccount{Account: author, Balance: initialBalance},
	)
	doc.SudoKey = root
	return doc
}

func newTestChain(t *testing.T) *testChain {
	t.Helper()
	rt, err := runtime.New(config.TestRuntimeConfig(), dbm.NewMemDB(), dbm.NewMemDB(), log.NewTestingLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	_, err = rt.Executive.InitChain(genesisDoc())
	require.NoError(t, err)
	return &testChain{rt: rt, ex: rt.Executive}
}

// now is the block time of block n; every block lands in a new slot.
func (c *testChain) now(n types.BlockNumber) types.Moment {
	return c.rt.Aura.SlotDuration() * (1000 + n)
}

func (c *testChain) inherentData(n types.BlockNumber) *types.InherentData {
	data := types.NewInherentData()
	data.PutUint64(types.TimestampInherent, c.now(n))
	return data
}

// nextHeader returns the header template of the next block.
func (c *testChain) nextHeader(t *testing.T) types.Header {
	t.Helper()
	height, parent, err := c.ex.Head()
	require.NoError(t, err)
	n := height + 1
	header := types.Header{Number: n, ParentHash: parent}
	header.Digest.Push(aura.PreDigest(c.now(n) / c.rt.Aura.SlotDuration()))
	return header
}

// openBlock initializes the next block and applies its inherents.
func (c *testChain) openBlock(t *testing.T) types.BlockNumber {
	t.Helper()
	header := c.nextHeader(t)
	require.NoError(t, c.ex.InitializeBlock(header))
	inherents, err := c.ex.InherentExtrinsics(c.inherentData(header.Number))
	require.NoError(t, err)
	for _, bz := range inherents {
		_, err := c.ex.ApplyExtrinsic(bz)
		require.NoError(t, err)
	}
	return header.Number
}

// closeBlock finalizes and commits the open block.
func (c *testChain) closeBlock(t *testing.T) *types.Block {
	t.Helper()
	_, err := c.ex.FinalizeBlock()
	require.NoError(t, err)
	block, err := c.ex.Commit()
	require.NoError(t, err)
	return block
}

// produce builds and commits a block with txs, all of which must apply.
func (c *testChain) produce(t *testing.T, txs ...[]byte) *types.Block {
	t.Helper()
	height, _, err := c.ex.Head()
	require.NoError(t, err)
	res, err := c.rt.ProduceBlock(c.inherentData(height+1), txs)
	require.NoError(t, err)
	require.Empty(t, res.Rejected)
	return res.Block
}

// sign builds an immortal signed extrinsic.
func (c *testChain) sign(t *testing.T, priv crypto.PrivKey, call types.Call, nonce types.Nonce) []byte {
	t.Helper()
	genesis := system.GenesisHash(c.ex.Store())
	xt, err := types.SignExtrinsic(priv, call, nonce, types.ImmortalEra(), genesis)
	require.NoError(t, err)
	return xt.Bytes()
}

func (c *testChain) remark(t *testing.T, priv crypto.PrivKey, nonce types.Nonce) []byte {
	return c.sign(t, priv, c.rt.System.Remark([]byte("hello")), nonce)
}

// fee returns the fee charged for the encoded extrinsic bz.
func (c *testChain) fee(t *testing.T, bz []byte) types.Balance {
	t.Helper()
	xt, err := types.DecodeExtrinsic(bz)
	require.NoError(t, err)
	d, err := c.rt.Registry.Resolve(xt.Call)
	require.NoError(t, err)
	return fees.NewSchedule(c.rt.Config).Compute(uint64(len(bz)), d.Info())
}

func (c *testChain) nonce(who types.AccountID) types.Nonce {
	return system.AccountNonce(c.ex.Store(), who)
}

func (c *testChain) balance(who types.AccountID) types.Balance {
	return balances.FreeBalance(c.ex.Store(), who)
}

func (c *testChain) issuance() types.Balance {
	return c.rt.Balances.TotalIssuance(c.ex.Store())
}

// advanceNonce commits blocks of remarks until who's nonce is n.
func (c *testChain) advanceNonce(t *testing.T, priv crypto.PrivKey, n types.Nonce) {
	t.Helper()
	who := types.AccountIDFromPubKey(priv.PubKey())
	var txs [][]byte
	for i := c.nonce(who); i < n; i++ {
		txs = append(txs, c.remark(t, priv, i))
	}
	c.produce(t, txs...)
	require.EqualValues(t, n, c.nonce(who))
}

// timeout is how long tests wait for asynchronous work.
const timeout = 5 * time.Second
