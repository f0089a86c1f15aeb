package fees

import (
	"errors"
	"fmt"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/libs/log"
	tmmath "github.com/tendermint/executive/libs/math"
	"github.com/tendermint/executive/types"
)

// Sink receives one side of a split fee. It must consume the imbalance.
type Sink interface {
	Credit(ctx *registry.Context, imb *types.NegativeImbalance)
}

// Currency resolves fee imbalances.
type Currency interface {
	// ResolveCreating credits imb to who, creating the account if needed.
	ResolveCreating(ctx *registry.Context, who types.AccountID, imb *types.NegativeImbalance)
	// Burn removes imb from the total issuance.
	Burn(ctx *registry.Context, imb *types.NegativeImbalance)
}

// KeyProvider returns the privileged key, which receives treasury fees.
type KeyProvider interface {
	Key(r storage.Reader) (types.AccountID, bool)
}

// AuthorProvider returns the author of the block being built.
type AuthorProvider interface {
	Author(r storage.Reader) (types.AccountID, bool)
}

// Distribution reports how a fee was split.
type Distribution struct {
	Treasury types.Balance
	Author   types.Balance
}

// Split divides amount in the ratio treasuryParts:authorParts. Each side
// gets the floor of its share; the indivisible remainder goes to the author
// unless remainderToTreasury is set. The two results always sum to amount.
func Split(amount, treasuryParts, authorParts types.Balance, remainderToTreasury bool) (Distribution, error) {
	total := treasuryParts + authorParts
	if total < treasuryParts {
		return Distribution{}, errors.New("fee parts overflow")
	}
	if total == 0 {
		return Distribution{}, errors.New("fee parts can't both be zero")
	}
	treasury, err := tmmath.MulDiv(amount, treasuryParts, total)
	if err != nil {
		return Distribution{}, err
	}
	author, err := tmmath.MulDiv(amount, authorParts, total)
	if err != nil {
		return Distribution{}, err
	}
	remainder := amount - treasury - author
	if remainderToTreasury {
		treasury += remainder
	} else {
		author += remainder
	}
	return Distribution{Treasury: treasury, Author: author}, nil
}

// Splitter distributes deducted fees between the treasury and the block
// author.
type Splitter struct {
	treasuryParts       types.Balance
	authorParts         types.Balance
	remainderToTreasury bool

	treasury Sink
	author   Sink
	logger   log.Logger
}

// NewSplitter returns a splitter using the configured ratio.
func NewSplitter(cfg *config.RuntimeConfig, treasury, author Sink, logger log.Logger) *Splitter {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Splitter{
		treasuryParts:       cfg.TreasuryFeeParts,
		authorParts:         cfg.AuthorFeeParts,
		remainderToTreasury: cfg.FeeRemainderTo == config.FeeRemainderTreasury,
		treasury:            treasury,
		author:              author,
		logger:              logger,
	}
}

// Distribute consumes fee and credits both sinks. It panics if value would
// be created or destroyed, which can only happen through a bug.
func (s *Splitter) Distribute(ctx *registry.Context, fee *types.NegativeImbalance) Distribution {
	amount := fee.Peek()
	dist, err := Split(amount, s.treasuryParts, s.authorParts, s.remainderToTreasury)
	if err != nil {
		panic(fmt.Errorf("fee split: %w", err))
	}

	toTreasury, toAuthor := fee.Split(dist.Treasury)
	if toTreasury.Peek()+toAuthor.Peek() != amount || toAuthor.Peek() != dist.Author {
		panic(fmt.Sprintf("fee split does not conserve value: %d != %d + %d", amount, toTreasury.Peek(), toAuthor.Peek()))
	}

	s.treasury.Credit(ctx, toTreasury)
	s.author.Credit(ctx, toAuthor)
	if !toTreasury.Consumed() || !toAuthor.Consumed() {
		panic("fee sink left an imbalance unresolved")
	}

	s.logger.Debug("distributed fee", "amount", amount, "treasury", dist.Treasury, "author", dist.Author)
	return dist
}

// TreasurySink credits the privileged key. With no key set the fee is
// burned.
type TreasurySink struct {
	Currency Currency
	Keys     KeyProvider
}

func (t TreasurySink) Credit(ctx *registry.Context, imb *types.NegativeImbalance) {
	key, ok := t.Keys.Key(ctx.Store)
	if !ok {
		t.Currency.Burn(ctx, imb)
		return
	}
	t.Currency.ResolveCreating(ctx, key, imb)
}

// AuthorSink credits the current block author, falling back to Fallback
// when the author is unknown.
type AuthorSink struct {
	Currency Currency
	Authors  AuthorProvider
	Fallback Sink
}

func (a AuthorSink) Credit(ctx *registry.Context, imb *types.NegativeImbalance) {
	author, ok := a.Authors.Author(ctx.Store)
	if !ok {
		a.Fallback.Credit(ctx, imb)
		return
	}
	a.Currency.ResolveCreating(ctx, author, imb)
}
