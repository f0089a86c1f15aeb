// Package authorship tracks the author of the block being built.
package authorship

import (
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/types"
)

// ModuleName is the registered name of the module.
const ModuleName = "Authorship"

var keyAuthor = storage.NewNamespace(ModuleName).Key("Author")

// AuthorFinder derives the author of the current block from its digest.
type AuthorFinder interface {
	Author(r storage.Reader) (types.AccountID, bool)
}

// Module is the authorship module. It caches the author found by the
// consensus engine for the duration of the block.
type Module struct {
	registry.BaseModule

	finder AuthorFinder
}

var _ registry.Module = (*Module)(nil)

func New(finder AuthorFinder) *Module {
	return &Module{
		BaseModule: registry.NewBaseModule(ModuleName),
		finder:     finder,
	}
}

func (m *Module) Metadata() registry.ModuleMetadata {
	return registry.ModuleMetadata{
		Storage: []registry.StorageMetadata{{Name: "Author", Value: "AccountId"}},
	}
}

func (m *Module) DecodeCall(tag uint8, _ []byte) (registry.Dispatchable, error) {
	return nil, registry.UnknownCall(m.Name(), tag)
}

func (m *Module) OnInitialize(ctx *registry.Context, number types.BlockNumber) error {
	ctx.Store.Delete(keyAuthor)
	if author, ok := m.finder.Author(ctx.Store); ok {
		storage.SetAccount(ctx.Store, keyAuthor, author)
	} else {
		ctx.Logger.Debug("block has no author", "height", number)
	}
	return nil
}

func (m *Module) OnFinalize(ctx *registry.Context, _ types.BlockNumber) error {
	ctx.Store.Delete(keyAuthor)
	return nil
}

// Author returns the author of the block being built.
func (m *Module) Author(r storage.Reader) (types.AccountID, bool) {
	return storage.GetAccount(r, keyAuthor)
}
