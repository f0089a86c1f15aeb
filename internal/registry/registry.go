package registry

import (
	"errors"
	"fmt"
	"math"

	"github.com/tendermint/executive/types"
)

// Registry is the ordered catalogue of modules. Registration order is fixed
// at construction; it assigns call and event tags and orders hooks.
type Registry struct {
	modules []Module
	byName  map[string]uint8
}

// New registers modules in the given order. Module names must be unique.
func New(modules ...Module) (*Registry, error) {
	if len(modules) > math.MaxUint8+1 {
		return nil, fmt.Errorf("too many modules: %d", len(modules))
	}
	r := &Registry{
		modules: make([]Module, len(modules)),
		byName:  make(map[string]uint8, len(modules)),
	}
	for i, m := range modules {
		if _, ok := r.byName[m.Name()]; ok {
			return nil, fmt.Errorf("duplicate module name %q", m.Name())
		}
		m.Bind(uint8(i))
		r.modules[i] = m
		r.byName[m.Name()] = uint8(i)
	}
	for _, m := range r.modules {
		if a, ok := m.(Attacher); ok {
			a.Attach(r)
		}
	}
	return r, nil
}

// Len returns the number of registered modules.
func (r *Registry) Len() int { return len(r.modules) }

// Module returns the module registered at index.
func (r *Registry) Module(index uint8) (Module, bool) {
	if int(index) >= len(r.modules) {
		return nil, false
	}
	return r.modules[index], true
}

// Index returns the registration index of the named module.
func (r *Registry) Index(name string) (uint8, bool) {
	i, ok := r.byName[name]
	return i, ok
}

// Modules returns the modules in registration order.
func (r *Registry) Modules() []Module {
	out := make([]Module, len(r.modules))
	copy(out, r.modules)
	return out
}

// Resolve decodes call into a Dispatchable. It fails with ErrMalformed if
// the module index or call tag is unknown or the arguments do not decode.
// Resolve never touches state.
func (r *Registry) Resolve(call types.Call) (Dispatchable, error) {
	m, ok := r.Module(call.Module)
	if !ok {
		return nil, fmt.Errorf("%w: unknown module %d", types.ErrMalformed, call.Module)
	}
	d, err := m.DecodeCall(call.Tag, call.Args)
	if err != nil {
		if !errors.Is(err, types.ErrMalformed) {
			err = fmt.Errorf("%w: %v", types.ErrMalformed, err)
		}
		return nil, err
	}
	return d, nil
}

// Dispatch resolves and runs call. The result is nil, an error wrapping
// ErrMalformed, or a *types.DispatchError.
func (r *Registry) Dispatch(ctx *Context, call types.Call, origin types.Origin) error {
	d, err := r.Resolve(call)
	if err != nil {
		return err
	}
	if de := r.Execute(ctx, call.Module, d, origin); de != nil {
		return de
	}
	return nil
}

// Execute runs an already resolved call of the module at index and
// classifies its error.
func (r *Registry) Execute(ctx *Context, index uint8, d Dispatchable, origin types.Origin) *types.DispatchError {
	err := d.Dispatch(ctx, origin)
	if err == nil {
		return nil
	}
	de := types.NewDispatchError(index, err)
	if de.Kind == types.DispatchErrorModule {
		// attribute the error to the module that declared it
		var me *types.ModuleError
		if errors.As(err, &me) {
			if i, ok := r.byName[me.Module]; ok {
				de.Module = i
			}
		}
	}
	return de
}

// Initialize runs OnInitialize hooks in ascending registration order.
func (r *Registry) Initialize(ctx *Context, number types.BlockNumber) error {
	for _, m := range r.modules {
		if h, ok := m.(Initializer); ok {
			if err := h.OnInitialize(ctx, number); err != nil {
				return fmt.Errorf("%s.on_initialize: %w", m.Name(), err)
			}
		}
	}
	return nil
}

// Finalize runs OnFinalize hooks in descending registration order.
func (r *Registry) Finalize(ctx *Context, number types.BlockNumber) error {
	for i := len(r.modules) - 1; i >= 0; i-- {
		m := r.modules[i]
		if h, ok := m.(Finalizer); ok {
			if err := h.OnFinalize(ctx, number); err != nil {
				return fmt.Errorf("%s.on_finalize: %w", m.Name(), err)
			}
		}
	}
	return nil
}

// InitGenesis seeds every module's genesis state in registration order.
func (r *Registry) InitGenesis(ctx *Context, genesis *types.GenesisDoc) error {
	for _, m := range r.modules {
		if g, ok := m.(GenesisBuilder); ok {
			if err := g.InitGenesis(ctx, genesis); err != nil {
				return fmt.Errorf("%s genesis: %w", m.Name(), err)
			}
		}
	}
	return nil
}

// InherentProviders returns the modules that provide inherents, in
// registration order.
func (r *Registry) InherentProviders() []InherentProvider {
	var out []InherentProvider
	for _, m := range r.modules {
		if p, ok := m.(InherentProvider); ok {
			out = append(out, p)
		}
	}
	return out
}

// OffchainWorkers returns the modules with offchain logic, in registration
// order.
func (r *Registry) OffchainWorkers() []OffchainWorker {
	var out []OffchainWorker
	for _, m := range r.modules {
		if w, ok := m.(OffchainWorker); ok {
			out = append(out, w)
		}
	}
	return out
}

// Metadata describes the registered modules in registration order.
func (r *Registry) Metadata() Metadata {
	md := Metadata{Version: MetadataVersion, Modules: make([]ModuleMetadata, len(r.modules))}
	for i, m := range r.modules {
		mm := m.Metadata()
		mm.Name = m.Name()
		mm.Index = uint8(i)
		md.Modules[i] = mm
	}
	return md
}
