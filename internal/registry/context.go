package registry

import (
	"errors"
	"fmt"

	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/libs/log"
	"github.com/tendermint/executive/types"
)

// ErrCallDepthExceeded is returned when nested dispatch goes deeper than
// the configured maximum.
var ErrCallDepthExceeded = errors.New("maximum call depth exceeded")

// EventLog is the block scoped, ordered list of deposited events.
type EventLog struct {
	records []types.EventRecord
}

func (l *EventLog) Records() []types.EventRecord {
	out := make([]types.EventRecord, len(l.records))
	copy(out, l.records)
	return out
}

func (l *EventLog) Len() int { return len(l.records) }

// Since returns the records appended at or after position n.
func (l *EventLog) Since(n int) []types.EventRecord {
	if n >= len(l.records) {
		return nil
	}
	out := make([]types.EventRecord, len(l.records)-n)
	copy(out, l.records[n:])
	return out
}

// Truncate drops every record after position n.
func (l *EventLog) Truncate(n int) {
	if n < len(l.records) {
		l.records = l.records[:n]
	}
}

func (l *EventLog) Reset() { l.records = nil }

// Context is what a module sees while running: the state, the current block
// and phase, the event log and the registry for nested dispatch.
//
// A Context is not goroutine safe; block execution is strictly sequential.
type Context struct {
	Store  storage.KVStore
	Number types.BlockNumber
	Phase  types.Phase
	Logger log.Logger

	registry *Registry
	events   *EventLog
	depth    uint64
	maxDepth uint64
}

// NewContext returns a root context for block number. maxDepth bounds
// nested dispatch.
func NewContext(r *Registry, kv storage.KVStore, events *EventLog, number types.BlockNumber, maxDepth uint64, logger log.Logger) *Context {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Context{
		Store:    kv,
		Number:   number,
		Phase:    types.Phase{Kind: types.PhaseInitialization},
		Logger:   logger,
		registry: r,
		events:   events,
		maxDepth: maxDepth,
	}
}

// WithStore returns a copy of the context writing to kv.
func (c *Context) WithStore(kv storage.KVStore) *Context {
	cp := *c
	cp.Store = kv
	return &cp
}

// WithPhase returns a copy of the context with the given phase.
func (c *Context) WithPhase(p types.Phase) *Context {
	cp := *c
	cp.Phase = p
	return &cp
}

// WithEvents returns a copy of the context depositing into events.
func (c *Context) WithEvents(events *EventLog) *Context {
	cp := *c
	cp.events = events
	return &cp
}

// Depth is the current nested dispatch depth; zero for top-level calls.
func (c *Context) Depth() uint64 { return c.depth }

// Registry returns the registry the context dispatches through.
func (c *Context) Registry() *Registry { return c.registry }

// Dispatch runs call under origin one level deeper than the current call.
func (c *Context) Dispatch(call types.Call, origin types.Origin) error {
	if c.depth+1 > c.maxDepth {
		return fmt.Errorf("%w (%d)", ErrCallDepthExceeded, c.maxDepth)
	}
	child := *c
	child.depth++
	return c.registry.Dispatch(&child, call, origin)
}

func (c *Context) deposit(ev types.Event) {
	if c.events == nil {
		return
	}
	c.events.records = append(c.events.records, types.EventRecord{Phase: c.Phase, Event: ev})
}
