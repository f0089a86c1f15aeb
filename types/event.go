package types

import (
	"fmt"
)

// PhaseKind tells which part of block execution emitted an event.
type PhaseKind uint8

const (
	PhaseInitialization PhaseKind = iota
	PhaseApplyExtrinsic
	PhaseFinalization
)

// Phase is the block execution phase an event was emitted in. Extrinsic is
// only meaningful for PhaseApplyExtrinsic.
type Phase struct {
	Kind      PhaseKind `json:"kind"`
	Extrinsic uint32    `json:"extrinsic,omitempty"`
}

func ApplyExtrinsicPhase(index uint32) Phase {
	return Phase{Kind: PhaseApplyExtrinsic, Extrinsic: index}
}

func (p Phase) String() string {
	switch p.Kind {
	case PhaseInitialization:
		return "Initialization"
	case PhaseApplyExtrinsic:
		return fmt.Sprintf("ApplyExtrinsic(%d)", p.Extrinsic)
	case PhaseFinalization:
		return "Finalization"
	default:
		return fmt.Sprintf("Phase(%d)", p.Kind)
	}
}

// Event is a module event. Module is the registration index of the emitting
// module and Variant the event's position in that module's event list.
type Event struct {
	Module  uint8       `json:"module"`
	Variant uint8       `json:"variant"`
	Name    string      `json:"name"`
	Data    interface{} `json:"data,omitempty"`
}

func (ev Event) String() string {
	return fmt.Sprintf("%s(%d:%d)", ev.Name, ev.Module, ev.Variant)
}

// EventRecord is an event tagged with the phase it was emitted in.
type EventRecord struct {
	Phase Phase `json:"phase"`
	Event Event `json:"event"`
}
