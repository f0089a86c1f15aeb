package types

import (
	"fmt"
)

const (
	minEraPeriod = 4
	maxEraPeriod = 1 << 16
)

// Era bounds the validity of a signed extrinsic. The zero value is immortal.
// A mortal era is valid for Period blocks starting at its birth block, which
// is the most recent block whose number is congruent to Phase mod Period.
type Era struct {
	Period uint64 `json:"period"`
	Phase  uint64 `json:"phase"`
}

// ImmortalEra never expires.
func ImmortalEra() Era { return Era{} }

// MortalEra returns the era of the given period that contains current. The
// period is rounded up to a power of two in [4, 65536] and the phase is
// quantized so the era fits in two bytes on the wire.
func MortalEra(period, current uint64) Era {
	p := uint64(minEraPeriod)
	for p < period && p < maxEraPeriod {
		p <<= 1
	}
	phase := current % p
	q := quantizeFactor(p)
	phase = phase / q * q
	return Era{Period: p, Phase: phase}
}

func quantizeFactor(period uint64) uint64 {
	if q := period >> 12; q > 1 {
		return q
	}
	return 1
}

func (e Era) IsImmortal() bool { return e.Period == 0 }

// Validate checks the era is immortal or well formed.
func (e Era) Validate() error {
	if e.IsImmortal() {
		if e.Phase != 0 {
			return fmt.Errorf("immortal era with phase %d", e.Phase)
		}
		return nil
	}
	if e.Period < minEraPeriod || e.Period > maxEraPeriod || e.Period&(e.Period-1) != 0 {
		return fmt.Errorf("era period %d is not a power of two in [%d, %d]", e.Period, minEraPeriod, maxEraPeriod)
	}
	if e.Phase >= e.Period {
		return fmt.Errorf("era phase %d not below period %d", e.Phase, e.Period)
	}
	if e.Phase%quantizeFactor(e.Period) != 0 {
		return fmt.Errorf("era phase %d is not quantized", e.Phase)
	}
	return nil
}

// Birth returns the first block the era is valid in, given the current
// block number.
func (e Era) Birth(current BlockNumber) BlockNumber {
	if e.IsImmortal() {
		return 0
	}
	if current < e.Phase {
		current = e.Phase
	}
	return (current-e.Phase)/e.Period*e.Period + e.Phase
}

// Death returns the first block the era is no longer valid in.
func (e Era) Death(current BlockNumber) BlockNumber {
	if e.IsImmortal() {
		return ^BlockNumber(0)
	}
	return e.Birth(current) + e.Period
}

func (e Era) String() string {
	if e.IsImmortal() {
		return "Immortal"
	}
	return fmt.Sprintf("Mortal(%d, %d)", e.Period, e.Phase)
}

func (e Era) Encode(enc *Encoder) {
	enc.Uint64(e.Period).Uint64(e.Phase)
}

func DecodeEra(d *Decoder) Era {
	e := Era{Period: d.Uint64(), Phase: d.Uint64()}
	if d.Err() == nil {
		if err := e.Validate(); err != nil {
			d.Failf("%v", err)
		}
	}
	return e
}
