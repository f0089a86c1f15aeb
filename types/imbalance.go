package types

import (
	"fmt"
)

// NegativeImbalance is value removed from an account that has not yet been
// credited anywhere else. It must be consumed exactly once, by crediting it
// (Take) or by merging it into another imbalance.
type NegativeImbalance struct {
	amount   Balance
	consumed bool
}

// NewNegativeImbalance is called by currency implementations when they
// withdraw value.
func NewNegativeImbalance(amount Balance) *NegativeImbalance {
	return &NegativeImbalance{amount: amount}
}

// Peek returns the amount without consuming the imbalance.
func (n *NegativeImbalance) Peek() Balance { return n.amount }

// Consumed reports whether the imbalance has been resolved.
func (n *NegativeImbalance) Consumed() bool { return n.consumed }

// Split divides the imbalance into two parts, the first holding amount. n
// is consumed.
func (n *NegativeImbalance) Split(amount Balance) (*NegativeImbalance, *NegativeImbalance) {
	n.mustLive()
	if amount > n.amount {
		amount = n.amount
	}
	first := NewNegativeImbalance(amount)
	second := NewNegativeImbalance(n.amount - amount)
	n.consumed = true
	return first, second
}

// Merge absorbs other into n. other is consumed.
func (n *NegativeImbalance) Merge(other *NegativeImbalance) *NegativeImbalance {
	n.mustLive()
	other.mustLive()
	n.amount += other.amount
	other.consumed = true
	return n
}

// Take consumes the imbalance and returns its amount.
func (n *NegativeImbalance) Take() Balance {
	n.mustLive()
	n.consumed = true
	return n.amount
}

func (n *NegativeImbalance) mustLive() {
	if n.consumed {
		panic(fmt.Sprintf("negative imbalance of %d consumed twice", n.amount))
	}
}

// PositiveImbalance is value credited to an account that was not debited
// from anywhere, i.e. newly minted.
type PositiveImbalance struct {
	amount   Balance
	consumed bool
}

func NewPositiveImbalance(amount Balance) *PositiveImbalance {
	return &PositiveImbalance{amount: amount}
}

func (p *PositiveImbalance) Peek() Balance { return p.amount }

func (p *PositiveImbalance) Consumed() bool { return p.consumed }

// Merge absorbs other into p. other is consumed.
func (p *PositiveImbalance) Merge(other *PositiveImbalance) *PositiveImbalance {
	p.mustLive()
	other.mustLive()
	p.amount += other.amount
	other.consumed = true
	return p
}

// Take consumes the imbalance and returns its amount.
func (p *PositiveImbalance) Take() Balance {
	p.mustLive()
	p.consumed = true
	return p.amount
}

func (p *PositiveImbalance) mustLive() {
	if p.consumed {
		panic(fmt.Sprintf("positive imbalance of %d consumed twice", p.amount))
	}
}
