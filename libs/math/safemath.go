package math

import (
	"errors"
	"math"
	"math/bits"
)

var ErrOverflowUint64 = errors.New("uint64 overflow")
var ErrOverflowUint32 = errors.New("uint32 overflow")
var ErrDivisionByZero = errors.New("division by zero")

// SafeAdd adds two uint64 integers. ok is false if the sum overflowed.
func SafeAdd(a, b uint64) (c uint64, ok bool) {
	c, carry := bits.Add64(a, b, 0)
	return c, carry == 0
}

// SafeSub subtracts b from a. ok is false if the difference underflowed.
func SafeSub(a, b uint64) (c uint64, ok bool) {
	c, borrow := bits.Sub64(a, b, 0)
	return c, borrow == 0
}

// SafeMul multiplies two uint64 integers. ok is false if the product
// overflowed.
func SafeMul(a, b uint64) (c uint64, ok bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

// SaturatingAdd adds two uint64 integers, clamping at math.MaxUint64.
func SaturatingAdd(a, b uint64) uint64 {
	c, ok := SafeAdd(a, b)
	if !ok {
		return math.MaxUint64
	}
	return c
}

// SaturatingSub subtracts b from a, clamping at zero.
func SaturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// SaturatingMul multiplies two uint64 integers, clamping at math.MaxUint64.
func SaturatingMul(a, b uint64) uint64 {
	c, ok := SafeMul(a, b)
	if !ok {
		return math.MaxUint64
	}
	return c
}

// MulDiv computes floor(a * b / d) with a 128-bit intermediate product. It
// returns an error when d is zero or the quotient does not fit in 64 bits.
func MulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivisionByZero
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, ErrOverflowUint64
	}
	q, _ := bits.Div64(hi, lo, d)
	return q, nil
}

// SafeConvertUint32 takes a uint64 and checks if it overflows.
// If there is an overflow this will panic
func SafeConvertUint32(a uint64) uint32 {
	if a > math.MaxUint32 {
		panic(ErrOverflowUint32)
	}
	return uint32(a)
}
