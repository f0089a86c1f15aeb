package math

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Fraction defined in terms of a numerator divided by a denominator in uint64
// format.
type Fraction struct {
	// The portion of the denominator in the faction, e.g. 2 in 2/3.
	Numerator uint64 `json:"numerator"`
	// The value by which the numerator is divided, e.g. 3 in 2/3. Must be
	// positive.
	Denominator uint64 `json:"denominator"`
}

func (fr Fraction) String() string {
	return fmt.Sprintf("%d/%d", fr.Numerator, fr.Denominator)
}

// Of returns floor(x * fr) computed without intermediate overflow.
func (fr Fraction) Of(x uint64) (uint64, error) {
	return MulDiv(x, fr.Numerator, fr.Denominator)
}

// ParseFraction parses the string "numerator/denominator" into a Fraction.
func ParseFraction(f string) (Fraction, error) {
	o := strings.Split(f, "/")
	if len(o) != 2 {
		return Fraction{}, errors.New("incorrect formating: should have a single slash i.e. \"1/3\"")
	}
	numerator, err := strconv.ParseUint(o[0], 10, 64)
	if err != nil {
		return Fraction{}, err
	}
	denominator, err := strconv.ParseUint(o[1], 10, 64)
	if err != nil {
		return Fraction{}, err
	}
	if denominator == 0 {
		return Fraction{}, errors.New("denominator can't be 0")
	}
	return Fraction{Numerator: numerator, Denominator: denominator}, nil
}
