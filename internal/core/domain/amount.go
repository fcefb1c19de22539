package domain

import (
	"fmt"
	"math"
	"math/bits"
)

type AssetAmount struct {
	Asset  Asset
	Amount uint64
}

// AddAmount returns a+b or ErrInvalidArgument on overflow.
func AddAmount(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: amount overflows %d", ErrInvalidArgument, uint64(math.MaxUint64))
	}
	return sum, nil
}

// SubAmount returns a-b or ErrInsufficientBalance when b exceeds a.
func SubAmount(a, b uint64) (uint64, error) {
	if b > a {
		return 0, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientBalance, b, a)
	}
	return a - b, nil
}

// mulDiv computes a*b/d with a 128 bit intermediate product. Callers
// guarantee b <= d, so the quotient always fits in 64 bits.
func mulDiv(a, b, d uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	quo, _ := bits.Div64(hi, lo, d)
	return quo
}
