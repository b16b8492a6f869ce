package marketplace

import (
	"math"
	"math/bits"
)

// CheckedDecrement subtracts amount from current without wrapping.
func CheckedDecrement(current, amount uint32) (uint32, error) {
	if amount > current {
		return 0, ErrInsufficientStock
	}
	return current - amount, nil
}

// CheckedMul computes unitPrice * quantity, failing instead of wrapping.
func CheckedMul(unitPrice uint64, quantity uint32) (uint64, error) {
	hi, lo := bits.Mul64(unitPrice, uint64(quantity))
	if hi != 0 {
		return 0, ErrMultiplicationOverflow
	}
	return lo, nil
}

// nextIndex turns a collection length into the index of the next entry. A
// collection holding math.MaxUint32 entries is full: its length no longer fits
// the uint32 counter once one more entry is appended.
func nextIndex(length uint64) (uint32, error) {
	if length >= math.MaxUint32 {
		return 0, ErrCapacityExhausted
	}
	return uint32(length), nil
}
