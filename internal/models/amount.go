package models

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a money value in minor currency units.
type Amount int64

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrFractionalAmount = errors.New("amount must be a whole number of minor units")
	ErrAmountOverflow   = errors.New("amount out of range")
)

// String formats the amount as a plain integer.
func (a Amount) String() string {
	return strconv.FormatInt(int64(a), 10)
}

// Times returns a multiplied by n, or ErrAmountOverflow when the product
// does not fit in an Amount. n must not be negative.
func (a Amount) Times(n int) (Amount, error) {
	if n < 0 {
		return 0, ErrInvalidAmount
	}
	if n == 0 || a == 0 {
		return 0, nil
	}
	if a > maxAmount/Amount(n) || a < -maxAmount/Amount(n) {
		return 0, ErrAmountOverflow
	}
	return a * Amount(n), nil
}

// ParseAmount parses a positive, whole minor-unit amount such as "2000" or "2000.00".
// Fractional values, zero, negatives and malformed input are rejected.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	if !d.IsInteger() {
		return 0, ErrFractionalAmount
	}
	if !d.LessThanOrEqual(decimal.NewFromInt(maxAmount)) {
		return 0, ErrInvalidAmount
	}
	return Amount(d.IntPart()), nil
}

// RoundAmount converts an arbitrary decimal string, possibly fractional, to the
// nearest whole minor unit (half away from zero).
func RoundAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidAmount
	}
	d = d.Round(0)
	if d.Abs().GreaterThan(decimal.NewFromInt(maxAmount)) {
		return 0, ErrInvalidAmount
	}
	return Amount(d.IntPart()), nil
}

const maxAmount = 1<<63 - 1
