// Package price converts between decimal prices and integral ticks.
package price

import (
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTick = errors.New("tick size must be positive")
	ErrOffGrid     = errors.New("price is not a multiple of the tick size")
	ErrNegative    = errors.New("price must not be negative")
	ErrOverflow    = errors.New("price does not fit in ticks")
)

var maxTicks = fromUint64(^uint64(0))

// ToTicks returns px / tick. The price must sit exactly on the tick grid.
func ToTicks(px, tick decimal.Decimal) (uint64, error) {
	if !tick.IsPositive() {
		return 0, errors.Wrapf(ErrInvalidTick, "tick %s", tick)
	}
	if px.IsNegative() {
		return 0, errors.Wrapf(ErrNegative, "price %s", px)
	}
	q, r := px.QuoRem(tick, 0)
	if !r.IsZero() {
		return 0, errors.Wrapf(ErrOffGrid, "price %s tick %s", px, tick)
	}
	if q.GreaterThan(maxTicks) {
		return 0, errors.Wrapf(ErrOverflow, "price %s tick %s", px, tick)
	}
	return q.BigInt().Uint64(), nil
}

// FromTicks returns ticks * tick.
func FromTicks(ticks uint64, tick decimal.Decimal) decimal.Decimal {
	return fromUint64(ticks).Mul(tick)
}

// ParseTick parses a tick size such as "0.01".
func ParseTick(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse tick %q", s)
	}
	if !d.IsPositive() {
		return decimal.Zero, errors.Wrapf(ErrInvalidTick, "tick %q", s)
	}
	return d, nil
}

func fromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
