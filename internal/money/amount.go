package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// bipsScale is log10(MaxBips).
const bipsScale = 4

// Amount is an immutable quantity of minor units of currency C. The magnitude
// is exact and may carry fractional minor units until it is rounded. Every
// operation that drops precision rounds half to even.
type Amount[C Currency] struct {
	minor decimal.Decimal
}

// FromMinorUnits parses a decimal string of minor units (cents, satoshis).
func FromMinorUnits[C Currency](value string) (Amount[C], error) {
	d, err := parseDecimal(value, codeOf[C]())
	if err != nil {
		return Amount[C]{}, err
	}
	return Amount[C]{minor: d}, nil
}

// FromMajorUnits parses a decimal string of major units (dollars, bitcoin).
func FromMajorUnits[C Currency](value string) (Amount[C], error) {
	code := codeOf[C]()
	d, err := parseDecimal(value, code)
	if err != nil {
		return Amount[C]{}, err
	}
	return Amount[C]{minor: d.Shift(code.Scale())}, nil
}

// FromMinorInt builds an amount from a whole number of minor units.
func FromMinorInt[C Currency](v int64) Amount[C] {
	return Amount[C]{minor: decimal.NewFromInt(v)}
}

// FromDecimal wraps a decimal count of minor units.
func FromDecimal[C Currency](minor decimal.Decimal) Amount[C] {
	return Amount[C]{minor: minor}
}

// Zero returns the zero amount of C.
func Zero[C Currency]() Amount[C] {
	return Amount[C]{minor: decimal.Zero}
}

func USDCents(v string) (Amount[USD], error)   { return FromMinorUnits[USD](v) }
func USDDollars(v string) (Amount[USD], error) { return FromMajorUnits[USD](v) }
func JMDCents(v string) (Amount[JMD], error)   { return FromMinorUnits[JMD](v) }
func JMDDollars(v string) (Amount[JMD], error) { return FromMajorUnits[JMD](v) }
func Sats(v string) (Amount[BTC], error)       { return FromMinorUnits[BTC](v) }

func parseDecimal(value string, code Code) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Decimal{}, &ConversionError{Input: value, Currency: code, Err: fmt.Errorf("empty value")}
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, &ConversionError{Input: value, Currency: code, Err: err}
	}
	return d, nil
}

// Currency returns the code of C.
func (a Amount[C]) Currency() Code { return codeOf[C]() }

// MinorUnits returns the exact magnitude in minor units.
func (a Amount[C]) MinorUnits() decimal.Decimal { return a.minor }

func (a Amount[C]) Add(b Amount[C]) Amount[C] {
	return Amount[C]{minor: a.minor.Add(b.minor)}
}

func (a Amount[C]) Subtract(b Amount[C]) Amount[C] {
	return Amount[C]{minor: a.minor.Sub(b.minor)}
}

// MultiplyBips returns round(a * b / 10000) in whole minor units.
func (a Amount[C]) MultiplyBips(b Bips) Amount[C] {
	product := a.minor.Mul(decimal.NewFromInt(int64(b))).Shift(-bipsScale)
	return Amount[C]{minor: product.RoundBank(0)}
}

// Round rounds to whole minor units.
func (a Amount[C]) Round() Amount[C] {
	return Amount[C]{minor: a.minor.RoundBank(0)}
}

func (a Amount[C]) Neg() Amount[C] { return Amount[C]{minor: a.minor.Neg()} }
func (a Amount[C]) Abs() Amount[C] { return Amount[C]{minor: a.minor.Abs()} }

func (a Amount[C]) IsZero() bool     { return a.minor.IsZero() }
func (a Amount[C]) IsPositive() bool { return a.minor.IsPositive() }
func (a Amount[C]) IsNegative() bool { return a.minor.IsNegative() }

// IsWhole reports whether the amount is an integral number of minor units.
func (a Amount[C]) IsWhole() bool { return a.minor.IsInteger() }

func (a Amount[C]) Cmp(b Amount[C]) int            { return a.minor.Cmp(b.minor) }
func (a Amount[C]) Equal(b Amount[C]) bool         { return a.minor.Equal(b.minor) }
func (a Amount[C]) IsLessThan(b Amount[C]) bool    { return a.minor.LessThan(b.minor) }
func (a Amount[C]) IsGreaterThan(b Amount[C]) bool { return a.minor.GreaterThan(b.minor) }

// ToMinorUnitsString renders minor units with precision decimals.
func (a Amount[C]) ToMinorUnitsString(precision int32) string {
	return a.minor.StringFixedBank(precision)
}

// ToMajorUnitsString renders major units with precision decimals.
func (a Amount[C]) ToMajorUnitsString(precision int32) string {
	return a.minor.Shift(-a.Currency().Scale()).StringFixedBank(precision)
}

// Serialize returns the wire tuple (minor units, currency).
func (a Amount[C]) Serialize() (string, Code) {
	return a.minor.String(), a.Currency()
}

// Deserialize is the inverse of Serialize. The code must match C.
func Deserialize[C Currency](value string, code Code) (Amount[C], error) {
	want := codeOf[C]()
	if code != want {
		return Amount[C]{}, &ConversionError{
			Input:    value,
			Currency: want,
			Err:      fmt.Errorf("%w: got %s", ErrCurrencyMismatch, code),
		}
	}
	return FromMinorUnits[C](value)
}

// Money erases the currency tag.
func (a Amount[C]) Money() Money {
	return Money{minor: a.minor, currency: a.Currency()}
}

func (a Amount[C]) String() string {
	return a.ToMajorUnitsString(a.Currency().Scale()) + " " + string(a.Currency())
}

func (a Amount[C]) MarshalJSON() ([]byte, error) {
	return a.Money().MarshalJSON()
}

func (a *Amount[C]) UnmarshalJSON(data []byte) error {
	var m Money
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	v, err := As[C](m)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Convert applies a rate quoted as "T per one major unit of S", held in T's
// minor units: round(a * rate / 10^scale(S)).
func Convert[S, T Currency](a Amount[S], rate Amount[T]) Amount[T] {
	scale := codeOf[S]().Scale()
	if scale < 0 {
		panic("money: negative currency scale")
	}
	converted := a.minor.Mul(rate.minor).Shift(-scale)
	return Amount[T]{minor: converted.RoundBank(0)}
}

// ConvertInverse applies a rate quoted as "S per one major unit of T", held
// in S's minor units: round(a * 10^scale(T) / rate). A zero rate panics.
func ConvertInverse[S, T Currency](a Amount[S], rate Amount[S]) Amount[T] {
	if rate.minor.IsZero() {
		panic("money: conversion at zero rate")
	}
	scale := codeOf[T]().Scale()
	return Amount[T]{minor: divRoundBank(a.minor.Shift(scale), rate.minor)}
}

// divRoundBank returns n / d rounded half to even on the exact quotient.
func divRoundBank(n, d decimal.Decimal) decimal.Decimal {
	q, r := n.QuoRem(d, 0)
	if r.IsZero() {
		return q
	}
	step := decimal.NewFromInt(int64(n.Sign() * d.Sign()))
	switch r.Abs().Mul(decimal.NewFromInt(2)).Cmp(d.Abs()) {
	case 1:
		return q.Add(step)
	case 0:
		if !q.Mod(decimal.NewFromInt(2)).IsZero() {
			return q.Add(step)
		}
	}
	return q
}
