package money

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount whose currency is only known at runtime. It is the form
// amounts take on journal lines and on the wire; arithmetic between two
// Money values checks the currency and fails instead of mixing units.
type Money struct {
	minor    decimal.Decimal
	currency Code
}

// NewMoney builds a runtime-tagged amount from minor units.
func NewMoney(minor decimal.Decimal, code Code) (Money, error) {
	if !code.Valid() {
		return Money{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, string(code))
	}
	return Money{minor: minor, currency: code}, nil
}

// ParseMoney parses the wire tuple produced by Serialize.
func ParseMoney(value string, code Code) (Money, error) {
	if !code.Valid() {
		return Money{}, &ConversionError{Input: value, Currency: code, Err: ErrUnknownCurrency}
	}
	d, err := parseDecimal(value, code)
	if err != nil {
		return Money{}, err
	}
	return Money{minor: d, currency: code}, nil
}

// ParseMajorUnits parses a major-unit string such as "10.50".
func ParseMajorUnits(value string, code Code) (Money, error) {
	m, err := ParseMoney(value, code)
	if err != nil {
		return Money{}, err
	}
	m.minor = m.minor.Shift(code.Scale())
	return m, nil
}

// ZeroOf returns the zero amount in code.
func ZeroOf(code Code) Money {
	return Money{minor: decimal.Zero, currency: code}
}

// As recovers the compile-time tag, failing if the currency differs.
func As[C Currency](m Money) (Amount[C], error) {
	want := codeOf[C]()
	if m.currency != want {
		return Amount[C]{}, fmt.Errorf("%w: want %s, got %s", ErrCurrencyMismatch, want, m.currency)
	}
	return Amount[C]{minor: m.minor}, nil
}

func (m Money) Currency() Code              { return m.currency }
func (m Money) MinorUnits() decimal.Decimal { return m.minor }
func (m Money) IsZero() bool                { return m.minor.IsZero() }
func (m Money) IsPositive() bool            { return m.minor.IsPositive() }
func (m Money) IsNegative() bool            { return m.minor.IsNegative() }
func (m Money) IsWhole() bool               { return m.minor.IsInteger() }

func (m Money) Add(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{minor: m.minor.Add(o.minor), currency: m.currency}, nil
}

func (m Money) Subtract(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{minor: m.minor.Sub(o.minor), currency: m.currency}, nil
}

// Cmp compares two amounts of the same currency.
func (m Money) Cmp(o Money) (int, error) {
	if err := m.sameCurrency(o); err != nil {
		return 0, err
	}
	return m.minor.Cmp(o.minor), nil
}

// Equal reports same currency and same magnitude.
func (m Money) Equal(o Money) bool {
	return m.currency == o.currency && m.minor.Equal(o.minor)
}

func (m Money) Neg() Money { return Money{minor: m.minor.Neg(), currency: m.currency} }

// Round rounds half to even to whole minor units.
func (m Money) Round() Money {
	return Money{minor: m.minor.RoundBank(0), currency: m.currency}
}

func (m Money) sameCurrency(o Money) error {
	if m.currency != o.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, o.currency)
	}
	return nil
}

func (m Money) ToMinorUnitsString(precision int32) string {
	return m.minor.StringFixedBank(precision)
}

func (m Money) ToMajorUnitsString(precision int32) string {
	return m.minor.Shift(-m.currency.Scale()).StringFixedBank(precision)
}

// Serialize returns the wire tuple (minor units, currency).
func (m Money) Serialize() (string, Code) {
	return m.minor.String(), m.currency
}

func (m Money) String() string {
	if !m.currency.Valid() {
		return m.minor.String()
	}
	return m.ToMajorUnitsString(m.currency.Scale()) + " " + string(m.currency)
}

// MarshalJSON encodes the wire tuple ["<minor units>", "<code>"].
func (m Money) MarshalJSON() ([]byte, error) {
	value, code := m.Serialize()
	return json.Marshal([2]string{value, string(code)})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var tuple [2]string
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("decode money tuple: %w", err)
	}
	parsed, err := ParseMoney(tuple[0], Code(tuple[1]))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
