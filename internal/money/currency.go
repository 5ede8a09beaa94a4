package money

import (
	"fmt"
	"strings"
)

// Code is an ISO-4217 style currency code. BTC amounts are held in satoshis.
type Code string

const (
	USDCode Code = "USD"
	JMDCode Code = "JMD"
	BTCCode Code = "BTC"
)

// scales maps a currency to the number of minor units in one major unit,
// expressed as a power of ten.
var scales = map[Code]int32{
	USDCode: 2,
	JMDCode: 2,
	BTCCode: 0,
}

// Scale returns the minor-unit exponent for the currency. The table is static,
// so an unknown code is a programming error.
func (c Code) Scale() int32 {
	s, ok := scales[c]
	if !ok {
		panic(fmt.Sprintf("money: no scale registered for currency %q", string(c)))
	}
	return s
}

// Valid reports whether the code is a supported currency.
func (c Code) Valid() bool {
	_, ok := scales[c]
	return ok
}

func (c Code) String() string { return string(c) }

// ParseCode normalises and validates a currency code.
func ParseCode(s string) (Code, error) {
	c := Code(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, s)
	}
	return c, nil
}

// Currency is the closed set of currency tags an Amount can carry.
type Currency interface {
	USD | JMD | BTC
	Code() Code
}

// USD tags amounts held in US cents.
type USD struct{}

// JMD tags amounts held in Jamaican cents.
type JMD struct{}

// BTC tags amounts held in satoshis.
type BTC struct{}

func (USD) Code() Code { return USDCode }
func (JMD) Code() Code { return JMDCode }
func (BTC) Code() Code { return BTCCode }

func codeOf[C Currency]() Code {
	var c C
	return c.Code()
}
