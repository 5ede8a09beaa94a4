package money

import (
	"errors"
	"fmt"
)

var (
	// ErrCurrencyMismatch is returned when two runtime-tagged amounts of
	// different currencies are combined.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrUnknownCurrency is returned for codes outside the currency table.
	ErrUnknownCurrency = errors.New("unknown currency")

	// ErrBipsOutOfRange is returned by NewBips for values outside [0, 10000].
	ErrBipsOutOfRange = errors.New("basis points out of range")
)

// ConversionError reports input that cannot become an amount.
type ConversionError struct {
	Input    string
	Currency Code
	Err      error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %q to %s amount: %v", e.Input, e.Currency, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }
