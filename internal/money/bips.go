package money

import "fmt"

// MaxBips is one hundred percent in basis points.
const MaxBips = 10_000

// Bips is a fraction expressed in parts per ten thousand.
type Bips int32

// NewBips validates v against [0, MaxBips].
func NewBips(v int64) (Bips, error) {
	if v < 0 || v > MaxBips {
		return 0, fmt.Errorf("%w: %d", ErrBipsOutOfRange, v)
	}
	return Bips(v), nil
}

func (b Bips) String() string { return fmt.Sprintf("%dbps", int32(b)) }
