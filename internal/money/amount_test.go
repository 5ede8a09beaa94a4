package money

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustUSDCents(t *testing.T, v string) Amount[USD] {
	t.Helper()
	a, err := USDCents(v)
	require.NoError(t, err)
	return a
}

func TestSubtractCents(t *testing.T) {
	a := mustUSDCents(t, "10000")
	b := mustUSDCents(t, "2500")

	assert.Equal(t, "7500", a.Subtract(b).ToMinorUnitsString(0))
}

func TestSubtractSelfIsZero(t *testing.T) {
	for _, v := range []string{"0", "1", "10000", "1.2345", "-42", "99999999999999999999"} {
		a := mustUSDCents(t, v)
		assert.True(t, a.Subtract(a).IsZero(), "value %s", v)
	}
}

func TestConvertUSDToJMD(t *testing.T) {
	usd, err := USDDollars("100")
	require.NoError(t, err)
	rate, err := JMDDollars("160")
	require.NoError(t, err)

	jmd := Convert(usd, rate)

	assert.Equal(t, JMDCode, jmd.Currency())
	assert.Equal(t, "16000.00", jmd.ToMajorUnitsString(2))
}

func TestConvertInverseJMDToUSD(t *testing.T) {
	jmd, err := JMDDollars("16000")
	require.NoError(t, err)
	rate, err := JMDDollars("160")
	require.NoError(t, err)

	usd := ConvertInverse[JMD, USD](jmd, rate)

	assert.Equal(t, "10000", usd.ToMinorUnitsString(0))
}

func TestConvertInverseRoundsHalfToEven(t *testing.T) {
	rate, err := JMDDollars("2")
	require.NoError(t, err)

	// 1 JMD cent at 2 JMD per USD is half a US cent.
	odd := ConvertInverse[JMD, USD](FromMinorInt[JMD](1), rate)
	assert.Equal(t, "0", odd.ToMinorUnitsString(0))

	// 3 JMD cents is 1.5 US cents.
	three := ConvertInverse[JMD, USD](FromMinorInt[JMD](3), rate)
	assert.Equal(t, "2", three.ToMinorUnitsString(0))
}

func TestConvertInverseUsesExactQuotient(t *testing.T) {
	rate := FromMinorInt[JMD](3)

	// 1 JMD cent at 0.03 JMD per USD is 33.33... US cents.
	assert.Equal(t, "33", ConvertInverse[JMD, USD](FromMinorInt[JMD](1), rate).ToMinorUnitsString(0))
	// 2 JMD cents is 66.66... US cents.
	assert.Equal(t, "67", ConvertInverse[JMD, USD](FromMinorInt[JMD](2), rate).ToMinorUnitsString(0))

	// Just above half: the quotient 0.50000000000000000005 must not collapse to 0.5.
	big, err := JMDCents("1000000000000000000001")
	require.NoError(t, err)
	rate, err = JMDCents("200000000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "1", ConvertInverse[JMD, USD](big, rate).ToMinorUnitsString(0))
	assert.Equal(t, "-1", ConvertInverse[JMD, USD](big.Neg(), rate).ToMinorUnitsString(0))
}

func TestConvertInverseZeroRatePanics(t *testing.T) {
	assert.Panics(t, func() {
		ConvertInverse[JMD, USD](FromMinorInt[JMD](100), Zero[JMD]())
	})
}

func TestMinorUnitsStringRoundsHalfToEven(t *testing.T) {
	a := mustUSDCents(t, "1.2345")
	assert.Equal(t, "1.2", a.ToMinorUnitsString(1))

	cases := map[string]string{
		"2.5":  "2",
		"3.5":  "4",
		"-2.5": "-2",
		"2.51": "3",
	}
	for in, want := range cases {
		assert.Equal(t, want, mustUSDCents(t, in).ToMinorUnitsString(0), "input %s", in)
	}
}

func TestMultiplyBips(t *testing.T) {
	tests := []struct {
		name  string
		cents string
		bips  int64
		want  string
	}{
		{name: "two and a half percent of one hundred dollars", cents: "10000", bips: 250, want: "250"},
		{name: "exact half rounds down to even", cents: "5", bips: 5000, want: "2"},
		{name: "exact half rounds up to even", cents: "15", bips: 5000, want: "8"},
		{name: "zero bips", cents: "12345", bips: 0, want: "0"},
		{name: "full amount", cents: "12345", bips: MaxBips, want: "12345"},
		{name: "just above half rounds up", cents: "1.00000000000000001", bips: 5000, want: "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBips(tt.bips)
			require.NoError(t, err)
			assert.Equal(t, tt.want, mustUSDCents(t, tt.cents).MultiplyBips(b).ToMinorUnitsString(0))
		})
	}
}

func TestNewBipsRange(t *testing.T) {
	_, err := NewBips(-1)
	assert.ErrorIs(t, err, ErrBipsOutOfRange)
	_, err = NewBips(MaxBips + 1)
	assert.ErrorIs(t, err, ErrBipsOutOfRange)
}

func TestSerializeRoundTrip(t *testing.T) {
	for _, v := range []string{"0", "7500", "1.2345", "-250", "123456789012345678901234567890"} {
		a := mustUSDCents(t, v)
		value, code := a.Serialize()

		back, err := Deserialize[USD](value, code)
		require.NoError(t, err)
		assert.True(t, a.Equal(back), "round trip of %s gave %s", v, back.ToMinorUnitsString(4))
	}
}

func TestDeserializeCurrencyMismatch(t *testing.T) {
	_, err := Deserialize[USD]("100", JMDCode)

	var convErr *ConversionError
	require.True(t, errors.As(err, &convErr))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestFactoriesRejectGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "1..2", "1e"} {
		_, err := USDCents(in)
		var convErr *ConversionError
		assert.True(t, errors.As(err, &convErr), "input %q", in)
	}
}

func TestMajorUnits(t *testing.T) {
	a, err := USDDollars("10.505")
	require.NoError(t, err)
	assert.Equal(t, "1050.5", a.ToMinorUnitsString(1))
	assert.Equal(t, "10.50", a.ToMajorUnitsString(2))
	assert.False(t, a.IsWhole())
	assert.Equal(t, "1050", a.Round().ToMinorUnitsString(0))

	sats, err := Sats("2100")
	require.NoError(t, err)
	assert.Equal(t, "2100", sats.ToMajorUnitsString(0))
}

func TestComparisons(t *testing.T) {
	small := mustUSDCents(t, "100")
	big := mustUSDCents(t, "250")

	assert.True(t, small.IsLessThan(big))
	assert.True(t, big.IsGreaterThan(small))
	assert.False(t, small.IsGreaterThan(small))
	assert.Equal(t, -1, small.Cmp(big))
}

func TestAmountJSONWireFormat(t *testing.T) {
	a := mustUSDCents(t, "10000")
	raw, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `["10000","USD"]`, string(raw))

	var back Amount[USD]
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, a.Equal(back))

	var wrong Amount[JMD]
	assert.ErrorIs(t, json.Unmarshal(raw, &wrong), ErrCurrencyMismatch)
}
