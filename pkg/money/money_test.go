package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want Cents
	}{
		{"5,89", 589},
		{"5.89", 589},
		{"R$ 5,89", 589},
		{"R$5,89", 589},
		{"1.234,567", 123457},
		{"1,234.56", 123456},
		{"1.234.567", 123456700},
		{"5,899", 590},
		{"5,894", 589},
		{"7", 700},
		{",5", 50},
		{"-2,50", -250},
		{" 6,1 ", 610},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDecimal(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseDecimalRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "R$", "abc", "5,8,9", "5..8x", "--1"} {
		_, err := ParseDecimal(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestParseBRL(t *testing.T) {
	got, err := ParseBRL("R$ 1.234,56")
	require.NoError(t, err)
	assert.Equal(t, Cents(123456), got)

	got, err = ParseBRL("5.89")
	require.NoError(t, err)
	assert.Equal(t, Cents(58900), got, "dots are thousands separators in BRL notation")

	_, err = ParseBRL("1,2,3")
	assert.Error(t, err)
}

func TestCentsFormatting(t *testing.T) {
	assert.Equal(t, "R$ 1.234,56", Cents(123456).String())
	assert.Equal(t, "R$ 0,05", Cents(5).String())
	assert.Equal(t, "-R$ 1.000.000,00", Cents(-100000000).String())
	assert.Equal(t, "5,89", Cents(589).FormatDecimal())
	assert.Equal(t, "-0,10", Cents(-10).FormatDecimal())
}

func TestFromReais(t *testing.T) {
	assert.Equal(t, Cents(589), FromReais(5.89))
	assert.Equal(t, Cents(123456), FromReais(1234.56))
	assert.InDelta(t, 5.89, Cents(589).Reais(), 1e-9)
}
