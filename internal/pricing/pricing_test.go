package pricing

import (
	"testing"

	"fuel-pricing/pkg/constants"
	"fuel-pricing/pkg/money"

	"github.com/stretchr/testify/assert"
)

func cents(v int64) *money.Cents {
	c := money.Cents(v)
	return &c
}

func TestMarginAndVariation(t *testing.T) {
	assert.Equal(t, money.Cents(60), Margin(589, 529))
	assert.Equal(t, int64(1019), MarginBps(589, 529))
	assert.InDelta(t, 10.19, MarginPercent(589, 529), 1e-9)
	assert.Zero(t, MarginBps(0, 10))

	assert.Equal(t, int64(170), VariationBps(589, 599))
	assert.Equal(t, int64(-170), VariationBps(589, 579))
	assert.Zero(t, VariationBps(0, 599))
}

func TestArlaCompensation(t *testing.T) {
	// (4,50 - 3,20) * 5% = 6,5 -> 7 centavos
	assert.Equal(t, money.Cents(7), ArlaCompensation(450, 320, 50))
	assert.Equal(t, money.Cents(6), ArlaCompensation(440, 320, 50))
	assert.Equal(t, money.Cents(-7), ArlaCompensation(320, 450, 50))

	assert.Equal(t, money.Cents(37), EffectiveDieselMargin(constants.ProductDieselS10, 30, 7))
	assert.Equal(t, money.Cents(30), EffectiveDieselMargin(constants.ProductDieselS500, 30, 7))
}

func TestRequiredApprovalLevels(t *testing.T) {
	cases := []struct {
		margin money.Cents
		want   int
	}{
		{80, 1}, {40, 1}, {39, 2}, {20, 2}, {19, 3}, {0, 3}, {-15, 3},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RequiredApprovalLevels(tc.margin, []int64{20, 40}), "margin %d", tc.margin)
	}
	assert.Equal(t, 1, RequiredApprovalLevels(-100, nil))
}

func TestCalculatorCompute(t *testing.T) {
	calc := NewCalculator(nil, 0)

	b := calc.Compute(Input{
		Product:        constants.ProductDieselS10,
		CurrentPrice:   599,
		SuggestedPrice: 589,
		CostPrice:      555,
		ArlaPrice:      cents(450),
		ArlaCost:       cents(320),
	})
	assert.Equal(t, money.Cents(34), b.Margin)
	assert.Equal(t, money.Cents(7), b.ArlaCompensation)
	assert.Equal(t, money.Cents(41), b.EffectiveMargin)
	assert.Equal(t, 1, b.RequiredLevels, "ARLA pushes the margin over the first tier")

	b = calc.Compute(Input{
		Product:        constants.ProductEtanol,
		CurrentPrice:   399,
		SuggestedPrice: 389,
		CostPrice:      375,
		ArlaPrice:      cents(450),
		ArlaCost:       cents(320),
	})
	assert.Zero(t, b.ArlaCompensation)
	assert.Equal(t, money.Cents(14), b.EffectiveMargin)
	assert.Equal(t, 3, b.RequiredLevels)
	assert.Equal(t, 3, calc.MaxLevels())
}
