// Package pricing holds the margin arithmetic behind price suggestions.
// All amounts are centavos; percentages are basis points (1% = 100 bps).
package pricing

import (
	"sort"

	"fuel-pricing/pkg/constants"
	"fuel-pricing/pkg/money"
)

// DefaultArlaRatioPermille is the share of the ARLA margin credited per diesel litre (5%).
const DefaultArlaRatioPermille = 50

// DefaultTiers are margin thresholds, in centavos per litre, for 1 and 2 approval levels.
var DefaultTiers = []int64{40, 20}

func Margin(price, cost money.Cents) money.Cents {
	return price - cost
}

// MarginBps is the margin over the sale price. A zero price has no margin.
func MarginBps(price, cost money.Cents) int64 {
	if price == 0 {
		return 0
	}
	return divRound(int64(price-cost)*10000, int64(price))
}

func MarginPercent(price, cost money.Cents) float64 {
	return float64(MarginBps(price, cost)) / 100
}

// ArlaCompensation = (arlaPrice - arlaCost) * ratio, with ratio in permille, rounded half away from zero.
func ArlaCompensation(arlaPrice, arlaCost money.Cents, ratioPermille int64) money.Cents {
	return money.Cents(divRound(int64(arlaPrice-arlaCost)*ratioPermille, 1000))
}

// EffectiveDieselMargin adds the ARLA compensation to the margin. Only diesel S10 is compensated.
func EffectiveDieselMargin(product string, margin, compensation money.Cents) money.Cents {
	if product != constants.ProductDieselS10 {
		return margin
	}
	return margin + compensation
}

// VariationBps is the change from current to suggested, relative to current.
func VariationBps(current, suggested money.Cents) int64 {
	if current == 0 {
		return 0
	}
	return divRound(int64(suggested-current)*10000, int64(current))
}

func VariationPercent(current, suggested money.Cents) float64 {
	return float64(VariationBps(current, suggested)) / 100
}

// RequiredApprovalLevels maps a margin to the number of approval levels.
// With tiers [40, 20]: margin >= 40 needs 1, >= 20 needs 2, anything lower needs 3.
func RequiredApprovalLevels(margin money.Cents, tiers []int64) int {
	sorted := append([]int64(nil), tiers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })
	for i, threshold := range sorted {
		if int64(margin) >= threshold {
			return i + 1
		}
	}
	return len(sorted) + 1
}

type Input struct {
	Product        string
	CurrentPrice   money.Cents
	SuggestedPrice money.Cents
	CostPrice      money.Cents
	ArlaPrice      *money.Cents
	ArlaCost       *money.Cents
}

type Breakdown struct {
	Margin           money.Cents `json:"margin_cents"`
	MarginBps        int64       `json:"margin_bps"`
	ArlaCompensation money.Cents `json:"arla_compensation_cents"`
	EffectiveMargin  money.Cents `json:"effective_margin_cents"`
	VariationBps     int64       `json:"variation_bps"`
	RequiredLevels   int         `json:"required_levels"`
}

type Calculator struct {
	tiers         []int64
	ratioPermille int64
}

func NewCalculator(tiers []int64, ratioPermille int64) *Calculator {
	if len(tiers) == 0 {
		tiers = DefaultTiers
	}
	if ratioPermille <= 0 {
		ratioPermille = DefaultArlaRatioPermille
	}
	return &Calculator{tiers: tiers, ratioPermille: ratioPermille}
}

// Compute derives every computed column of a suggestion. Levels follow the effective margin.
func (c *Calculator) Compute(in Input) Breakdown {
	b := Breakdown{
		Margin:       Margin(in.SuggestedPrice, in.CostPrice),
		MarginBps:    MarginBps(in.SuggestedPrice, in.CostPrice),
		VariationBps: VariationBps(in.CurrentPrice, in.SuggestedPrice),
	}
	if in.Product == constants.ProductDieselS10 && in.ArlaPrice != nil && in.ArlaCost != nil {
		b.ArlaCompensation = ArlaCompensation(*in.ArlaPrice, *in.ArlaCost, c.ratioPermille)
	}
	b.EffectiveMargin = EffectiveDieselMargin(in.Product, b.Margin, b.ArlaCompensation)
	b.RequiredLevels = RequiredApprovalLevels(b.EffectiveMargin, c.tiers)
	return b
}

func (c *Calculator) MaxLevels() int {
	return len(c.tiers) + 1
}

func divRound(n, d int64) int64 {
	if d < 0 {
		n, d = -n, -d
	}
	if n >= 0 {
		return (n + d/2) / d
	}
	return -((-n + d/2) / d)
}
