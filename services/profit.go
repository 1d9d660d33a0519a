package services

import (
	"github.com/shopspring/decimal"

	"github.com/marinelli-collision/bodyshop-api/models"
)

// ProfitBreakdown is the derived profitability of one repair order.
// TrueProfit is labor revenue minus shop-absorbed adjustments (waived
// deductibles, referral fees, goodwill repairs), as distinct from the naive
// gross-minus-cost figure.
type ProfitBreakdown struct {
	Gross       decimal.Decimal `json:"gross"`
	COGS        decimal.Decimal `json:"cogs"`
	NaiveProfit decimal.Decimal `json:"naive_profit"`
	Adjustments decimal.Decimal `json:"adjustments"`
	TrueProfit  decimal.Decimal `json:"true_profit"`
	Margin      int64           `json:"margin"` // percent, rounded
}

// ComputeProfit derives the profit breakdown from a repair order snapshot.
// Pure: it reads the five money inputs and nothing else. The caller persists
// TrueProfit back onto the order whenever any input changes, so the stored
// column is always a cache of this function's output at time of write.
func ComputeProfit(ro *models.RepairOrder) ProfitBreakdown {
	gross := ro.PartsCost.Add(ro.LaborCost).Add(ro.SubletCost)
	cogs := ro.PartsCost.Add(ro.SubletCost)
	naive := gross.Sub(cogs) // algebraically equals labor cost
	adjustments := ro.DeductibleWaived.Add(ro.ReferralFee).Add(ro.GoodwillRepairCost)
	trueProfit := naive.Sub(adjustments)

	var margin int64
	if gross.IsPositive() {
		margin = trueProfit.Div(gross).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	}

	return ProfitBreakdown{
		Gross:       gross,
		COGS:        cogs,
		NaiveProfit: naive,
		Adjustments: adjustments,
		TrueProfit:  trueProfit,
		Margin:      margin,
	}
}
