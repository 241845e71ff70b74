package resolve

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"stackcost/core/model"
	"stackcost/core/pricing"
)

// HoursPerMonth is the fixed always-on compute assumption
const HoursPerMonth = 730

// fetchPrice resolves one unit price for a calculator. On transport
// failure or when no SKU matches, it returns a terminal unknown-cost
// result the calculator hands straight back; failures stop at this
// boundary and never abort sibling resources.
func fetchPrice(ctx context.Context, lookup PriceLookup, q pricing.Query, what string) (decimal.Decimal, *model.MonthlyCost) {
	price, err := lookup.GetPrice(ctx, q)
	if err != nil {
		failed := model.MonthlyCost{
			Amount:      decimal.Zero,
			Currency:    model.CurrencyUSD,
			Confidence:  model.ConfidenceUnknown,
			Assumptions: []string{fmt.Sprintf("Failed to fetch pricing: %v", err)},
		}
		return decimal.Zero, &failed
	}
	if price == nil {
		missing := model.MonthlyCost{
			Amount:      decimal.Zero,
			Currency:    model.CurrencyUSD,
			Confidence:  model.ConfidenceUnknown,
			Assumptions: []string{"No matching price found for " + what},
		}
		return decimal.Zero, &missing
	}
	return *price, nil
}

// monthlyCost assembles an estimate, clamping negative amounts to zero
func monthlyCost(amount decimal.Decimal, confidence model.Confidence, assumptions []string) model.MonthlyCost {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return model.MonthlyCost{
		Amount:      amount,
		Currency:    model.CurrencyUSD,
		Confidence:  confidence,
		Assumptions: assumptions,
	}
}

// dec converts a float usage figure for decimal math
func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func assumptionf(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}
