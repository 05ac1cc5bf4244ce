package sales

import "github.com/shopspring/decimal"

var (
	lowRate    = decimal.NewFromFloat(0.01)
	marginRate = decimal.NewFromFloat(0.10)
)

// lineCommission computes the incentive amount for one sale line. Selling at
// or below the original price earns 1% of the sale price; selling above it
// earns 1% of the original price plus 10% of the margin. The boundary case
// (price equals original) belongs to the low branch. Both results scale by
// quantity and round to cents.
func lineCommission(price, originalPrice decimal.Decimal, quantity int) decimal.Decimal {
	qty := decimal.NewFromInt(int64(quantity))

	// Products without a compare-at price preserve no margin signal; treat
	// the sale price as the original so the low branch applies.
	if originalPrice.IsZero() {
		originalPrice = price
	}

	var perUnit decimal.Decimal
	if price.LessThanOrEqual(originalPrice) {
		perUnit = price.Mul(lowRate)
	} else {
		margin := price.Sub(originalPrice)
		perUnit = originalPrice.Mul(lowRate).Add(margin.Mul(marginRate))
	}
	return perUnit.Mul(qty).Round(2)
}
