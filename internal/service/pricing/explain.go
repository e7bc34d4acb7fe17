package pricing

import (
	"fmt"
	"strings"
)

func explain(b Breakdown) string {
	var sb strings.Builder
	w := func(format string, args ...any) {
		fmt.Fprintf(&sb, format, args...)
		sb.WriteByte('\n')
	}

	w("materials cost: %.2f", b.MaterialsCost)
	w("labor: %.2f x %s = %.2f", b.MaterialsCost, pct(b.Labor, b.MaterialsCost), b.Labor)
	w("indirect: %.2f x %s = %.2f", b.MaterialsCost, pct(b.Indirect, b.MaterialsCost), b.Indirect)
	w("production cost: %.2f", b.ProductionCost)
	w("installation: %.2f x %s = %.2f", b.MaterialsCost, pct(b.Installation, b.MaterialsCost), b.Installation)
	w("total project cost: %.2f", b.TotalProjectCost)
	w("margin: %.2f x %.2f%% = %.2f", b.TotalProjectCost, b.MarginRate*100, b.Margin)
	w("price with margin: %.2f", b.PriceWithMargin)
	if b.NegotiatedPrice != nil {
		w("discount: %.2f (%.4f%% of price with margin)", b.Discount, b.DiscountRate*100)
		w("commission: %.2f x %.2f%% = %.2f", b.PriceWithMargin-b.Discount, b.CommissionRate*100, b.Commission)
		w("price with commission (negotiated): %.2f", b.PriceWithCommission)
		w("discount against list price: %.2f%%", b.DisplayDiscountPercent)
	} else {
		w("commission: %.2f x %.2f%% = %.2f", b.PriceWithMargin, b.CommissionRate*100, b.Commission)
		w("price with commission: %.2f", b.PriceWithCommission)
	}
	w("tax (%s): %.2f x %.2f%% = %.2f", b.BusinessLine, b.PriceWithCommission, b.TaxRate*100, b.Tax)
	fmt.Fprintf(&sb, "final price: %.2f", b.FinalPrice)

	return sb.String()
}

// pct shows a derived amount as a share of its base.
func pct(part, base float64) string {
	if base == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", part/base*100)
}
