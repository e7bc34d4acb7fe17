package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"elevcalc/internal/service/bom"
)

var ErrInvalidNegotiatedPrice = errors.New("invalid negotiated price")

const (
	LineElevators   = "Elevators"
	LineMaintenance = "Maintenance"
)

const consistencyEpsilon = 1e-6

// TaxTable maps a business line to its tax rate. Lines not listed pay Default.
type TaxTable struct {
	Lines   map[string]float64 `json:"lines"`
	Default float64            `json:"default"`
}

func DefaultTaxTable() TaxTable {
	return TaxTable{
		Lines: map[string]float64{
			LineElevators:   0.10,
			LineMaintenance: 0.05,
		},
		Default: 0.10,
	}
}

// Rate returns the rate of the business line, matched case-insensitively.
func (t TaxTable) Rate(line string) (float64, bool) {
	line = strings.TrimSpace(line)
	if v, ok := t.Lines[line]; ok {
		return v, true
	}
	for k, v := range t.Lines {
		if strings.EqualFold(k, line) {
			return v, true
		}
	}
	return t.Default, false
}

type Rates struct {
	Margin     float64  `json:"margin"`
	Commission float64  `json:"commission"`
	Tax        TaxTable `json:"tax"`
}

func DefaultRates() Rates {
	return Rates{Margin: 0.30, Commission: 0.03, Tax: DefaultTaxTable()}
}

type Breakdown struct {
	CostSummary

	BusinessLine        string   `json:"business_line"`
	MarginRate          float64  `json:"margin_rate"`
	Margin              float64  `json:"margin"`
	PriceWithMargin     float64  `json:"price_with_margin"`
	DiscountRate        float64  `json:"discount_rate"`
	Discount            float64  `json:"discount"`
	CommissionRate      float64  `json:"commission_rate"`
	Commission          float64  `json:"commission"`
	PriceWithCommission float64  `json:"price_with_commission"`
	TaxRate             float64  `json:"tax_rate"`
	Tax                 float64  `json:"tax"`
	FinalPrice          float64  `json:"final_price"`
	NegotiatedPrice     *float64 `json:"negotiated_price,omitempty"`
	// DiscountPercent is signed: a negotiated price above the list price gives a negative value.
	DiscountPercent        float64 `json:"discount_percent"`
	DisplayDiscountPercent float64 `json:"display_discount_percent"`
	Explanation            string  `json:"explanation"`
}

// Formation turns a cost summary into a price.
type Formation struct {
	rates Rates
}

func NewFormation(rates Rates) *Formation {
	return &Formation{rates: rates}
}

// Forward prices the project without any discount.
func (f *Formation) Forward(s CostSummary, line string) (Breakdown, error) {
	const op = "service.pricing.Formation.Forward"

	b, err := f.base(s, line)
	if err != nil {
		return Breakdown{}, fmt.Errorf("%s: %w", op, err)
	}
	b.Commission = b.PriceWithMargin * b.CommissionRate
	b.PriceWithCommission = b.PriceWithMargin + b.Commission
	f.finish(&b)

	if err := b.check(); err != nil {
		return Breakdown{}, fmt.Errorf("%s: %w", op, err)
	}
	b.Explanation = explain(b)

	return b, nil
}

// Reverse solves the discount and commission that make the pre-tax price
// equal the negotiated one. Discount is applied to the price with margin and
// commission is charged on the discounted price.
func (f *Formation) Reverse(s CostSummary, line string, negotiated float64) (Breakdown, error) {
	const op = "service.pricing.Formation.Reverse"

	if !finite(negotiated) || negotiated <= 0 {
		return Breakdown{}, fmt.Errorf("%s: %w: %v", op, ErrInvalidNegotiatedPrice, negotiated)
	}

	b, err := f.base(s, line)
	if err != nil {
		return Breakdown{}, fmt.Errorf("%s: %w", op, err)
	}

	listPrice := b.PriceWithMargin * (1 + b.CommissionRate)
	discounted := negotiated / (1 + b.CommissionRate)

	b.Commission = negotiated - discounted
	b.Discount = b.PriceWithMargin - discounted
	if b.PriceWithMargin > 0 {
		b.DiscountRate = b.Discount / b.PriceWithMargin
	}
	b.PriceWithCommission = negotiated
	n := negotiated
	b.NegotiatedPrice = &n
	if listPrice > 0 {
		b.DiscountPercent = (listPrice - negotiated) / listPrice * 100
	}
	b.DisplayDiscountPercent = math.Max(b.DiscountPercent, 0)
	f.finish(&b)

	if err := b.check(); err != nil {
		return Breakdown{}, fmt.Errorf("%s: %w", op, err)
	}
	b.Explanation = explain(b)

	return b, nil
}

// PreTaxFromFinal strips the business line tax from a final price.
func (f *Formation) PreTaxFromFinal(final float64, line string) float64 {
	rate, _ := f.rates.Tax.Rate(line)
	return final / (1 + rate)
}

func (f *Formation) base(s CostSummary, line string) (Breakdown, error) {
	if line == "" {
		line = LineElevators
	}
	taxRate, _ := f.rates.Tax.Rate(line)
	for name, v := range map[string]float64{"margin": f.rates.Margin, "commission": f.rates.Commission, "tax": taxRate} {
		if !finite(v) || v < 0 {
			return Breakdown{}, fmt.Errorf("%w: %s rate %v", bom.ErrInconsistent, name, v)
		}
	}
	if !finite(s.TotalProjectCost) || s.TotalProjectCost < 0 {
		return Breakdown{}, fmt.Errorf("%w: total project cost %v", bom.ErrInconsistent, s.TotalProjectCost)
	}

	b := Breakdown{
		CostSummary:    s,
		BusinessLine:   line,
		MarginRate:     f.rates.Margin,
		CommissionRate: f.rates.Commission,
		TaxRate:        taxRate,
	}
	b.Margin = s.TotalProjectCost * b.MarginRate
	b.PriceWithMargin = s.TotalProjectCost + b.Margin

	return b, nil
}

func (f *Formation) finish(b *Breakdown) {
	b.Tax = b.PriceWithCommission * b.TaxRate
	b.FinalPrice = b.PriceWithCommission + b.Tax
}

// check verifies that the price decomposes into its parts.
func (b Breakdown) check() error {
	sum := b.ProductionCost + b.Installation + b.Margin - b.Discount + b.Commission + b.Tax
	tol := consistencyEpsilon * math.Max(1, math.Abs(b.FinalPrice))
	if !finite(b.FinalPrice) || math.Abs(sum-b.FinalPrice) > tol {
		return fmt.Errorf("%w: final %v does not match its parts %v", bom.ErrInconsistent, b.FinalPrice, sum)
	}
	if b.FinalPrice < 0 || b.Commission < 0 || b.Tax < 0 {
		return fmt.Errorf("%w: negative price component", bom.ErrInconsistent)
	}
	return nil
}
