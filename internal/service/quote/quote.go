package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"elevcalc/internal/constants"
	"elevcalc/internal/service/bom"
	"elevcalc/internal/service/dimensioning"
	"elevcalc/internal/service/pricing"
	"elevcalc/internal/storage"
)

type CacheWarmer interface {
	Warm(ctx context.Context, categories ...string) error
}

type Options struct {
	BusinessLine string `json:"business_line"`
	// NegotiatedPrice is the agreed price before tax. When NegotiatedIncludesTax
	// is set it is the final price and the tax is stripped first.
	NegotiatedPrice       *float64 `json:"negotiated_price,omitempty"`
	NegotiatedIncludesTax bool     `json:"negotiated_includes_tax"`
}

type Result struct {
	Specification dimensioning.Specification `json:"specification"`
	Dimensions    dimensioning.Dimensions    `json:"dimensions"`
	Tree          bom.Tree                   `json:"tree"`
	Summary       pricing.CostSummary        `json:"summary"`
	Pricing       pricing.Breakdown          `json:"pricing"`
	Degraded      bool                       `json:"degraded"`
	Warnings      []string                   `json:"warnings"`
}

// Service runs a calculation from specification to price.
type Service struct {
	log       *slog.Logger
	warmer    CacheWarmer
	calcs     []bom.Calculator
	ratios    pricing.Ratios
	formation *pricing.Formation
}

func New(log *slog.Logger, warmer CacheWarmer, calcs []bom.Calculator, ratios pricing.Ratios, formation *pricing.Formation) *Service {
	return &Service{
		log:       log,
		warmer:    warmer,
		calcs:     calcs,
		ratios:    ratios,
		formation: formation,
	}
}

// Calculate rejects invalid specifications and inconsistent totals. Catalog
// misses and rule failures only degrade the result.
func (s *Service) Calculate(ctx context.Context, spec dimensioning.Specification, opts Options) (*Result, error) {
	const op = "service.quote.Calculate"

	log := s.log.With(slog.String("op", op))

	if s.warmer != nil {
		if err := s.warmer.Warm(ctx, constants.Categories...); err != nil {
			log.Warn("rule cache warm-up failed", slog.String("error", err.Error()))
		}
	}

	spec = spec.Normalize()
	dims, err := dimensioning.Compute(spec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	in := bom.Input{Spec: spec, Dims: dims}
	res := &Result{
		Specification: spec,
		Dimensions:    dims,
		Tree:          make(bom.Tree, len(s.calcs)),
		Warnings:      []string{},
	}

	for _, calc := range s.calcs {
		cat := bom.Run(ctx, calc, in, log)
		res.Tree[cat.Key] = cat

		if cat.Error != "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: not calculated: %s", cat.Key, cat.Error))
		}
		for _, n := range cat.Notes {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %s", cat.Key, n))
		}
		if cat.Degraded || cat.FallbackUsed {
			res.Degraded = true
		}
	}

	summary, err := pricing.Aggregate(res.Tree, s.ratios)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res.Summary = summary

	if opts.NegotiatedPrice != nil {
		negotiated := *opts.NegotiatedPrice
		if opts.NegotiatedIncludesTax {
			negotiated = s.formation.PreTaxFromFinal(negotiated, opts.BusinessLine)
		}
		res.Pricing, err = s.formation.Reverse(summary, opts.BusinessLine, negotiated)
	} else {
		res.Pricing, err = s.formation.Forward(summary, opts.BusinessLine)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("calculation completed",
		slog.Float64("materials_cost", summary.MaterialsCost),
		slog.Float64("final_price", res.Pricing.FinalPrice),
		slog.Bool("degraded", res.Degraded))

	return res, nil
}

// ToRecord flattens a result for persistence.
func ToRecord(res *Result) (storage.Calculation, error) {
	const op = "service.quote.ToRecord"

	spec, err := json.Marshal(res.Specification)
	if err != nil {
		return storage.Calculation{}, fmt.Errorf("%s: %w", op, err)
	}
	dims, err := json.Marshal(res.Dimensions)
	if err != nil {
		return storage.Calculation{}, fmt.Errorf("%s: %w", op, err)
	}
	price, err := json.Marshal(res.Pricing)
	if err != nil {
		return storage.Calculation{}, fmt.Errorf("%s: %w", op, err)
	}

	p := res.Pricing
	rec := storage.Calculation{
		BusinessLine:      p.BusinessLine,
		Specification:     string(spec),
		Dimensions:        string(dims),
		Pricing:           string(price),
		MaterialsCost:     p.MaterialsCost,
		ProductionCost:    p.ProductionCost,
		TotalProjectCost:  p.TotalProjectCost,
		FinalPrice:        p.FinalPrice,
		NegotiatedPrice:   p.NegotiatedPrice,
		DiscountPercent:   p.DiscountPercent,
		DimensionsExplain: res.Dimensions.Explanation,
		PricingExplain:    p.Explanation,
		Degraded:          res.Degraded,
	}

	for _, catKey := range bom.SortedKeys(res.Tree) {
		cat := res.Tree[catKey]
		for _, subKey := range bom.SortedKeys(cat.Subcategories) {
			for _, it := range cat.Subcategories[subKey].Items {
				rec.Items = append(rec.Items, storage.CalculationItem{
					Category:    catKey,
					Subcategory: subKey,
					Code:        it.Code,
					Description: it.Description,
					Quantity:    it.Quantity,
					Unit:        it.Unit,
					UnitCost:    it.UnitCost,
					Total:       it.Total,
					Explanation: it.Explanation,
					Degraded:    it.Degraded,
				})
			}
		}
	}

	return rec, nil
}
