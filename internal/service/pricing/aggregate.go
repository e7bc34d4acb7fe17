package pricing

import (
	"fmt"
	"math"

	"elevcalc/internal/service/bom"
)

// Ratios are the fixed overhead shares of the materials cost.
type Ratios struct {
	Labor        float64 `json:"labor"`
	Indirect     float64 `json:"indirect"`
	Installation float64 `json:"installation"`
}

func DefaultRatios() Ratios {
	return Ratios{Labor: 0.15, Indirect: 0.05, Installation: 0.05}
}

type CostSummary struct {
	MaterialsCost    float64            `json:"materials_cost"`
	ByCategory       map[string]float64 `json:"by_category"`
	Labor            float64            `json:"labor"`
	Indirect         float64            `json:"indirect"`
	Installation     float64            `json:"installation"`
	ProductionCost   float64            `json:"production_cost"`
	TotalProjectCost float64            `json:"total_project_cost"`
}

// Aggregate sums the tree and applies the overhead ratios. A tree that does
// not add up or a negative amount is a defect, not a degraded result.
func Aggregate(tree bom.Tree, r Ratios) (CostSummary, error) {
	const op = "service.pricing.Aggregate"

	if err := tree.Check(); err != nil {
		return CostSummary{}, fmt.Errorf("%s: %w", op, err)
	}
	for name, v := range map[string]float64{"labor": r.Labor, "indirect": r.Indirect, "installation": r.Installation} {
		if !finite(v) || v < 0 {
			return CostSummary{}, fmt.Errorf("%s: %w: %s ratio %v", op, bom.ErrInconsistent, name, v)
		}
	}

	s := CostSummary{ByCategory: make(map[string]float64, len(tree))}
	for _, key := range bom.SortedKeys(tree) {
		s.ByCategory[key] = tree[key].Total
	}
	s.MaterialsCost = tree.MaterialsCost()
	s.Labor = s.MaterialsCost * r.Labor
	s.Indirect = s.MaterialsCost * r.Indirect
	s.Installation = s.MaterialsCost * r.Installation
	s.ProductionCost = s.MaterialsCost + s.Labor + s.Indirect
	s.TotalProjectCost = s.ProductionCost + s.Installation

	if !finite(s.TotalProjectCost) || s.MaterialsCost < 0 {
		return CostSummary{}, fmt.Errorf("%s: %w: materials cost %v", op, bom.ErrInconsistent, s.MaterialsCost)
	}

	return s, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
