package calculators

import (
	"context"
	"fmt"

	"elevcalc/internal/constants"
	"elevcalc/internal/service/bom"
)

const (
	crossBeamAllowanceM = 0.2
	uprightAllowanceM   = 0.6
	guideShoes          = 4
)

type Carriage struct {
	deps
}

func (c *Carriage) Category() string {
	return constants.CategoryCarriage
}

func (c *Carriage) Calculate(ctx context.Context, in bom.Input) (bom.Category, error) {
	const op = "service.calculators.Carriage.Calculate"

	b := c.builder(constants.CategoryCarriage)
	d := in.Dims
	band := carriageBand(d.CapacityKg)

	lines := []bom.Line{
		{
			Subcategory: "structure",
			Code:        band.CrossBeam,
			Quantity:    4 * (d.CabinWidth + crossBeamAllowanceM),
			Unit:        "m",
			Explanation: fmt.Sprintf("cross beams = 4 x (%s + 0.2) m", bom.Num(d.CabinWidth)),
		},
		{
			Subcategory: "structure",
			Code:        band.Upright,
			Quantity:    2 * (d.CabinHeight + uprightAllowanceM),
			Unit:        "m",
			Explanation: fmt.Sprintf("uprights = 2 x (%s + 0.6) m", bom.Num(d.CabinHeight)),
		},
		{
			Subcategory: "structure",
			Code:        band.Profile,
			Quantity:    2 * (d.CabinWidth + d.CabinLength),
			Unit:        "m",
			Explanation: fmt.Sprintf("platform profile = 2 x (%s + %s) m", bom.Num(d.CabinWidth), bom.Num(d.CabinLength)),
		},
		{
			Subcategory: "safety",
			Code:        constants.CodeGuideShoe,
			Quantity:    guideShoes,
			Explanation: "guide shoes = 4",
		},
	}

	if d.CapacityKg <= constants.SafetyInstantMaxKg {
		lines = append(lines, bom.Line{
			Subcategory: "safety",
			Code:        constants.CodeSafetyInstant,
			Quantity:    1,
			Explanation: fmt.Sprintf("instantaneous safety gear, capacity %s kg", bom.Num(d.CapacityKg)),
		})
	} else {
		lines = append(lines, bom.Line{
			Subcategory: "safety",
			Code:        constants.CodeSafetyProgressive,
			Quantity:    1,
			Explanation: fmt.Sprintf("progressive safety gear, capacity %s kg", bom.Num(d.CapacityKg)),
		})
	}

	for _, l := range lines {
		if err := b.Add(ctx, l); err != nil {
			return bom.Category{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	return b.Build(bom.SourceCalculator), nil
}

func carriageBand(capacityKg float64) constants.CarriageBand {
	for _, band := range constants.CarriageBands {
		if capacityKg <= band.MaxKg {
			return band
		}
	}
	return constants.CarriageBands[len(constants.CarriageBands)-1]
}
