package calculators

import (
	"context"
	"fmt"

	"elevcalc/internal/constants"
	"elevcalc/internal/service/bom"
	"elevcalc/internal/service/dimensioning"
)

type Cabin struct {
	deps
}

func (c *Cabin) Category() string {
	return constants.CategoryCabin
}

func (c *Cabin) Calculate(ctx context.Context, in bom.Input) (bom.Category, error) {
	const op = "service.calculators.Cabin.Calculate"

	b := c.builder(constants.CategoryCabin)
	spec, d := in.Spec.Normalize(), in.Dims
	p := d.Panels

	var lines []bom.Line

	key := constants.SheetKey{Material: spec.CabinMaterial, Thickness: spec.CabinThickness}
	if code, ok := constants.BodySheets[key]; ok {
		lines = append(lines, bom.Line{
			Subcategory: "body",
			Code:        code,
			Quantity:    float64(d.BodySheets),
			Explanation: fmt.Sprintf("body sheets = %s (%s %s mm)",
				bom.Num(float64(d.BodySheets)), spec.CabinMaterial, bom.Num(spec.CabinThickness)),
		})
	} else {
		b.Skip("body", fmt.Sprintf("no body sheet for %s %s mm", spec.CabinMaterial, bom.Num(spec.CabinThickness)))
	}

	if constants.CutFoldMaterials[spec.CabinMaterial] {
		lines = append(lines, bom.Line{
			Subcategory: "body",
			Code:        constants.CodeCutFoldService,
			Quantity:    float64(p.Total()),
			Explanation: fmt.Sprintf("cut and fold = %s panels (%s)", bom.Num(float64(p.Total())), spec.CabinMaterial),
		})
	}

	if code, ok := constants.FloorSheets[spec.FloorType]; ok {
		lines = append(lines, bom.Line{
			Subcategory: "floor",
			Code:        code,
			Quantity:    float64(d.FloorSheets),
			Explanation: fmt.Sprintf("floor sheets = ceil(%s m2 / 3.60 m2) = %s",
				bom.Num(d.FloorArea()), bom.Num(float64(d.FloorSheets))),
		})
	} else {
		b.Skip("floor", fmt.Sprintf("no floor finish for %q", spec.FloorType))
	}

	lines = append(lines, bom.Line{
		Subcategory: "finishing",
		Code:        constants.CodeFixings,
		Quantity:    float64(13*p.Lateral + 2*p.Rear + 2*p.Ceiling),
		Explanation: fmt.Sprintf("fixings = 13 x %s lateral + 2 x %s rear + 2 x %s ceiling",
			bom.Num(float64(p.Lateral)), bom.Num(float64(p.Rear)), bom.Num(float64(p.Ceiling))),
	})
	if spec.IsPassenger() {
		lines = append(lines, bom.Line{
			Subcategory: "finishing",
			Code:        constants.CodeHandrail,
			Quantity:    1,
			Explanation: "handrail for passenger cabin",
		})
	}

	if code, ok := constants.CabinDoors[doorKey(spec.CabinDoor)]; ok {
		lines = append(lines, bom.Line{
			Subcategory: "doors",
			Code:        code,
			Quantity:    1,
			Explanation: fmt.Sprintf("cabin door %s", spec.CabinDoor.Model),
		})
	} else {
		b.Skip("doors", fmt.Sprintf("no cabin door for %q", spec.CabinDoor.Model))
	}
	if spec.Floors > 0 {
		if code, ok := constants.LandingDoors[doorKey(spec.LandingDoor)]; ok {
			lines = append(lines, bom.Line{
				Subcategory: "doors",
				Code:        code,
				Quantity:    float64(spec.Floors),
				Explanation: fmt.Sprintf("landing doors = %s floors", bom.Num(float64(spec.Floors))),
			})
		} else {
			b.Skip("doors", fmt.Sprintf("no landing door for %q", spec.LandingDoor.Model))
		}
	}

	for _, l := range lines {
		if err := b.Add(ctx, l); err != nil {
			return bom.Category{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	return b.Build(bom.SourceCalculator), nil
}

// doorKey ignores the opening of non-automatic doors; automatic doors open
// centrally unless told otherwise.
func doorKey(door dimensioning.Door) constants.DoorKey {
	if door.Model != constants.DoorAutomatic {
		return constants.DoorKey{Model: door.Model}
	}
	opening := door.Opening
	if opening == "" {
		opening = constants.OpeningCentral
	}
	return constants.DoorKey{Model: door.Model, Opening: opening}
}
