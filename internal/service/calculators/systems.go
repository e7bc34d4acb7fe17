package calculators

import (
	"context"
	"fmt"

	"elevcalc/internal/constants"
	"elevcalc/internal/service/bom"
)

type Systems struct {
	deps
}

func (s *Systems) Category() string {
	return constants.CategorySystems
}

func (s *Systems) Calculate(ctx context.Context, in bom.Input) (bom.Category, error) {
	const op = "service.calculators.Systems.Calculate"

	b := s.builder(constants.CategorySystems)
	spec, d := in.Spec.Normalize(), in.Dims

	fixtures := constants.LightingShortCabin
	if d.CabinLength > constants.LightingLongCabinM {
		fixtures = constants.LightingLongCabin
	}

	lines := []bom.Line{{
		Subcategory: "lighting",
		Code:        constants.CodeLighting,
		Quantity:    float64(fixtures),
		Explanation: fmt.Sprintf("fixtures = %s for cabin length %s m", bom.Num(float64(fixtures)), bom.Num(d.CabinLength)),
	}}
	if spec.IsPassenger() {
		lines = append(lines, bom.Line{
			Subcategory: "ventilation",
			Code:        constants.CodeVentilation,
			Quantity:    1,
			Explanation: "fan for passenger cabin",
		})
	}
	lines = append(lines,
		bom.Line{Subcategory: "control", Code: constants.CodeController, Quantity: 1, Explanation: "controller"},
		bom.Line{Subcategory: "control", Code: constants.CodeCabinPanel, Quantity: 1, Explanation: "cabin push-button panel"},
	)
	if spec.Floors > 0 {
		lines = append(lines, bom.Line{
			Subcategory: "control",
			Code:        constants.CodeLandingButton,
			Quantity:    float64(spec.Floors),
			Explanation: fmt.Sprintf("landing push-buttons = %s floors", bom.Num(float64(spec.Floors))),
		})
	}

	for _, l := range lines {
		if err := b.Add(ctx, l); err != nil {
			return bom.Category{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	return b.Build(bom.SourceCalculator), nil
}
