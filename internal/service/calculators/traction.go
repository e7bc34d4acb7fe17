package calculators

import (
	"context"
	"errors"
	"fmt"
	"math"

	"elevcalc/internal/constants"
	"elevcalc/internal/service/bom"
	"elevcalc/internal/service/dimensioning"
)

var ErrUnsupportedDrive = errors.New("unsupported drive configuration")

const (
	hoseExtraM        = 3.0
	oilBaseL          = 60.0
	oilPerMetreL      = 5.0
	cableExtraM       = 5.0
	cablesLight       = 4
	cablesHeavy       = 6
	cablesLightMaxKg  = 1000
	railsPerGuideLine = 2
)

type Traction struct {
	deps
}

func (t *Traction) Category() string {
	return constants.CategoryTraction
}

func (t *Traction) Calculate(ctx context.Context, in bom.Input) (bom.Category, error) {
	const op = "service.calculators.Traction.Calculate"

	b := t.builder(constants.CategoryTraction)
	spec, d := in.Spec.Normalize(), in.Dims

	var lines []bom.Line
	switch spec.DriveType {
	case constants.DriveHydraulic:
		lines = hydraulicLines(spec)
	case constants.DriveMotor:
		ml, err := motorLines(spec, d)
		if err != nil {
			return bom.Category{}, fmt.Errorf("%s: %w", op, err)
		}
		lines = ml
	default:
		return bom.Category{}, fmt.Errorf("%s: %w: drive %q", op, ErrUnsupportedDrive, spec.DriveType)
	}

	lines = append(lines, bom.Line{
		Subcategory: "guides",
		Code:        constants.CodeCabinRail,
		Quantity:    railsPerGuideLine * spec.ShaftHeight,
		Unit:        "m",
		Explanation: fmt.Sprintf("cabin rails = 2 x %s m", bom.Num(spec.ShaftHeight)),
	})

	for _, l := range lines {
		if err := b.Add(ctx, l); err != nil {
			return bom.Category{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	return b.Build(bom.SourceCalculator), nil
}

func hydraulicLines(spec dimensioning.Specification) []bom.Line {
	h := spec.ShaftHeight
	return []bom.Line{
		{Subcategory: "drive", Code: constants.CodeHydraulicUnit, Quantity: 1, Explanation: "hydraulic power unit"},
		{Subcategory: "drive", Code: constants.CodeHydraulicPiston, Quantity: 1, Explanation: "hydraulic piston"},
		{
			Subcategory: "drive",
			Code:        constants.CodeHydraulicHose,
			Quantity:    h + hoseExtraM,
			Unit:        "m",
			Explanation: fmt.Sprintf("hose = %s + 3 m", bom.Num(h)),
		},
		{
			Subcategory: "drive",
			Code:        constants.CodeHydraulicOil,
			Quantity:    oilBaseL + oilPerMetreL*h,
			Unit:        "l",
			Explanation: fmt.Sprintf("oil = 60 + 5 x %s l", bom.Num(h)),
		},
	}
}

func motorLines(spec dimensioning.Specification, d dimensioning.Dimensions) ([]bom.Line, error) {
	h := spec.ShaftHeight

	lines := []bom.Line{{
		Subcategory: "drive",
		Code:        motorBand(d.TractionKg),
		Quantity:    1,
		Explanation: fmt.Sprintf("motor for traction force %s kg", bom.Num(d.TractionKg)),
	}}

	var mult float64
	switch spec.TractionRatio {
	case constants.Ratio1x1:
		mult = 1
		lines = append(lines, bom.Line{
			Subcategory: "suspension",
			Code:        constants.CodeHitchBeam,
			Quantity:    1,
			Explanation: "hitch cross-beam for 1:1",
		})
	case constants.Ratio2x1:
		mult = 2
		lines = append(lines,
			bom.Line{Subcategory: "suspension", Code: constants.CodeDiverterPulley, Quantity: 2, Explanation: "diverter pulleys for 2:1"},
			bom.Line{Subcategory: "suspension", Code: constants.CodePulleyBeam, Quantity: 2, Explanation: "pulley cross-beams for 2:1"},
		)
	default:
		return nil, fmt.Errorf("%w: traction ratio %q", ErrUnsupportedDrive, spec.TractionRatio)
	}

	cables := cablesHeavy
	if d.CapacityKg <= cablesLightMaxKg {
		cables = cablesLight
	}
	cableLen := h*mult + cableExtraM
	lines = append(lines, bom.Line{
		Subcategory: "suspension",
		Code:        constants.CodeCable,
		Quantity:    cableLen * float64(cables),
		Unit:        "m",
		Explanation: fmt.Sprintf("cable = %s m x %s cables", bom.Num(cableLen), bom.Num(float64(cables))),
	})

	cw, key, err := counterweight(spec)
	if err != nil {
		return nil, err
	}
	stones := math.Ceil(d.TractionKg / cw.StoneMassKg)
	lines = append(lines,
		bom.Line{
			Subcategory: "counterweight",
			Code:        cw.Frame,
			Quantity:    1,
			Explanation: fmt.Sprintf("counterweight frame %s", key),
		},
		bom.Line{
			Subcategory: "counterweight",
			Code:        cw.Stone,
			Quantity:    stones,
			Explanation: fmt.Sprintf("stones = ceil(%s kg / %s kg)", bom.Num(d.TractionKg), bom.Num(cw.StoneMassKg)),
		},
		bom.Line{
			Subcategory: "guides",
			Code:        constants.CodeCounterRail,
			Quantity:    railsPerGuideLine * h,
			Unit:        "m",
			Explanation: fmt.Sprintf("counterweight rails = 2 x %s m", bom.Num(h)),
		},
	)

	return lines, nil
}

func motorBand(tractionKg float64) string {
	for _, band := range constants.MotorBands {
		if tractionKg <= band.MaxTractionKg {
			return band.Code
		}
	}
	return constants.MotorBands[len(constants.MotorBands)-1].Code
}

// counterweight picks the frame by position; a lateral frame is sized by the
// shaft length, a rear one by the shaft width.
func counterweight(spec dimensioning.Specification) (constants.CounterweightType, string, error) {
	var pos string
	var room float64
	switch spec.CounterweightPosition {
	case constants.CounterweightLateral:
		pos, room = "lateral", spec.ShaftLength
	case constants.CounterweightRear:
		pos, room = "rear", spec.ShaftWidth
	default:
		return constants.CounterweightType{}, "", fmt.Errorf("%w: counterweight position %q", ErrUnsupportedDrive, spec.CounterweightPosition)
	}

	size := "small"
	if room >= constants.CounterweightLargeShaftM {
		size = "large"
	}
	key := pos + "_" + size

	return constants.Counterweights[key], key, nil
}
