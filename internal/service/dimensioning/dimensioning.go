package dimensioning

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"elevcalc/internal/constants"
)

var ErrInvalidSpecification = errors.New("invalid specification")

const (
	narrowShaftM       = 1.5
	narrowShaftDeductM = 0.42
	wideShaftDeductM   = 0.48
	counterweightM     = 0.23
	frontClearanceM    = 0.10

	automaticDoorM     = 0.10
	automaticPerLeafM  = 0.025
	pantographicDoorM  = 0.08
	swingDoorM         = 0.0
	kgPerPassenger     = 80.0
	tractionBaseKg     = 500.0
	minPanelDivisor    = 2
	maxPanelDivisor    = 10
	minPanelWidthM     = 0.25
	maxPanelWidthM     = 0.33
	foldAllowanceM     = 0.085
	maxFoldedWidthM    = 0.40
	rawSheetWidthM     = 1.20
	rawSheetLengthM    = 3.00
	bodySheetMargin    = 2
	panelWidthEpsilonM = 1e-9
)

type Door struct {
	Model    string  `json:"model"`
	Opening  string  `json:"opening"`
	Material string  `json:"material"`
	Leaves   int     `json:"leaves"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

// Specification is the order as entered by the seller. Lengths in metres,
// cabin thickness in millimetres.
type Specification struct {
	Model                 string  `json:"model"`
	PassengerCount        int     `json:"passenger_count"`
	CapacityKg            float64 `json:"capacity_kg"`
	DriveType             string  `json:"drive_type"`
	TractionRatio         string  `json:"traction_ratio"`
	CounterweightPosition string  `json:"counterweight_position"`
	ShaftWidth            float64 `json:"shaft_width"`
	ShaftLength           float64 `json:"shaft_length"`
	ShaftHeight           float64 `json:"shaft_height"`
	Floors                int     `json:"floors"`
	CabinMaterial         string  `json:"cabin_material"`
	CabinThickness        float64 `json:"cabin_thickness"`
	CabinHeight           float64 `json:"cabin_height"`
	FloorType             string  `json:"floor_type"`
	CabinDoor             Door    `json:"cabin_door"`
	LandingDoor           Door    `json:"landing_door"`
}

// Normalize trims the enumerated fields and lowers their case so that every
// stage compares them the same way. Model keeps its casing; IsPassenger folds it.
func (s Specification) Normalize() Specification {
	s.Model = strings.TrimSpace(s.Model)
	s.DriveType = enumValue(s.DriveType)
	s.TractionRatio = enumValue(s.TractionRatio)
	s.CounterweightPosition = enumValue(s.CounterweightPosition)
	s.CabinMaterial = enumValue(s.CabinMaterial)
	s.FloorType = enumValue(s.FloorType)
	s.CabinDoor = s.CabinDoor.normalize()
	s.LandingDoor = s.LandingDoor.normalize()
	return s
}

func (d Door) normalize() Door {
	d.Model = enumValue(d.Model)
	d.Opening = enumValue(d.Opening)
	d.Material = enumValue(d.Material)
	return d
}

func enumValue(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func (s Specification) IsPassenger() bool {
	return strings.EqualFold(strings.TrimSpace(s.Model), constants.ModelPassenger)
}

type Panels struct {
	Lateral      int     `json:"lateral"` // per side wall
	LateralWidth float64 `json:"lateral_width"`
	Rear         int     `json:"rear"`
	RearWidth    float64 `json:"rear_width"`
	Ceiling      int     `json:"ceiling"`
}

func (p Panels) Total() int {
	return 2*p.Lateral + p.Rear + p.Ceiling
}

type Dimensions struct {
	CabinWidth    float64 `json:"cabin_width"`
	CabinLength   float64 `json:"cabin_length"`
	CabinHeight   float64 `json:"cabin_height"`
	DoorClearance float64 `json:"door_clearance"`
	CapacityKg    float64 `json:"capacity_kg"`
	TractionKg    float64 `json:"traction_kg"`
	Panels        Panels  `json:"panels"`
	BodySheets    int     `json:"body_sheets"`
	FloorSheets   int     `json:"floor_sheets"`
	Explanation   string  `json:"explanation"`
}

func (d Dimensions) FloorArea() float64 {
	return d.CabinWidth * d.CabinLength
}

// Compute derives the physical dimensions of the cabin from the specification.
// It performs no I/O and returns the same result for the same input.
func Compute(spec Specification) (Dimensions, error) {
	const op = "service.dimensioning.Compute"

	spec = spec.Normalize()
	if strings.TrimSpace(spec.Model) == "" {
		return Dimensions{}, fmt.Errorf("%s: %w: model is required", op, ErrInvalidSpecification)
	}
	if spec.ShaftWidth <= 0 || spec.ShaftLength <= 0 {
		return Dimensions{}, fmt.Errorf("%s: %w: shaft width and length must be positive", op, ErrInvalidSpecification)
	}

	var (
		d  Dimensions
		ex strings.Builder
	)

	subWidth := wideShaftDeductM
	if spec.ShaftWidth <= narrowShaftM {
		subWidth = narrowShaftDeductM
	}
	lateral := spec.CounterweightPosition == constants.CounterweightLateral
	rear := spec.CounterweightPosition == constants.CounterweightRear

	d.CabinWidth = spec.ShaftWidth - subWidth
	fmt.Fprintf(&ex, "Cabin width = shaft width %s - %s", m(spec.ShaftWidth), m(subWidth))
	if lateral {
		d.CabinWidth -= counterweightM
		fmt.Fprintf(&ex, " - lateral counterweight %s", m(counterweightM))
	}
	fmt.Fprintf(&ex, " = %s\n", m(d.CabinWidth))

	d.DoorClearance = doorClearance(spec.CabinDoor)
	d.CabinLength = spec.ShaftLength - frontClearanceM - d.DoorClearance
	fmt.Fprintf(&ex, "Cabin length = shaft length %s - front %s - door %s", m(spec.ShaftLength), m(frontClearanceM), m(d.DoorClearance))
	if rear {
		d.CabinLength -= counterweightM
		fmt.Fprintf(&ex, " - rear counterweight %s", m(counterweightM))
	}
	fmt.Fprintf(&ex, " = %s\n", m(d.CabinLength))

	if d.CabinWidth <= 0 || d.CabinLength <= 0 {
		return Dimensions{}, fmt.Errorf("%s: %w: shaft too small for a cabin (width %.2f, length %.2f)",
			op, ErrInvalidSpecification, d.CabinWidth, d.CabinLength)
	}

	d.CabinHeight = spec.CabinHeight
	fmt.Fprintf(&ex, "Cabin height = %s\n", m(d.CabinHeight))

	if spec.IsPassenger() {
		d.CapacityKg = float64(spec.PassengerCount) * kgPerPassenger
		fmt.Fprintf(&ex, "Capacity = %d passengers x %.0f kg = %.2f kg\n", spec.PassengerCount, kgPerPassenger, d.CapacityKg)
	} else {
		d.CapacityKg = spec.CapacityKg
		fmt.Fprintf(&ex, "Capacity = declared %.2f kg\n", d.CapacityKg)
	}
	if d.CapacityKg <= 0 {
		return Dimensions{}, fmt.Errorf("%s: %w: capacity must be positive", op, ErrInvalidSpecification)
	}
	d.TractionKg = d.CapacityKg/2 + tractionBaseKg
	fmt.Fprintf(&ex, "Traction = %.2f / 2 + %.0f = %.2f kg\n", d.CapacityKg, tractionBaseKg, d.TractionKg)

	latCount, latWidth, ok := dividePanels(d.CabinLength)
	if !ok {
		return Dimensions{}, fmt.Errorf("%s: %w: no panel division for side wall of %.2f m", op, ErrInvalidSpecification, d.CabinLength)
	}
	rearCount, rearWidth, ok := dividePanels(d.CabinWidth)
	if !ok {
		return Dimensions{}, fmt.Errorf("%s: %w: no panel division for rear wall of %.2f m", op, ErrInvalidSpecification, d.CabinWidth)
	}
	d.Panels = Panels{
		Lateral:      latCount,
		LateralWidth: latWidth,
		Rear:         rearCount,
		RearWidth:    rearWidth,
		Ceiling:      (latCount * 2) / 2,
	}
	fmt.Fprintf(&ex, "Side walls: %d panels of %s each side (+%s fold)\n", latCount, m(latWidth), m(foldAllowanceM))
	fmt.Fprintf(&ex, "Rear wall: %d panels of %s (+%s fold)\n", rearCount, m(rearWidth), m(foldAllowanceM))
	fmt.Fprintf(&ex, "Ceiling: %d panels\n", d.Panels.Ceiling)

	latSheets := rawSheets(2*latCount, latWidth)
	rearSheets := rawSheets(rearCount, rearWidth)
	ceilSheets := rawSheets(d.Panels.Ceiling, latWidth)
	d.BodySheets = latSheets + rearSheets + ceilSheets + bodySheetMargin
	fmt.Fprintf(&ex, "Body sheets = %d lateral + %d rear + %d ceiling + %d margin = %d\n",
		latSheets, rearSheets, ceilSheets, bodySheetMargin, d.BodySheets)

	sheetArea := rawSheetWidthM * rawSheetLengthM
	d.FloorSheets = int(math.Ceil(d.FloorArea() / sheetArea))
	fmt.Fprintf(&ex, "Floor sheets = ceil(%.2f m2 / %.2f m2) = %d\n", d.FloorArea(), sheetArea, d.FloorSheets)

	d.Explanation = ex.String()

	return d, nil
}

func doorClearance(door Door) float64 {
	var c float64
	switch door.Model {
	case constants.DoorPantographic:
		c = pantographicDoorM
	case constants.DoorSwing:
		c = swingDoorM
	default:
		c = automaticDoorM + automaticPerLeafM*float64(max(door.Leaves-1, 0))
	}
	if door.Opening == constants.OpeningSide {
		c *= 2
	}
	return c
}

// dividePanels tries divisor counts from 10 down to 2 and keeps the widest
// panel that stays within bounds once the fold allowance is added.
func dividePanels(wall float64) (int, float64, bool) {
	var (
		count int
		width float64
		found bool
	)
	for n := maxPanelDivisor; n >= minPanelDivisor; n-- {
		w := wall / float64(n)
		if w < minPanelWidthM-panelWidthEpsilonM || w > maxPanelWidthM+panelWidthEpsilonM {
			continue
		}
		if w+foldAllowanceM > maxFoldedWidthM+panelWidthEpsilonM {
			continue
		}
		count, width, found = n, w, true
	}
	return count, width, found
}

func rawSheets(panels int, width float64) int {
	if panels == 0 {
		return 0
	}
	perSheet := int(math.Floor(rawSheetWidthM / (width + foldAllowanceM)))
	return int(math.Ceil(float64(panels) / float64(perSheet)))
}

func m(v float64) string {
	return fmt.Sprintf("%.2f m", v)
}
