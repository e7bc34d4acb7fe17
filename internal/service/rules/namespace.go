package rules

import (
	"elevcalc/internal/service/bom"
)

// Namespace is the flat attribute set rule documents read from.
type Namespace map[string]any

func (n Namespace) Lookup(name string) (any, bool) {
	v, ok := n[name]
	return v, ok
}

// Bind exposes the specification and its dimensions under dotted names.
func Bind(in bom.Input) Namespace {
	s, d := in.Spec.Normalize(), in.Dims
	return Namespace{
		"model":          s.Model,
		"passenger":      s.IsPassenger(),
		"passengers":     float64(s.PassengerCount),
		"capacity":       d.CapacityKg,
		"traction_force": d.TractionKg,
		"drive":          s.DriveType,
		"ratio":          s.TractionRatio,
		"counterweight":  s.CounterweightPosition,
		"floors":         float64(s.Floors),

		"shaft.width":  s.ShaftWidth,
		"shaft.length": s.ShaftLength,
		"shaft.height": s.ShaftHeight,

		"cabin.width":     d.CabinWidth,
		"cabin.length":    d.CabinLength,
		"cabin.height":    d.CabinHeight,
		"cabin.material":  s.CabinMaterial,
		"cabin.thickness": s.CabinThickness,
		"floor.type":      s.FloorType,
		"floor.area":      d.FloorArea(),

		"door.model":            s.CabinDoor.Model,
		"door.opening":          s.CabinDoor.Opening,
		"door.material":         s.CabinDoor.Material,
		"door.leaves":           float64(s.CabinDoor.Leaves),
		"door.width":            s.CabinDoor.Width,
		"door.height":           s.CabinDoor.Height,
		"door.clearance":        d.DoorClearance,
		"landing_door.model":    s.LandingDoor.Model,
		"landing_door.opening":  s.LandingDoor.Opening,
		"landing_door.material": s.LandingDoor.Material,
		"landing_door.leaves":   float64(s.LandingDoor.Leaves),
		"landing_door.width":    s.LandingDoor.Width,
		"landing_door.height":   s.LandingDoor.Height,

		"panel.lateral":       float64(d.Panels.Lateral),
		"panel.lateral_width": d.Panels.LateralWidth,
		"panel.rear":          float64(d.Panels.Rear),
		"panel.rear_width":    d.Panels.RearWidth,
		"panel.ceiling":       float64(d.Panels.Ceiling),
		"panel.total":         float64(d.Panels.Total()),

		"sheets.body":  float64(d.BodySheets),
		"sheets.floor": float64(d.FloorSheets),
	}
}

// knownNames lists every attribute Bind provides.
var knownNames = func() map[string]bool {
	out := make(map[string]bool)
	for k := range Bind(bom.Input{}) {
		out[k] = true
	}
	return out
}()

// scope layers document variables over the namespace.
type scope struct {
	ns   Namespace
	vars map[string]float64
}

func (s scope) Lookup(name string) (any, bool) {
	if v, ok := s.vars[name]; ok {
		return v, true
	}
	return s.ns.Lookup(name)
}
