package constants

import "math"

const (
	CategoryCabin    = "cabin"
	CategoryCarriage = "carriage"
	CategoryTraction = "traction"
	CategorySystems  = "systems"
)

// Categories is the fixed evaluation order of the bill of materials.
var Categories = []string{CategoryCabin, CategoryCarriage, CategoryTraction, CategorySystems}

const (
	ModelPassenger = "Passenger"
	ModelFreight   = "Freight"

	DriveHydraulic = "hydraulic"
	DriveMotor     = "motor"

	Ratio1x1 = "1x1"
	Ratio2x1 = "2x1"

	CounterweightLateral = "lateral"
	CounterweightRear    = "rear"

	MaterialStainless  = "stainless_steel"
	MaterialAluminum   = "aluminum"
	MaterialCarbon     = "carbon_steel"
	MaterialGalvanized = "galvanized_steel"

	DoorAutomatic    = "automatic"
	DoorPantographic = "pantographic"
	DoorSwing        = "swing"

	OpeningCentral = "central"
	OpeningSide    = "side"

	FloorAluminumCheckered = "aluminum_checkered"
	FloorRubber            = "rubber"
	FloorGranite           = "granite"
)

type SheetKey struct {
	Material  string
	Thickness float64
}

// BodySheets maps cabin body material and thickness (mm) to the sheet code.
var BodySheets = map[SheetKey]string{
	{MaterialStainless, 1.2}:  "CH-INOX-12",
	{MaterialStainless, 1.5}:  "CH-INOX-15",
	{MaterialAluminum, 1.5}:   "CH-ALU-15",
	{MaterialAluminum, 2.0}:   "CH-ALU-20",
	{MaterialCarbon, 1.2}:     "CH-ACO-12",
	{MaterialCarbon, 1.5}:     "CH-ACO-15",
	{MaterialCarbon, 2.0}:     "CH-ACO-20",
	{MaterialGalvanized, 1.2}: "CH-GALV-12",
	{MaterialGalvanized, 1.5}: "CH-GALV-15",
}

// CutFoldMaterials need the outsourced cut and fold service.
var CutFoldMaterials = map[string]bool{
	MaterialStainless: true,
	MaterialAluminum:  true,
}

const (
	CodeCutFoldService = "SV-CORTE-DOBRA"
	CodeFixings        = "PARAF-AUTO-4.2"
	CodeHandrail       = "CORRIMAO-INOX"
)

var FloorSheets = map[string]string{
	FloorAluminumCheckered: "PISO-ALU-XAD",
	FloorRubber:            "PISO-BORRACHA",
	FloorGranite:           "PISO-GRANITO",
}

type DoorKey struct {
	Model   string
	Opening string
}

var CabinDoors = map[DoorKey]string{
	{DoorAutomatic, OpeningCentral}: "PORTA-CAB-AUT-CENT",
	{DoorAutomatic, OpeningSide}:    "PORTA-CAB-AUT-LAT",
	{DoorPantographic, ""}:          "PORTA-CAB-PANT",
}

var LandingDoors = map[DoorKey]string{
	{DoorAutomatic, OpeningCentral}: "PORTA-PAV-AUT-CENT",
	{DoorAutomatic, OpeningSide}:    "PORTA-PAV-AUT-LAT",
	{DoorSwing, ""}:                 "PORTA-PAV-EIXO",
}

// CarriageBand selects structural profiles by rated capacity.
type CarriageBand struct {
	MaxKg     float64
	CrossBeam string
	Upright   string
	Profile   string
}

var CarriageBands = []CarriageBand{
	{MaxKg: 1000, CrossBeam: "VIGA-U-4", Upright: "LONG-U-4", Profile: "PERFIL-L-2"},
	{MaxKg: 1800, CrossBeam: "VIGA-U-6", Upright: "LONG-U-6", Profile: "PERFIL-L-3"},
	{MaxKg: math.Inf(1), CrossBeam: "VIGA-U-8", Upright: "LONG-U-8", Profile: "PERFIL-L-4"},
}

const (
	CodeGuideShoe         = "CORREDICA-CAB"
	CodeSafetyInstant     = "FREIO-SEG-INST"
	CodeSafetyProgressive = "FREIO-SEG-PROG"

	// SafetyInstantMaxKg is the last capacity served by instantaneous safety gear.
	SafetyInstantMaxKg = 1000
)

const (
	CodeHydraulicUnit   = "HID-CENTRAL"
	CodeHydraulicPiston = "HID-PISTAO"
	CodeHydraulicHose   = "HID-MANGUEIRA"
	CodeHydraulicOil    = "HID-OLEO"

	CodeHitchBeam      = "TRAVESSA-AMARRACAO"
	CodeDiverterPulley = "POLIA-DESVIO"
	CodePulleyBeam     = "TRAVESSA-POLIA"
	CodeCable          = "CABO-ACO-8MM"
	CodeCabinRail      = "GUIA-T70"
	CodeCounterRail    = "GUIA-T50"
)

type MotorBand struct {
	MaxTractionKg float64
	Code          string
}

var MotorBands = []MotorBand{
	{MaxTractionKg: 1000, Code: "MOTOR-7.5CV"},
	{MaxTractionKg: 1500, Code: "MOTOR-10CV"},
	{MaxTractionKg: math.Inf(1), Code: "MOTOR-15CV"},
}

// CounterweightType is a counterweight frame with its filler stone.
type CounterweightType struct {
	Frame       string
	Stone       string
	StoneMassKg float64
}

var Counterweights = map[string]CounterweightType{
	"lateral_small": {Frame: "CONTRAPESO-LAT-P", Stone: "PEDRA-CP-30", StoneMassKg: 30},
	"lateral_large": {Frame: "CONTRAPESO-LAT-G", Stone: "PEDRA-CP-45", StoneMassKg: 45},
	"rear_small":    {Frame: "CONTRAPESO-TRAS-P", Stone: "PEDRA-CP-30", StoneMassKg: 30},
	"rear_large":    {Frame: "CONTRAPESO-TRAS-G", Stone: "PEDRA-CP-45", StoneMassKg: 45},
}

// CounterweightLargeShaftM is the shaft depth (lateral) or width (rear) from
// which the large counterweight frame fits.
const CounterweightLargeShaftM = 1.80

const (
	CodeLighting       = "LUM-LED-CAB"
	CodeVentilation    = "VENT-CAB"
	CodeController     = "QUADRO-COMANDO"
	CodeCabinPanel     = "BOTOEIRA-CAB"
	CodeLandingButton  = "BOTOEIRA-PAV"
	LightingLongCabinM = 1.50
	LightingShortCabin = 2
	LightingLongCabin  = 4
)
