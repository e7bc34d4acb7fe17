package rules

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"elevcalc/internal/constants"
	"elevcalc/internal/service/bom"
	"elevcalc/internal/service/dimensioning"
	"elevcalc/internal/storage"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// testCatalog prices every code at 10 except the missing and unavailable ones.
type testCatalog struct {
	missing     map[string]bool
	unavailable map[string]bool
}

func (c testCatalog) Lookup(_ context.Context, code string) (*storage.CatalogPart, error) {
	if c.missing[code] {
		return nil, storage.ErrPartNotFound
	}
	cost := 10.0
	return &storage.CatalogPart{Code: code, Name: code, UnitCost: &cost, Available: !c.unavailable[code]}, nil
}

func sampleSpec() dimensioning.Specification {
	return dimensioning.Specification{
		Model:                 constants.ModelPassenger,
		PassengerCount:        8,
		DriveType:             constants.DriveMotor,
		TractionRatio:         constants.Ratio1x1,
		CounterweightPosition: constants.CounterweightLateral,
		ShaftWidth:            2.0,
		ShaftLength:           2.2,
		ShaftHeight:           12,
		Floors:                4,
		CabinMaterial:         constants.MaterialStainless,
		CabinThickness:        1.2,
		CabinHeight:           2.2,
		FloorType:             constants.FloorGranite,
		CabinDoor:             dimensioning.Door{Model: constants.DoorAutomatic, Opening: constants.OpeningCentral, Leaves: 2},
		LandingDoor:           dimensioning.Door{Model: constants.DoorAutomatic, Opening: constants.OpeningCentral, Leaves: 2},
	}
}

func inputFor(t *testing.T, spec dimensioning.Specification) bom.Input {
	t.Helper()
	dims, err := dimensioning.Compute(spec)
	require.NoError(t, err)
	return bom.Input{Spec: spec, Dims: dims}
}

func readDoc(t *testing.T, category string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", category+".yaml"))
	require.NoError(t, err)
	return string(b)
}

func storedDoc(t *testing.T, category string) *storage.RuleDocument {
	t.Helper()
	return &storage.RuleDocument{
		ID:          1,
		Category:    category,
		Name:        category + " rules",
		Version:     3,
		Format:      storage.FormatYAML,
		Content:     readDoc(t, category),
		IsActive:    true,
		IsValidated: true,
	}
}

type lineKey struct {
	sub, code string
}

func lines(c bom.Category) map[lineKey]float64 {
	out := make(map[lineKey]float64)
	for subKey, sub := range c.Subcategories {
		for _, it := range sub.Items {
			out[lineKey{subKey, it.Code}] += it.Quantity
		}
	}
	return out
}
