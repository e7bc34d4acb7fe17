package quote

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"elevcalc/internal/constants"
	"elevcalc/internal/service/bom"
	"elevcalc/internal/service/calculators"
	"elevcalc/internal/service/dimensioning"
	"elevcalc/internal/service/pricing"
	"elevcalc/internal/storage"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type pricedCatalog struct {
	missing map[string]bool
}

func (c pricedCatalog) Lookup(_ context.Context, code string) (*storage.CatalogPart, error) {
	if c.missing[code] {
		return nil, storage.ErrPartNotFound
	}
	cost := 10.0
	return &storage.CatalogPart{Code: code, Name: code, UnitCost: &cost, Available: true}, nil
}

type MockWarmer struct {
	mock.Mock
}

func (m *MockWarmer) Warm(ctx context.Context, categories ...string) error {
	return m.Called(ctx, categories).Error(0)
}

type panicking struct{}

func (panicking) Category() string { return constants.CategorySystems }

func (panicking) Calculate(context.Context, bom.Input) (bom.Category, error) {
	panic("index out of range")
}

type failing struct{}

func (failing) Category() string { return constants.CategoryTraction }

func (failing) Calculate(context.Context, bom.Input) (bom.Category, error) {
	return bom.Category{}, errors.New("no motor fits")
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

func newService(warmer CacheWarmer, catalog bom.PartCatalog, extra ...bom.Calculator) *Service {
	calcs := calculators.All(catalog, bom.FallbackCosts{Default: 1}, discard)
	for _, e := range extra {
		for i, c := range calcs {
			if c.Category() == e.Category() {
				calcs[i] = e
			}
		}
	}
	return New(discard, warmer, calcs, pricing.DefaultRatios(), pricing.NewFormation(pricing.DefaultRates()))
}

func TestCalculate_Sample(t *testing.T) {
	warmer := new(MockWarmer)
	warmer.On("Warm", mock.Anything, constants.Categories).Return(nil).Once()

	res, err := newService(warmer, pricedCatalog{}).Calculate(context.Background(), sampleSpec(), Options{})
	require.NoError(t, err)
	warmer.AssertExpectations(t)

	require.Len(t, res.Tree, 4)
	assert.InDelta(t, 1600, res.Tree[constants.CategoryCabin].Total, 1e-9)
	assert.InDelta(t, 230.9, res.Tree[constants.CategoryCarriage].Total, 1e-9)
	assert.InDelta(t, 1380, res.Tree[constants.CategoryTraction].Total, 1e-9)
	assert.InDelta(t, 110, res.Tree[constants.CategorySystems].Total, 1e-9)

	materials := 3320.9
	assert.InDelta(t, materials, res.Summary.MaterialsCost, 1e-9)
	tpc := materials * 1.25
	assert.InDelta(t, tpc*1.3*1.03*1.1, res.Pricing.FinalPrice, 1e-6)
	assert.Equal(t, pricing.LineElevators, res.Pricing.BusinessLine)

	assert.False(t, res.Degraded)
	assert.Empty(t, res.Warnings)
	assert.InDelta(t, 1.29, res.Dimensions.CabinWidth, 1e-9)
	assert.NotEmpty(t, res.Dimensions.Explanation)
	assert.NotEmpty(t, res.Pricing.Explanation)
}

func TestCalculate_WithoutWarmer(t *testing.T) {
	res, err := newService(nil, pricedCatalog{}).Calculate(context.Background(), sampleSpec(), Options{})
	require.NoError(t, err)
	assert.Positive(t, res.Pricing.FinalPrice)
}

func TestCalculate_WarmFailureIsNotFatal(t *testing.T) {
	warmer := new(MockWarmer)
	warmer.On("Warm", mock.Anything, mock.Anything).Return(errors.New("db down"))

	res, err := newService(warmer, pricedCatalog{}).Calculate(context.Background(), sampleSpec(), Options{})
	require.NoError(t, err)
	assert.False(t, res.Degraded)
}

func TestCalculate_FailingCategoriesBecomePlaceholders(t *testing.T) {
	res, err := newService(nil, pricedCatalog{}, panicking{}, failing{}).
		Calculate(context.Background(), sampleSpec(), Options{})
	require.NoError(t, err)

	assert.True(t, res.Degraded)
	for _, key := range []string{constants.CategorySystems, constants.CategoryTraction} {
		c := res.Tree[key]
		assert.Equal(t, bom.SourcePlaceholder, c.Source, key)
		assert.Zero(t, c.Total, key)
	}
	assert.InDelta(t, 1600+230.9, res.Summary.MaterialsCost, 1e-9)

	joined := strings.Join(res.Warnings, "\n")
	assert.Contains(t, joined, "traction: not calculated")
	assert.Contains(t, joined, "no motor fits")
	assert.Contains(t, joined, "systems: not calculated")
}

func TestCalculate_CatalogMissDegrades(t *testing.T) {
	catalog := pricedCatalog{missing: map[string]bool{"QUADRO-COMANDO": true}}

	res, err := newService(nil, catalog).Calculate(context.Background(), sampleSpec(), Options{})
	require.NoError(t, err)

	assert.True(t, res.Degraded)
	assert.True(t, res.Tree[constants.CategorySystems].Degraded)
	assert.InDelta(t, 101, res.Tree[constants.CategorySystems].Total, 1e-9)
}

func TestCalculate_InvalidSpecification(t *testing.T) {
	spec := sampleSpec()
	spec.ShaftWidth = 0

	_, err := newService(nil, pricedCatalog{}).Calculate(context.Background(), spec, Options{})
	assert.ErrorIs(t, err, dimensioning.ErrInvalidSpecification)
}

func TestCalculate_Negotiated(t *testing.T) {
	svc := newService(nil, pricedCatalog{})
	fwd, err := svc.Calculate(context.Background(), sampleSpec(), Options{})
	require.NoError(t, err)

	preTax := fwd.Pricing.PriceWithCommission * 0.9
	res, err := svc.Calculate(context.Background(), sampleSpec(), Options{NegotiatedPrice: &preTax})
	require.NoError(t, err)
	require.NotNil(t, res.Pricing.NegotiatedPrice)
	assert.InDelta(t, preTax, res.Pricing.PriceWithCommission, 1e-6)
	assert.InDelta(t, 10, res.Pricing.DiscountPercent, 1e-6)

	final := fwd.Pricing.FinalPrice
	res, err = svc.Calculate(context.Background(), sampleSpec(), Options{NegotiatedPrice: &final, NegotiatedIncludesTax: true})
	require.NoError(t, err)
	assert.InDelta(t, final, res.Pricing.FinalPrice, 1e-6)
	assert.InDelta(t, 0, res.Pricing.DiscountPercent, 1e-6)

	zero := 0.0
	_, err = svc.Calculate(context.Background(), sampleSpec(), Options{NegotiatedPrice: &zero})
	assert.ErrorIs(t, err, pricing.ErrInvalidNegotiatedPrice)
}

func TestCalculate_BusinessLine(t *testing.T) {
	res, err := newService(nil, pricedCatalog{}).
		Calculate(context.Background(), sampleSpec(), Options{BusinessLine: pricing.LineMaintenance})
	require.NoError(t, err)

	assert.Equal(t, 0.05, res.Pricing.TaxRate)
}

func TestToRecord(t *testing.T) {
	res, err := newService(nil, pricedCatalog{}).Calculate(context.Background(), sampleSpec(), Options{})
	require.NoError(t, err)

	rec, err := ToRecord(res)
	require.NoError(t, err)

	assert.Equal(t, res.Pricing.FinalPrice, rec.FinalPrice)
	assert.Equal(t, res.Summary.MaterialsCost, rec.MaterialsCost)
	assert.Equal(t, pricing.LineElevators, rec.BusinessLine)
	assert.Nil(t, rec.NegotiatedPrice)
	assert.Contains(t, rec.Specification, `"passenger_count":8`)
	assert.Contains(t, rec.Pricing, `"final_price"`)
	assert.Equal(t, res.Dimensions.Explanation, rec.DimensionsExplain)

	var sum float64
	for _, it := range rec.Items {
		sum += it.Total
	}
	assert.InDelta(t, rec.MaterialsCost, sum, 1e-9)

	// items are ordered by category then subcategory
	assert.Equal(t, constants.CategoryCabin, rec.Items[0].Category)
	assert.Equal(t, constants.CategoryTraction, rec.Items[len(rec.Items)-1].Category)
	for i := 1; i < len(rec.Items); i++ {
		prev, cur := rec.Items[i-1], rec.Items[i]
		assert.LessOrEqual(t, prev.Category+"/"+prev.Subcategory, cur.Category+"/"+cur.Subcategory)
	}
}
