package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"elevcalc/internal/constants"
	"elevcalc/internal/service/bom"
	"elevcalc/internal/service/calculators"
)

func newFallback(t *testing.T, store RuleStore, category string) *Fallback {
	t.Helper()
	catalog := testCatalog{}
	costs := bom.FallbackCosts{Default: 5}
	for _, c := range calculators.All(catalog, costs, discard) {
		if c.Category() == category {
			return NewFallback(NewCache(store, discard), NewEngine(catalog, costs, discard), c, discard)
		}
	}
	t.Fatalf("no calculator for %s", category)
	return nil
}

func TestFallback_UsesActiveDocument(t *testing.T) {
	store := new(MockRuleStore)
	store.On("LoadActive", mock.Anything, constants.CategorySystems).Return(storedDoc(t, constants.CategorySystems), nil)

	f := newFallback(t, store, constants.CategorySystems)
	assert.Equal(t, constants.CategorySystems, f.Category())

	c, err := f.Calculate(context.Background(), inputFor(t, sampleSpec()))
	require.NoError(t, err)

	assert.Equal(t, bom.SourceRules, c.Source)
	assert.False(t, c.FallbackUsed)
	assert.Contains(t, c.Notes, `rule document "systems rules" v3`)
}

func TestFallback_NoDocument(t *testing.T) {
	store := new(MockRuleStore)
	store.On("LoadActive", mock.Anything, constants.CategorySystems).Return(nil, nil)

	c, err := newFallback(t, store, constants.CategorySystems).Calculate(context.Background(), inputFor(t, sampleSpec()))
	require.NoError(t, err)

	assert.Equal(t, bom.SourceCalculator, c.Source)
	assert.True(t, c.FallbackUsed)
	assert.Equal(t, 110.0, c.Total)
}

func TestFallback_BrokenDocumentsFallBack(t *testing.T) {
	tests := []struct {
		name    string
		content string
		loadErr error
	}{
		{name: "does not compile", content: "category: systems\nlines: [{subcategory: a, code: X, quantity: '1 +'}]\n"},
		{name: "fails at evaluation", content: "category: systems\nlines: [{subcategory: a, code: X, quantity: floors / 0}]\n"},
		{name: "store unavailable", loadErr: errors.New("connection refused")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockRuleStore)
			if tt.loadErr != nil {
				store.On("LoadActive", mock.Anything, constants.CategorySystems).Return(nil, tt.loadErr)
			} else {
				doc := storedDoc(t, constants.CategorySystems)
				doc.Content = tt.content
				store.On("LoadActive", mock.Anything, constants.CategorySystems).Return(doc, nil)
			}

			c, err := newFallback(t, store, constants.CategorySystems).Calculate(context.Background(), inputFor(t, sampleSpec()))
			require.NoError(t, err)

			assert.True(t, c.FallbackUsed)
			assert.Equal(t, bom.SourceCalculator, c.Source)
			assert.Equal(t, 110.0, c.Total)
			assert.NoError(t, bom.Tree{c.Key: c}.Check())
		})
	}
}

func TestFallback_CalculatorErrorPropagates(t *testing.T) {
	store := new(MockRuleStore)
	store.On("LoadActive", mock.Anything, constants.CategoryTraction).Return(nil, nil)

	spec := sampleSpec()
	spec.DriveType = "pneumatic"

	_, err := newFallback(t, store, constants.CategoryTraction).Calculate(context.Background(), inputFor(t, spec))
	assert.ErrorIs(t, err, calculators.ErrUnsupportedDrive)
}
