package bom

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"elevcalc/internal/service/dimensioning"
	"elevcalc/internal/storage"
)

var ErrInconsistent = errors.New("inconsistent bill of materials")

const (
	SourceCalculator  = "calculator"
	SourceRules       = "rules"
	SourcePlaceholder = "placeholder"
)

const sumEpsilon = 1e-6

type PartCatalog interface {
	Lookup(ctx context.Context, code string) (*storage.CatalogPart, error)
}

type Input struct {
	Spec dimensioning.Specification
	Dims dimensioning.Dimensions
}

// Calculator produces the bill of materials of a single category.
type Calculator interface {
	Category() string
	Calculate(ctx context.Context, in Input) (Category, error)
}

type LineItem struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitCost    float64 `json:"unit_cost"`
	Total       float64 `json:"total"`
	Explanation string  `json:"explanation"`
	Degraded    bool    `json:"degraded"`
}

type Subcategory struct {
	Subtotal float64    `json:"subtotal"`
	Items    []LineItem `json:"items"`
}

type Category struct {
	Key           string                 `json:"key"`
	Total         float64                `json:"total"`
	Subcategories map[string]Subcategory `json:"subcategories"`
	Source        string                 `json:"source"`
	FallbackUsed  bool                   `json:"fallback_used"`
	Degraded      bool                   `json:"degraded"`
	Error         string                 `json:"error,omitempty"`
	Notes         []string               `json:"notes,omitempty"`
}

// Placeholder stands in for a category that could not be computed so the
// tree still sums.
func Placeholder(key, reason string) Category {
	return Category{
		Key:           key,
		Subcategories: map[string]Subcategory{},
		Source:        SourcePlaceholder,
		Degraded:      true,
		Error:         reason,
	}
}

type Tree map[string]Category

func (t Tree) MaterialsCost() float64 {
	var total float64
	for _, key := range SortedKeys(t) {
		total += t[key].Total
	}
	return total
}

// Check verifies the line, subcategory and category sums of the tree.
func (t Tree) Check() error {
	const op = "service.bom.Tree.Check"

	for _, key := range SortedKeys(t) {
		c := t[key]
		var catSum float64
		for _, subKey := range SortedKeys(c.Subcategories) {
			sub := c.Subcategories[subKey]
			var sum float64
			for _, it := range sub.Items {
				if it.UnitCost < 0 || it.Quantity < 0 || math.IsNaN(it.Total) {
					return fmt.Errorf("%s: %w: %s/%s/%s has negative or invalid values", op, ErrInconsistent, key, subKey, it.Code)
				}
				if !near(it.Total, it.Quantity*it.UnitCost) {
					return fmt.Errorf("%s: %w: %s/%s/%s total %.6f != %.6f x %.6f",
						op, ErrInconsistent, key, subKey, it.Code, it.Total, it.Quantity, it.UnitCost)
				}
				sum += it.Total
			}
			if !near(sum, sub.Subtotal) {
				return fmt.Errorf("%s: %w: %s/%s subtotal %.6f != %.6f", op, ErrInconsistent, key, subKey, sub.Subtotal, sum)
			}
			catSum += sub.Subtotal
		}
		if !near(catSum, c.Total) {
			return fmt.Errorf("%s: %w: %s total %.6f != %.6f", op, ErrInconsistent, key, c.Total, catSum)
		}
		if c.Total < 0 {
			return fmt.Errorf("%s: %w: %s total is negative", op, ErrInconsistent, key)
		}
	}
	return nil
}

func SortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= sumEpsilon*math.Max(1, math.Abs(b))
}
