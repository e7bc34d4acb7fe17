package bom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"elevcalc/internal/storage"
)

const defaultUnit = "un"

// FallbackCosts are the unit costs used when the catalog has no price for a
// part. They come from configuration and are placeholders until the business
// owner confirms real defaults.
type FallbackCosts struct {
	ByCategory map[string]float64 `json:"by_category"`
	Default    float64            `json:"default"`
}

func (f FallbackCosts) For(category string) float64 {
	if v, ok := f.ByCategory[category]; ok && v >= 0 {
		return v
	}
	return math.Max(f.Default, 0)
}

type Line struct {
	Subcategory string
	Code        string
	Quantity    float64
	Unit        string
	Description string
	Explanation string
}

// Builder accumulates the line items of one category, resolving unit costs
// through the catalog.
type Builder struct {
	category string
	catalog  PartCatalog
	fallback FallbackCosts
	log      *slog.Logger

	subs     map[string]Subcategory
	notes    []string
	degraded bool
}

func NewBuilder(category string, catalog PartCatalog, fallback FallbackCosts, log *slog.Logger) *Builder {
	return &Builder{
		category: category,
		catalog:  catalog,
		fallback: fallback,
		log:      log.With(slog.String("category", category)),
		subs:     make(map[string]Subcategory),
	}
}

func (b *Builder) Add(ctx context.Context, line Line) error {
	const op = "service.bom.Builder.Add"

	if math.IsNaN(line.Quantity) || math.IsInf(line.Quantity, 0) || line.Quantity < 0 {
		return fmt.Errorf("%s: %s quantity %v is not a non-negative number", op, line.Code, line.Quantity)
	}

	item := LineItem{
		Code:        line.Code,
		Description: line.Description,
		Category:    b.category,
		Subcategory: line.Subcategory,
		Quantity:    line.Quantity,
		Unit:        line.Unit,
		Explanation: line.Explanation,
	}

	part, err := b.catalog.Lookup(ctx, line.Code)
	switch {
	case errors.Is(err, storage.ErrPartNotFound) || (err == nil && part == nil):
		b.degrade(&item, "not in catalog")
	case err != nil:
		b.log.Warn("catalog lookup failed", slog.String("code", line.Code), slog.String("error", err.Error()))
		b.degrade(&item, "catalog unavailable")
	case part.UnitCost == nil:
		b.degrade(&item, "catalog has no cost")
	case *part.UnitCost < 0:
		b.degrade(&item, "catalog cost is negative")
	case !part.Available:
		b.degrade(&item, "unavailable in catalog")
	default:
		item.UnitCost = *part.UnitCost
	}
	if err == nil && part != nil {
		if item.Description == "" {
			item.Description = part.Name
		}
		if part.Unit != "" {
			item.Unit = part.Unit
		}
	}
	if item.Description == "" {
		item.Description = line.Code
	}
	if item.Unit == "" {
		item.Unit = defaultUnit
	}

	item.Total = item.Quantity * item.UnitCost

	sub := b.subs[line.Subcategory]
	sub.Items = append(sub.Items, item)
	sub.Subtotal += item.Total
	b.subs[line.Subcategory] = sub

	return nil
}

// Skip records a line that could not be selected at all.
func (b *Builder) Skip(subcategory, reason string) {
	b.log.Warn("line skipped", slog.String("subcategory", subcategory), slog.String("reason", reason))
	b.notes = append(b.notes, fmt.Sprintf("%s: skipped, %s", subcategory, reason))
	b.degraded = true
}

func (b *Builder) Build(source string) Category {
	c := Category{
		Key:           b.category,
		Subcategories: b.subs,
		Source:        source,
		Degraded:      b.degraded,
		Notes:         b.notes,
	}
	for _, key := range SortedKeys(b.subs) {
		c.Total += b.subs[key].Subtotal
	}
	return c
}

func (b *Builder) degrade(item *LineItem, reason string) {
	item.UnitCost = b.fallback.For(b.category)
	item.Degraded = true
	b.degraded = true
	b.notes = append(b.notes, fmt.Sprintf("%s: %s, default unit cost %.2f used", item.Code, reason, item.UnitCost))
	b.log.Warn("fallback unit cost used", slog.String("code", item.Code), slog.String("reason", reason))
}
