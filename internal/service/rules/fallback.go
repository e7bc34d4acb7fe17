package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"elevcalc/internal/service/bom"
)

// Fallback runs the active rule document of a category and falls back to the
// hard-coded calculator when there is none or it fails.
type Fallback struct {
	cache     *Cache
	engine    *Engine
	secondary bom.Calculator
	log       *slog.Logger
}

func NewFallback(cache *Cache, engine *Engine, secondary bom.Calculator, log *slog.Logger) *Fallback {
	return &Fallback{cache: cache, engine: engine, secondary: secondary, log: log}
}

func (f *Fallback) Category() string {
	return f.secondary.Category()
}

func (f *Fallback) Calculate(ctx context.Context, in bom.Input) (bom.Category, error) {
	category := f.Category()
	log := f.log.With(slog.String("category", category))

	doc, prog, err := f.cache.Active(ctx, category)
	if err == nil {
		var c bom.Category
		c, err = f.engine.Run(ctx, prog, in)
		if err == nil {
			c.Notes = append(c.Notes, fmt.Sprintf("rule document %q v%d", doc.Name, doc.Version))
			return c, nil
		}
		log.Warn("rule evaluation failed, using built-in calculator",
			slog.Int64("document_id", doc.ID), slog.Int("version", doc.Version), slog.String("error", err.Error()))
	} else if errors.Is(err, ErrNoActiveDocument) {
		log.Info("no active rule document, using built-in calculator")
	} else {
		log.Warn("rule document unavailable, using built-in calculator", slog.String("error", err.Error()))
	}

	c, calcErr := f.secondary.Calculate(ctx, in)
	if calcErr != nil {
		return bom.Category{}, calcErr
	}
	c.FallbackUsed = true
	c.Notes = append(c.Notes, fmt.Sprintf("built-in calculator used: %v", err))

	return c, nil
}
