package bom

import (
	"context"
	"fmt"
	"log/slog"
)

// Run computes one category and turns any failure, including a panic, into a
// zero-cost placeholder so the remaining categories are unaffected.
func Run(ctx context.Context, calc Calculator, in Input, log *slog.Logger) (cat Category) {
	key := calc.Category()

	defer func() {
		if r := recover(); r != nil {
			log.Error("category calculation panicked", slog.String("category", key), slog.Any("panic", r))
			cat = Placeholder(key, fmt.Sprintf("panic: %v", r))
		}
	}()

	c, err := calc.Calculate(ctx, in)
	if err != nil {
		log.Error("category calculation failed", slog.String("category", key), slog.String("error", err.Error()))
		return Placeholder(key, err.Error())
	}
	c.Key = key

	return c
}
