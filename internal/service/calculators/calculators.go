package calculators

import (
	"log/slog"

	"elevcalc/internal/service/bom"
)

type deps struct {
	catalog  bom.PartCatalog
	fallback bom.FallbackCosts
	log      *slog.Logger
}

func (d deps) builder(category string) *bom.Builder {
	return bom.NewBuilder(category, d.catalog, d.fallback, d.log)
}

// All returns the built-in calculators in evaluation order.
func All(catalog bom.PartCatalog, fallback bom.FallbackCosts, log *slog.Logger) []bom.Calculator {
	d := deps{catalog: catalog, fallback: fallback, log: log}
	return []bom.Calculator{
		&Cabin{d},
		&Carriage{d},
		&Traction{d},
		&Systems{d},
	}
}
