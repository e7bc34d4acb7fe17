package get

import (
	"net/http"

	"github.com/go-chi/render"

	"elevcalc/internal/service/bom"
	"elevcalc/internal/service/pricing"
)

type Coefficients struct {
	Ratios        pricing.Ratios    `json:"ratios"`
	Rates         pricing.Rates     `json:"rates"`
	FallbackCosts bom.FallbackCosts `json:"fallback_costs"`
}

// GetCoefficients shows the overhead ratios, pricing rates and fallback costs
// the running process prices with.
func GetCoefficients(c Coefficients) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, c)
	}
}
