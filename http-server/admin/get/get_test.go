package get

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elevcalc/internal/service/bom"
	"elevcalc/internal/service/pricing"
)

func TestGetCoefficients(t *testing.T) {
	c := Coefficients{
		Ratios:        pricing.DefaultRatios(),
		Rates:         pricing.DefaultRates(),
		FallbackCosts: bom.FallbackCosts{ByCategory: map[string]float64{"cabin": 7}, Default: 3},
	}

	rr := httptest.NewRecorder()
	GetCoefficients(c).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/coefficients", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var got Coefficients
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, c, got)
}
