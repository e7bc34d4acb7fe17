package get

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"elevcalc/internal/storage"
)

type MockPartProvider struct {
	mock.Mock
}

func (m *MockPartProvider) Lookup(ctx context.Context, code string) (*storage.CatalogPart, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.CatalogPart), args.Error(1)
}

func serve(parts PartProvider, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/parts/{code}", GetPart(slog.Default(), parts))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestGetPart(t *testing.T) {
	parts := new(MockPartProvider)
	cost := 412.5
	parts.On("Lookup", mock.Anything, "CH-INOX-12").
		Return(&storage.CatalogPart{Code: "CH-INOX-12", UnitCost: &cost, Available: true}, nil)

	rr := serve(parts, "/parts/CH-INOX-12")

	require.Equal(t, http.StatusOK, rr.Code)
	var part storage.CatalogPart
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&part))
	require.NotNil(t, part.UnitCost)
	assert.Equal(t, 412.5, *part.UnitCost)
}

func TestGetPart_Errors(t *testing.T) {
	parts := new(MockPartProvider)
	parts.On("Lookup", mock.Anything, "NOPE").Return(nil, storage.ErrPartNotFound)
	parts.On("Lookup", mock.Anything, "BROKEN").Return(nil, errors.New("bad connection"))

	assert.Equal(t, http.StatusNotFound, serve(parts, "/parts/NOPE").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(parts, "/parts/BROKEN").Code)
}
