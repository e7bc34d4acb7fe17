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

type MockRuleDocumentProvider struct {
	mock.Mock
}

func (m *MockRuleDocumentProvider) Get(ctx context.Context, id int64) (*storage.RuleDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.RuleDocument), args.Error(1)
}

func (m *MockRuleDocumentProvider) List(ctx context.Context, category string) ([]*storage.RuleDocument, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.RuleDocument), args.Error(1)
}

func serve(provider RuleDocumentProvider, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/rules", GetRuleDocuments(slog.Default(), provider))
	r.Get("/rules/{id}", GetRuleDocument(slog.Default(), provider))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestGetRuleDocuments(t *testing.T) {
	provider := new(MockRuleDocumentProvider)
	provider.On("List", mock.Anything, "cabin").
		Return([]*storage.RuleDocument{{ID: 1, Category: "cabin"}, {ID: 2, Category: "cabin"}}, nil)

	rr := serve(provider, "/rules?category=cabin")

	require.Equal(t, http.StatusOK, rr.Code)
	var resp ResponseList
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Len(t, resp.Documents, 2)
	provider.AssertExpectations(t)
}

func TestGetRuleDocuments_Error(t *testing.T) {
	provider := new(MockRuleDocumentProvider)
	provider.On("List", mock.Anything, "").Return(nil, errors.New("db down"))

	assert.Equal(t, http.StatusInternalServerError, serve(provider, "/rules").Code)
}

func TestGetRuleDocument(t *testing.T) {
	provider := new(MockRuleDocumentProvider)
	provider.On("Get", mock.Anything, int64(7)).
		Return(&storage.RuleDocument{ID: 7, Category: "traction", Version: 2}, nil)
	provider.On("Get", mock.Anything, int64(8)).Return(nil, storage.ErrRuleDocumentNotFound)

	rr := serve(provider, "/rules/7")
	require.Equal(t, http.StatusOK, rr.Code)
	var doc storage.RuleDocument
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&doc))
	assert.Equal(t, 2, doc.Version)

	assert.Equal(t, http.StatusNotFound, serve(provider, "/rules/8").Code)
	assert.Equal(t, http.StatusBadRequest, serve(provider, "/rules/abc").Code)
	assert.Equal(t, http.StatusBadRequest, serve(provider, "/rules/0").Code)
}
