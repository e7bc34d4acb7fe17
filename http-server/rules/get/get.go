package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"elevcalc/internal/storage"
)

type RuleDocumentProvider interface {
	Get(ctx context.Context, id int64) (*storage.RuleDocument, error)
	List(ctx context.Context, category string) ([]*storage.RuleDocument, error)
}

type ResponseList struct {
	Documents []*storage.RuleDocument `json:"documents"`
}

func GetRuleDocuments(log *slog.Logger, provider RuleDocumentProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.rules.GetRuleDocuments"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		docs, err := provider.List(ctx, r.URL.Query().Get("category"))
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("failed to list rule documents")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, ResponseList{Documents: docs})
	}
}

func GetRuleDocument(log *slog.Logger, provider RuleDocumentProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.rules.GetRuleDocument"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "invalid document id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		doc, err := provider.Get(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrRuleDocumentNotFound) {
				http.Error(w, "rule document not found", http.StatusNotFound)
				return
			}
			log.With(slog.String("op", op), slog.Int64("id", id), slog.String("error", err.Error())).
				Error("failed to fetch rule document")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, doc)
	}
}
