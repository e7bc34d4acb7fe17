package save

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/render"

	"elevcalc/internal/constants"
	"elevcalc/internal/storage"
)

type RuleDocumentSaver interface {
	Save(ctx context.Context, in storage.RuleDocumentSave) (*storage.RuleDocument, error)
}

// SaveRuleDocument creates a document, or edits it when the body carries an id.
// Saved documents are never active until validated and activated.
func SaveRuleDocument(log *slog.Logger, saver RuleDocumentSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.rules.SaveRuleDocument"

		var req storage.RuleDocumentSave
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		req.Category = strings.ToLower(strings.TrimSpace(req.Category))
		if req.ID == 0 && !slices.Contains(constants.Categories, req.Category) {
			http.Error(w, "unknown category", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Content) == "" {
			http.Error(w, "name and content are required", http.StatusBadRequest)
			return
		}
		if req.Format != "" && req.Format != storage.FormatYAML && req.Format != storage.FormatJSON {
			http.Error(w, "format must be yaml or json", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		doc, err := saver.Save(ctx, req)
		if err != nil {
			if errors.Is(err, storage.ErrRuleDocumentNotFound) {
				http.Error(w, "rule document not found", http.StatusNotFound)
				return
			}
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("failed to save rule document")
			http.Error(w, "failed to save rule document", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, doc)
	}
}
