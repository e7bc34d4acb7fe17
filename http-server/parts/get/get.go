package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"elevcalc/internal/storage"
)

type PartProvider interface {
	Lookup(ctx context.Context, code string) (*storage.CatalogPart, error)
}

// GetPart shows a catalog entry so rule authors can check a code before
// referencing it.
func GetPart(log *slog.Logger, parts PartProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.parts.GetPart"

		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if code == "" {
			http.Error(w, "part code is required", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		part, err := parts.Lookup(ctx, code)
		if err != nil {
			if errors.Is(err, storage.ErrPartNotFound) {
				http.Error(w, "part not found", http.StatusNotFound)
				return
			}
			log.With(slog.String("op", op), slog.String("code", code), slog.String("error", err.Error())).
				Error("failed to look up part")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, part)
	}
}
