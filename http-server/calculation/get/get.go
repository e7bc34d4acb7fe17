package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"elevcalc/internal/storage"
)

type CalculationProvider interface {
	GetCalculation(ctx context.Context, id string) (*storage.Calculation, error)
}

func GetCalculation(log *slog.Logger, provider CalculationProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calculation.GetCalculation"

		id := chi.URLParam(r, "id")
		if err := uuid.Validate(id); err != nil {
			http.Error(w, "invalid calculation id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		calc, err := provider.GetCalculation(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrCalculationNotFound) {
				http.Error(w, "calculation not found", http.StatusNotFound)
				return
			}
			log.With(slog.String("op", op), slog.String("id", id), slog.String("error", err.Error())).
				Error("failed to fetch calculation")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, calc)
	}
}
