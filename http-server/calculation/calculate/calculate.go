package calculate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"elevcalc/internal/service/dimensioning"
	"elevcalc/internal/service/pricing"
	"elevcalc/internal/service/quote"
	"elevcalc/internal/storage"
)

type Calculator interface {
	Calculate(ctx context.Context, spec dimensioning.Specification, opts quote.Options) (*quote.Result, error)
}

type CalculationSaver interface {
	SaveCalculation(ctx context.Context, c storage.Calculation) (string, error)
}

type Request struct {
	Specification         dimensioning.Specification `json:"specification"`
	BusinessLine          string                     `json:"business_line"`
	NegotiatedPrice       *float64                   `json:"negotiated_price"`
	NegotiatedIncludesTax bool                       `json:"negotiated_includes_tax"`
	Save                  bool                       `json:"save"`
}

type Response struct {
	ID     string        `json:"id,omitempty"`
	Result *quote.Result `json:"result"`
}

func Calculate(log *slog.Logger, calc Calculator, saver CalculationSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calculation.Calculate"

		log := log.With(slog.String("op", op))

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		res, err := calc.Calculate(ctx, req.Specification, quote.Options{
			BusinessLine:          req.BusinessLine,
			NegotiatedPrice:       req.NegotiatedPrice,
			NegotiatedIncludesTax: req.NegotiatedIncludesTax,
		})
		if err != nil {
			switch {
			case errors.Is(err, dimensioning.ErrInvalidSpecification):
				log.Warn("specification rejected", slog.String("error", err.Error()))
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			case errors.Is(err, pricing.ErrInvalidNegotiatedPrice):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				log.Error("calculation failed", slog.String("error", err.Error()))
				http.Error(w, "calculation failed", http.StatusInternalServerError)
			}
			return
		}

		resp := Response{Result: res}
		if req.Save {
			rec, err := quote.ToRecord(res)
			if err != nil {
				log.Error("failed to build record", slog.String("error", err.Error()))
				http.Error(w, "Internal error", http.StatusInternalServerError)
				return
			}
			id, err := saver.SaveCalculation(ctx, rec)
			if err != nil {
				log.Error("failed to save calculation", slog.String("error", err.Error()))
				http.Error(w, "failed to save calculation", http.StatusInternalServerError)
				return
			}
			resp.ID = id
		}

		render.JSON(w, r, resp)
	}
}
