package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"elevcalc/internal/service/bom"
	"elevcalc/internal/service/dimensioning"
	"elevcalc/internal/service/rules"
	"elevcalc/internal/storage"
)

type RuleDocumentManager interface {
	Validate(ctx context.Context, id int64) (rules.ValidationResult, error)
	Activate(ctx context.Context, id int64) error
	Deactivate(ctx context.Context, id int64) error
	Preview(ctx context.Context, id int64, spec dimensioning.Specification) (bom.Category, error)
	Reload(ctx context.Context) error
}

type Response struct {
	Status     string                  `json:"status"`
	Validation *rules.ValidationResult `json:"validation,omitempty"`
}

func ValidateRuleDocument(log *slog.Logger, manager RuleDocumentManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.rules.ValidateRuleDocument"

		id, ok := documentID(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		res, err := manager.Validate(ctx, id)
		if err != nil {
			fail(log, op, id, w, err)
			return
		}

		status := "valid"
		if !res.OK {
			status = "invalid"
		}
		render.JSON(w, r, Response{Status: status, Validation: &res})
	}
}

func ActivateRuleDocument(log *slog.Logger, manager RuleDocumentManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.rules.ActivateRuleDocument"

		id, ok := documentID(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		if err := manager.Activate(ctx, id); err != nil {
			var verr *rules.ValidationError
			if errors.As(err, &verr) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, Response{Status: "invalid", Validation: &verr.Result})
				return
			}
			fail(log, op, id, w, err)
			return
		}

		render.JSON(w, r, Response{Status: "active"})
	}
}

func DeactivateRuleDocument(log *slog.Logger, manager RuleDocumentManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.rules.DeactivateRuleDocument"

		id, ok := documentID(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := manager.Deactivate(ctx, id); err != nil {
			fail(log, op, id, w, err)
			return
		}

		render.JSON(w, r, Response{Status: "inactive"})
	}
}

type PreviewResponse struct {
	Status   string       `json:"status"`
	Category bom.Category `json:"category"`
}

// PreviewRuleDocument evaluates a validated document against the posted
// specification without activating it.
func PreviewRuleDocument(log *slog.Logger, manager RuleDocumentManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.rules.PreviewRuleDocument"

		id, ok := documentID(w, r)
		if !ok {
			return
		}

		var spec dimensioning.Specification
		if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		c, err := manager.Preview(ctx, id, spec)
		if err != nil {
			switch {
			case errors.Is(err, dimensioning.ErrInvalidSpecification), errors.Is(err, rules.ErrEvaluation):
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			default:
				fail(log, op, id, w, err)
			}
			return
		}

		render.JSON(w, r, PreviewResponse{Status: "ok", Category: c})
	}
}

func ReloadRuleCache(log *slog.Logger, manager RuleDocumentManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.rules.ReloadRuleCache"

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		if err := manager.Reload(ctx); err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("rule cache reload failed")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, Response{Status: "reloaded"})
	}
}

func documentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid document id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func fail(log *slog.Logger, op string, id int64, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrRuleDocumentNotFound):
		http.Error(w, "rule document not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrRuleDocumentInvalid):
		http.Error(w, "rule document is not validated", http.StatusConflict)
	default:
		log.With(slog.String("op", op), slog.Int64("id", id), slog.String("error", err.Error())).
			Error("rule document operation failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
