package rules

import (
	"context"
	"fmt"
	"log/slog"

	"elevcalc/internal/constants"
	"elevcalc/internal/service/bom"
	"elevcalc/internal/service/dimensioning"
	"elevcalc/internal/storage"
)

type DocumentStore interface {
	GetRuleDocument(ctx context.Context, id int64) (*storage.RuleDocument, error)
	ListRuleDocuments(ctx context.Context, category string) ([]*storage.RuleDocument, error)
	SaveRuleDocument(ctx context.Context, doc storage.RuleDocumentSave) (*storage.RuleDocument, error)
	RecordValidation(ctx context.Context, id int64, validated bool, validationError *string) error
	ActivateRuleDocument(ctx context.Context, id int64) error
	DeactivateRuleDocument(ctx context.Context, id int64) error
}

// ValidationError blocks activation of a document.
type ValidationError struct {
	Result ValidationResult
}

func (e *ValidationError) Error() string {
	return "rule document failed validation: " + e.Result.Summary()
}

// Manager edits documents through the store and keeps the cache in step.
type Manager struct {
	store   DocumentStore
	catalog bom.PartCatalog
	cache   *Cache
	engine  *Engine
	log     *slog.Logger
}

func NewManager(store DocumentStore, catalog bom.PartCatalog, cache *Cache, engine *Engine, log *slog.Logger) *Manager {
	return &Manager{store: store, catalog: catalog, cache: cache, engine: engine, log: log}
}

func (m *Manager) Get(ctx context.Context, id int64) (*storage.RuleDocument, error) {
	return m.store.GetRuleDocument(ctx, id)
}

func (m *Manager) List(ctx context.Context, category string) ([]*storage.RuleDocument, error) {
	return m.store.ListRuleDocuments(ctx, category)
}

func (m *Manager) Save(ctx context.Context, in storage.RuleDocumentSave) (*storage.RuleDocument, error) {
	const op = "service.rules.Manager.Save"

	if in.Format == "" {
		in.Format = storage.FormatYAML
	}
	doc, err := m.store.SaveRuleDocument(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	m.cache.Invalidate(doc.Category)

	return doc, nil
}

// Validate checks a stored document against the catalog and records the outcome.
func (m *Manager) Validate(ctx context.Context, id int64) (ValidationResult, error) {
	_, res, err := m.validate(ctx, id)
	return res, err
}

func (m *Manager) validate(ctx context.Context, id int64) (*storage.RuleDocument, ValidationResult, error) {
	const op = "service.rules.Manager.Validate"

	doc, err := m.store.GetRuleDocument(ctx, id)
	if err != nil {
		return nil, ValidationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	res := Validate(ctx, doc, m.catalog)

	var msg *string
	if !res.OK {
		s := res.Summary()
		msg = &s
	}
	if err := m.store.RecordValidation(ctx, id, res.OK, msg); err != nil {
		return nil, ValidationResult{}, fmt.Errorf("%s: %w", op, err)
	}
	m.cache.Invalidate(doc.Category)

	m.log.Info("rule document validated",
		slog.Int64("id", id), slog.String("category", doc.Category), slog.Int("version", doc.Version), slog.Bool("ok", res.OK))

	return doc, res, nil
}

// Activate revalidates the document against the current catalog and makes it
// the active one of its category.
func (m *Manager) Activate(ctx context.Context, id int64) error {
	const op = "service.rules.Manager.Activate"

	doc, res, err := m.validate(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !res.OK {
		return fmt.Errorf("%s: %w", op, &ValidationError{Result: res})
	}
	if err := m.store.ActivateRuleDocument(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m.cache.Invalidate(doc.Category)

	return nil
}

func (m *Manager) Deactivate(ctx context.Context, id int64) error {
	const op = "service.rules.Manager.Deactivate"

	doc, err := m.store.GetRuleDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := m.store.DeactivateRuleDocument(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m.cache.Invalidate(doc.Category)

	return nil
}

// Preview runs a stored document against one specification without changing
// the active set. The document must have passed validation.
func (m *Manager) Preview(ctx context.Context, id int64, spec dimensioning.Specification) (bom.Category, error) {
	const op = "service.rules.Manager.Preview"

	doc, err := m.store.GetRuleDocument(ctx, id)
	if err != nil {
		return bom.Category{}, fmt.Errorf("%s: %w", op, err)
	}

	spec = spec.Normalize()
	dims, err := dimensioning.Compute(spec)
	if err != nil {
		return bom.Category{}, fmt.Errorf("%s: %w", op, err)
	}

	c, err := m.engine.Evaluate(ctx, doc, bom.Input{Spec: spec, Dims: dims})
	if err != nil {
		return bom.Category{}, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

// Reload drops every cached document and loads the active set again. Used
// after rule documents were changed outside the manager.
func (m *Manager) Reload(ctx context.Context) error {
	const op = "service.rules.Manager.Reload"

	m.cache.InvalidateAll()
	if err := m.cache.Warm(ctx, constants.Categories...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
