package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"elevcalc/internal/service/bom"
	"elevcalc/internal/storage"
)

var ErrEvaluation = errors.New("rule evaluation failed")

type Engine struct {
	catalog  bom.PartCatalog
	fallback bom.FallbackCosts
	log      *slog.Logger
}

func NewEngine(catalog bom.PartCatalog, fallback bom.FallbackCosts, log *slog.Logger) *Engine {
	return &Engine{catalog: catalog, fallback: fallback, log: log}
}

// Evaluate compiles and runs a stored document. Documents that have not
// passed validation are refused.
func (e *Engine) Evaluate(ctx context.Context, doc *storage.RuleDocument, in bom.Input) (bom.Category, error) {
	const op = "service.rules.Engine.Evaluate"

	if doc == nil {
		return bom.Category{}, fmt.Errorf("%s: %w", op, storage.ErrRuleDocumentNotFound)
	}
	if !doc.IsValidated {
		return bom.Category{}, fmt.Errorf("%s: document %d v%d: %w", op, doc.ID, doc.Version, storage.ErrRuleDocumentInvalid)
	}

	prog, err := Compile(doc.Content)
	if err != nil {
		return bom.Category{}, fmt.Errorf("%s: %w", op, err)
	}

	return e.Run(ctx, prog, in)
}

// Run evaluates a compiled program against one specification.
func (e *Engine) Run(ctx context.Context, prog *Program, in bom.Input) (bom.Category, error) {
	const op = "service.rules.Engine.Run"

	env := scope{ns: Bind(in), vars: make(map[string]float64)}

	// first matching definition of a variable wins
	for _, v := range prog.vars {
		if _, bound := env.vars[v.name]; bound {
			continue
		}
		if !v.when.Matches(env) {
			continue
		}
		val, err := v.formula.Eval(env)
		if err != nil {
			return bom.Category{}, fmt.Errorf("%s: %w: variable %s: %w", op, ErrEvaluation, v.name, err)
		}
		env.vars[v.name] = val
	}

	b := bom.NewBuilder(prog.Category, e.catalog, e.fallback, e.log)

	for i, l := range prog.lines {
		rule := l.rule
		if !rule.When.Matches(env) {
			continue
		}

		code := rule.Code
		if rule.Table != "" {
			var ok bool
			code, ok = lookup(prog.tables[rule.Table], env)
			if !ok {
				b.Skip(rule.Subcategory, fmt.Sprintf("no row in table %s", rule.Table))
				continue
			}
		}

		qty, err := l.quantity.Eval(env)
		if err != nil {
			return bom.Category{}, fmt.Errorf("%s: %w: lines[%d] %s: %w", op, ErrEvaluation, i, code, err)
		}
		if math.IsNaN(qty) || math.IsInf(qty, 0) || qty < 0 {
			return bom.Category{}, fmt.Errorf("%s: %w: lines[%d] %s: quantity %v is not a non-negative number",
				op, ErrEvaluation, i, code, qty)
		}

		explanation, err := render(rule.Explanation, env)
		if err != nil {
			return bom.Category{}, fmt.Errorf("%s: %w: lines[%d] %s: %w", op, ErrEvaluation, i, code, err)
		}

		err = b.Add(ctx, bom.Line{
			Subcategory: rule.Subcategory,
			Code:        code,
			Quantity:    qty,
			Unit:        rule.Unit,
			Description: rule.Description,
			Explanation: explanation,
		})
		if err != nil {
			return bom.Category{}, fmt.Errorf("%s: %w: %w", op, ErrEvaluation, err)
		}
	}

	return b.Build(bom.SourceRules), nil
}

func lookup(t Table, env Env) (string, bool) {
	for _, r := range t.Rows {
		if r.When.Matches(env) {
			return r.Code, true
		}
	}
	if t.Default != "" {
		return t.Default, true
	}
	return "", false
}

func render(tmpl string, env Env) (string, error) {
	var firstErr error
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := env.Lookup(name)
		if !ok {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: %s", ErrUnknownVariable, name)
			}
			return m
		}
		switch x := v.(type) {
		case float64:
			return bom.Num(x)
		case string:
			return x
		case bool:
			if x {
				return "yes"
			}
			return "no"
		}
		return fmt.Sprint(v)
	})
	return out, firstErr
}
