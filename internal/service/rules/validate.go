package rules

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"elevcalc/internal/service/bom"
	"elevcalc/internal/storage"
)

type ValidationResult struct {
	OK           bool     `json:"ok"`
	MissingCodes []string `json:"missing_codes"`
	Errors       []string `json:"errors"`
}

func (r ValidationResult) Summary() string {
	var parts []string
	if len(r.MissingCodes) > 0 {
		parts = append(parts, "missing or unavailable codes: "+strings.Join(r.MissingCodes, ", "))
	}
	parts = append(parts, r.Errors...)
	return strings.Join(parts, "; ")
}

// Validate checks that a document compiles, targets the given category and
// only references codes that exist and are available in the catalog.
func Validate(ctx context.Context, doc *storage.RuleDocument, catalog bom.PartCatalog) ValidationResult {
	res := ValidationResult{MissingCodes: []string{}, Errors: []string{}}

	prog, err := Compile(doc.Content)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res
	}
	if doc.Category != "" && !strings.EqualFold(prog.Category, doc.Category) {
		res.Errors = append(res.Errors, fmt.Sprintf("document category %q does not match %q", prog.Category, doc.Category))
	}

	for _, code := range prog.Codes() {
		part, err := catalog.Lookup(ctx, code)
		switch {
		case errors.Is(err, storage.ErrPartNotFound) || (err == nil && part == nil):
			res.MissingCodes = append(res.MissingCodes, code)
		case err != nil:
			res.Errors = append(res.Errors, fmt.Sprintf("catalog lookup %s: %v", code, err))
		case !part.Available:
			res.MissingCodes = append(res.MissingCodes, code)
		}
	}

	res.OK = len(res.MissingCodes) == 0 && len(res.Errors) == 0
	return res
}
