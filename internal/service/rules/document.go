package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

var ErrInvalidDocument = errors.New("invalid rule document")

const schemaURL = "https://elevcalc.local/schemas/rule-document.schema.json"

const documentSchema = `{
  "type": "object",
  "required": ["category", "lines"],
  "additionalProperties": false,
  "properties": {
    "category": {"type": "string", "minLength": 1},
    "variables": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "formula"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "pattern": "^[A-Za-z_][A-Za-z0-9_]*$"},
          "when": {"type": "object"},
          "formula": {"type": ["string", "number"]}
        }
      }
    },
    "tables": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["rows"],
        "additionalProperties": false,
        "properties": {
          "rows": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["code"],
              "additionalProperties": false,
              "properties": {
                "when": {"type": "object"},
                "code": {"type": "string", "minLength": 1}
              }
            }
          },
          "default": {"type": "string"}
        }
      }
    },
    "lines": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["subcategory", "quantity"],
        "additionalProperties": false,
        "oneOf": [{"required": ["code"]}, {"required": ["table"]}],
        "properties": {
          "subcategory": {"type": "string", "minLength": 1},
          "code": {"type": "string", "minLength": 1},
          "table": {"type": "string", "minLength": 1},
          "when": {"type": "object"},
          "quantity": {"type": ["string", "number"]},
          "unit": {"type": "string"},
          "description": {"type": "string"},
          "explanation": {"type": "string"}
        }
      }
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(documentSchema)); err != nil {
		return nil, fmt.Errorf("rule schema load failed: %w", err)
	}
	return c.Compile(schemaURL)
})

// Expr is a formula as written in a document; bare numbers are accepted.
type Expr string

func (e *Expr) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = Expr(s)
		return nil
	}
	*e = Expr(b)
	return nil
}

type Document struct {
	Category  string           `json:"category"`
	Variables []Variable       `json:"variables"`
	Tables    map[string]Table `json:"tables"`
	Lines     []LineRule       `json:"lines"`
}

type Variable struct {
	Name    string    `json:"name"`
	When    Condition `json:"when"`
	Formula Expr      `json:"formula"`
}

type Table struct {
	Rows    []Row  `json:"rows"`
	Default string `json:"default"`
}

type Row struct {
	When Condition `json:"when"`
	Code string    `json:"code"`
}

type LineRule struct {
	Subcategory string    `json:"subcategory"`
	Code        string    `json:"code"`
	Table       string    `json:"table"`
	When        Condition `json:"when"`
	Quantity    Expr      `json:"quantity"`
	Unit        string    `json:"unit"`
	Description string    `json:"description"`
	Explanation string    `json:"explanation"`
}

// ParseDocument reads a YAML or JSON rule document and checks its structure.
func ParseDocument(content string) (*Document, error) {
	const op = "service.rules.ParseDocument"

	var raw any
	if err := yaml.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidDocument, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w: empty document", op, ErrInvalidDocument)
	}

	// yaml gives ints and typed maps; the schema and the decoder want plain JSON values.
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidDocument, err)
	}
	var value any
	if err := json.Unmarshal(normalized, &value); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidDocument, err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidDocument, err)
	}

	var doc Document
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidDocument, err)
	}

	return &doc, nil
}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_.]*)\}`)

type compiledVar struct {
	name    string
	when    Condition
	formula *Formula
}

type compiledLine struct {
	rule     LineRule
	quantity *Formula
}

// Program is a parsed and compiled rule document ready to evaluate.
type Program struct {
	Category string

	vars   []compiledVar
	tables map[string]Table
	lines  []compiledLine
}

// Compile parses the document and every formula in it. It also resolves
// table references and checks that every name used by formulas, conditions
// and explanation placeholders is either an attribute or a declared variable.
// A variable whose definitions all carry a non-matching when stays unbound, and
// a line reading it fails at evaluation time with ErrUnknownVariable.
func Compile(content string) (*Program, error) {
	const op = "service.rules.Compile"

	doc, err := ParseDocument(content)
	if err != nil {
		return nil, err
	}

	p := &Program{Category: doc.Category, tables: doc.Tables}
	var problems []string

	names := make(map[string]bool, len(knownNames))
	for k := range knownNames {
		names[k] = true
	}
	for _, v := range doc.Variables {
		names[v.Name] = true
	}

	checkNames := func(where string, used []string) {
		for _, n := range used {
			if !names[n] {
				problems = append(problems, fmt.Sprintf("%s: unknown variable %s", where, n))
			}
		}
	}

	for i, v := range doc.Variables {
		where := fmt.Sprintf("variables[%d] %s", i, v.Name)
		f, err := ParseFormula(string(v.Formula))
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", where, err))
			continue
		}
		checkNames(where, f.Idents)
		checkNames(where, v.When.Names())
		p.vars = append(p.vars, compiledVar{name: v.Name, when: v.When, formula: f})
	}

	for name, t := range doc.Tables {
		for i, r := range t.Rows {
			checkNames(fmt.Sprintf("tables.%s.rows[%d]", name, i), r.When.Names())
		}
	}

	for i, l := range doc.Lines {
		where := fmt.Sprintf("lines[%d] %s", i, l.Subcategory)
		if l.Table != "" {
			if _, ok := doc.Tables[l.Table]; !ok {
				problems = append(problems, fmt.Sprintf("%s: unknown table %s", where, l.Table))
			}
		}
		f, err := ParseFormula(string(l.Quantity))
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", where, err))
			continue
		}
		checkNames(where, f.Idents)
		checkNames(where, l.When.Names())
		checkNames(where, placeholders(l.Explanation))
		p.lines = append(p.lines, compiledLine{rule: l, quantity: f})
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, fmt.Errorf("%s: %w: %s", op, ErrInvalidDocument, strings.Join(problems, "; "))
	}

	return p, nil
}

// Codes lists every part code the program can select, sorted.
func (p *Program) Codes() []string {
	seen := make(map[string]bool)
	for _, l := range p.lines {
		if l.rule.Code != "" {
			seen[l.rule.Code] = true
		}
	}
	for _, t := range p.tables {
		for _, r := range t.Rows {
			seen[r.Code] = true
		}
		if t.Default != "" {
			seen[t.Default] = true
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func placeholders(tmpl string) []string {
	var out []string
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		out = append(out, m[1])
	}
	return out
}
