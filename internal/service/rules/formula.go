package rules

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var (
	ErrSyntax          = errors.New("formula syntax error")
	ErrUnknownVariable = errors.New("unknown variable")
	ErrNotNumeric      = errors.New("value is not numeric")
	ErrDivisionByZero  = errors.New("division by zero")
)

// Env resolves names used in formulas and conditions.
type Env interface {
	Lookup(name string) (any, bool)
}

type Node interface {
	Eval(env Env) (float64, error)
}

// Formula is a compiled quantity expression together with the names it reads.
type Formula struct {
	Source string
	Root   Node
	Idents []string
}

func (f *Formula) Eval(env Env) (float64, error) {
	return f.Root.Eval(env)
}

type numberNode float64

func (n numberNode) Eval(Env) (float64, error) {
	return float64(n), nil
}

type identNode string

func (n identNode) Eval(env Env) (float64, error) {
	v, ok := env.Lookup(string(n))
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownVariable, string(n))
	}
	return toNumber(string(n), v)
}

type unaryNode struct {
	x Node
}

func (n unaryNode) Eval(env Env) (float64, error) {
	v, err := n.x.Eval(env)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

type binaryNode struct {
	op   byte
	l, r Node
}

func (n binaryNode) Eval(env Env) (float64, error) {
	l, err := n.l.Eval(env)
	if err != nil {
		return 0, err
	}
	r, err := n.r.Eval(env)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return l / r, nil
	}
	return 0, fmt.Errorf("%w: operator %q", ErrSyntax, n.op)
}

type callNode struct {
	fn   string
	args []Node
}

var functions = map[string]struct {
	minArgs, maxArgs int
}{
	"ceil":  {1, 1},
	"floor": {1, 1},
	"round": {1, 1},
	"abs":   {1, 1},
	"min":   {1, -1},
	"max":   {1, -1},
}

func (n callNode) Eval(env Env) (float64, error) {
	vals := make([]float64, len(n.args))
	for i, a := range n.args {
		v, err := a.Eval(env)
		if err != nil {
			return 0, err
		}
		vals[i] = v
	}
	switch n.fn {
	case "ceil":
		return math.Ceil(vals[0]), nil
	case "floor":
		return math.Floor(vals[0]), nil
	case "round":
		return math.Round(vals[0]), nil
	case "abs":
		return math.Abs(vals[0]), nil
	case "min":
		out := vals[0]
		for _, v := range vals[1:] {
			out = math.Min(out, v)
		}
		return out, nil
	case "max":
		out := vals[0]
		for _, v := range vals[1:] {
			out = math.Max(out, v)
		}
		return out, nil
	}
	return 0, fmt.Errorf("%w: unknown function %s", ErrSyntax, n.fn)
}

func toNumber(name string, v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrNotNumeric, name)
}

// ParseFormula compiles an arithmetic expression over named variables:
// numbers, dotted identifiers, + - * /, unary minus, parentheses and the
// functions ceil, floor, round, abs, min and max.
func ParseFormula(src string) (*Formula, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, idents: map[string]bool{}}
	root, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected %q in %q", ErrSyntax, p.peek().text, src)
	}
	return &Formula{Source: src, Root: root, Idents: p.order}, nil
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokNumber
	tokIdent
	tokOp
)

type token struct {
	kind tokKind
	text string
	num  float64
}

func lex(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			j := i
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.') {
				j++
			}
			text := string(rs[i:j])
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad number %q", ErrSyntax, text)
			}
			toks = append(toks, token{kind: tokNumber, text: text, num: v})
			i = j
		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_' || rs[j] == '.') {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: strings.TrimRight(string(rs[i:j]), ".")})
			i = j
		case strings.ContainsRune("+-*/(),", r):
			toks = append(toks, token{kind: tokOp, text: string(r)})
			i++
		default:
			return nil, fmt.Errorf("%w: unexpected character %q", ErrSyntax, r)
		}
	}
	return append(toks, token{kind: tokEOF}), nil
}

type parser struct {
	toks   []token
	pos    int
	idents map[string]bool
	order  []string
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(s string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == s
}

func (p *parser) expect(s string) error {
	if !p.isOp(s) {
		return fmt.Errorf("%w: expected %q, got %q", ErrSyntax, s, p.peek().text)
	}
	p.next()
	return nil
}

func (p *parser) expr() (Node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		op := p.next().text[0]
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, l: left, r: right}
	}
	return left, nil
}

func (p *parser) term() (Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*") || p.isOp("/") {
		op := p.next().text[0]
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, l: left, r: right}
	}
	return left, nil
}

func (p *parser) unary() (Node, error) {
	if p.isOp("-") {
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return unaryNode{x: x}, nil
	}
	if p.isOp("+") {
		p.next()
		return p.unary()
	}
	return p.primary()
}

func (p *parser) primary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return numberNode(t.num), nil
	case tokIdent:
		if !p.isOp("(") {
			if !p.idents[t.text] {
				p.idents[t.text] = true
				p.order = append(p.order, t.text)
			}
			return identNode(t.text), nil
		}
		return p.call(t.text)
	case tokOp:
		if t.text == "(" {
			x, err := p.expr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return x, nil
		}
	case tokEOF:
		return nil, fmt.Errorf("%w: unexpected end of formula", ErrSyntax)
	}
	return nil, fmt.Errorf("%w: unexpected %q", ErrSyntax, t.text)
}

func (p *parser) call(name string) (Node, error) {
	spec, ok := functions[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown function %s", ErrSyntax, name)
	}
	p.next() // (
	var args []Node
	if !p.isOp(")") {
		for {
			a, err := p.expr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if !p.isOp(",") {
				break
			}
			p.next()
		}
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	if len(args) < spec.minArgs || (spec.maxArgs >= 0 && len(args) > spec.maxArgs) {
		return nil, fmt.Errorf("%w: %s takes %d argument(s), got %d", ErrSyntax, name, spec.minArgs, len(args))
	}
	return callNode{fn: name, args: args}, nil
}
