// Package filter evaluates user supplied boolean expressions over record
// collections.
//
// Expressions are written in the expr language and see exactly three names:
// d (the current record), i (its position) and data (the whole working
// collection), plus the quantile builtin. Any other identifier is rejected
// at compile time. Record values are exposed as they are; comparisons coerce
// per operand pair, so `d.diam > 0.025` compares numerically when diam holds
// "0.030" while `d.date == "1850"` still compares strings.
//
// Filtering fails open: when an expression cannot be compiled or fails while
// running, the error is logged and the input is returned unfiltered.
package filter

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/conf"
	"github.com/expr-lang/expr/vm"

	"github.com/ballistics/pointdeck/memo"
	"github.com/ballistics/pointdeck/metric"
	"github.com/ballistics/pointdeck/record"
)

// Names bound in every expression environment.
const (
	VarRecord     = "d"
	VarIndex      = "i"
	VarData       = "data"
	BuiltinQuant  = "quantile"
	undefinedName = "undefined"
)

// Evaluator compiles and runs filter expressions. Compiled programs are
// cached by expression text. It is safe for concurrent use.
type Evaluator struct {
	programs *memo.Cache[*vm.Program]
	presets  map[string]string
	logger   *slog.Logger
	metrics  *metric.Metrics
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger used for filter failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics counts filter failures.
func WithMetrics(m *metric.Metrics) Option {
	return func(e *Evaluator) {
		e.metrics = m
	}
}

// WithPresets adds named expressions. They override built-in presets of the
// same name.
func WithPresets(presets map[string]string) Option {
	return func(e *Evaluator) {
		for name, expression := range presets {
			e.presets[name] = expression
		}
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		programs: memo.New[*vm.Program](256),
		presets:  Presets(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Predicate is a compiled filter expression.
type Predicate struct {
	expression string
	program    *vm.Program
}

// Expression returns the normalized expression text.
func (p *Predicate) Expression() string {
	return p.expression
}

// Compile compiles an expression. JavaScript style `===`, `!==` and
// `undefined` are accepted as aliases of `==`, `!=` and `nil`.
func (e *Evaluator) Compile(expression string) (*Predicate, error) {
	normalized := Normalize(expression)
	if normalized == "" {
		return nil, fmt.Errorf("empty filter expression")
	}
	if program, ok := e.programs.Get(normalized); ok {
		return &Predicate{expression: normalized, program: program}, nil
	}

	program, err := expr.Compile(normalized,
		expr.Env(declaredEnv()),
		expr.Patch(undefinedPatcher{}),
		expr.Patch(orderingPatcher{}),
		orderingFunctions(),
	)
	if err != nil {
		return nil, fmt.Errorf("compiling filter %q: %w", normalized, err)
	}
	e.programs.Set(normalized, program)
	return &Predicate{expression: normalized, program: program}, nil
}

// Filter returns the records for which expression holds. An empty
// expression returns records as is. On any compile or runtime failure the
// error is logged and records is returned unfiltered.
func (e *Evaluator) Filter(records []record.Record, expression string) []record.Record {
	if strings.TrimSpace(expression) == "" {
		return records
	}
	predicate, err := e.Compile(expression)
	if err != nil {
		e.fail(expression, err)
		return records
	}
	out, err := predicate.Apply(records)
	if err != nil {
		e.fail(expression, err)
		return records
	}
	return out
}

// FilterPreset filters with a named preset. Unknown names fail open like any
// other filter error.
func (e *Evaluator) FilterPreset(records []record.Record, name string) []record.Record {
	expression, ok := e.presets[name]
	if !ok {
		e.fail(name, fmt.Errorf("unknown filter preset %q", name))
		return records
	}
	return e.Filter(records, expression)
}

// Preset returns the expression registered under name.
func (e *Evaluator) Preset(name string) (string, bool) {
	expression, ok := e.presets[name]
	return expression, ok
}

// PresetNames lists the registered presets.
func (e *Evaluator) PresetNames() []string {
	return sortedKeys(e.presets)
}

// Reset drops compiled programs.
func (e *Evaluator) Reset() {
	e.programs.Reset()
}

func (e *Evaluator) fail(expression string, err error) {
	e.logger.Error("filter failed, returning unfiltered data",
		"expression", expression,
		"error", err)
	e.metrics.RecordFilterFailure()
}

// Apply evaluates the predicate over every record and returns the matching
// records in input order. Evaluation works on copies.
func (p *Predicate) Apply(records []record.Record) ([]record.Record, error) {
	ps := newPass(records)
	out := make([]record.Record, 0, len(records))
	for i, r := range records {
		ok, err := ps.run(p.program, i)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// Match evaluates the predicate for data[i].
func (p *Predicate) Match(data []record.Record, i int) (bool, error) {
	if i < 0 || i >= len(data) {
		return false, fmt.Errorf("index %d out of range", i)
	}
	return newPass(data).run(p.program, i)
}

// Normalize trims the expression and rewrites strict equality operators.
func Normalize(expression string) string {
	expression = strings.TrimSpace(expression)
	expression = strings.ReplaceAll(expression, "!==", "!=")
	return strings.ReplaceAll(expression, "===", "==")
}

// declaredEnv describes the environment for type checking. Only these names
// compile.
func declaredEnv() map[string]interface{} {
	return map[string]interface{}{
		VarRecord:    map[string]interface{}{},
		VarIndex:     0,
		VarData:      []map[string]interface{}{},
		BuiltinQuant: quantileFunc(func(interface{}, interface{}, string, interface{}) bool { return false }),
	}
}

// undefinedPatcher turns the identifier `undefined` into nil.
type undefinedPatcher struct{}

func (undefinedPatcher) Visit(node *ast.Node) {
	if id, ok := (*node).(*ast.IdentifierNode); ok && id.Value == undefinedName {
		ast.Patch(node, &ast.NilNode{})
	}
}

// orderingPatcher routes comparison operators through functions that coerce
// per operand pair. Orderings are false when either side is missing or the
// operands are not comparable, instead of failing the whole run.
type orderingPatcher struct{}

var orderingOps = map[string]string{
	"<":  "_lt",
	">":  "_gt",
	"<=": "_le",
	">=": "_ge",
	"==": "_eq",
	"!=": "_ne",
}

func (orderingPatcher) Visit(node *ast.Node) {
	bin, ok := (*node).(*ast.BinaryNode)
	if !ok {
		return
	}
	name, ok := orderingOps[bin.Operator]
	if !ok {
		return
	}
	ast.Patch(node, &ast.CallNode{
		Callee:    &ast.IdentifierNode{Value: name},
		Arguments: []ast.Node{bin.Left, bin.Right},
	})
}

func orderingFunctions() expr.Option {
	opts := make([]expr.Option, 0, len(orderingOps))
	for op, name := range orderingOps {
		opts = append(opts, expr.Function(name, orderingFunc(op)))
	}
	return func(c *conf.Config) {
		for _, opt := range opts {
			opt(c)
		}
	}
}

func orderingFunc(op string) func(params ...interface{}) (interface{}, error) {
	return func(params ...interface{}) (interface{}, error) {
		if len(params) != 2 {
			return false, fmt.Errorf("%s expects 2 operands", op)
		}
		switch op {
		case "==":
			return equal(params[0], params[1]), nil
		case "!=":
			return !equal(params[0], params[1]), nil
		}
		c, ok := order(params[0], params[1])
		if !ok {
			return false, nil
		}
		switch op {
		case "<":
			return c < 0, nil
		case ">":
			return c > 0, nil
		case "<=":
			return c <= 0, nil
		default:
			return c >= 0, nil
		}
	}
}

// order compares two strings lexically and anything else numerically. A
// numeric string is compared as a number only against a number.
func order(a, b interface{}) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	as, aText := a.(string)
	bs, bText := b.(string)
	if aText && bText {
		return strings.Compare(as, bs), true
	}
	an, aok := record.Number(a)
	bn, bok := record.Number(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case an < bn:
		return -1, true
	case an > bn:
		return 1, true
	}
	return 0, true
}

// equal is loose equality: nil only equals nil, two strings compare as
// text, and a number equals a string or number of the same numeric value.
func equal(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	as, aText := a.(string)
	bs, bText := b.(string)
	if aText && bText {
		return as == bs
	}
	if an, ok := record.Number(a); ok {
		if bn, ok := record.Number(b); ok {
			return an == bn
		}
	}
	return reflect.DeepEqual(a, b)
}

func truthy(v interface{}) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case nil:
		return false, nil
	case string:
		return t != "", nil
	default:
		if n, ok := record.Number(v); ok {
			return n != 0, nil
		}
		return false, fmt.Errorf("filter result %v (%T) is not a boolean", v, v)
	}
}
