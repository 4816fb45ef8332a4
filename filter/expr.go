package filter

import (
	"fmt"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/mstrctl/mstr"
)

// identifier matches column names that can be referenced directly
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	helpers    map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache(size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: createHelperFunctions(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	cache       *lruCache
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	// Check cache if enabled
	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// Column names are only known per report, so leave them undefined here
	program, err := expr.Compile(expression,
		expr.Env(c.helperFuncs),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		helpers:    c.helperFuncs,
	}

	// Cache if enabled
	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate evaluates the filter against a row. Rows the expression cannot
// be evaluated against do not match.
func (f *exprFilter) Evaluate(row mstr.Row) bool {
	ok, err := f.Match(row)
	return err == nil && ok
}

// Match evaluates the filter against a row
func (f *exprFilter) Match(row mstr.Row) (bool, error) {
	result, err := expr.Run(f.program, createRuntimeEnvironment(row, f.helpers))
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			Reason:     err.Error(),
			Err:        err,
		}
	}

	// AsBool cannot type-check expressions over undefined column names
	matched, ok := result.(bool)
	if !ok {
		return false, &EvaluationError{
			Expression: f.expression,
			Reason:     fmt.Sprintf("expression did not evaluate to a bool (got %T)", result),
		}
	}
	return matched, nil
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// IsThreadSafe indicates that expr filters are thread-safe
func (f *exprFilter) IsThreadSafe() bool {
	return true
}

// createHelperFunctions creates the static helper functions used during compilation
func createHelperFunctions() map[string]any {
	funcs := make(map[string]any, 16)
	addHelperFunctions(funcs)
	// Placeholders so calls type-check; replaced per row at runtime
	funcs["cell"] = func(string) string { return "" }
	funcs["num"] = func(string) float64 { return 0 }
	funcs["has"] = func(string) bool { return false }
	return funcs
}

// addHelperFunctions adds the row independent helper functions
func addHelperFunctions(env map[string]any) {
	// String helpers
	env["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["endsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
	env["trim"] = strings.TrimSpace
	// Number helpers
	env["parseNumber"] = func(s string) float64 {
		n, _ := ParseNumber(s)
		return n
	}
}

// createRuntimeEnvironment binds a row's cells for evaluation. Every column
// is reachable through Row, cell, num and has; columns whose names are
// identifiers are also bound directly, metrics as numbers when they parse.
func createRuntimeEnvironment(row mstr.Row, helpers map[string]any) map[string]any {
	env := make(map[string]any, len(helpers)+len(row)+5)

	maps.Copy(env, helpers)

	values := make(map[string]string, len(row))
	for _, cell := range row {
		if cell.Column == nil {
			continue
		}
		name := cell.Column.ColumnName()
		// First cell wins for duplicate column names
		if _, seen := values[name]; seen {
			continue
		}
		values[name] = cell.Value

		if identifier.MatchString(name) {
			env[name] = bindValue(cell)
		}
	}

	env["Row"] = values
	env["Values"] = row.Values()
	env["cell"] = func(name string) string {
		return values[name]
	}
	env["num"] = func(name string) float64 {
		n, _ := ParseNumber(values[name])
		return n
	}
	env["has"] = func(name string) bool {
		_, ok := values[name]
		return ok
	}

	return env
}

func bindValue(cell mstr.Cell) any {
	if cell.Column.IsMetric() {
		if n, ok := ParseNumber(cell.Value); ok {
			return n
		}
	}
	return cell.Value
}

// ParseNumber parses a formatted report value such as "1,234.50", "$12"
// or "45%". Percentages are returned as written, not divided by 100.
func ParseNumber(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '\u00a0', '$', '€', '£', '%':
			return -1
		}
		return r
	}, s)

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}

	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		n = -n
	}
	return n, true
}
