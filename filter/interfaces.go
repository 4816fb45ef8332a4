package filter

import (
	"context"

	"github.com/s0up4200/mstrctl/mstr"
)

// Filter defines the basic interface for report row filters
type Filter interface {
	// Evaluate checks if a row matches the filter criteria
	Evaluate(row mstr.Row) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Match evaluates the filter and reports evaluation failures
	Match(row mstr.Row) (bool, error)

	// Expression returns the original filter expression
	Expression() string

	// IsThreadSafe indicates if the filter can be evaluated concurrently
	IsThreadSafe() bool
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// Evaluator evaluates filters against rows
type Evaluator interface {
	// Evaluate evaluates a filter against all rows, preserving row order
	Evaluate(ctx context.Context, filter CompiledFilter, rows []mstr.Row) ([]mstr.Row, error)
}

// BatchEvaluator evaluates multiple filters concurrently
type BatchEvaluator interface {
	// EvaluateBatch evaluates multiple filters against rows concurrently
	EvaluateBatch(ctx context.Context, filters map[string]CompiledFilter, rows []mstr.Row) (map[string][]mstr.Row, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}

// BatchResult represents the result of evaluating a filter
type BatchResult struct {
	FilterName string
	Matches    []mstr.Row
	Error      error
}

// WorkerPool defines the interface for concurrent work execution
type WorkerPool interface {
	// Submit submits work to the pool
	Submit(work func()) error

	// Stop gracefully stops the worker pool
	Stop(ctx context.Context) error
}
