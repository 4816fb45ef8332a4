package filter

import (
	"context"
	"testing"
)

// Benchmark filter compilation
func BenchmarkCompileFilter(b *testing.B) {
	expressions := []struct {
		name string
		expr string
	}{
		{"simple", `Region == "R1"`},
		{"complex", `Region in ["R1", "R2"] and num("Units Sold") > 3 and contains(cell("Store Name"), "1")`},
	}

	for _, tc := range expressions {
		b.Run(tc.name, func(b *testing.B) {
			compiler := NewExprCompiler()
			for b.Loop() {
				if _, err := compiler.Compile(tc.expr); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// Benchmark sequential against pooled evaluation of a large result set
func BenchmarkEvaluate(b *testing.B) {
	rows := generateRows(100000)
	filter, err := compileFilter(`Region == "R1" and Revenue > 5000`)
	if err != nil {
		b.Fatal(err)
	}

	b.Run("sequential", func(b *testing.B) {
		for b.Loop() {
			evaluateSequential(filter, rows)
		}
	})

	b.Run("concurrent", func(b *testing.B) {
		evaluator := NewConcurrentEvaluator()
		defer evaluator.Stop(context.Background())

		for b.Loop() {
			if _, err := evaluator.Evaluate(context.Background(), filter, rows); err != nil {
				b.Fatal(err)
			}
		}
	})
}
