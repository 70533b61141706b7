package evaluator_test

import (
	"fmt"
	"testing"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/evaluator"
	"github.com/sandrolain/metapath/pkg/nodeitem"
	"github.com/sandrolain/metapath/pkg/parser"
)

// buildDataset returns a catalog of n groups, each holding one user
// assembly with a few typed fields.
func buildDataset(b *testing.B, n int) nodeitem.Node {
	b.Helper()
	departments := []string{"engineering", "sales", "marketing", "hr", "finance"}
	bld := nodeitem.NewBuilder("bench")
	must := func(ref nodeitem.Ref, err error) nodeitem.Ref {
		if err != nil {
			b.Fatal(err)
		}
		return ref
	}
	root := must(bld.RootAssembly("catalog"))
	for i := range n {
		g := must(bld.Assembly(root, "group"))
		must(bld.Flag(g, "id", datatype.String.MustItem(fmt.Sprintf("g%d", i+1))))
		u := must(bld.Assembly(g, "user"))
		must(bld.Flag(u, "active", datatype.Boolean.MustItem(i%2 == 0)))
		must(bld.Field(u, "name", datatype.String.MustItem(fmt.Sprintf("User%d", i+1))))
		must(bld.Field(u, "department", datatype.String.MustItem(departments[i%5])))
		must(bld.Field(u, "age", datatype.NewInteger(int64(20+i%40))))
		must(bld.Field(u, "salary", datatype.NewInteger(int64(70000+i*1000))))
	}
	return bld.Build().Node()
}

// sharedContext is safe for concurrent use.
var sharedContext = evaluator.MustNew(evaluator.WithLogger(quiet))

func benchEval(b *testing.B, text string, n int) {
	doc := buildDataset(b, n)
	expr, err := parser.Compile(text, parser.WithLogger(quiet))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := sharedContext.Evaluate(expr, doc); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCompileSimplePath(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := parser.Compile("catalog/group/@id", parser.WithLogger(quiet)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCompileComplex(b *testing.B) {
	text := `for $u in //user[@active and age gt 30] return concat($u/name, ' (', $u/department, ')')`
	for i := 0; i < b.N; i++ {
		if _, err := parser.Compile(text, parser.WithLogger(quiet)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEvalPath_100(b *testing.B) {
	benchEval(b, "catalog/group/user/name", 100)
}

func BenchmarkEvalFilter_100(b *testing.B) {
	benchEval(b, "catalog/group/user[age gt 30 and department = 'engineering']", 100)
}

func BenchmarkEvalFilter_1000(b *testing.B) {
	benchEval(b, "catalog/group/user[age gt 30 and department = 'engineering']", 1000)
}

func BenchmarkEvalDescendant_1000(b *testing.B) {
	benchEval(b, "//salary", 1000)
}

func BenchmarkEvalAggregation_1000(b *testing.B) {
	benchEval(b, "sum(//user[@active]/salary) div count(//user[@active])", 1000)
}

func BenchmarkEvalStringJoin_1000(b *testing.B) {
	benchEval(b, "string-join(//user/name, ', ')", 1000)
}

func BenchmarkEvalArithmetic(b *testing.B) {
	benchEval(b, "(1 + 2) * 3.5 - 4 idiv 3", 1)
}

func BenchmarkEvalConcurrent_1000(b *testing.B) {
	doc := buildDataset(b, 1000)
	expr, err := parser.Compile("count(//user[salary gt 500000])", parser.WithLogger(quiet))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := sharedContext.Evaluate(expr, doc); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
