package testkit

import (
	"strings"
	"testing"

	"borrowck/internal/ast"
	"borrowck/internal/source"
)

func unitWith(fnSpan, stmtSpan source.Span) *ast.Unit {
	let := &ast.Let{Loc: ast.Loc{Sp: stmtSpan}, Name: "x", Value: &ast.Ident{Loc: ast.Loc{Sp: stmtSpan}, Name: "y"}}
	fn := &ast.Function{Name: "f", Sp: fnSpan, Body: &ast.Block{Loc: ast.Loc{Sp: fnSpan}, Stmts: []ast.Stmt{let}}}
	return &ast.Unit{Functions: []*ast.Function{fn}}
}

func TestCheckSpanInvariants(t *testing.T) {
	sf := &source.File{ID: 1, Content: []byte("fn f() { let x = y; }")}
	sp := func(start, end uint32) source.Span { return source.Span{File: 1, Start: start, End: end} }

	if err := CheckSpanInvariants(unitWith(sp(0, 21), sp(9, 19)), sf); err != nil {
		t.Fatalf("valid unit rejected: %v", err)
	}
	cases := map[string]*ast.Unit{
		"points to file":   unitWith(sp(0, 21), source.Span{File: 2, Start: 9, End: 19}),
		"beyond content":   unitWith(sp(0, 40), sp(9, 19)),
		"outside function": unitWith(sp(0, 8), sp(9, 19)),
		"ends before":      unitWith(sp(0, 21), sp(19, 9)),
	}
	for want, u := range cases {
		err := CheckSpanInvariants(u, sf)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q error, got %v", want, err)
		}
	}
}
