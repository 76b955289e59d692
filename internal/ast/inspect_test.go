package ast

import (
	"fmt"
	"strings"
	"testing"
)

func TestInspectOrder(t *testing.T) {
	x := &Ident{Name: "x"}
	body := &Block{
		Stmts: []Stmt{
			&Let{Name: "r", Value: &Ref{Operand: x}},
			&ExprStmt{X: &If{
				Cond: &Ident{Name: "c"},
				Then: &Block{Tail: &Call{Callee: &Ident{Name: "f"}, Args: []Expr{&Ident{Name: "r"}}}},
			}},
		},
		Tail: &Match{Scrutinee: x, Arms: []MatchArm{{Body: &Literal{Value: "1"}}}},
	}
	fn := &Function{Name: "main", Body: body}

	var seen []string
	Inspect(fn, func(n Node) bool {
		switch n := n.(type) {
		case *Ident:
			seen = append(seen, n.Name)
		default:
			seen = append(seen, strings.TrimPrefix(fmt.Sprintf("%T", n), "*ast."))
		}
		return true
	})
	want := "Function Block Let Ref x ExprStmt If c Block Call f r Match x Literal"
	if got := strings.Join(seen, " "); got != want {
		t.Fatalf("visit order:\n%s\nwant:\n%s", got, want)
	}

	count := 0
	Inspect(fn, func(n Node) bool {
		count++
		_, isLet := n.(*Let)
		return !isLet
	})
	if count != 13 {
		t.Fatalf("pruned walk visited %d nodes, want 13", count)
	}
}
