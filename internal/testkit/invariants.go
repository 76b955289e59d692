// Package testkit holds structural checks shared by tests of the decoding
// and checking layers.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"borrowck/internal/ast"
	"borrowck/internal/source"
)

// CheckSpanInvariants verifies the spans of a decoded unit against its file:
//  1. every node span points at sf
//  2. every node span is ordered and lies within the file content
//  3. every statement of a function with a non-empty span lies inside it
func CheckSpanInvariants(u *ast.Unit, sf *source.File) error {
	if u == nil || sf == nil {
		return fmt.Errorf("nil unit or file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	for _, fn := range u.AllFunctions() {
		var walkErr error
		ast.Inspect(fn, func(n ast.Node) bool {
			if walkErr != nil {
				return false
			}
			sp := n.Span()
			switch {
			case sp.File != sf.ID:
				walkErr = fmt.Errorf("%s: %T span points to file %d, want %d", fn.QualifiedName(), n, sp.File, sf.ID)
			case sp.End < sp.Start:
				walkErr = fmt.Errorf("%s: %T span %v ends before it starts", fn.QualifiedName(), n, sp)
			case sp.End > lenContent:
				walkErr = fmt.Errorf("%s: %T span %v beyond content (%d bytes)", fn.QualifiedName(), n, sp, lenContent)
			}
			return walkErr == nil
		})
		if walkErr != nil {
			return walkErr
		}
		if fn.Sp.Empty() || fn.Body == nil {
			continue
		}
		for _, s := range fn.Body.Stmts {
			if sp := s.Span(); !sp.Empty() && !fn.Sp.Contains(sp) {
				return fmt.Errorf("%s: statement span %v outside function span %v", fn.QualifiedName(), sp, fn.Sp)
			}
		}
	}
	return nil
}
