package lifetime

import (
	"errors"
	"testing"

	"borrowck/internal/ast"
	"borrowck/internal/types"
)

func param(name, ty string) ast.Param {
	return ast.Param{Name: name, Type: types.MustParse(ty)}
}

func TestFreshRegionMonotonic(t *testing.T) {
	inf := NewInferencer()
	a, b := inf.FreshRegion(), inf.FreshRegion()
	if a.Kind != RegionInferred || b.Kind != RegionInferred || b.Var <= a.Var {
		t.Fatalf("fresh regions not increasing: %v %v", a, b)
	}
	if a.String() != "'_0" || b.String() != "'_1" {
		t.Fatalf("unexpected names %s %s", a, b)
	}
	inf.Reset()
	if c := inf.FreshRegion(); c.Var != 0 {
		t.Fatalf("reset should restart counter, got %v", c)
	}
}

func TestResolveRegionName(t *testing.T) {
	inf := NewInferencer()
	if !inf.ResolveRegionName("static").IsStatic() {
		t.Fatalf("static must resolve to Static")
	}
	inf.RegisterNamedRegion("a")
	if r := inf.ResolveRegionName("a"); r != Named("a") {
		t.Fatalf("got %v", r)
	}
	if r := inf.ResolveRegionName("zz"); r.Kind != RegionNamed || inf.IsDeclared("zz") {
		t.Fatalf("unregistered name should resolve tentatively, got %v", r)
	}
}

func TestElisionRules(t *testing.T) {
	tests := []struct {
		name      string
		params    []ast.Param
		ret       string
		ok        bool
		hasOutput bool
		fromParam string // param whose region must equal the output
		static    bool
	}{
		{"single input", []ast.Param{param("x", "&i64")}, "&i64", true, true, "x", false},
		{"single input among values", []ast.Param{param("n", "i32"), param("s", "&str")}, "&str", true, true, "s", false},
		{"two inputs", []ast.Param{param("x", "&i64"), param("y", "&i64")}, "&i64", false, false, "", false},
		{"self wins", []ast.Param{param("self", "&Point"), param("y", "&i64")}, "&i64", true, true, "self", false},
		{"no inputs", []ast.Param{param("n", "i32")}, "&str", true, true, "", true},
		{"no reference returned", []ast.Param{param("x", "&i64"), param("y", "&i64")}, "i64", true, false, "", false},
		{"self by value does not apply", []ast.Param{param("self", "Point"), param("x", "&i64"), param("y", "&i64")}, "&i64", false, false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inf := NewInferencer()
			res := inf.ApplyElisionRules(tt.params, types.MustParse(tt.ret))
			if res.OK != tt.ok || res.HasOutput != tt.hasOutput {
				t.Fatalf("OK=%v HasOutput=%v, want %v %v", res.OK, res.HasOutput, tt.ok, tt.hasOutput)
			}
			if tt.static && !res.Output.IsStatic() {
				t.Fatalf("output = %v, want 'static", res.Output)
			}
			if tt.fromParam != "" {
				for _, in := range res.Inputs {
					if in.Param == tt.fromParam && in.Region != res.Output {
						t.Fatalf("output %v != region of %s (%v)", res.Output, in.Param, in.Region)
					}
				}
			}
			seen := map[Region]bool{}
			for _, in := range res.Inputs {
				if seen[in.Region] {
					t.Fatalf("input regions must be distinct: %v", res.Inputs)
				}
				seen[in.Region] = true
			}
		})
	}
}

func TestOutlivesTransitivity(t *testing.T) {
	inf := NewInferencer()
	a, b, c := Named("a"), Named("b"), Named("c")
	inf.AddOutlives(a, b, Reason{Kind: ReasonBound})
	inf.AddOutlives(b, c, Reason{Kind: ReasonBound})
	if err := inf.Solve(); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !inf.Outlives(a, c) {
		t.Fatalf("'a: 'c should be derivable")
	}
	if inf.Outlives(c, a) {
		t.Fatalf("'c: 'a must not be derived")
	}
}

func TestSolveIterationBoundIsInternal(t *testing.T) {
	inf := NewInferencer()
	inf.maxIterations = 1
	chain := []Region{Named("a"), Named("b"), Named("c"), Named("d"), Named("e")}
	for i := 0; i+1 < len(chain); i++ {
		inf.AddOutlives(chain[i], chain[i+1], Reason{Kind: ReasonBound})
	}
	err := inf.Solve()
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("want ErrInternal, got %v", err)
	}
	var re *Error
	if errors.As(err, &re) {
		t.Fatalf("internal error must not be a region diagnostic")
	}
}

func TestOutlivesStaticContradiction(t *testing.T) {
	inf := NewInferencer()
	inf.AddOutlives(Named("a"), Static, Reason{Kind: ReasonBound})
	err := inf.Solve()
	var re *Error
	if !errors.As(err, &re) || re.Kind != ErrOutlivesStatic || re.Region != Named("a") {
		t.Fatalf("want outlives-static on 'a, got %v", err)
	}

	inf.Reset()
	inf.AddOutlives(Static, Named("a"), Reason{Kind: ReasonBound})
	if err := inf.Solve(); err != nil {
		t.Fatalf("'static: 'a is fine, got %v", err)
	}
}

func TestEqualAliasesInferred(t *testing.T) {
	inf := NewInferencer()
	v := inf.FreshRegion()
	w := inf.FreshRegion()
	inf.AddEqual(v, Named("a"), Reason{Kind: ReasonElision})
	inf.AddEqual(w, v, Reason{Kind: ReasonAssignment})
	if err := inf.Solve(); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if r, ok := inf.Assignment(v.Var); !ok || r != Named("a") {
		t.Fatalf("assignment of %v = %v", v, r)
	}
	if got := inf.resolve(w); got != Named("a") {
		t.Fatalf("resolve(%v) = %v, want 'a", w, got)
	}
}

func TestCheckReferenceValidity(t *testing.T) {
	inf := NewInferencer()
	v := inf.FreshRegion()
	bound := inf.FreshRegion()
	inf.AddEqual(bound, Named("a"), Reason{Kind: ReasonElision})
	if err := inf.Solve(); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	tests := []struct {
		name          string
		ref, referent Region
		wantErr       bool
	}{
		{"static to static", Static, Static, false},
		{"named to static", Named("a"), Static, false},
		{"static to named", Static, Named("a"), true},
		{"static to inferred", Static, v, true},
		{"unrelated named pair", Named("a"), Named("b"), false},
		{"named to unresolved inferred", Named("a"), v, false},
		{"static to resolved inferred", Static, bound, true},
		{"resolved inferred to named", bound, Named("a"), false},
	}
	for _, tt := range tests {
		err := inf.CheckReferenceValidity(tt.ref, tt.referent)
		if (err != nil) != tt.wantErr {
			t.Fatalf("%s: err = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		var re *Error
		if err != nil && (!errors.As(err, &re) || re.Kind != ErrTooShort) {
			t.Fatalf("%s: want ErrTooShort, got %v", tt.name, err)
		}
	}
}

func TestInferScenarioExplicitRegion(t *testing.T) {
	inf := NewInferencer()
	res, err := inf.InferFunctionRegions(Signature{
		Name:   "first",
		Params: []ast.Param{param("x", "&'a i64")},
		Ret:    types.MustParse("&'a i64"),
	})
	if err != nil {
		t.Fatalf("InferFunctionRegions: %v", err)
	}
	if !res.HasOutput || res.Output != Named("a") {
		t.Fatalf("output = %v, want 'a", res.Output)
	}
	if len(res.RegionParams) != 1 || res.RegionParams[0] != "a" {
		t.Fatalf("region params = %v", res.RegionParams)
	}
	if !res.Covered {
		t.Fatalf("output should be covered by x")
	}
}

func TestInferScenarioAmbiguous(t *testing.T) {
	inf := NewInferencer()
	_, err := inf.InferFunctionRegions(Signature{
		Name:   "both",
		Params: []ast.Param{param("x", "&i64"), param("y", "&i64")},
		Ret:    types.MustParse("&i64"),
	})
	var re *Error
	if !errors.As(err, &re) || re.Kind != ErrElisionAmbiguous || re.InputCount != 2 || re.Function != "both" {
		t.Fatalf("want elision ambiguity, got %v", err)
	}
}

func TestInferFunctionTypeReturnNeedsNoRegion(t *testing.T) {
	inf := NewInferencer()
	res, err := inf.InferFunctionRegions(Signature{
		Name:   "pick",
		Params: []ast.Param{param("x", "&i64"), param("y", "&i64")},
		Ret:    types.MustParse("fn(&i64) -> i64"),
	})
	if err != nil {
		t.Fatalf("InferFunctionRegions: %v", err)
	}
	if res.HasOutput || len(res.Inputs) != 2 {
		t.Fatalf("resolution = %+v", res)
	}
}

func TestInferExplicitReturnNeedsNoElision(t *testing.T) {
	inf := NewInferencer()
	res, err := inf.InferFunctionRegions(Signature{
		Name:         "longest",
		RegionParams: []string{"a"},
		Params:       []ast.Param{param("x", "&'a str"), param("y", "&'a str")},
		Ret:          types.MustParse("&'a str"),
	})
	if err != nil {
		t.Fatalf("InferFunctionRegions: %v", err)
	}
	if res.Output != Named("a") {
		t.Fatalf("output = %v", res.Output)
	}
}

func TestInferStructuralAndBounds(t *testing.T) {
	inf := NewInferencer()
	_, err := inf.InferFunctionRegions(Signature{
		Name:         "nested",
		RegionParams: []string{"a", "b", "c"},
		RegionBounds: []ast.RegionBound{{Region: "b", Outlives: []string{"c"}}},
		Params:       []ast.Param{param("x", "&'a Box<&'b T>")},
		Ret:          types.MustParse("unit"),
	})
	if err != nil {
		t.Fatalf("InferFunctionRegions: %v", err)
	}
	if !inf.Outlives(Named("a"), Named("b")) || !inf.Outlives(Named("a"), Named("c")) {
		t.Fatalf("expected 'a: 'b and 'a: 'c, constraints %v", inf.Constraints())
	}
}

func TestInferUndeclaredRegion(t *testing.T) {
	inf := NewInferencer()
	_, err := inf.InferFunctionRegions(Signature{
		Name:   "leak",
		Params: []ast.Param{param("x", "&i64")},
		Ret:    types.MustParse("&'q i64"),
	})
	var re *Error
	if !errors.As(err, &re) || re.Kind != ErrUndeclared || re.Region != Named("q") {
		t.Fatalf("want undeclared 'q, got %v", err)
	}
}

func TestInferElidedOutputAliasesExplicit(t *testing.T) {
	inf := NewInferencer()
	res, err := inf.InferFunctionRegions(Signature{
		Name:         "view",
		RegionParams: []string{"a"},
		Params:       []ast.Param{param("x", "&str")},
		Ret:          types.MustParse("&'a str"),
	})
	if err != nil {
		t.Fatalf("InferFunctionRegions: %v", err)
	}
	in := res.Inputs[0].Region
	if in.Kind != RegionInferred || res.Resolved[in.Var] != Named("a") {
		t.Fatalf("expected %v to resolve to 'a, got %v", in, res.Resolved)
	}
}

func TestVarRegionScopes(t *testing.T) {
	inf := NewInferencer()
	inf.RegisterVarRegion("x", Named("a"))
	inf.PushScope(0)
	shadow := inf.FreshRegion()
	inf.RegisterVarRegion("x", shadow)
	if r, _ := inf.VarRegion("x"); r != shadow {
		t.Fatalf("inner binding should shadow, got %v", r)
	}
	inf.PopScope()
	if r, ok := inf.VarRegion("x"); !ok || r != Named("a") {
		t.Fatalf("outer binding lost: %v", r)
	}
	inf.PopScope()
	if inf.ScopeDepth() != 1 {
		t.Fatalf("function scope must survive extra pops")
	}
}
