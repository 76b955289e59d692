package unit

import (
	"errors"
	"strings"
	"testing"

	"borrowck/internal/ast"
	"borrowck/internal/diag"
	"borrowck/internal/source"
	"borrowck/internal/testkit"
	"borrowck/internal/types"
)

const sample = `{
  "format": "1.2.0",
  "path": "src/main.vs",
  "source": "fn main() {}\n",
  "functions": [
    {
      "name": "main",
      "span": [0, 12],
      "body": [
        {"kind": "let", "name": "s", "span": [1, 2], "value": {"kind": "literal", "lit": "string", "text": "text", "span": [3, 4]}},
        {"kind": "call", "span": [5, 6], "callee": {"kind": "ident", "name": "f"}, "args": [{"kind": "ident", "name": "s", "span": [5, 6]}]},
        {"kind": "expr", "value": {"kind": "if", "cond": {"kind": "ident", "name": "c"},
          "then": {"kind": "block", "stmts": [{"kind": "break"}]},
          "else": {"kind": "if", "cond": {"kind": "literal", "lit": "bool", "text": "true"}, "then": {"kind": "ident", "name": "s"}}}}
      ]
    },
    {
      "name": "get",
      "receiver": "Counter",
      "params": [{"name": "self", "type": "&Counter"}],
      "ret": "&'a i64",
      "region_params": ["a"],
      "tail": {"kind": "field", "operand": {"kind": "ident", "name": "self"}, "field": "n", "ty": "i64"}
    }
  ],
  "impls": [
    {"target": "Counter", "methods": [{"name": "reset", "params": [{"name": "self", "type": "&mut Counter"}]}]}
  ]
}`

func TestParseJSONAndBuild(t *testing.T) {
	doc, err := Parse("main.bck.json", []byte(sample), EncodingJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Path() != "src/main.vs" || string(doc.Source()) != "fn main() {}\n" || doc.Version().Minor() != 2 {
		t.Fatalf("document header: path=%q version=%v", doc.Path(), doc.Version())
	}
	u, err := doc.Unit("src/main.vs", source.FileID(3))
	if err != nil {
		t.Fatalf("Unit: %v", err)
	}
	if err := testkit.CheckSpanInvariants(u, &source.File{ID: 3, Content: doc.Source()}); err != nil {
		t.Fatalf("span invariants: %v", err)
	}
	if len(u.Functions) != 1 || len(u.Impls) != 1 || len(u.Impls[0].Methods) != 2 {
		t.Fatalf("unit shape: %d functions, impls %+v", len(u.Functions), u.Impls)
	}
	main := u.Functions[0]
	if len(main.Body.Stmts) != 3 {
		t.Fatalf("main has %d statements", len(main.Body.Stmts))
	}
	let, ok := main.Body.Stmts[0].(*ast.Let)
	if !ok || let.Name != "s" || let.Sp != (source.Span{File: 3, Start: 1, End: 2}) {
		t.Fatalf("first statement = %#v", main.Body.Stmts[0])
	}
	if _, ok := main.Body.Stmts[1].(*ast.ExprStmt).X.(*ast.Call); !ok {
		t.Fatalf("bare call should become an expression statement")
	}
	ifx := main.Body.Stmts[2].(*ast.ExprStmt).X.(*ast.If)
	elif, ok := ifx.Else.(*ast.If)
	if !ok || elif.Then.Tail == nil {
		t.Fatalf("else-if chain not preserved: %#v", ifx.Else)
	}

	get := u.Impls[0].Methods[0]
	if get.QualifiedName() != "Counter.get" || !types.Equal(get.Ret, types.MustParse("&'a i64")) {
		t.Fatalf("method = %s -> %v", get.QualifiedName(), get.Ret)
	}
	if f, ok := get.Body.Tail.(*ast.Field); !ok || f.Type.Kind != types.KindInt {
		t.Fatalf("tail = %#v", get.Body.Tail)
	}
	if reset := u.Impls[0].Methods[1]; reset.Ret != nil || !reset.Params[0].Type.Mutable {
		t.Fatalf("reset = %+v", reset)
	}
}

func TestMsgpackMatchesJSON(t *testing.T) {
	doc, err := Parse("main.bck.json", []byte(sample), EncodingJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	data, err := doc.Encode(EncodingMsgpack)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Parse("main.bck.mp", data, EncodingMsgpack)
	if err != nil {
		t.Fatalf("Parse msgpack: %v", err)
	}
	a, _ := doc.Unit("x", 0)
	b, err := back.Unit("x", 0)
	if err != nil {
		t.Fatalf("Unit: %v", err)
	}
	if len(a.AllFunctions()) != len(b.AllFunctions()) {
		t.Fatalf("function count differs")
	}
	for i, fa := range a.AllFunctions() {
		fb := b.AllFunctions()[i]
		if fa.QualifiedName() != fb.QualifiedName() || len(fa.Body.Stmts) != len(fb.Body.Stmts) {
			t.Fatalf("function %d differs: %s vs %s", i, fa.QualifiedName(), fb.QualifiedName())
		}
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		enc  Encoding
		code diag.Code
	}{
		{"bad json", `{"format":`, EncodingJSON, diag.IODecodeError},
		{"unknown field", `{"format":"1.0.0","extra":1}`, EncodingJSON, diag.IODecodeError},
		{"missing format", `{"functions":[]}`, EncodingJSON, diag.IOFormatVersion},
		{"not semver", `{"format":"one"}`, EncodingJSON, diag.IOFormatVersion},
		{"future major", `{"format":"2.0.0"}`, EncodingJSON, diag.IOFormatVersion},
		{"unsupported", `{}`, EncodingUnknown, diag.IOUnsupportedFile},
	}
	for _, tt := range tests {
		_, err := Parse("in", []byte(tt.doc), tt.enc)
		if err == nil || CodeOf(err) != tt.code {
			t.Fatalf("%s: want %s, got %v", tt.name, tt.code.ID(), err)
		}
	}
}

func TestBuildRejectsMalformed(t *testing.T) {
	tests := []struct {
		name, fn, want string
	}{
		{"unknown kind", `{"name":"f","body":[{"kind":"goto"}]}`, `unknown node kind "goto"`},
		{"bad type", `{"name":"f","params":[{"name":"x","type":"&"}]}`, "function 'f'"},
		{"reversed span", `{"name":"f","span":[5,1]}`, "ends before it starts"},
		{"missing operand", `{"name":"f","tail":{"kind":"ref"}}`, `ref node without "operand"`},
		{"bad literal", `{"name":"f","tail":{"kind":"literal","lit":"regex"}}`, "unknown literal kind"},
	}
	for _, tt := range tests {
		doc, err := Parse("in", []byte(`{"format":"1.0.0","functions":[`+tt.fn+`]}`), EncodingJSON)
		if err != nil {
			t.Fatalf("%s: Parse: %v", tt.name, err)
		}
		_, err = doc.Unit("in", 0)
		var ue *Error
		if !errors.As(err, &ue) || ue.Code != diag.IOMalformedUnit || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%s: got %v, want malformed error containing %q", tt.name, err, tt.want)
		}
	}
}

func TestIdentifiersAreNormalized(t *testing.T) {
	// "e" followed by a combining acute accent, then the precomposed form.
	decomposed, composed := "cafe\u0301", "caf\u00e9"
	doc, err := Parse("in", []byte(`{"format":"1.0.0","functions":[{"name":"f","body":[
		{"kind":"let","name":"`+decomposed+`","value":{"kind":"literal","lit":"int","text":"1"}},
		{"kind":"ident","name":"`+composed+`"}]}]}`), EncodingJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	u, err := doc.Unit("in", 0)
	if err != nil {
		t.Fatalf("Unit: %v", err)
	}
	let := u.Functions[0].Body.Stmts[0].(*ast.Let)
	use := u.Functions[0].Body.Stmts[1].(*ast.ExprStmt).X.(*ast.Ident)
	if let.Name != use.Name {
		t.Fatalf("names differ after normalization: %q vs %q", let.Name, use.Name)
	}
}

func TestEncodingOf(t *testing.T) {
	if EncodingOf("a/b.bck.json") != EncodingJSON || EncodingOf("b.bck.mp") != EncodingMsgpack || EncodingOf("b.json") != EncodingUnknown {
		t.Fatalf("EncodingOf misclassified")
	}
}
