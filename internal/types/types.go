// Package types holds the resolved type vocabulary the checker consumes.
// Types arrive as text in the input format and are parsed once per
// declaration; both engines pattern-match over the resulting tree.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindUnit
	KindNever
	KindBool
	KindChar
	KindString
	KindInt
	KindUint
	KindFloat
	KindReference
	KindPointer
	KindArray
	KindTuple
	KindOptional
	KindResult
	KindMap
	KindFn
	KindNamed
)

func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindUnit:
		return "unit"
	case KindNever:
		return "never"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindString:
		return "str"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindReference:
		return "reference"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindTuple:
		return "tuple"
	case KindOptional:
		return "optional"
	case KindResult:
		return "result"
	case KindMap:
		return "map"
	case KindFn:
		return "fn"
	case KindNamed:
		return "named"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers and floats.
type Width uint8

const (
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
	Width128 Width = 128
)

// ArrayDynamicLength marks dynamically sized arrays ([T]).
const ArrayDynamicLength = ^uint32(0)

// Type is one node of a resolved type.
//
// Field use by kind:
//
//	Reference: Elem, Region ("" when elided), Mutable
//	Pointer, Optional: Elem
//	Array: Elem, Count
//	Tuple: Args
//	Result: Args[0] ok, Args[1] err
//	Map: Args[0] key, Args[1] value
//	Fn: Args params, Elem result
//	Named: Name, Args generic arguments
//	Int, Uint, Float: Width
type Type struct {
	Kind    Kind
	Width   Width
	Mutable bool
	Count   uint32
	Region  string
	Name    string
	Elem    *Type
	Args    []*Type
}

var (
	Unknown = &Type{Kind: KindUnknown}
	Unit    = &Type{Kind: KindUnit}
	Never   = &Type{Kind: KindNever}
	Bool    = &Type{Kind: KindBool}
	Char    = &Type{Kind: KindChar}
	String  = &Type{Kind: KindString}
)

func MakeInt(width Width) *Type   { return &Type{Kind: KindInt, Width: width} }
func MakeUint(width Width) *Type  { return &Type{Kind: KindUint, Width: width} }
func MakeFloat(width Width) *Type { return &Type{Kind: KindFloat, Width: width} }

// MakeReference describes &'region T or &'region mut T. An empty region means
// the reference was written without one.
func MakeReference(elem *Type, region string, mutable bool) *Type {
	return &Type{Kind: KindReference, Elem: elem, Region: region, Mutable: mutable}
}

func MakePointer(elem *Type) *Type  { return &Type{Kind: KindPointer, Elem: elem} }
func MakeOptional(elem *Type) *Type { return &Type{Kind: KindOptional, Elem: elem} }

// MakeArray describes [T; count], or [T] for ArrayDynamicLength.
func MakeArray(elem *Type, count uint32) *Type {
	return &Type{Kind: KindArray, Elem: elem, Count: count}
}

func MakeTuple(elems ...*Type) *Type { return &Type{Kind: KindTuple, Args: elems} }

func MakeResult(ok, err *Type) *Type {
	return &Type{Kind: KindResult, Args: []*Type{ok, err}}
}

func MakeMap(key, value *Type) *Type {
	return &Type{Kind: KindMap, Args: []*Type{key, value}}
}

func MakeFn(params []*Type, result *Type) *Type {
	return &Type{Kind: KindFn, Args: params, Elem: result}
}

func MakeNamed(name string, args ...*Type) *Type {
	return &Type{Kind: KindNamed, Name: name, Args: args}
}

// IsReference reports whether t itself is a reference.
func (t *Type) IsReference() bool {
	return t != nil && t.Kind == KindReference
}

// HasReference reports whether a reference occurs inside t. Function types
// are opaque: a reference among their parameters or result is not a region of
// the value holding the function.
func (t *Type) HasReference() bool {
	if t == nil || t.Kind == KindFn {
		return false
	}
	if t.Kind == KindReference {
		return true
	}
	if t.Elem.HasReference() {
		return true
	}
	for _, a := range t.Args {
		if a.HasReference() {
			return true
		}
	}
	return false
}

// IsDynamicArray reports whether t is [T].
func (t *Type) IsDynamicArray() bool {
	return t != nil && t.Kind == KindArray && t.Count == ArrayDynamicLength
}

// Equal compares two types structurally.
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Width != b.Width || a.Mutable != b.Mutable ||
		a.Count != b.Count || a.Region != b.Region || a.Name != b.Name ||
		len(a.Args) != len(b.Args) || !Equal(a.Elem, b.Elem) {
		return false
	}
	for i := range a.Args {
		if !Equal(a.Args[i], b.Args[i]) {
			return false
		}
	}
	return true
}

func (t *Type) String() string {
	if t == nil {
		return "_"
	}
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t *Type) write(sb *strings.Builder) {
	switch t.Kind {
	case KindUnknown:
		sb.WriteString("_")
	case KindUnit:
		sb.WriteString("unit")
	case KindNever:
		sb.WriteString("never")
	case KindBool:
		sb.WriteString("bool")
	case KindChar:
		sb.WriteString("char")
	case KindString:
		sb.WriteString("str")
	case KindInt:
		sb.WriteString("i" + strconv.Itoa(int(t.Width)))
	case KindUint:
		sb.WriteString("u" + strconv.Itoa(int(t.Width)))
	case KindFloat:
		sb.WriteString("f" + strconv.Itoa(int(t.Width)))
	case KindReference:
		sb.WriteByte('&')
		if t.Region != "" {
			sb.WriteString("'" + t.Region + " ")
		}
		if t.Mutable {
			sb.WriteString("mut ")
		}
		t.Elem.write(sb)
	case KindPointer:
		sb.WriteByte('*')
		t.Elem.write(sb)
	case KindArray:
		sb.WriteByte('[')
		t.Elem.write(sb)
		if t.Count != ArrayDynamicLength {
			sb.WriteString("; " + strconv.FormatUint(uint64(t.Count), 10))
		}
		sb.WriteByte(']')
	case KindTuple:
		sb.WriteByte('(')
		writeList(sb, t.Args)
		if len(t.Args) == 1 {
			sb.WriteByte(',')
		}
		sb.WriteByte(')')
	case KindOptional:
		t.Elem.write(sb)
		sb.WriteByte('?')
	case KindResult:
		sb.WriteString("Result<")
		writeList(sb, t.Args)
		sb.WriteByte('>')
	case KindMap:
		sb.WriteString("Map<")
		writeList(sb, t.Args)
		sb.WriteByte('>')
	case KindFn:
		sb.WriteString("fn(")
		writeList(sb, t.Args)
		sb.WriteString(") -> ")
		if t.Elem == nil {
			sb.WriteString("unit")
		} else {
			t.Elem.write(sb)
		}
	case KindNamed:
		sb.WriteString(t.Name)
		if len(t.Args) > 0 {
			sb.WriteByte('<')
			writeList(sb, t.Args)
			sb.WriteByte('>')
		}
	default:
		sb.WriteString(t.Kind.String())
	}
}

func writeList(sb *strings.Builder, list []*Type) {
	for i, a := range list {
		if i > 0 {
			sb.WriteString(", ")
		}
		a.write(sb)
	}
}
