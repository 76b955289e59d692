package types

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParseError reports a malformed type expression.
type ParseError struct {
	Input  string
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid type %q at offset %d: %s", e.Input, e.Offset, e.Msg)
}

// Parse reads the textual type syntax of the input format:
//
//	i8..i128 u8..u128 f32 f64 bool char unit never str _
//	&T  &mut T  &'a T  &'a mut T  *T
//	[T]  [T; N]  (T, U)  ()  T?
//	Result<T, E>  Map<K, V>  Option<T>  fn(T, U) -> R  Name<Args>
func Parse(s string) (*Type, error) {
	p := &typeParser{src: s}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return t, nil
}

// MustParse is Parse for literals in tests and tables.
func MustParse(s string) *Type {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) errorf(format string, args ...any) error {
	return &ParseError{Input: p.src, Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += size
	}
}

func (p *typeParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) accept(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *typeParser) expect(tok string) error {
	if !p.accept(tok) {
		return p.errorf("expected %q", tok)
	}
	return nil
}

// ident reads a (possibly path-qualified) identifier.
func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		switch {
		case r == '_' || unicode.IsLetter(r) || (p.pos > start && unicode.IsDigit(r)):
			p.pos += size
		case r == ':' && p.pos > start && strings.HasPrefix(p.src[p.pos:], "::"):
			p.pos += 2
		default:
			return p.src[start:p.pos]
		}
	}
	return p.src[start:p.pos]
}

// keyword consumes word only when it is not the prefix of a longer identifier.
func (p *typeParser) keyword(word string) bool {
	save := p.pos
	if p.ident() == word {
		return true
	}
	p.pos = save
	return false
}

func (p *typeParser) parseType() (*Type, error) {
	t, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for p.accept("?") {
		t = MakeOptional(t)
	}
	return t, nil
}

func (p *typeParser) parsePrefix() (*Type, error) {
	switch p.peek() {
	case 0:
		return nil, p.errorf("unexpected end of type")
	case '&':
		p.pos++
		region := ""
		if p.accept("'") {
			region = p.ident()
			if region == "" {
				return nil, p.errorf("expected region name after '")
			}
		}
		mutable := p.keyword("mut")
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return MakeReference(elem, region, mutable), nil
	case '*':
		p.pos++
		p.keyword("const")
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return MakePointer(elem), nil
	case '[':
		p.pos++
		return p.parseArray()
	case '(':
		p.pos++
		return p.parseParen()
	}

	name := p.ident()
	if name == "" {
		return nil, p.errorf("unexpected %q", p.src[p.pos:p.pos+1])
	}
	if name == "fn" && p.peek() == '(' {
		return p.parseFn()
	}
	var args []*Type
	if p.accept("<") {
		list, err := p.parseList(">")
		if err != nil {
			return nil, err
		}
		args = list
	}
	return p.resolveName(name, args)
}

func (p *typeParser) parseArray() (*Type, error) {
	elem, err := p.parseType()
	if err != nil {
		return nil, err
	}
	count := ArrayDynamicLength
	if p.accept(";") {
		p.skipSpace()
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		n, convErr := strconv.ParseUint(p.src[start:p.pos], 10, 32)
		if convErr != nil || n == uint64(ArrayDynamicLength) {
			return nil, p.errorf("invalid array length")
		}
		count = uint32(n)
	}
	if err := p.expect("]"); err != nil {
		return nil, err
	}
	return MakeArray(elem, count), nil
}

// parseParen handles (), (T) grouping, (T,) and (T, U, ...).
func (p *typeParser) parseParen() (*Type, error) {
	if p.accept(")") {
		return Unit, nil
	}
	var elems []*Type
	trailingComma := false
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		elems = append(elems, t)
		trailingComma = false
		if p.accept(",") {
			trailingComma = true
			if p.accept(")") {
				break
			}
			continue
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		break
	}
	if len(elems) == 1 && !trailingComma {
		return elems[0], nil
	}
	return MakeTuple(elems...), nil
}

func (p *typeParser) parseFn() (*Type, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	params, err := p.parseList(")")
	if err != nil {
		return nil, err
	}
	result := Unit
	if p.accept("->") {
		if result, err = p.parseType(); err != nil {
			return nil, err
		}
	}
	return MakeFn(params, result), nil
}

// parseList reads comma-separated types up to and including the closer.
func (p *typeParser) parseList(closer string) ([]*Type, error) {
	var list []*Type
	if p.accept(closer) {
		return list, nil
	}
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		list = append(list, t)
		if p.accept(",") {
			if p.accept(closer) {
				return list, nil
			}
			continue
		}
		return list, p.expect(closer)
	}
}

func (p *typeParser) resolveName(name string, args []*Type) (*Type, error) {
	arity := func(n int) error {
		if len(args) != n {
			return p.errorf("%s expects %d type arguments, got %d", name, n, len(args))
		}
		return nil
	}
	if len(args) == 0 {
		if t, ok := primitive(name); ok {
			return t, nil
		}
	}
	switch name {
	case "Result":
		if err := arity(2); err != nil {
			return nil, err
		}
		return MakeResult(args[0], args[1]), nil
	case "Map":
		if err := arity(2); err != nil {
			return nil, err
		}
		return MakeMap(args[0], args[1]), nil
	case "Option":
		if err := arity(1); err != nil {
			return nil, err
		}
		return MakeOptional(args[0]), nil
	}
	return MakeNamed(name, args...), nil
}

func primitive(name string) (*Type, bool) {
	switch name {
	case "_":
		return Unknown, true
	case "unit":
		return Unit, true
	case "never":
		return Never, true
	case "bool":
		return Bool, true
	case "char":
		return Char, true
	case "str", "String":
		return String, true
	case "int":
		return MakeInt(Width64), true
	case "uint":
		return MakeUint(Width64), true
	case "float":
		return MakeFloat(Width64), true
	}
	if len(name) < 2 {
		return nil, false
	}
	var kind Kind
	switch name[0] {
	case 'i':
		kind = KindInt
	case 'u':
		kind = KindUint
	case 'f':
		kind = KindFloat
	default:
		return nil, false
	}
	bits, err := strconv.Atoi(name[1:])
	if err != nil || bits <= 0 || bits > int(Width128) {
		return nil, false
	}
	switch w := Width(bits); {
	case kind == KindFloat && (w == Width32 || w == Width64):
		return &Type{Kind: kind, Width: w}, true
	case kind != KindFloat && (w == Width8 || w == Width16 || w == Width32 || w == Width64 || w == Width128):
		return &Type{Kind: kind, Width: w}, true
	}
	return nil, false
}
