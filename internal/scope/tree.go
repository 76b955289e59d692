// Package scope keeps the lexical scope tree shared by the lifetime and
// ownership engines. A Tree belongs to one function session.
package scope

import (
	"fmt"

	"fortio.org/safecast"
)

// ID identifies a scope within one Tree. NoScope is never allocated.
type ID uint32

const NoScope ID = 0

// Kind records what opened a scope; used for trace output and dangling checks.
type Kind uint8

const (
	KindFunction Kind = iota
	KindBlock
	KindLoop
	KindArm
	KindLambda
	KindBranch
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindBlock:
		return "block"
	case KindLoop:
		return "loop"
	case KindArm:
		return "arm"
	case KindLambda:
		return "lambda"
	case KindBranch:
		return "branch"
	default:
		return "scope"
	}
}

type node struct {
	parent ID
	kind   Kind
	depth  int
}

// Tree allocates scope IDs and tracks the active path from the root.
type Tree struct {
	nodes []node // index 0 is the NoScope sentinel
	stack []ID
}

func NewTree() *Tree {
	t := &Tree{}
	t.Reset()
	return t
}

// Reset drops every scope.
func (t *Tree) Reset() {
	t.nodes = append(t.nodes[:0], node{})
	t.stack = t.stack[:0]
}

// Push opens a child of the current scope and makes it current.
func (t *Tree) Push(kind Kind) ID {
	value, err := safecast.Conv[uint32](len(t.nodes))
	if err != nil {
		panic(fmt.Errorf("scope tree overflow: %w", err))
	}
	id := ID(value)
	t.nodes = append(t.nodes, node{parent: t.Current(), kind: kind, depth: len(t.stack) + 1})
	t.stack = append(t.stack, id)
	return id
}

// Pop closes the current scope and returns it. It returns NoScope when the
// stack is empty.
func (t *Tree) Pop() ID {
	if len(t.stack) == 0 {
		return NoScope
	}
	id := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return id
}

// Current is the innermost open scope, or NoScope.
func (t *Tree) Current() ID {
	if len(t.stack) == 0 {
		return NoScope
	}
	return t.stack[len(t.stack)-1]
}

// Depth is the number of open scopes.
func (t *Tree) Depth() int { return len(t.stack) }

func (t *Tree) Parent(id ID) ID {
	if !t.valid(id) {
		return NoScope
	}
	return t.nodes[id].parent
}

func (t *Tree) Kind(id ID) Kind {
	if !t.valid(id) {
		return KindBlock
	}
	return t.nodes[id].kind
}

// DepthOf is the nesting depth of id; the function scope has depth 1.
func (t *Tree) DepthOf(id ID) int {
	if !t.valid(id) {
		return 0
	}
	return t.nodes[id].depth
}

// Encloses reports whether outer is id or one of its ancestors.
func (t *Tree) Encloses(outer, id ID) bool {
	for id != NoScope && t.valid(id) {
		if id == outer {
			return true
		}
		id = t.nodes[id].parent
	}
	return false
}

// Open reports whether id is on the active stack.
func (t *Tree) Open(id ID) bool {
	for _, s := range t.stack {
		if s == id {
			return true
		}
	}
	return false
}

func (t *Tree) valid(id ID) bool {
	return id != NoScope && int(id) < len(t.nodes)
}
