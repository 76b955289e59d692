package scope

import "testing"

func TestPushPopParents(t *testing.T) {
	tree := NewTree()
	if tree.Current() != NoScope || tree.Pop() != NoScope {
		t.Fatalf("empty tree should report NoScope")
	}
	fn := tree.Push(KindFunction)
	blk := tree.Push(KindBlock)
	if tree.Parent(blk) != fn || tree.Parent(fn) != NoScope {
		t.Fatalf("unexpected parents")
	}
	if tree.Depth() != 2 || tree.DepthOf(blk) != 2 {
		t.Fatalf("depth = %d/%d, want 2", tree.Depth(), tree.DepthOf(blk))
	}
	if !tree.Encloses(fn, blk) || tree.Encloses(blk, fn) {
		t.Fatalf("Encloses mismatch")
	}
	if got := tree.Pop(); got != blk {
		t.Fatalf("Pop = %d, want %d", got, blk)
	}
	if tree.Open(blk) || !tree.Open(fn) {
		t.Fatalf("Open mismatch after pop")
	}
	loop := tree.Push(KindLoop)
	if loop == blk {
		t.Fatalf("scope IDs must not be reused")
	}
	if tree.Kind(loop) != KindLoop {
		t.Fatalf("Kind = %s", tree.Kind(loop))
	}
}

func TestReset(t *testing.T) {
	tree := NewTree()
	tree.Push(KindFunction)
	tree.Reset()
	if tree.Depth() != 0 {
		t.Fatalf("depth after reset = %d", tree.Depth())
	}
	if id := tree.Push(KindFunction); id != 1 {
		t.Fatalf("first ID after reset = %d, want 1", id)
	}
}
