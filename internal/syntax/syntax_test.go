package syntax

import "testing"

func TestPosition(t *testing.T) {
	f := NewFile("a.rb", []byte("ab\nçd\n\nx"), nil)

	tests := []struct {
		offset int
		want   Position
	}{
		{0, Position{1, 1}},
		{2, Position{1, 3}},
		{3, Position{2, 1}},
		{5, Position{2, 2}}, // ç is two bytes
		{6, Position{2, 3}},
		{7, Position{3, 1}},
		{8, Position{4, 1}},
		{9, Position{4, 2}},
		{100, Position{4, 2}},
	}
	for _, tt := range tests {
		if got := f.Position(tt.offset); got != tt.want {
			t.Errorf("Position(%d) = %+v, want %+v", tt.offset, got, tt.want)
		}
	}
}

func TestLine(t *testing.T) {
	f := NewFile("a.rb", []byte("first\r\nsecond\nthird"), nil)
	for line, want := range map[int]string{1: "first", 2: "second", 3: "third", 4: "", 0: ""} {
		if got := f.Line(line); got != want {
			t.Errorf("Line(%d) = %q, want %q", line, got, want)
		}
	}
}

func TestExtentSkipsBlock(t *testing.T) {
	call := &Node{Kind: KindCall, Span: Span{0, 30}}
	call.Add(RoleReceiver, &Node{Kind: KindConstant, Span: Span{0, 4}, Value: "User"})
	call.Add(RoleMethod, &Node{Kind: KindIdentifier, Span: Span{5, 8}, Value: "all"})
	call.Add(RoleArguments, &Node{Kind: KindArguments, Span: Span{8, 20}})
	call.Add(RoleBlock, &Node{Kind: KindBlock, Span: Span{21, 30}})

	if got, want := call.Extent(), (Span{0, 20}); got != want {
		t.Errorf("Extent() = %+v, want %+v", got, want)
	}
	if got := call.MethodName(); got != "all" {
		t.Errorf("MethodName() = %q, want %q", got, "all")
	}
	if call.Receiver().Parent != call {
		t.Error("receiver parent not set")
	}
}

func TestCallsPreOrder(t *testing.T) {
	outer := &Node{Kind: KindCall, Span: Span{0, 10}}
	inner := outer.Add(RoleReceiver, &Node{Kind: KindCall, Span: Span{0, 5}})
	inner.Add(RoleMethod, &Node{Kind: KindIdentifier, Value: "inner"})
	outer.Add(RoleMethod, &Node{Kind: KindIdentifier, Value: "outer"})
	root := &Node{Kind: KindProgram}
	root.Add(RoleNone, outer)

	f := NewFile("a.rb", make([]byte, 10), root)
	calls := f.Calls()
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if calls[0].MethodName() != "outer" || calls[1].MethodName() != "inner" {
		t.Errorf("calls = [%s %s], want [outer inner]", calls[0].MethodName(), calls[1].MethodName())
	}
}
