package compiler

import (
	"strings"
	"testing"
)

type brokenLineNode struct{}

func (brokenLineNode) node()     {}
func (brokenLineNode) Line() int { panic("line table corrupt") }

func TestErrorLineOfNilNodes(t *testing.T) {
	var send *Send
	tests := []struct {
		name string
		n    Node
	}{
		{"nil", nil},
		{"typed nil", send},
	}
	for _, tt := range tests {
		e := malformed(tt.n, "bad node")
		if e.Line != 0 {
			t.Errorf("%s: Line = %d, want 0", tt.name, e.Line)
		}
		if strings.HasPrefix(e.Error(), "line") {
			t.Errorf("%s: Error() = %q, want no line prefix", tt.name, e.Error())
		}
	}
	if e := malformed(&Send{Pos: 4, Name: "x"}, "bad node"); e.Line != 4 {
		t.Errorf("Line = %d, want 4", e.Line)
	}
}

func TestErrorLinePropagatesPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("panic from Line() was swallowed")
		}
	}()
	malformed(brokenLineNode{}, "bad node")
}
