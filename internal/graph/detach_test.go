package graph

import (
	"testing"

	"github.com/obfdofus/abcdeob/internal/abcmodel"
)

func chain(ops ...abcmodel.Opcode) *abcmodel.Graph {
	g := &abcmodel.Graph{}
	for _, op := range ops {
		g.Append(&abcmodel.Instruction{Op: op})
	}
	return g
}

func TestDetachRelinksSiblings(t *testing.T) {
	g := chain(abcmodel.OpGetLocal0, abcmodel.OpPop, abcmodel.OpReturnVoid)
	instrs := g.Instructions()
	middle := instrs[1]

	Detach(g, middle)

	got := g.Instructions()
	if len(got) != 2 {
		t.Fatalf("got %d instructions after detach, want 2", len(got))
	}
	if got[0].Op != abcmodel.OpGetLocal0 || got[1].Op != abcmodel.OpReturnVoid {
		t.Fatalf("unexpected sequence after detach: %v, %v", got[0].Op, got[1].Op)
	}
	if got[0].Next != got[1] || got[1].Prev != got[0] {
		t.Fatalf("siblings not relinked")
	}
}

func TestDetachAdvancesHead(t *testing.T) {
	g := chain(abcmodel.OpNop, abcmodel.OpReturnVoid)
	head := g.Head
	Detach(g, head)
	if g.Head == head {
		t.Fatalf("head pointer was not advanced")
	}
	if g.Head.Op != abcmodel.OpReturnVoid {
		t.Fatalf("head = %v, want returnvoid", g.Head.Op)
	}
}

func TestDetachRedirectsJumpSources(t *testing.T) {
	g := &abcmodel.Graph{}
	target := &abcmodel.Instruction{Op: abcmodel.OpPop}
	after := &abcmodel.Instruction{Op: abcmodel.OpReturnVoid}
	jmp := &abcmodel.Instruction{Op: abcmodel.OpJump}

	g.Append(jmp)
	g.Append(target)
	g.Append(after)
	jmp.Targets = []*abcmodel.Instruction{target}
	target.JumpSources = []*abcmodel.Instruction{jmp}

	Detach(g, target)

	if jmp.Targets[0] != after {
		t.Fatalf("jump target not redirected: got %v, want the instruction after the detached one", jmp.Targets[0].Op)
	}
	if len(after.JumpSources) != 1 || after.JumpSources[0] != jmp {
		t.Fatalf("redirected target's JumpSources not updated")
	}
}

func TestDetachRedirectsExceptionOverlay(t *testing.T) {
	g := &abcmodel.Graph{}
	from := &abcmodel.Instruction{Op: abcmodel.OpNop}
	body := &abcmodel.Instruction{Op: abcmodel.OpThrow}
	after := &abcmodel.Instruction{Op: abcmodel.OpReturnVoid}
	g.Append(from)
	g.Append(body)
	g.Append(after)
	g.ExceptionOverlay = []abcmodel.ExceptionEdge{{From: from, To: body, Target: body}}

	Detach(g, body)

	edge := g.ExceptionOverlay[0]
	if edge.To != after || edge.Target != after {
		t.Fatalf("exception overlay not redirected: %+v", edge)
	}
}

func TestDetachPanicsOnLastInstruction(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic detaching the terminating instruction")
		}
	}()
	g := chain(abcmodel.OpReturnVoid)
	Detach(g, g.Head)
}

func TestDetachRangeDropsContiguousSpan(t *testing.T) {
	g := chain(abcmodel.OpFindPropStrict, abcmodel.OpGetLex, abcmodel.OpCallPropVoid, abcmodel.OpReturnVoid)
	instrs := g.Instructions()

	DetachRange(g, instrs[0], instrs[2])

	got := g.Instructions()
	if len(got) != 1 || got[0].Op != abcmodel.OpReturnVoid {
		t.Fatalf("got %v, want only returnvoid left", got)
	}
}
