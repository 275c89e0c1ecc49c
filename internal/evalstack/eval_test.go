package evalstack

import (
	"testing"

	"github.com/obfdofus/abcdeob/internal/abcmodel"
)

func linkChain(instrs ...*abcmodel.Instruction) *abcmodel.Graph {
	g := &abcmodel.Graph{}
	for _, ins := range instrs {
		g.Append(ins)
	}
	return g
}

func TestEvalConstantByte(t *testing.T) {
	pool := abcmodel.NewPool()
	g := linkChain(
		&abcmodel.Instruction{Op: abcmodel.OpGetLocal0},
		&abcmodel.Instruction{Op: abcmodel.OpPushByte, Operands: []int32{7}},
		&abcmodel.Instruction{Op: abcmodel.OpReturnValue},
	)

	v, ok := Eval(pool, g)
	if !ok {
		t.Fatalf("Eval reported not-ok for a pure literal getter")
	}
	if v.Kind != KindDouble || v.Double != 7 {
		t.Fatalf("got %+v, want double 7", v)
	}
}

func TestEvalConstantString(t *testing.T) {
	pool := abcmodel.NewPool()
	idx := pool.AppendString("tribulle")
	g := linkChain(
		&abcmodel.Instruction{Op: abcmodel.OpPushString, Operands: []int32{int32(idx)}},
		&abcmodel.Instruction{Op: abcmodel.OpReturnValue},
	)

	v, ok := Eval(pool, g)
	if !ok || v.Kind != KindString || v.Str != "tribulle" {
		t.Fatalf("got %+v, ok=%v, want string %q", v, ok, "tribulle")
	}
}

func TestEvalRejectsNonConstantBody(t *testing.T) {
	pool := abcmodel.NewPool()
	g := linkChain(
		&abcmodel.Instruction{Op: abcmodel.OpGetLocal0},
		&abcmodel.Instruction{Op: abcmodel.OpGetProperty, Operands: []int32{3}},
		&abcmodel.Instruction{Op: abcmodel.OpReturnValue},
	)

	if _, ok := Eval(pool, g); ok {
		t.Fatalf("Eval accepted a body with a property read, expected rejection")
	}
}
