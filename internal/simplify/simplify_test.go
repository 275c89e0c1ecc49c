package simplify

import (
	"testing"

	"github.com/obfdofus/abcdeob/internal/abcmodel"
)

func chain(ops ...*abcmodel.Instruction) *abcmodel.Graph {
	g := &abcmodel.Graph{}
	for _, o := range ops {
		g.Append(o)
	}
	return g
}

func TestSimplifyFoldsAdditionToPushByte(t *testing.T) {
	pool := abcmodel.NewPool()
	a := &abcmodel.Instruction{Op: abcmodel.OpPushByte, Operands: []int32{2}}
	b := &abcmodel.Instruction{Op: abcmodel.OpPushByte, Operands: []int32{3}}
	add := &abcmodel.Instruction{Op: abcmodel.OpAdd}
	ret := &abcmodel.Instruction{Op: abcmodel.OpReturnValue}
	g := chain(a, b, add, ret)

	Simplify(pool, g)

	got := g.Instructions()
	if len(got) != 2 {
		t.Fatalf("got %d instructions, want 2 (folded push + return)", len(got))
	}
	if got[0].Op != abcmodel.OpPushByte || got[0].Operands[0] != 5 {
		t.Fatalf("folded instruction = %v %v, want pushbyte 5", got[0].Op.Name(), got[0].Operands)
	}
	if got[1].Op != abcmodel.OpReturnValue {
		t.Fatalf("second instruction = %v, want returnvalue", got[1].Op.Name())
	}
}

func TestSimplifyFoldsMultiplyNeedingPushInt(t *testing.T) {
	pool := abcmodel.NewPool()
	a := &abcmodel.Instruction{Op: abcmodel.OpPushShort, Operands: []int32{1000}}
	b := &abcmodel.Instruction{Op: abcmodel.OpPushShort, Operands: []int32{1000}}
	mul := &abcmodel.Instruction{Op: abcmodel.OpMultiply}
	ret := &abcmodel.Instruction{Op: abcmodel.OpReturnValue}
	g := chain(a, b, mul, ret)

	Simplify(pool, g)

	got := g.Instructions()
	if got[0].Op != abcmodel.OpPushInt {
		t.Fatalf("folded instruction op = %v, want pushint (1000000 exceeds pushshort range)", got[0].Op.Name())
	}
	if pool.Ints[got[0].Operands[0]] != 1000000 {
		t.Fatalf("folded value = %d, want 1000000", pool.Ints[got[0].Operands[0]])
	}
}

func TestSimplifyLeavesNonConstantChainAlone(t *testing.T) {
	pool := abcmodel.NewPool()
	getprop := &abcmodel.Instruction{Op: abcmodel.OpGetProperty, Operands: []int32{1}}
	push := &abcmodel.Instruction{Op: abcmodel.OpPushByte, Operands: []int32{1}}
	add := &abcmodel.Instruction{Op: abcmodel.OpAdd}
	ret := &abcmodel.Instruction{Op: abcmodel.OpReturnValue}
	g := chain(getprop, push, add, ret)

	Simplify(pool, g)

	got := g.Instructions()
	if len(got) != 4 {
		t.Fatalf("got %d instructions, want 4 (nothing foldable, since getproperty's value is unknown)", len(got))
	}
}
