package packetanalyze

import (
	"testing"

	"github.com/obfdofus/abcdeob/internal/abcmodel"
)

// chainGraph links ins in sequence (each element's Next set to the next
// element) and returns the head, the minimal shape WalkDispatcher needs
// since it only ever follows ins.Next, never decodes raw bytes.
func chainGraph(ins ...*abcmodel.Instruction) *abcmodel.Graph {
	for i := 0; i < len(ins)-1; i++ {
		ins[i].Next = ins[i+1]
	}
	return &abcmodel.Graph{Head: ins[0]}
}

func TestWalkDispatcherRecoversCategoryCodeClassTuple(t *testing.T) {
	f := &abcmodel.File{Pool: abcmodel.NewPool()}
	pool := f.Pool
	classMn := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: pool.AppendString("C")})
	catFieldMn := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: pool.AppendString("cat")})
	codeFieldMn := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: pool.AppendString("code")})
	hMn := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: pool.AppendString("h")})
	catDouble := pool.AppendDouble(5)
	codeDouble := pool.AppendDouble(7)

	elseTarget := &abcmodel.Instruction{Op: abcmodel.OpReturnVoid}

	find := &abcmodel.Instruction{Op: abcmodel.OpFindPropStrict, Operands: []int32{int32(classMn)}}
	getlocal1 := &abcmodel.Instruction{Op: abcmodel.OpGetLocal1}
	construct := &abcmodel.Instruction{Op: abcmodel.OpConstructProp, Operands: []int32{int32(classMn), 1}}

	codeGetLex := &abcmodel.Instruction{Op: abcmodel.OpGetLex, Operands: []int32{int32(hMn)}}
	codeGetProp := &abcmodel.Instruction{Op: abcmodel.OpGetProperty, Operands: []int32{int32(codeFieldMn)}}
	codePush := &abcmodel.Instruction{Op: abcmodel.OpPushDouble, Operands: []int32{int32(codeDouble)}}
	codeIfNe := &abcmodel.Instruction{Op: abcmodel.OpIfNe, Targets: []*abcmodel.Instruction{elseTarget}}

	catGetLex := &abcmodel.Instruction{Op: abcmodel.OpGetLex, Operands: []int32{int32(hMn)}}
	catGetProp := &abcmodel.Instruction{Op: abcmodel.OpGetProperty, Operands: []int32{int32(catFieldMn)}}
	catPush := &abcmodel.Instruction{Op: abcmodel.OpPushDouble, Operands: []int32{int32(catDouble)}}
	catIfNe := &abcmodel.Instruction{Op: abcmodel.OpIfNe, Targets: []*abcmodel.Instruction{elseTarget}}

	g := chainGraph(catGetLex, catGetProp, catPush, catIfNe,
		codeGetLex, codeGetProp, codePush, codeIfNe,
		find, getlocal1, construct)

	routes := WalkDispatcher(f, g)
	if len(routes) != 1 {
		t.Fatalf("got %d routes, want 1: %+v", len(routes), routes)
	}
	r := routes[0]
	if r.Category != 5 || r.Code != 7 || r.ClassName != classMn {
		t.Fatalf("got %+v, want category=5 code=7 class=%d", r, classMn)
	}

	fmts := DefaultFormats()
	named := AssignNames(routes, fmts)
	if len(named) != 1 || named[0].ClassMultiname != classMn {
		t.Fatalf("AssignNames mismatch: %+v", named)
	}
}

func TestWalkDispatcherSkipsTribulleTuple(t *testing.T) {
	f := &abcmodel.File{Pool: abcmodel.NewPool()}
	pool := f.Pool
	classMn := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: pool.AppendString("C")})
	catFieldMn := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: pool.AppendString("cat")})
	codeFieldMn := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: pool.AppendString("code")})
	hMn := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: pool.AppendString("h")})
	catDouble := pool.AppendDouble(float64(TribulleCategory))
	codeDouble := pool.AppendDouble(float64(TribulleCode))

	elseTarget := &abcmodel.Instruction{Op: abcmodel.OpReturnVoid}

	find := &abcmodel.Instruction{Op: abcmodel.OpFindPropStrict, Operands: []int32{int32(classMn)}}
	getlocal1 := &abcmodel.Instruction{Op: abcmodel.OpGetLocal1}
	construct := &abcmodel.Instruction{Op: abcmodel.OpConstructProp, Operands: []int32{int32(classMn), 1}}

	codeGetLex := &abcmodel.Instruction{Op: abcmodel.OpGetLex, Operands: []int32{int32(hMn)}}
	codeGetProp := &abcmodel.Instruction{Op: abcmodel.OpGetProperty, Operands: []int32{int32(codeFieldMn)}}
	codePush := &abcmodel.Instruction{Op: abcmodel.OpPushDouble, Operands: []int32{int32(codeDouble)}}
	codeIfNe := &abcmodel.Instruction{Op: abcmodel.OpIfNe, Targets: []*abcmodel.Instruction{elseTarget}}

	catGetLex := &abcmodel.Instruction{Op: abcmodel.OpGetLex, Operands: []int32{int32(hMn)}}
	catGetProp := &abcmodel.Instruction{Op: abcmodel.OpGetProperty, Operands: []int32{int32(catFieldMn)}}
	catPush := &abcmodel.Instruction{Op: abcmodel.OpPushDouble, Operands: []int32{int32(catDouble)}}
	catIfNe := &abcmodel.Instruction{Op: abcmodel.OpIfNe, Targets: []*abcmodel.Instruction{elseTarget}}

	g := chainGraph(catGetLex, catGetProp, catPush, catIfNe,
		codeGetLex, codeGetProp, codePush, codeIfNe,
		find, getlocal1, construct)

	routes := WalkDispatcher(f, g)
	if len(routes) != 0 {
		t.Fatalf("got %d routes, want 0 (tribulle tuple must be skipped): %+v", len(routes), routes)
	}
}

func TestIsTribullePacket(t *testing.T) {
	if !IsTribullePacket(0x3c, 0x03) {
		t.Fatalf("IsTribullePacket(0x3c, 0x03) = false, want true")
	}
	if IsTribullePacket(0x3c, 0x04) {
		t.Fatalf("IsTribullePacket(0x3c, 0x04) = true, want false")
	}
}

func TestAssignNamesUsesUnknownTemplateWithoutDescriptor(t *testing.T) {
	fmts := DefaultFormats()
	routes := []Route{{Category: 99, Code: 99, ClassName: 1}}
	named := AssignNames(routes, fmts)
	if len(named) != 1 {
		t.Fatalf("got %d assignments, want 1", len(named))
	}
	if named[0].Name == "" {
		t.Fatalf("expected a non-empty fallback name")
	}
}
