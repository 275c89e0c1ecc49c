package recognize

import (
	"testing"

	"github.com/obfdofus/abcdeob/internal/abcmodel"
)

func newFileWithClass(cls *abcmodel.Class, methods ...*abcmodel.Method) *abcmodel.File {
	return &abcmodel.File{
		Pool:    abcmodel.NewPool(),
		Classes: []*abcmodel.Class{cls},
		Methods: methods,
	}
}

// finalDoubleMethod builds a method body of the shape MatchStaticClass
// requires for a Final class-trait method: return one double literal.
func finalDoubleMethod(value int32) *abcmodel.Method {
	g := &abcmodel.Graph{}
	g.Append(&abcmodel.Instruction{Op: abcmodel.OpGetLocal0})
	g.Append(&abcmodel.Instruction{Op: abcmodel.OpPushByte, Operands: []int32{value}})
	g.Append(&abcmodel.Instruction{Op: abcmodel.OpReturnValue})
	return &abcmodel.Method{HasBody: true, Graph: g}
}

func TestMatchStaticClassRequiresHundredClassTraits(t *testing.T) {
	f := newFileWithClass(nil)
	pool := f.Pool

	cls := &abcmodel.Class{}
	for i := 0; i < 10; i++ {
		nameIdx := pool.AppendString("SMALL")
		mn := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: nameIdx})
		cls.ClassTraits = append(cls.ClassTraits, abcmodel.Trait{
			Name: mn, Kind: abcmodel.TraitConst, ValueKind: abcmodel.SlotValueInt,
		})
	}
	f.Classes = []*abcmodel.Class{cls}

	if _, ok := MatchStaticClass(f, cls); ok {
		t.Fatalf("MatchStaticClass accepted a class with fewer than the 100-trait floor")
	}
}

func TestMatchStaticClassRejectsInstanceTraits(t *testing.T) {
	f := newFileWithClass(nil)
	pool := f.Pool

	cls := &abcmodel.Class{}
	for i := 0; i < staticClassTraitFloor; i++ {
		nameIdx := pool.AppendString("CONST")
		mn := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: nameIdx})
		cls.ClassTraits = append(cls.ClassTraits, abcmodel.Trait{
			Name: mn, Kind: abcmodel.TraitConst, ValueKind: abcmodel.SlotValueInt,
		})
	}
	instNameIdx := pool.AppendString("field")
	instMn := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: instNameIdx})
	cls.InstanceTraits = []abcmodel.Trait{{Name: instMn, Kind: abcmodel.TraitSlot}}
	f.Classes = []*abcmodel.Class{cls}

	if _, ok := MatchStaticClass(f, cls); ok {
		t.Fatalf("MatchStaticClass accepted a class with instance traits")
	}
}

func TestMatchStaticClassAllConstSlotsAndFinalMethods(t *testing.T) {
	f := newFileWithClass(nil)
	pool := f.Pool

	method := finalDoubleMethod(42)
	f.Methods = []*abcmodel.Method{method}

	cls := &abcmodel.Class{}
	for i := 0; i < staticClassTraitFloor-1; i++ {
		nameIdx := pool.AppendString("CONST")
		mn := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: nameIdx})
		cls.ClassTraits = append(cls.ClassTraits, abcmodel.Trait{
			Name: mn, Kind: abcmodel.TraitConst, ValueKind: abcmodel.SlotValueInt,
		})
	}
	methodNameIdx := pool.AppendString("FRAME_DURATION")
	methodMn := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: methodNameIdx})
	cls.ClassTraits = append(cls.ClassTraits, abcmodel.Trait{
		Name: methodMn, Kind: abcmodel.TraitMethod, Attributes: abcmodel.TraitAttrFinal, Method: 0,
	})
	f.Classes = []*abcmodel.Class{cls}

	sc, ok := MatchStaticClass(f, cls)
	if !ok {
		t.Fatalf("MatchStaticClass rejected a well-formed constants vault")
	}
	v, ok := sc.Values["FRAME_DURATION"]
	if !ok || v.Double != 42 {
		t.Fatalf("got %+v, want 42", v)
	}
}

func TestMatchWrapperClassPassthrough(t *testing.T) {
	f := newFileWithClass(nil)
	pool := f.Pool
	body := &abcmodel.Graph{}
	body.Append(&abcmodel.Instruction{Op: abcmodel.OpGetLocal0})
	body.Append(&abcmodel.Instruction{Op: abcmodel.OpFindPropStrict, Operands: []int32{9}})
	body.Append(&abcmodel.Instruction{Op: abcmodel.OpGetLocal1})
	body.Append(&abcmodel.Instruction{Op: abcmodel.OpCallPropVoid, Operands: []int32{9, 1}})
	body.Append(&abcmodel.Instruction{Op: abcmodel.OpReturnVoid})

	wrapped := &abcmodel.Method{HasBody: true, Graph: body, ParamTypes: []int{1}, ReturnType: 1}
	f.Methods = []*abcmodel.Method{wrapped}

	nameIdx := pool.AppendString("w")
	mn := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: nameIdx})
	cls := &abcmodel.Class{
		ClassTraits: []abcmodel.Trait{{Name: mn, Kind: abcmodel.TraitMethod, Method: 0}},
	}
	f.Classes = []*abcmodel.Class{cls}

	wc, ok := MatchWrapperClass(f, cls)
	if !ok {
		t.Fatalf("MatchWrapperClass rejected a pure passthrough method")
	}
	if wc.Forward["w"] != 9 {
		t.Fatalf("forward target = %d, want 9", wc.Forward["w"])
	}
}

func TestSweepClassifiesAtMostOneBucket(t *testing.T) {
	f := newFileWithClass(&abcmodel.Class{})
	res := Sweep(f)
	if len(res.StaticClasses) != 0 || len(res.Wrappers) != 0 {
		t.Fatalf("Sweep on an empty file found phantom primitives: %+v", res)
	}
	if _, err := res.RequireServerboundBase(); err == nil {
		t.Fatalf("RequireServerboundBase should fail when no serverbound base class was found")
	}
}
