// Package recognize implements the structural pattern matchers that find
// the obfuscation primitives a Dofus-style ActionScript build introduces:
// constants-vault classes, wrapper (passthrough) classes, and the packet
// base/dispatcher shapes. Each matcher is a pure predicate over an
// abcmodel.Class's trait shape; none of them mutate the model except the
// one-time class-initializer slot patch MatchStaticClass applies to
// resolve a "notdefined"-kind slot's literal value.
package recognize

import (
	"github.com/obfdofus/abcdeob/internal/abcmodel"
	"github.com/obfdofus/abcdeob/internal/evalstack"
)

// staticClassTraitFloor is the minimum class-trait count a constants vault
// must carry before this engine trusts the shape instead of a coincidental
// small helper class; the obfuscator's own vault classes run into the
// hundreds of entries.
const staticClassTraitFloor = 100

// StaticClass is a constants-vault class: no instance side at all, every
// class-side trait either a zero-attribute Slot or a Final Method that
// does nothing but return one int/Number literal. Values is keyed by trait
// name.
type StaticClass struct {
	ClassIndex int
	Values     map[string]evalstack.Value
}

// MatchStaticClass reports whether c is a constants vault: zero instance
// traits, at least staticClassTraitFloor class traits, and every class
// trait either a zero-attribute Slot (including one left at slot-kind
// "notdefined", patched from the class initializer's
// findproperty/pushtrue/pushfalse idiom below) or a Final method returning
// an int/Number literal.
func MatchStaticClass(f *abcmodel.File, c *abcmodel.Class) (StaticClass, bool) {
	if len(c.InstanceTraits) != 0 {
		return StaticClass{}, false
	}
	if len(c.ClassTraits) < staticClassTraitFloor {
		return StaticClass{}, false
	}

	patchUndefinedSlots(f, c)

	values := map[string]evalstack.Value{}
	for _, t := range c.ClassTraits {
		switch t.Kind {
		case abcmodel.TraitSlot, abcmodel.TraitConst:
			if t.Attributes != 0 {
				return StaticClass{}, false
			}
			v, ok := constFromSlot(f.Pool, t)
			if !ok {
				return StaticClass{}, false
			}
			values[f.Pool.MultinameString(t.Name)] = v
		case abcmodel.TraitMethod:
			if t.Attributes&abcmodel.TraitAttrFinal == 0 {
				return StaticClass{}, false
			}
			m := f.Methods[t.Method]
			if !m.HasBody || m.Graph == nil {
				return StaticClass{}, false
			}
			v, ok := evalstack.Eval(f.Pool, m.Graph)
			if !ok || v.Kind != evalstack.KindDouble {
				return StaticClass{}, false
			}
			values[f.Pool.MultinameString(t.Name)] = v
		default:
			return StaticClass{}, false
		}
	}
	return StaticClass{ClassIndex: c.Name, Values: values}, true
}

// constFromSlot resolves a Const/Slot trait's literal default value from
// the constant pool.
func constFromSlot(pool *abcmodel.Pool, t abcmodel.Trait) (evalstack.Value, bool) {
	switch t.ValueKind {
	case abcmodel.SlotValueInt:
		return evalstack.Value{Kind: evalstack.KindDouble, Double: float64(pool.Ints[t.ValueIndex])}, true
	case abcmodel.SlotValueUInt:
		return evalstack.Value{Kind: evalstack.KindDouble, Double: float64(pool.UInts[t.ValueIndex])}, true
	case abcmodel.SlotValueDouble:
		return evalstack.Value{Kind: evalstack.KindDouble, Double: pool.Doubles[t.ValueIndex]}, true
	case abcmodel.SlotValueString:
		return evalstack.Value{Kind: evalstack.KindString, Str: pool.String(t.ValueIndex)}, true
	case abcmodel.SlotValueTrue:
		return evalstack.Value{Kind: evalstack.KindBool, Bool: true}, true
	case abcmodel.SlotValueFalse:
		return evalstack.Value{Kind: evalstack.KindBool, Bool: false}, true
	case abcmodel.SlotValueNull:
		return evalstack.Value{Kind: evalstack.KindNull}, true
	default:
		return evalstack.Value{}, false
	}
}

// patchUndefinedSlots walks c's class initializer looking for the
// obfuscator's boolean-static idiom: findproperty <slot-name>; pushtrue (or
// pushfalse); initproperty/setproperty <slot-name>. Every class trait whose
// ValueKind is still SlotValueNone ("notdefined", never given a literal in
// the constant pool itself) gets its ValueKind/ValueIndex patched in place
// from the boolean the initializer assigns, so MatchStaticClass's second
// pass over ClassTraits sees a resolvable value instead of rejecting the
// whole class over one slot the compiler chose to initialize in code
// rather than in the trait's own default-value operand.
func patchUndefinedSlots(f *abcmodel.File, c *abcmodel.Class) {
	if c.ClassInit <= 0 || c.ClassInit >= len(f.Methods) {
		return
	}
	m := f.Methods[c.ClassInit]
	if !m.HasBody || m.Graph == nil {
		return
	}

	pending := map[int]*abcmodel.Instruction{} // multiname index -> the findproperty/findpropstrict instruction
	for ins := m.Graph.Head; ins != nil; ins = ins.Next {
		switch ins.Op {
		case abcmodel.OpFindProperty, abcmodel.OpFindPropStrict:
			if len(ins.Operands) == 1 {
				pending[int(ins.Operands[0])] = ins
			}
		case abcmodel.OpPushTrue, abcmodel.OpPushFalse:
			set := nextPropertySet(ins)
			if set == nil || len(set.Operands) == 0 {
				continue
			}
			mnIdx := int(set.Operands[0])
			if _, ok := pending[mnIdx]; !ok {
				continue
			}
			applyUndefinedSlotValue(f.Pool, c, mnIdx, ins.Op == abcmodel.OpPushTrue)
			delete(pending, mnIdx)
		}
	}
}

// nextPropertySet scans forward from a pushtrue/pushfalse instruction for
// the initproperty/setproperty that consumes it, skipping only the
// intervening instructions the obfuscator's own emission leaves between the
// push and the store (nothing that could itself observe the value).
func nextPropertySet(from *abcmodel.Instruction) *abcmodel.Instruction {
	for ins := from.Next; ins != nil; ins = ins.Next {
		switch ins.Op {
		case abcmodel.OpInitProperty, abcmodel.OpSetProperty:
			return ins
		case abcmodel.OpReturnVoid, abcmodel.OpReturnValue:
			return nil
		}
	}
	return nil
}

func applyUndefinedSlotValue(pool *abcmodel.Pool, c *abcmodel.Class, mnIdx int, value bool) {
	name := pool.MultinameString(mnIdx)
	for i := range c.ClassTraits {
		t := &c.ClassTraits[i]
		if t.Kind != abcmodel.TraitSlot && t.Kind != abcmodel.TraitConst {
			continue
		}
		if t.ValueKind != abcmodel.SlotValueNone {
			continue
		}
		if pool.MultinameString(t.Name) != name {
			continue
		}
		if value {
			t.ValueKind = abcmodel.SlotValueTrue
		} else {
			t.ValueKind = abcmodel.SlotValueFalse
		}
	}
}
