package recognize

import "github.com/obfdofus/abcdeob/internal/abcmodel"

// WrapperClass is a class every one of whose class-side (static) methods
// does nothing
// but forward its arguments to one external call and return the result (or
// discard it), the shape WrapClass recognized in the original obfuscator:
// a layer of indirection the unscrambler strips so call sites read as
// direct calls to the wrapped API again.
type WrapperClass struct {
	ClassIndex int
	// Forward maps each wrapper method's trait name to the multiname index
	// of the property it forwards the call to.
	Forward map[string]int
}

// MatchWrapperClass reports whether c is a wrapper class per §3: no
// instance traits, at least one class trait, and every class trait a
// Method whose single parameter type equals its return type. Each
// qualifying method's body is additionally required to have the pure
// passthrough shape (findproperty/findpropstrict + argument loads + one
// call + return) so Forward carries a real forwarding target for the
// unscrambler to rewrite call sites against; the declarative param/return
// check alone only establishes the class is a wrapper, not what each
// method forwards to.
func MatchWrapperClass(f *abcmodel.File, c *abcmodel.Class) (WrapperClass, bool) {
	if len(c.InstanceTraits) != 0 {
		return WrapperClass{}, false
	}
	if len(c.ClassTraits) == 0 {
		return WrapperClass{}, false
	}
	forward := map[string]int{}
	for _, t := range c.ClassTraits {
		if t.Kind != abcmodel.TraitMethod {
			return WrapperClass{}, false
		}
		m := methodAt(f, t.Method)
		if m == nil || len(m.ParamTypes) != 1 {
			return WrapperClass{}, false
		}
		if f.Pool.MultinameString(m.ParamTypes[0]) != f.Pool.MultinameString(m.ReturnType) {
			return WrapperClass{}, false
		}
		target, ok := passthroughTarget(m)
		if !ok {
			return WrapperClass{}, false
		}
		forward[f.Pool.MultinameString(t.Name)] = target
	}
	return WrapperClass{ClassIndex: c.Name, Forward: forward}, true
}

// passthroughTarget walks m's body looking for exactly one
// call/callproperty/callpropvoid instruction sandwiched between argument
// loads and a return, reporting the multiname index of the forwarded
// property/method if the whole body matches that shape.
func passthroughTarget(m *abcmodel.Method) (int, bool) {
	if !m.HasBody || m.Graph == nil {
		return 0, false
	}
	var callTarget int
	sawCall := false
	for ins := m.Graph.Head; ins != nil; ins = ins.Next {
		switch ins.Op {
		case abcmodel.OpGetLocal0, abcmodel.OpGetLocal, abcmodel.OpGetLocal1,
			abcmodel.OpGetLocal2, abcmodel.OpGetLocal3, abcmodel.OpPushScope,
			abcmodel.OpCoerceA, abcmodel.OpCoerceS:
			continue
		case abcmodel.OpFindProperty, abcmodel.OpFindPropStrict, abcmodel.OpGetLex:
			continue
		case abcmodel.OpCallProperty, abcmodel.OpCallPropVoid, abcmodel.OpCallPropLex, abcmodel.OpCall:
			if sawCall {
				return 0, false
			}
			sawCall = true
			callTarget = int(ins.Operands[0])
		case abcmodel.OpReturnValue, abcmodel.OpReturnVoid:
			if !sawCall {
				return 0, false
			}
			return callTarget, true
		default:
			return 0, false
		}
	}
	return 0, false
}
