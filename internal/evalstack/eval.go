// Package evalstack implements the small constant-expression evaluator the
// static-class recognizer uses to resolve a getter that does nothing but
// push one literal and return it.
package evalstack

import (
	"fmt"

	"github.com/obfdofus/abcdeob/internal/abcmodel"
)

// Kind tags the dynamic type of a Value.
type Kind int

const (
	KindUnknown Kind = iota
	KindBool
	KindDouble
	KindString
	KindNull
	KindUndefined
)

// Value is the result of evaluating a constant getter body.
type Value struct {
	Kind   Kind
	Bool   bool
	Double float64
	Str    string
}

// Eval interprets a method body that is expected to do nothing but push a
// single literal value and return it: the shape a static-class slot's
// getter takes once exhaustive inlining has reduced it to its essentials.
// Only getlocal0 and pushscope (both ignored), pushbyte, pushshort,
// pushint, pushuint, pushdouble, pushstring, pushtrue, pushfalse,
// pushnull, pushundefined, add and divide (on two numbers), coerce_a and
// coerce_s (both ignored) and returnvalue are understood; any other
// opcode, or a stack that does not hold exactly one value at return,
// causes Eval to report ok=false so the caller can fall back to treating
// the getter as non-constant instead of mis-evaluating it.
func Eval(pool *abcmodel.Pool, g *abcmodel.Graph) (Value, bool) {
	var stack []Value
	push := func(v Value) { stack = append(stack, v) }

	for ins := g.Head; ins != nil; ins = ins.Next {
		switch ins.Op {
		case abcmodel.OpGetLocal0, abcmodel.OpPushScope:
			// "this" / scope push that a getter's prologue always carries;
			// contributes nothing to the return value.
			continue
		case abcmodel.OpPushByte:
			push(Value{Kind: KindDouble, Double: float64(ins.Operands[0])})
		case abcmodel.OpPushShort:
			push(Value{Kind: KindDouble, Double: float64(ins.Operands[0])})
		case abcmodel.OpPushInt:
			push(Value{Kind: KindDouble, Double: float64(pool.Ints[ins.Operands[0]])})
		case abcmodel.OpPushUInt:
			push(Value{Kind: KindDouble, Double: float64(pool.UInts[ins.Operands[0]])})
		case abcmodel.OpPushDouble:
			push(Value{Kind: KindDouble, Double: pool.Doubles[ins.Operands[0]]})
		case abcmodel.OpPushString:
			push(Value{Kind: KindString, Str: pool.String(int(ins.Operands[0]))})
		case abcmodel.OpPushTrue:
			push(Value{Kind: KindBool, Bool: true})
		case abcmodel.OpPushFalse:
			push(Value{Kind: KindBool, Bool: false})
		case abcmodel.OpPushNull:
			push(Value{Kind: KindNull})
		case abcmodel.OpPushUndefined:
			push(Value{Kind: KindUndefined})
		case abcmodel.OpAdd, abcmodel.OpDivide:
			if len(stack) < 2 {
				return Value{}, false
			}
			a, b := stack[len(stack)-2], stack[len(stack)-1]
			if a.Kind != KindDouble || b.Kind != KindDouble {
				return Value{}, false
			}
			stack = stack[:len(stack)-2]
			if ins.Op == abcmodel.OpAdd {
				push(Value{Kind: KindDouble, Double: a.Double + b.Double})
			} else {
				push(Value{Kind: KindDouble, Double: a.Double / b.Double})
			}
		case abcmodel.OpReturnValue:
			if len(stack) != 1 {
				return Value{}, false
			}
			return stack[0], true
		case abcmodel.OpCoerceA, abcmodel.OpCoerceS:
			// a trailing coercion leaves the stack depth unchanged and the
			// value unaffected for every literal kind this evaluator deals
			// with.
			continue
		default:
			return Value{}, false
		}
	}
	return Value{}, false
}

// String renders a Value the way the rewriter needs when inlining it back
// into bytecode as a debug label or diagnostic.
func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindDouble:
		return fmt.Sprintf("%v", v.Double)
	case KindString:
		return v.Str
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
	default:
		return "<unknown>"
	}
}
