// Package simplify folds constant arithmetic in a class initializer:
// chains like pushbyte 2, pushbyte 3, add collapse to a single pushbyte 5,
// the same constant-folding pass the original obfuscator stripper ran
// before rewriting branch targets. internal/orchestrator runs it over each
// class initializer before the recognition sweep and the unscrambler.
package simplify

import (
	"math"
	"strconv"

	"github.com/obfdofus/abcdeob/internal/abcmodel"
	"github.com/obfdofus/abcdeob/internal/graph"
)

// value is the simplifier's own typed stack cell: unknown values (the
// result of anything this pass doesn't understand) block folding of
// whatever consumes them, the same way the original's StackValue variant
// used a monostate alternative to mean "not foldable".
type kind int

const (
	unknown kind = iota
	boolean
	double
	str
)

type value struct {
	kind kind
	b    bool
	d    float64
	s    string
	// ins is the instruction that produced this value, so folding an
	// operator can rewrite that instruction in place and detach the
	// operator plus any other operands.
	ins *abcmodel.Instruction
}

// Simplify runs one left-to-right pass over g, folding every binary or
// unary arithmetic instruction whose operands are both constant pushes.
// Binary opcodes this recognizes: add, subtract, multiply, divide, modulo,
// bitand, bitor, bitxor, lshift, rshift, urshift, equals, strictequals,
// lessthan, lessequals, greaterthan, greaterequals. Unary: negate, not,
// bitnot, convert_d, convert_b, convert_s.
func Simplify(pool *abcmodel.Pool, g *abcmodel.Graph) {
	var stack []value

	pop := func() (value, bool) {
		if len(stack) == 0 {
			return value{}, false
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, true
	}

	for ins := g.Head; ins != nil; {
		next := ins.Next
		switch ins.Op {
		case abcmodel.OpPushByte:
			stack = append(stack, value{kind: double, d: float64(ins.Operands[0]), ins: ins})
		case abcmodel.OpPushShort, abcmodel.OpPushInt:
			stack = append(stack, value{kind: double, d: resolveIntOperand(pool, ins), ins: ins})
		case abcmodel.OpPushDouble:
			stack = append(stack, value{kind: double, d: pool.Doubles[ins.Operands[0]], ins: ins})
		case abcmodel.OpPushString:
			stack = append(stack, value{kind: str, s: pool.String(int(ins.Operands[0])), ins: ins})
		case abcmodel.OpPushTrue:
			stack = append(stack, value{kind: boolean, b: true, ins: ins})
		case abcmodel.OpPushFalse:
			stack = append(stack, value{kind: boolean, b: false, ins: ins})

		case abcmodel.OpNegate, abcmodel.OpNot, abcmodel.OpBitNot,
			abcmodel.OpConvertD, abcmodel.OpConvertB, abcmodel.OpConvertS:
			v, ok := pop()
			if !ok || v.kind == unknown {
				stack = append(stack, value{kind: unknown})
				break
			}
			folded, ok := foldUnary(ins.Op, v)
			if !ok {
				stack = append(stack, value{kind: unknown})
				break
			}
			rewriteLiteral(pool, v.ins, folded)
			graph.Detach(g, ins)
			stack = append(stack, value{kind: folded.kind, b: folded.b, d: folded.d, s: folded.s, ins: v.ins})

		case abcmodel.OpAdd, abcmodel.OpSubtract, abcmodel.OpMultiply, abcmodel.OpDivide,
			abcmodel.OpModulo, abcmodel.OpBitAnd, abcmodel.OpBitOr, abcmodel.OpBitXor,
			abcmodel.OpLShift, abcmodel.OpRShift, abcmodel.OpURShift,
			abcmodel.OpEquals, abcmodel.OpStrictEquals, abcmodel.OpLessThan, abcmodel.OpLessEquals,
			abcmodel.OpGreaterThan, abcmodel.OpGreaterEquals:
			rhs, ok1 := pop()
			lhs, ok2 := pop()
			if !ok1 || !ok2 || lhs.kind == unknown || rhs.kind == unknown {
				stack = append(stack, value{kind: unknown})
				break
			}
			folded, ok := foldBinary(ins.Op, lhs, rhs)
			if !ok {
				stack = append(stack, value{kind: unknown})
				break
			}
			// rewrite the instruction that produced lhs to hold the
			// folded constant, then drop rhs's producer and this operator,
			// leaving exactly one instruction where three used to be.
			rewriteLiteral(pool, lhs.ins, folded)
			if rhs.ins != lhs.ins {
				graph.Detach(g, rhs.ins)
			}
			graph.Detach(g, ins)
			stack = append(stack, value{kind: folded.kind, b: folded.b, d: folded.d, s: folded.s, ins: lhs.ins})

		default:
			// any other opcode either consumes operands this pass cannot
			// track (so the stack discipline is lost) or is a control-flow
			// boundary; either way, reset to a fresh unknown stack rather
			// than guess.
			stack = nil
		}
		ins = next
	}
}

func resolveIntOperand(pool *abcmodel.Pool, ins *abcmodel.Instruction) float64 {
	if ins.Op == abcmodel.OpPushShort {
		return float64(ins.Operands[0])
	}
	return float64(pool.Ints[ins.Operands[0]])
}

func foldUnary(op abcmodel.Opcode, v value) (value, bool) {
	switch op {
	case abcmodel.OpNegate:
		if v.kind != double {
			return value{}, false
		}
		return value{kind: double, d: -v.d}, true
	case abcmodel.OpNot:
		return value{kind: boolean, b: !truthy(v)}, true
	case abcmodel.OpBitNot:
		if v.kind != double {
			return value{}, false
		}
		return value{kind: double, d: float64(^int32(v.d))}, true
	case abcmodel.OpConvertD:
		if v.kind != double {
			return value{}, false
		}
		return v, true
	case abcmodel.OpConvertB:
		return value{kind: boolean, b: truthy(v)}, true
	case abcmodel.OpConvertS:
		if v.kind != str {
			return value{}, false
		}
		return v, true
	}
	return value{}, false
}

func truthy(v value) bool {
	switch v.kind {
	case boolean:
		return v.b
	case double:
		return v.d != 0
	case str:
		return v.s != ""
	default:
		return false
	}
}

func foldBinary(op abcmodel.Opcode, lhs, rhs value) (value, bool) {
	if op == abcmodel.OpAdd && (lhs.kind == str || rhs.kind == str) {
		return value{kind: str, s: renderString(lhs) + renderString(rhs)}, true
	}
	if lhs.kind != double || rhs.kind != double {
		if op == abcmodel.OpEquals || op == abcmodel.OpStrictEquals {
			return value{kind: boolean, b: lhs.kind == rhs.kind && renderString(lhs) == renderString(rhs)}, true
		}
		return value{}, false
	}
	a, b := lhs.d, rhs.d
	switch op {
	case abcmodel.OpAdd:
		return value{kind: double, d: a + b}, true
	case abcmodel.OpSubtract:
		return value{kind: double, d: a - b}, true
	case abcmodel.OpMultiply:
		return value{kind: double, d: a * b}, true
	case abcmodel.OpDivide:
		return value{kind: double, d: a / b}, true
	case abcmodel.OpModulo:
		return value{kind: double, d: math.Mod(a, b)}, true
	case abcmodel.OpBitAnd:
		return value{kind: double, d: float64(int32(a) & int32(b))}, true
	case abcmodel.OpBitOr:
		return value{kind: double, d: float64(int32(a) | int32(b))}, true
	case abcmodel.OpBitXor:
		return value{kind: double, d: float64(int32(a) ^ int32(b))}, true
	case abcmodel.OpLShift:
		return value{kind: double, d: float64(int32(a) << (uint32(b) & 0x1f))}, true
	case abcmodel.OpRShift:
		return value{kind: double, d: float64(int32(a) >> (uint32(b) & 0x1f))}, true
	case abcmodel.OpURShift:
		return value{kind: double, d: float64(uint32(a) >> (uint32(b) & 0x1f))}, true
	case abcmodel.OpEquals, abcmodel.OpStrictEquals:
		return value{kind: boolean, b: a == b}, true
	case abcmodel.OpLessThan:
		return value{kind: boolean, b: a < b}, true
	case abcmodel.OpLessEquals:
		return value{kind: boolean, b: a <= b}, true
	case abcmodel.OpGreaterThan:
		return value{kind: boolean, b: a > b}, true
	case abcmodel.OpGreaterEquals:
		return value{kind: boolean, b: a >= b}, true
	}
	return value{}, false
}

func renderString(v value) string {
	switch v.kind {
	case str:
		return v.s
	case boolean:
		if v.b {
			return "true"
		}
		return "false"
	case double:
		return formatDouble(v.d)
	default:
		return ""
	}
}

func formatDouble(d float64) string {
	if d == math.Trunc(d) {
		return strconv.FormatInt(int64(d), 10)
	}
	return strconv.FormatFloat(d, 'g', -1, 64)
}
