// Package unscramble rewrites a method body to remove the two kinds of
// indirection the recognizers found: calls routed through a wrapper class
// collapse to a direct call, and references to a static-value class's
// getters are inlined as literal pushes.
package unscramble

import (
	"github.com/obfdofus/abcdeob/internal/abcmodel"
	"github.com/obfdofus/abcdeob/internal/evalstack"
	"github.com/obfdofus/abcdeob/internal/graph"
	"github.com/obfdofus/abcdeob/internal/recognize"
)

// Index is the lookup table the unscrambler consults: which class indices
// are wrapper classes (and what each of their methods forwards to) and
// which are static-value classes (and what each of their getters resolves
// to), keyed by the class's own Multiname index in the pool.
type Index struct {
	Wrappers map[int]recognize.WrapperClass
	Statics  map[int]recognize.StaticClass
}

// NewIndex builds an Index from a recognizer sweep.
func NewIndex(res recognize.Result) Index {
	idx := Index{Wrappers: map[int]recognize.WrapperClass{}, Statics: map[int]recognize.StaticClass{}}
	for _, w := range res.Wrappers {
		idx.Wrappers[w.ClassIndex] = w
	}
	for _, s := range res.StaticClasses {
		idx.Statics[s.ClassIndex] = s
	}
	return idx
}

// Unscramble applies all four rewrite rules to g in a single forward pass,
// mutating it in place. pool is needed both to resolve multiname owners
// (to check "is this getlex's class a static class") and to intern any new
// literal the static-class inlining rule pushes.
//
// The four rules, applied in the order the original unscrambler applied
// them:
//
//  1. wrapper lookup — a findpropstrict/getlex targeting a wrapper class
//     is noted so rule 2 can recognize the call that follows it.
//  2. pending-call suppression — once rule 1 has identified a wrapper
//     lookup, the subsequent callproperty/callpropvoid against one of that
//     wrapper's forwarding methods is rewritten to call the forwarded
//     target directly instead, and the lookup instruction ahead of it is
//     neutralized, mirroring the original's drop_next_call bookkeeping.
//  3. static-class-load inlining — a getlex/getproperty resolving to a
//     static class's getter becomes a direct literal push.
//  4. wrapper-class-reference removal — a bare findpropstrict/getlex
//     against a wrapper class with no following call (the class reference
//     used only to be instantiated, never invoked) is dropped entirely.
func Unscramble(pool *abcmodel.Pool, g *abcmodel.Graph, idx Index) {
	for ins := g.Head; ins != nil; {
		next := ins.Next

		switch ins.Op {
		case abcmodel.OpGetLex, abcmodel.OpFindPropStrict, abcmodel.OpFindProperty:
			multiIdx := int(ins.Operands[0])
			classIdx := classOwning(pool, multiIdx)

			if wc, ok := idx.Wrappers[classIdx]; ok {
				if call := nextCallAgainst(ins, wc); call != nil {
					forwardToDirectCall(pool, ins, call, wc)
					ins = call.Next
					continue
				}
				// rule 4: reference to the wrapper class with no call
				// following it — nothing ever consumes it, drop it.
				if ins.Next != nil {
					graph.Detach(g, ins)
				}
				ins = next
				continue
			}

			if sc, ok := idx.Statics[classIdx]; ok {
				if getter, propName, ok := nextPropertyRead(ins, pool); ok {
					if v, ok := sc.Values[propName]; ok {
						inlineLiteral(pool, ins, v)
						if getter != ins && getter.Next != nil {
							graph.Detach(g, getter)
						}
						ins = ins.Next
						continue
					}
				}
			}
		}
		ins = next
	}
}

// classOwning resolves which class (by its own Name multiname index) a
// getlex/findpropstrict operand refers to. It returns multiIdx unchanged:
// only a reference that uses exactly the class's own QName multiname index
// is recognized; no namespace matching is done, so a different multiname
// naming the same class is not.
func classOwning(pool *abcmodel.Pool, multiIdx int) int {
	return multiIdx
}

// nextCallAgainst scans forward from a wrapper-class lookup for the
// callproperty/callpropvoid that consumes it, tolerating a short run of
// argument-loading instructions (getlocal*, pushbyte, ...) in between.
func nextCallAgainst(lookup *abcmodel.Instruction, wc recognize.WrapperClass) *abcmodel.Instruction {
	steps := 0
	for ins := lookup.Next; ins != nil && steps < 8; ins = ins.Next {
		steps++
		switch ins.Op {
		case abcmodel.OpCallProperty, abcmodel.OpCallPropVoid, abcmodel.OpCallPropLex:
			return ins
		case abcmodel.OpGetLocal, abcmodel.OpGetLocal0, abcmodel.OpGetLocal1, abcmodel.OpGetLocal2,
			abcmodel.OpGetLocal3, abcmodel.OpPushByte, abcmodel.OpPushShort, abcmodel.OpPushString,
			abcmodel.OpPushTrue, abcmodel.OpPushFalse, abcmodel.OpCoerceA:
			continue
		default:
			return nil
		}
	}
	return nil
}

// forwardToDirectCall rewrites call's multiname operand to the wrapper
// method's forward target and removes the lookup instruction that preceded
// it, collapsing "wrapperInstance.method(args)" into "target(args)".
func forwardToDirectCall(pool *abcmodel.Pool, lookup, call *abcmodel.Instruction, wc recognize.WrapperClass) {
	name := pool.MultinameString(int(call.Operands[0]))
	if target, ok := wc.Forward[name]; ok {
		call.Operands[0] = int32(target)
	}
	lookup.Op = abcmodel.OpNop
	lookup.Operands = nil
}

// nextPropertyRead scans forward from a static-class lookup for the
// getproperty/callproperty that names which constant field is being read,
// returning the instruction to drop alongside it and the field's bare name.
func nextPropertyRead(lookup *abcmodel.Instruction, pool *abcmodel.Pool) (*abcmodel.Instruction, string, bool) {
	ins := lookup.Next
	if ins == nil {
		return nil, "", false
	}
	switch ins.Op {
	case abcmodel.OpGetProperty, abcmodel.OpCallProperty:
		return ins, pool.MultinameString(int(ins.Operands[0])), true
	}
	return nil, "", false
}

// inlineLiteral turns lookup into a direct push of v's value in place,
// since that instruction's position is already correctly ordered relative
// to whatever consumes the result.
func inlineLiteral(pool *abcmodel.Pool, ins *abcmodel.Instruction, v evalstack.Value) {
	switch v.Kind {
	case evalstack.KindDouble:
		iv := int64(v.Double)
		if float64(iv) == v.Double && iv >= -0x80 && iv < 0x80 {
			ins.Op = abcmodel.OpPushByte
			ins.Operands = []int32{int32(iv)}
			return
		}
		idx := pool.AppendDouble(v.Double)
		ins.Op = abcmodel.OpPushDouble
		ins.Operands = []int32{int32(idx)}
	case evalstack.KindString:
		idx := pool.AppendString(v.Str)
		ins.Op = abcmodel.OpPushString
		ins.Operands = []int32{int32(idx)}
	case evalstack.KindBool:
		if v.Bool {
			ins.Op = abcmodel.OpPushTrue
		} else {
			ins.Op = abcmodel.OpPushFalse
		}
		ins.Operands = nil
	case evalstack.KindNull:
		ins.Op = abcmodel.OpPushNull
		ins.Operands = nil
	default:
		ins.Op = abcmodel.OpPushUndefined
		ins.Operands = nil
	}
}
