package simplify

import "github.com/obfdofus/abcdeob/internal/abcmodel"

// rewriteLiteral turns ins in place into the smallest push instruction
// that reproduces v, picking pushbyte/pushshort/pushint/pushdouble exactly
// the way the original stripper's edit_ins did: values under 0x80 fit in a
// signed pushbyte, values under 0x8000 fit in pushshort, everything else
// needs a constant-pool entry.
func rewriteLiteral(pool *abcmodel.Pool, ins *abcmodel.Instruction, v value) {
	switch v.kind {
	case double:
		iv := int64(v.d)
		if float64(iv) == v.d && iv >= -0x80 && iv < 0x80 {
			ins.Op = abcmodel.OpPushByte
			ins.Operands = []int32{int32(iv)}
			return
		}
		if float64(iv) == v.d && iv >= 0 && iv < 0x8000 {
			ins.Op = abcmodel.OpPushShort
			ins.Operands = []int32{int32(iv)}
			return
		}
		if float64(iv) == v.d {
			idx := pool.AppendInt(int32(iv))
			ins.Op = abcmodel.OpPushInt
			ins.Operands = []int32{int32(idx)}
			return
		}
		idx := pool.AppendDouble(v.d)
		ins.Op = abcmodel.OpPushDouble
		ins.Operands = []int32{int32(idx)}
	case boolean:
		if v.b {
			ins.Op = abcmodel.OpPushTrue
		} else {
			ins.Op = abcmodel.OpPushFalse
		}
		ins.Operands = nil
	case str:
		idx := pool.AppendString(v.s)
		ins.Op = abcmodel.OpPushString
		ins.Operands = []int32{int32(idx)}
	}
}
