package abcmodel

import "fmt"

func writeU30(buf []byte, v int32) []byte {
	u := uint32(v)
	for {
		b := byte(u & 0x7f)
		u >>= 7
		if u != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			break
		}
	}
	return buf
}

func writeS24(buf []byte, v int32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16))
}

// EncodeMethodBody serializes g back into raw ABC instruction bytes.
//
// Branch offsets are relative to the byte right after the encoded
// instruction, and an instruction's own encoded length can change between
// decode and encode (an inlined constant may now fit in a pushbyte instead
// of a pushint, for example), so addresses have to be fixed before offsets
// can be computed. Two passes are enough: the first computes every
// instruction's byte length and address, the second emits the bytes,
// resolving each branch offset from those addresses as it goes (no
// fixed-point iteration is needed because s24 operands are fixed-width, so
// an offset's value never changes an instruction's length).
func EncodeMethodBody(g *Graph) ([]byte, error) {
	instrs := g.Instructions()

	// pass 1: compute each instruction's address and byte length.
	addr := make(map[*Instruction]int, len(instrs))
	length := make(map[*Instruction]int, len(instrs))
	pos := 0
	for _, ins := range instrs {
		addr[ins] = pos
		n := instructionLength(ins)
		length[ins] = n
		pos += n
	}
	total := pos

	// pass 2: emit bytes, resolving branch offsets using the addresses
	// computed above.
	out := make([]byte, 0, total)
	for _, ins := range instrs {
		out = append(out, byte(ins.Op))
		switch operandKinds[ins.Op] {
		case operandNone:
		case operandU8:
			v := ins.Operands[0]
			if ins.Op == OpPushByte && v < 0 {
				v += 0x100
			}
			out = append(out, byte(v))
		case operandU30:
			out = writeU30(out, ins.Operands[0])
		case operandU30x2:
			out = writeU30(out, ins.Operands[0])
			out = writeU30(out, ins.Operands[1])
		case operandS24:
			if len(ins.Targets) != 1 {
				return nil, fmt.Errorf("abcmodel: %s at %d has %d targets, want 1", ins.Op.Name(), addr[ins], len(ins.Targets))
			}
			base := addr[ins] + length[ins]
			off := resolveTarget(ins.Targets[0], addr, length) - base
			out = writeS24(out, off)
		case operandSwitch:
			if len(ins.Targets) < 1 {
				return nil, fmt.Errorf("abcmodel: lookupswitch at %d has no targets", addr[ins])
			}
			base := addr[ins] + 1
			out = writeS24(out, resolveTarget(ins.Targets[0], addr, length)-base)
			caseCount := int32(len(ins.Targets) - 2)
			out = writeU30(out, caseCount)
			for _, t := range ins.Targets[1:] {
				out = writeS24(out, resolveTarget(t, addr, length)-base)
			}
		case operandDebug:
			out = append(out, byte(ins.Operands[0]))
			out = writeU30(out, ins.Operands[1])
			out = append(out, byte(ins.Operands[2]))
			out = writeU30(out, ins.Operands[3])
		}
	}
	return out, nil
}

// resolveTarget returns the address a branch to target should encode,
// falling back to the end of the stream if the target was detached without
// being redirected (internal/graph's detachment invariants should make this
// unreachable in practice; it exists as a defensive fallback).
func resolveTarget(target *Instruction, addr, length map[*Instruction]int) int32 {
	if target == nil {
		total := 0
		for _, l := range length {
			total += l
		}
		return int32(total)
	}
	return int32(addr[target])
}

func instructionLength(ins *Instruction) int {
	n := 1
	switch operandKinds[ins.Op] {
	case operandNone:
	case operandU8:
		n++
	case operandU30:
		n += u30Len(ins.Operands[0])
	case operandU30x2:
		n += u30Len(ins.Operands[0]) + u30Len(ins.Operands[1])
	case operandS24:
		n += 3
	case operandSwitch:
		n += 3
		n += u30Len(int32(len(ins.Targets) - 2))
		n += 3 * (len(ins.Targets) - 1)
	case operandDebug:
		n += 1 + u30Len(ins.Operands[1]) + 1 + u30Len(ins.Operands[3])
	}
	return n
}

func u30Len(v int32) int {
	u := uint32(v)
	n := 1
	for u >>= 7; u != 0; u >>= 7 {
		n++
	}
	return n
}
