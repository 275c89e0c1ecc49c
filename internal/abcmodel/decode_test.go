package abcmodel

import "testing"

// encodeSimple builds a tiny method body by hand: pushbyte 5, pushbyte 3,
// add, returnvalue.
func encodeSimple() []byte {
	var buf []byte
	buf = append(buf, byte(OpPushByte), 5)
	buf = append(buf, byte(OpPushByte), 3)
	buf = append(buf, byte(OpAdd))
	buf = append(buf, byte(OpReturnValue))
	return buf
}

func TestDecodeMethodBodyLinearSequence(t *testing.T) {
	g, err := DecodeMethodBody(encodeSimple())
	if err != nil {
		t.Fatalf("DecodeMethodBody: %v", err)
	}
	instrs := g.Instructions()
	if len(instrs) != 4 {
		t.Fatalf("got %d instructions, want 4", len(instrs))
	}
	wantOps := []Opcode{OpPushByte, OpPushByte, OpAdd, OpReturnValue}
	for i, want := range wantOps {
		if instrs[i].Op != want {
			t.Fatalf("instr %d: op = %s, want %s", i, instrs[i].Op.Name(), want.Name())
		}
	}
	if instrs[0].Operands[0] != 5 || instrs[1].Operands[0] != 3 {
		t.Fatalf("pushbyte operands = %v, %v, want 5, 3", instrs[0].Operands, instrs[1].Operands)
	}
}

func TestDecodeMethodBodyResolvesJump(t *testing.T) {
	// jump +0 (to the instruction right after it), then returnvoid.
	var buf []byte
	buf = append(buf, byte(OpJump), 0, 0, 0)
	buf = append(buf, byte(OpReturnVoid))

	g, err := DecodeMethodBody(buf)
	if err != nil {
		t.Fatalf("DecodeMethodBody: %v", err)
	}
	instrs := g.Instructions()
	if len(instrs[0].Targets) != 1 {
		t.Fatalf("jump has %d targets, want 1", len(instrs[0].Targets))
	}
	if instrs[0].Targets[0] != instrs[1] {
		t.Fatalf("jump target = %v, want the returnvoid instruction", instrs[0].Targets[0])
	}
	if len(instrs[1].JumpSources) != 1 || instrs[1].JumpSources[0] != instrs[0] {
		t.Fatalf("returnvoid's JumpSources not populated correctly")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := encodeSimple()
	g, err := DecodeMethodBody(original)
	if err != nil {
		t.Fatalf("DecodeMethodBody: %v", err)
	}
	out, err := EncodeMethodBody(g)
	if err != nil {
		t.Fatalf("EncodeMethodBody: %v", err)
	}
	if len(out) != len(original) {
		t.Fatalf("round-tripped length = %d, want %d", len(out), len(original))
	}
	for i := range original {
		if out[i] != original[i] {
			t.Fatalf("byte %d: got %#x, want %#x", i, out[i], original[i])
		}
	}
}

func TestEncodeDecodeRoundTripWithJump(t *testing.T) {
	var buf []byte
	buf = append(buf, byte(OpJump), 0, 0, 0)
	buf = append(buf, byte(OpReturnVoid))

	g, err := DecodeMethodBody(buf)
	if err != nil {
		t.Fatalf("DecodeMethodBody: %v", err)
	}
	out, err := EncodeMethodBody(g)
	if err != nil {
		t.Fatalf("EncodeMethodBody: %v", err)
	}
	g2, err := DecodeMethodBody(out)
	if err != nil {
		t.Fatalf("DecodeMethodBody(re-encoded): %v", err)
	}
	instrs := g2.Instructions()
	if instrs[0].Targets[0] != instrs[1] {
		t.Fatalf("re-encoded jump target drifted")
	}
}
