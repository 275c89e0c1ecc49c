package abcmodel

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeFile serializes f back into a raw ABC file body (everything after
// the SWF DoABC tag's own header), the write-side counterpart to the
// as3/bytecode read path FromLinked builds on. No published dependency in
// this engine's stack offers ABC *encoding*; the format itself is fixed and
// documented by the AVM2 specification, so this is a direct transcription
// of it rather than an invented one, using the same u30/s24 primitives
// abcmodel/encode.go already implements for method bodies.
func EncodeFile(f *File) ([]byte, error) {
	out := make([]byte, 0, 4096)
	var le [2]byte
	binary.LittleEndian.PutUint16(le[:], f.MinorVersion)
	out = append(out, le[:]...)
	binary.LittleEndian.PutUint16(le[:], f.MajorVersion)
	out = append(out, le[:]...)

	out = encodePool(out, f.Pool)

	out = writeU30(out, int32(len(f.Methods)))
	for i, m := range f.Methods {
		out = encodeMethodInfo(out, m)
		_ = i
	}

	out = writeU30(out, int32(len(f.Metadata)))
	for _, md := range f.Metadata {
		out = writeU30(out, int32(md.Name))
		out = writeU30(out, int32(len(md.Keys)))
		for _, k := range md.Keys {
			out = writeU30(out, int32(k))
		}
		for _, v := range md.Values {
			out = writeU30(out, int32(v))
		}
	}

	out = writeU30(out, int32(len(f.Classes)))
	for _, c := range f.Classes {
		out = encodeInstanceInfo(out, c)
	}
	for _, c := range f.Classes {
		out = writeU30(out, int32(c.ClassInit))
		out = encodeTraits(out, c.ClassTraits)
	}

	out = writeU30(out, int32(len(f.Scripts)))
	for _, s := range f.Scripts {
		out = writeU30(out, int32(s.InitMethod))
		out = encodeTraits(out, s.Traits)
	}

	bodies := make([]*Method, 0, len(f.Methods))
	bodyIndex := make([]int, 0, len(f.Methods))
	for i, m := range f.Methods {
		if m.HasBody {
			bodies = append(bodies, m)
			bodyIndex = append(bodyIndex, i)
		}
	}
	out = writeU30(out, int32(len(bodies)))
	for j, m := range bodies {
		var err error
		out, err = encodeMethodBodyInfo(out, bodyIndex[j], m)
		if err != nil {
			return nil, fmt.Errorf("abcmodel: encoding body for method %d: %w", bodyIndex[j], err)
		}
	}

	return out, nil
}

func max0(i int) int32 {
	if i < 0 {
		return 0
	}
	return int32(i)
}

func encodePool(out []byte, p *Pool) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	countOf := func(n int) int32 {
		if n <= 1 {
			return 0
		}
		return int32(n)
	}

	out = writeU30(out, countOf(len(p.Ints)))
	for i := 1; i < len(p.Ints); i++ {
		out = writeU30(out, p.Ints[i])
	}
	out = writeU30(out, countOf(len(p.UInts)))
	for i := 1; i < len(p.UInts); i++ {
		out = writeU30(out, int32(p.UInts[i]))
	}
	out = writeU30(out, countOf(len(p.Doubles)))
	for i := 1; i < len(p.Doubles); i++ {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(p.Doubles[i]))
		out = append(out, b[:]...)
	}
	out = writeU30(out, countOf(len(p.Strings)))
	for i := 1; i < len(p.Strings); i++ {
		s := []byte(p.Strings[i])
		out = writeU30(out, int32(len(s)))
		out = append(out, s...)
	}
	out = writeU30(out, countOf(len(p.Namespaces)))
	for i := 1; i < len(p.Namespaces); i++ {
		out = append(out, p.Namespaces[i].Kind)
		out = writeU30(out, max0(p.Namespaces[i].Name))
	}
	out = writeU30(out, countOf(len(p.NamespaceSets)))
	for i := 1; i < len(p.NamespaceSets); i++ {
		set := p.NamespaceSets[i]
		out = writeU30(out, int32(len(set)))
		for _, ns := range set {
			out = writeU30(out, max0(ns))
		}
	}
	out = writeU30(out, countOf(len(p.Multinames)))
	for i := 1; i < len(p.Multinames); i++ {
		out = encodeMultiname(out, p.Multinames[i])
	}
	return out
}

func encodeMultiname(out []byte, mn Multiname) []byte {
	out = append(out, byte(mn.Kind))
	switch mn.Kind {
	case MultinameQName, MultinameQNameA:
		out = writeU30(out, max0(mn.Namespace))
		out = writeU30(out, max0(mn.Name))
	case MultinameRTQName, MultinameRTQNameA:
		out = writeU30(out, max0(mn.Name))
	case MultinameRTQNameL, MultinameRTQNameLA:
		// no operands
	case MultinameMultiname, MultinameMultinameA:
		out = writeU30(out, max0(mn.Name))
		out = writeU30(out, max0(mn.NamespaceSet))
	case MultinameMultinameL, MultinameMultinameLA:
		out = writeU30(out, max0(mn.NamespaceSet))
	case MultinameTypename:
		out = writeU30(out, max0(mn.Name))
		out = writeU30(out, int32(len(mn.Params)))
		for _, p := range mn.Params {
			out = writeU30(out, max0(p))
		}
	}
	return out
}

func encodeMethodInfo(out []byte, m *Method) []byte {
	out = writeU30(out, int32(len(m.ParamTypes)))
	out = writeU30(out, max0(m.ReturnType))
	for _, pt := range m.ParamTypes {
		out = writeU30(out, max0(pt))
	}
	out = writeU30(out, max0(m.Name))
	out = append(out, m.Flags)
	return out
}

func encodeInstanceInfo(out []byte, c *Class) []byte {
	out = writeU30(out, max0(c.Name))
	out = writeU30(out, max0(c.SuperName))
	out = append(out, c.Flags)
	if c.Flags&ClassFlagProtectedNS != 0 {
		out = writeU30(out, max0(c.ProtectedNS))
	}
	out = writeU30(out, int32(len(c.Interfaces)))
	for _, iface := range c.Interfaces {
		out = writeU30(out, max0(iface))
	}
	out = writeU30(out, int32(c.InstanceInit))
	out = encodeTraits(out, c.InstanceTraits)
	return out
}

func encodeTraits(out []byte, traits []Trait) []byte {
	out = writeU30(out, int32(len(traits)))
	for _, t := range traits {
		out = encodeTrait(out, t)
	}
	return out
}

func encodeTrait(out []byte, t Trait) []byte {
	out = writeU30(out, max0(t.Name))
	out = append(out, (t.Attributes<<4)|byte(t.Kind))
	switch t.Kind {
	case TraitSlot, TraitConst:
		out = writeU30(out, int32(t.SlotID))
		out = writeU30(out, max0(t.TypeName))
		out = writeU30(out, max0(t.ValueIndex))
		if t.ValueIndex != 0 {
			out = append(out, byte(t.ValueKind))
		}
	case TraitClass:
		out = writeU30(out, int32(t.SlotID))
		out = writeU30(out, int32(t.ClassIndex))
	case TraitFunction:
		out = writeU30(out, int32(t.SlotID))
		out = writeU30(out, int32(t.Method))
	case TraitMethod, TraitGetter, TraitSetter:
		out = writeU30(out, int32(t.SlotID))
		out = writeU30(out, int32(t.Method))
	}
	out = writeU30(out, int32(len(t.Metadata)))
	for _, md := range t.Metadata {
		out = writeU30(out, int32(md))
	}
	return out
}

func encodeMethodBodyInfo(out []byte, methodIndex int, m *Method) ([]byte, error) {
	out = writeU30(out, int32(methodIndex))
	out = writeU30(out, int32(m.MaxStack))
	out = writeU30(out, int32(m.LocalCount))
	out = writeU30(out, int32(m.InitScopeDepth))
	out = writeU30(out, int32(m.MaxScopeDepth))

	code, err := EncodeMethodBody(m.Graph)
	if err != nil {
		return nil, err
	}
	out = writeU30(out, int32(len(code)))
	out = append(out, code...)

	out = writeU30(out, int32(len(m.Exceptions)))
	for _, ex := range m.Exceptions {
		from, to, target := resolveExceptionAddrs(m.Graph, ex)
		out = writeU30(out, int32(from))
		out = writeU30(out, int32(to))
		out = writeU30(out, int32(target))
		out = writeU30(out, max0(ex.ExcType))
		out = writeU30(out, max0(ex.VarName))
	}

	out = encodeTraits(out, m.Traits)
	return out, nil
}

// resolveExceptionAddrs maps the handle-based From/To/Target instruction
// indices back to byte addresses, walking the graph in the same order
// EncodeMethodBody's own address pass does.
func resolveExceptionAddrs(g *Graph, ex Exception) (from, to, target int) {
	if g == nil {
		return 0, 0, 0
	}
	addr := 0
	i := 0
	for ins := g.Head; ins != nil; ins = ins.Next {
		if i == ex.From {
			from = addr
		}
		if i == ex.To {
			to = addr
		}
		if i == ex.Target {
			target = addr
		}
		addr += instructionLength(ins)
		i++
	}
	return
}
