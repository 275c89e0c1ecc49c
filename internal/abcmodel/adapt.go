package abcmodel

import (
	"fmt"

	"github.com/kelvyne/as3"
	"github.com/kelvyne/as3/bytecode"
)

// FromLinked adapts a github.com/kelvyne/as3 linked AbcFile into this
// package's own mutable File. Every rewriter in this repository operates
// on the result, not on the as3 model directly: as3/bytecode's public
// surface (seen in 745c5412-d2protocolparser) is read-oriented
// (Disassemble + Instructions), with no attested mutate-and-re-encode path,
// so this adapter is the one place that type depends on it.
func FromLinked(linked *as3.AbcFile) (*File, error) {
	pool := adaptPool(&linked.Source.ConstantPool)

	f := &File{
		Pool:         pool,
		MinorVersion: linked.Source.MinorVersion,
		MajorVersion: linked.Source.MajorVersion,
	}

	f.Methods = make([]*Method, len(linked.Methods))
	for i, m := range linked.Methods {
		adapted, err := adaptMethod(linked, m)
		if err != nil {
			return nil, fmt.Errorf("abcmodel: method %d: %w", i, err)
		}
		f.Methods[i] = adapted
	}

	f.Classes = make([]*Class, len(linked.Classes))
	for i, c := range linked.Classes {
		f.Classes[i] = adaptClass(pool, c)
	}

	return f, nil
}

func adaptPool(cp *bytecode.ConstantPool) *Pool {
	p := NewPool()
	p.Ints = append([]int32{}, cp.Integers...)
	p.UInts = append([]uint32{}, cp.UInteger...)
	p.Doubles = append([]float64{}, cp.Doubles...)
	p.Strings = append([]string{}, cp.Strings...)

	p.Namespaces = make([]Namespace, len(cp.Namespaces))
	for i, ns := range cp.Namespaces {
		p.Namespaces[i] = Namespace{Kind: byte(ns.Kind), Name: ns.Name}
	}

	p.NamespaceSets = make([][]int, len(cp.NamespaceSets))
	for i, set := range cp.NamespaceSets {
		p.NamespaceSets[i] = append([]int{}, set...)
	}

	p.Multinames = make([]Multiname, len(cp.Multinames))
	for i, mn := range cp.Multinames {
		p.Multinames[i] = Multiname{
			Kind:         MultinameKind(mn.Kind),
			Name:         mn.Name,
			Namespace:    mn.Namespace,
			NamespaceSet: mn.NamespaceSet,
			Params:       append([]int{}, mn.Params...),
		}
	}
	return p
}

func adaptInstruction(in bytecode.Instr) *Instruction {
	op := opcodeByName(in.Model.Name)
	operands := make([]int32, len(in.Operands))
	for i, v := range in.Operands {
		operands[i] = int32(v)
	}
	return &Instruction{Op: op, Operands: operands}
}

// adaptMethod decodes a method body already disassembled by as3/bytecode
// into the flat as3.bytecode.Instr form, relinking it into this package's
// doubly-linked Graph with resolved jump targets. as3/bytecode resolves
// branch targets to absolute instruction indices at disassembly time
// (unlike the raw byte offsets this package's own DecodeMethodBody parses),
// so relinking here is index-based rather than address-based.
func adaptMethod(linked *as3.AbcFile, m as3.Method) (*Method, error) {
	out := &Method{
		Name:       m.Source.Name,
		ReturnType: m.Source.ReturnType,
		Flags:      m.Source.Flags,
	}
	for _, pt := range m.Source.ParamTypes {
		out.ParamTypes = append(out.ParamTypes, pt)
	}

	if m.BodyInfo == nil {
		return out, nil
	}
	out.HasBody = true
	out.MaxStack = m.BodyInfo.MaxStack
	out.LocalCount = m.BodyInfo.LocalCount
	out.InitScopeDepth = m.BodyInfo.InitScopeDepth
	out.MaxScopeDepth = m.BodyInfo.MaxScopeDepth

	if err := m.BodyInfo.Disassemble(); err != nil {
		return nil, fmt.Errorf("disassemble: %w", err)
	}

	src := m.BodyInfo.Instructions
	nodes := make([]*Instruction, len(src))
	g := &Graph{}
	var prev *Instruction
	for i, in := range src {
		n := adaptInstruction(in)
		nodes[i] = n
		if prev == nil {
			g.Head = n
		} else {
			prev.Next = n
			n.Prev = prev
		}
		prev = n
	}
	for i, in := range src {
		if !nodes[i].Op.IsJump() {
			continue
		}
		for _, idx := range in.Operands {
			ii := int(idx)
			if ii < 0 || ii >= len(nodes) {
				continue
			}
			target := nodes[ii]
			nodes[i].Targets = append(nodes[i].Targets, target)
			target.JumpSources = append(target.JumpSources, nodes[i])
		}
	}
	out.Graph = g

	for _, exc := range m.BodyInfo.Exceptions {
		from, to, target := -1, -1, -1
		if exc.From >= 0 && exc.From < len(nodes) {
			from = exc.From
		}
		if exc.To >= 0 && exc.To < len(nodes) {
			to = exc.To
		}
		if exc.Target >= 0 && exc.Target < len(nodes) {
			target = exc.Target
		}
		out.Exceptions = append(out.Exceptions, Exception{
			From: from, To: to, Target: target,
			ExcType: exc.ExcType, VarName: exc.VarName,
		})
		edge := ExceptionEdge{}
		if from >= 0 {
			edge.From = nodes[from]
		}
		if to >= 0 {
			edge.To = nodes[to]
		}
		if target >= 0 {
			edge.Target = nodes[target]
		}
		out.Graph.ExceptionOverlay = append(out.Graph.ExceptionOverlay, edge)
	}

	return out, nil
}

func adaptTrait(t as3.TraitSource) Trait {
	trait := Trait{
		Name:       t.Name,
		Method:     t.Method,
		Attributes: t.Attributes,
	}
	switch t.Kind {
	case bytecode.TraitsInfoSlot:
		trait.Kind = TraitSlot
	case bytecode.TraitsInfoConst:
		trait.Kind = TraitConst
	case bytecode.TraitsInfoMethod:
		trait.Kind = TraitMethod
	case bytecode.TraitsInfoGetter:
		trait.Kind = TraitGetter
	case bytecode.TraitsInfoSetter:
		trait.Kind = TraitSetter
	case bytecode.TraitsInfoClass:
		trait.Kind = TraitClass
		trait.ClassIndex = t.ClassIndex
	case bytecode.TraitsInfoFunction:
		trait.Kind = TraitFunction
	}
	if trait.Kind == TraitSlot || trait.Kind == TraitConst {
		trait.TypeName = t.Typename
		trait.ValueIndex = t.VIndex
		trait.ValueKind = slotValueKind(t.VKind)
		trait.SlotID = t.SlotID
	}
	return trait
}

func slotValueKind(k byte) SlotValueKind {
	switch k {
	case bytecode.SlotKindInt:
		return SlotValueInt
	case bytecode.SlotKindUInt:
		return SlotValueUInt
	case bytecode.SlotKindDouble:
		return SlotValueDouble
	case bytecode.SlotKindUtf8:
		return SlotValueString
	case bytecode.SlotKindNamespace:
		return SlotValueNamespace
	case bytecode.SlotKindTrue:
		return SlotValueTrue
	case bytecode.SlotKindFalse:
		return SlotValueFalse
	case bytecode.SlotKindNull:
		return SlotValueNull
	default:
		return SlotValueUndefined
	}
}

func adaptClass(pool *Pool, c as3.Class) *Class {
	cls := &Class{
		InstanceInit: c.ClassInfo.IInit,
		ClassInit:    c.ClassInfo.CInit,
		Flags:        c.Flags,
		SuperName:    -1,
		ProtectedNS:  -1,
	}
	cls.Name = resolveMultinameByString(pool, c.Name)
	if c.SuperName != "" {
		cls.SuperName = resolveMultinameByString(pool, c.SuperName)
	}
	if c.Flags&ClassFlagProtectedNS != 0 && c.ProtectedNs != "" {
		cls.ProtectedNS = resolveNamespaceByURI(pool, c.ProtectedNs)
	}
	for _, iface := range c.Interfaces {
		if idx := resolveMultinameByString(pool, iface); idx > 0 {
			cls.Interfaces = append(cls.Interfaces, idx)
		}
	}
	for _, s := range c.ClassTraits.Slots {
		cls.ClassTraits = append(cls.ClassTraits, adaptTrait(s.Source))
	}
	for _, m := range c.ClassTraits.Methods {
		cls.ClassTraits = append(cls.ClassTraits, adaptTrait(m.Source))
	}
	for _, s := range c.InstanceTraits.Slots {
		cls.InstanceTraits = append(cls.InstanceTraits, adaptTrait(s.Source))
	}
	for _, m := range c.InstanceTraits.Methods {
		cls.InstanceTraits = append(cls.InstanceTraits, adaptTrait(m.Source))
	}
	return cls
}

// resolveMultinameByString finds the constant pool multiname whose bare
// name string equals name, the same linear scan adaptClass already used for
// the class's own QName (as3 resolves Class.Name/SuperName/interface names
// to plain strings rather than pool indices, mirroring the flattening it
// already does for Namespace).
func resolveMultinameByString(pool *Pool, name string) int {
	if name == "" {
		return -1
	}
	for i, mn := range pool.Multinames {
		if mn.Name >= 0 && pool.String(mn.Name) == name {
			return i
		}
	}
	return -1
}

// resolveNamespaceByURI finds the constant pool namespace entry whose URI
// string equals uri.
func resolveNamespaceByURI(pool *Pool, uri string) int {
	for i, ns := range pool.Namespaces {
		if ns.Name >= 0 && pool.String(ns.Name) == uri {
			return i
		}
	}
	return -1
}

// opcodeByName resolves a mnemonic reported by as3/bytecode's disassembler
// (the same strings checkPattern in 745c5412-d2protocolparser matches
// against, e.g. "getlex", "callproperty") back to this package's Opcode.
func opcodeByName(name string) Opcode {
	for op, n := range OpcodeNames {
		if n == name {
			return op
		}
	}
	return OpNop
}
