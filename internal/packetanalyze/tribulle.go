package packetanalyze

import "github.com/obfdofus/abcdeob/internal/abcmodel"

// TribulleCategory and TribulleCode identify the nested sub-protocol this
// engine special-cases: every tribulle-wrapped message arrives as one
// outer packet (category 0x3c, code 0x03) whose payload is itself a
// second, shorter dispatch keyed by a sub-opcode carried inside the
// payload rather than the outer packet header.
const (
	TribulleCategory = 0x3c
	TribulleCode      = 0x03
)

// TribulleRoute is one recovered (sub-opcode, class) mapping inside the
// nested dispatch, tagged with the direction the route belongs to so the
// caller can place it in packets.tribulle.clientbound or
// packets.tribulle.serverbound.
type TribulleRoute struct {
	SubOpcode   int32
	ClassName   int
	Serverbound bool
}

// IsTribullePacket reports whether a (category, code) pair identifies the
// nested sub-protocol rather than an ordinary top-level packet.
func IsTribullePacket(category, code int32) bool {
	return category == TribulleCategory && code == TribulleCode
}

// WalkTribulle mines the nested sub-protocol per §4.7b, starting from the
// handler arm's first getlex: resolve the referenced class and its called
// trait, walk the typed-slot chain that getlex's getproperty steps follow
// to find the terminal class, then mine that terminal class's clientbound
// method (pushdouble/findpropstrict pairs) and serverbound id resolver
// (label/pushdouble/returnvalue fingerprints correlated against a
// lookupswitch) for routes.
func WalkTribulle(f *abcmodel.File, handlerGraph *abcmodel.Graph) []TribulleRoute {
	terminal, callMethod := resolveTribulleTerminal(f, handlerGraph)
	if terminal == nil || callMethod == nil {
		return nil
	}
	var routes []TribulleRoute
	routes = append(routes, clientboundTribulleRoutes(f, callMethod)...)
	if resolver := findIntReturningSingleParamMethod(f, terminal); resolver != nil {
		routes = append(routes, serverboundTribulleRoutes(f, resolver)...)
	}
	return routes
}

// resolveTribulleTerminal walks the handler arm's first getlex through
// zero or more getproperty steps, each required to name a Slot trait with
// a declared type, until it reaches a callproperty: the class the chain
// lands on is the terminal class, and the callproperty names the method on
// it (walking the super chain if the terminal class itself lacks that
// trait) whose return type is the tribulle base packet.
func resolveTribulleTerminal(f *abcmodel.File, g *abcmodel.Graph) (*abcmodel.Class, *abcmodel.Method) {
	if g == nil {
		return nil, nil
	}
	var start *abcmodel.Instruction
	for ins := g.Head; ins != nil && start == nil; ins = ins.Next {
		cat, ok := matchCategoryCompare(f.Pool, ins)
		if !ok || cat.value != TribulleCategory {
			continue
		}
		if code, ok := matchCategoryCompare(f.Pool, cat.after); ok && code.value == TribulleCode {
			start = code.after
		}
	}
	var first *abcmodel.Instruction
	for ins := start; ins != nil; ins = ins.Next {
		if ins.Op == abcmodel.OpGetLex {
			first = ins
			break
		}
	}
	if first == nil {
		return nil, nil
	}

	current := classByName(f, f.Pool.MultinameString(int(first.Operands[0])))
	if current == nil {
		return nil, nil
	}

	ins := first.Next
	for ins != nil && ins.Op == abcmodel.OpGetProperty {
		slotName := f.Pool.MultinameString(int(ins.Operands[0]))
		slot := findSlotTrait(f, current, slotName)
		if slot == nil || slot.TypeName <= 0 {
			return nil, nil
		}
		next := classByName(f, f.Pool.MultinameString(slot.TypeName))
		if next == nil {
			return nil, nil
		}
		current = next
		ins = ins.Next
	}
	if ins == nil || ins.Op != abcmodel.OpCallProperty {
		return nil, nil
	}
	methodName := f.Pool.MultinameString(int(ins.Operands[0]))
	m := findMethodWalkingSuper(f, current, methodName)
	return current, m
}

// clientboundTribulleRoutes implements §4.7b's pushdouble/findpropstrict
// pairing: each pushdouble followed by a later findpropstrict <C>
// associates the double with class <C>.
func clientboundTribulleRoutes(f *abcmodel.File, m *abcmodel.Method) []TribulleRoute {
	if m == nil || !m.HasBody || m.Graph == nil {
		return nil
	}
	var routes []TribulleRoute
	var pending *int32
	for ins := m.Graph.Head; ins != nil; ins = ins.Next {
		switch ins.Op {
		case abcmodel.OpPushDouble:
			v := int32(f.Pool.Doubles[ins.Operands[0]])
			pending = &v
		case abcmodel.OpFindPropStrict:
			if pending != nil {
				routes = append(routes, TribulleRoute{SubOpcode: *pending, ClassName: int(ins.Operands[0])})
				pending = nil
			}
		}
	}
	return routes
}

// serverboundTribulleRoutes implements §4.7b's serverbound id resolver
// walk: collect label->id pairs from every label;pushdouble;returnvalue
// fingerprint, collect (switch-index, class-name) pairs from the
// getlex/pushbyte runs leading up to the lookupswitch, then for each pair
// resolve the switch target at position index+1 (the first target is the
// default arm and is ignored) to the id its label fingerprint recorded.
func serverboundTribulleRoutes(f *abcmodel.File, m *abcmodel.Method) []TribulleRoute {
	if m == nil || !m.HasBody || m.Graph == nil {
		return nil
	}
	idByLabel := map[*abcmodel.Instruction]int32{}
	for ins := m.Graph.Head; ins != nil; ins = ins.Next {
		if ins.Op != abcmodel.OpLabel {
			continue
		}
		push := ins.Next
		if push == nil || push.Op != abcmodel.OpPushDouble {
			continue
		}
		ret := push.Next
		if ret == nil || ret.Op != abcmodel.OpReturnValue {
			continue
		}
		idByLabel[ins] = int32(f.Pool.Doubles[push.Operands[0]])
	}

	var sw *abcmodel.Instruction
	type indexedClass struct {
		index int
		name  string
	}
	var pairs []indexedClass
	for ins := m.Graph.Head; ins != nil; ins = ins.Next {
		if ins.Op != abcmodel.OpLookupSwitch {
			continue
		}
		sw = ins
		break
	}
	if sw == nil {
		return nil
	}
	var className string
	var haveName bool
	for ins := m.Graph.Head; ins != nil && ins != sw; ins = ins.Next {
		switch ins.Op {
		case abcmodel.OpGetLex:
			className = f.Pool.MultinameString(int(ins.Operands[0]))
			haveName = true
		case abcmodel.OpPushByte, abcmodel.OpPushShort:
			if haveName {
				pairs = append(pairs, indexedClass{index: int(ins.Operands[0]), name: className})
			}
		case abcmodel.OpGetLocal1:
			haveName = false
		}
	}

	var routes []TribulleRoute
	for _, p := range pairs {
		targetPos := p.index + 1
		if targetPos < 0 || targetPos >= len(sw.Targets) {
			continue
		}
		target := sw.Targets[targetPos]
		id, ok := idByLabel[target]
		if !ok {
			continue
		}
		c := classByName(f, p.name)
		if c == nil {
			continue
		}
		routes = append(routes, TribulleRoute{SubOpcode: id, ClassName: c.Name, Serverbound: true})
	}
	return routes
}

func classByName(f *abcmodel.File, name string) *abcmodel.Class {
	if name == "" || name == "*" {
		return nil
	}
	for _, c := range f.Classes {
		if f.Pool.MultinameString(c.Name) == name {
			return c
		}
	}
	return nil
}

func findSlotTrait(f *abcmodel.File, c *abcmodel.Class, name string) *abcmodel.Trait {
	for i := range c.InstanceTraits {
		t := &c.InstanceTraits[i]
		if (t.Kind != abcmodel.TraitSlot && t.Kind != abcmodel.TraitConst) {
			continue
		}
		if f.Pool.MultinameString(t.Name) == name {
			return t
		}
	}
	return nil
}

// findMethodWalkingSuper resolves a named instance method on c, walking up
// the super-class chain when c itself lacks the trait, the way an
// ActionScript method lookup would at runtime.
func findMethodWalkingSuper(f *abcmodel.File, c *abcmodel.Class, name string) *abcmodel.Method {
	for depth := 0; c != nil && depth < 16; depth++ {
		if m := findTraitMethod(f, c, name); m != nil {
			return m
		}
		c = classByName(f, f.Pool.MultinameString(c.SuperName))
	}
	return nil
}

func findIntReturningSingleParamMethod(f *abcmodel.File, c *abcmodel.Class) *abcmodel.Method {
	for _, t := range c.InstanceTraits {
		if t.Kind != abcmodel.TraitMethod {
			continue
		}
		if t.Method < 0 || t.Method >= len(f.Methods) {
			continue
		}
		m := f.Methods[t.Method]
		if m == nil || len(m.ParamTypes) != 1 {
			continue
		}
		if f.Pool.MultinameString(m.ReturnType) != "int" {
			continue
		}
		return m
	}
	return nil
}
