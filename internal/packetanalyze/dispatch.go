// Package packetanalyze mines the packet dispatcher's control flow to
// recover a human-readable name for every concrete packet class: the
// dispatcher compares a category byte, then (inside that arm) a code byte,
// and the matched arm's only remaining job is to construct the packet
// instance that handles it — the only place in the whole build where a
// (category, code) pair and the class it names sit next to each other.
package packetanalyze

import "github.com/obfdofus/abcdeob/internal/abcmodel"

// maxSubHandlerDepth bounds the sub-handler recursion §4.7's "sub-handler
// dispatch" rule follows: a malformed or cyclic build could otherwise walk
// forever chasing getlex references back into itself.
const maxSubHandlerDepth = 6

// Route is one recovered (category, code) -> class mapping. Serverbound is
// set by the caller according to which anchor produced the route (the
// dispatcher method mined by WalkDispatcher is always clientbound; routes
// mined by MineServerboundRoutes are always serverbound) since nothing in
// the route's own shape distinguishes direction.
type Route struct {
	Category    int32
	Code        int32
	ClassName   int // index into Pool.Multinames
	Serverbound bool
}

// MineServerboundRoutes recovers (category, code) -> class routes for every
// class that extends base: a serverbound packet class passes its fixed
// category and code as literal arguments to the base constructor from its
// own instance-init, the construction-site counterpart to the dispatch
// table WalkDispatcher mines for the clientbound direction.
func MineServerboundRoutes(f *abcmodel.File, base *abcmodel.Class) []Route {
	baseName := f.Pool.MultinameString(base.Name)
	var routes []Route
	for _, c := range f.Classes {
		if f.Pool.MultinameString(c.SuperName) != baseName {
			continue
		}
		init := f.Methods[c.InstanceInit]
		if init == nil || !init.HasBody || init.Graph == nil {
			continue
		}
		if cat, code, ok := mineSuperArgs(init.Graph); ok {
			routes = append(routes, Route{Category: cat, Code: code, ClassName: c.Name, Serverbound: true})
		}
	}
	return routes
}

// mineSuperArgs takes the last two pushbyte/pushshort literals ahead of the
// first constructsuper preceded by at least two of them, as the base
// constructor's two literal numeric arguments: the category and code this
// packet class always sends.
func mineSuperArgs(g *abcmodel.Graph) (category, code int32, ok bool) {
	var vals []int32
	for ins := g.Head; ins != nil; ins = ins.Next {
		switch ins.Op {
		case abcmodel.OpPushByte, abcmodel.OpPushShort:
			vals = append(vals, int32(ins.Operands[0]))
		case abcmodel.OpConstructSuper:
			if len(vals) >= 2 {
				return vals[len(vals)-2], vals[len(vals)-1], true
			}
			vals = nil
		}
	}
	return 0, 0, false
}

// categoryCompare is the `getlex H; getproperty <field>; pushdouble <k>;
// ifne <else>` idiom §4.7 uses for both the outer category comparison and
// the inner code comparison.
type categoryCompare struct {
	value  int32
	elseTarget *abcmodel.Instruction
	after      *abcmodel.Instruction // first instruction of the matched (fallthrough) arm
}

func matchCategoryCompare(pool *abcmodel.Pool, ins *abcmodel.Instruction) (categoryCompare, bool) {
	if ins == nil || ins.Op != abcmodel.OpGetLex {
		return categoryCompare{}, false
	}
	getProp := ins.Next
	if getProp == nil || getProp.Op != abcmodel.OpGetProperty {
		return categoryCompare{}, false
	}
	push := getProp.Next
	if push == nil || push.Op != abcmodel.OpPushDouble {
		return categoryCompare{}, false
	}
	ifne := push.Next
	if ifne == nil || ifne.Op != abcmodel.OpIfNe || len(ifne.Targets) == 0 {
		return categoryCompare{}, false
	}
	return categoryCompare{
		value:      int32(pool.Doubles[push.Operands[0]]),
		elseTarget: ifne.Targets[0],
		after:      ifne.Next,
	}, true
}

// matchesNewClassSeq is the exact three-instruction shape a matched arm
// uses to build the packet instance it routes to: findpropstrict <Class>,
// getlocal1 (the source ByteArray), constructprop <Class> 1.
func matchesNewClassSeq(ins *abcmodel.Instruction) (classMultiname int, consumed *abcmodel.Instruction, ok bool) {
	if ins == nil || ins.Op != abcmodel.OpFindPropStrict {
		return 0, nil, false
	}
	second := ins.Next
	if second == nil || second.Op != abcmodel.OpGetLocal1 {
		return 0, nil, false
	}
	third := second.Next
	if third == nil || third.Op != abcmodel.OpConstructProp {
		return 0, nil, false
	}
	if int(third.Operands[0]) != int(ins.Operands[0]) {
		return 0, nil, false
	}
	return int(ins.Operands[0]), third, true
}

// subHandlerFingerprint is the six-opcode shape §4.7 gives for a
// sub-handler dispatch: getlex; getlocal1; getlex; getproperty;
// callpropvoid; returnvoid. The second getlex's operand names the
// sub-handler class; the getproperty's names the method to recurse into.
func matchesSubHandlerFingerprint(ins *abcmodel.Instruction) (classMultiname, methodMultiname int, ok bool) {
	seq := []abcmodel.Opcode{
		abcmodel.OpGetLex, abcmodel.OpGetLocal1, abcmodel.OpGetLex,
		abcmodel.OpGetProperty, abcmodel.OpCallPropVoid, abcmodel.OpReturnVoid,
	}
	cur := ins
	nodes := make([]*abcmodel.Instruction, 0, len(seq))
	for _, op := range seq {
		if cur == nil || cur.Op != op {
			return 0, 0, false
		}
		nodes = append(nodes, cur)
		cur = cur.Next
	}
	return int(nodes[2].Operands[0]), int(nodes[3].Operands[0]), true
}

// WalkDispatcher scans the packet handler's main dispatch method for every
// (category, code) -> class route, recursing into sub-handler classes (up
// to maxSubHandlerDepth) and skipping the special (0x3c, 0x03) tuple, which
// routes to the nested tribulle sub-protocol WalkTribulle mines separately.
func WalkDispatcher(f *abcmodel.File, g *abcmodel.Graph) []Route {
	return walkDispatcherDepth(f, g, 0)
}

func walkDispatcherDepth(f *abcmodel.File, g *abcmodel.Graph, depth int) []Route {
	if g == nil || depth > maxSubHandlerDepth {
		return nil
	}
	pool := f.Pool
	var routes []Route
	for ins := g.Head; ins != nil; ins = ins.Next {
		cat, ok := matchCategoryCompare(pool, ins)
		if !ok {
			continue
		}
		routes = append(routes, walkCategoryArm(f, cat, depth)...)
		// resume at the else target, so a code comparison inside the arm
		// is not read again as a category comparison of its own
		end := ins
		for end != nil && end.Next != cat.elseTarget {
			end = end.Next
		}
		if end == nil {
			break
		}
		ins = end
	}
	return routes
}

// walkCategoryArm scans the matched category arm (from cat.after up to a
// returnvoid or cat.elseTarget) for the inner code comparison, a direct
// construction, or a sub-handler recursion. §4.7's tie rule: stop scanning
// at the first constructprop, or at the else target — whichever comes
// first — since the producer never emits more than one construction per
// arm.
func walkCategoryArm(f *abcmodel.File, cat categoryCompare, depth int) []Route {
	pool := f.Pool
	for ins := cat.after; ins != nil && ins != cat.elseTarget; ins = ins.Next {
		if ins.Op == abcmodel.OpReturnVoid {
			return nil
		}
		if code, ok := matchCategoryCompare(pool, ins); ok {
			if cat.value == TribulleCategory && code.value == TribulleCode {
				return nil
			}
			if classMn, _, ok := matchesNewClassSeq(code.after); ok {
				return []Route{{Category: cat.value, Code: code.value, ClassName: classMn}}
			}
			return nil
		}
		if subClassMn, subMethodMn, ok := matchesSubHandlerFingerprint(ins); ok {
			return recurseSubHandler(f, cat.value, subClassMn, subMethodMn, depth)
		}
		if classMn, _, ok := matchesNewClassSeq(ins); ok {
			return []Route{{Category: cat.value, ClassName: classMn}}
		}
	}
	return nil
}

// recurseSubHandler resolves the sub-handler class referenced by a
// subHandlerFingerprint match and recursively walks its named method,
// tagging every route it finds with the outer category since the
// sub-handler itself only distinguishes by code.
func recurseSubHandler(f *abcmodel.File, category int32, classMultiname, methodMultiname int, depth int) []Route {
	className := f.Pool.MultinameString(classMultiname)
	methodName := f.Pool.MultinameString(methodMultiname)
	for _, c := range f.Classes {
		if f.Pool.MultinameString(c.Name) != className {
			continue
		}
		m := findTraitMethod(f, c, methodName)
		if m == nil {
			return nil
		}
		routes := walkDispatcherDepth(f, m.Graph, depth+1)
		for i := range routes {
			if routes[i].Code == 0 {
				routes[i].Category, routes[i].Code = category, routes[i].Category
			}
		}
		return routes
	}
	return nil
}

func findTraitMethod(f *abcmodel.File, c *abcmodel.Class, name string) *abcmodel.Method {
	for _, t := range append(append([]abcmodel.Trait{}, c.ClassTraits...), c.InstanceTraits...) {
		if t.Kind != abcmodel.TraitMethod {
			continue
		}
		if f.Pool.MultinameString(t.Name) != name {
			continue
		}
		if t.Method < 0 || t.Method >= len(f.Methods) {
			continue
		}
		m := f.Methods[t.Method]
		if m.HasBody && m.Graph != nil {
			return m
		}
	}
	return nil
}
