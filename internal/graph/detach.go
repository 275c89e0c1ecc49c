// Package graph provides structural operations on a decoded method body's
// instruction list (abcmodel.Graph): detaching, replacing or inserting an
// instruction while keeping every jump, exception-range and head reference
// consistent. Turning a graph back into bytes is abcmodel.EncodeMethodBody's
// job, not this package's.
package graph

import "github.com/obfdofus/abcdeob/internal/abcmodel"

// Detach removes ins from g, relinking around it and redirecting every
// reference that pointed at it to ins.Next. Detaching the last instruction
// of a method body is a caller error (there must always be a terminating
// return/throw) and panics.
//
// Four invariants are maintained so the graph stays walkable and
// serializable after the removal:
//
//  1. sibling relink — ins.Prev.Next and ins.Next.Prev are updated to
//     skip ins.
//  2. jump-target redirect — every instruction that targeted ins (via
//     ins.JumpSources) now targets ins.Next instead.
//  3. exception-record redirect — every exception overlay edge whose
//     From/To/Target was ins now points at ins.Next instead.
//  4. head-pointer advance — if ins was g.Head, g.Head becomes ins.Next.
func Detach(g *abcmodel.Graph, ins *abcmodel.Instruction) {
	if ins.Next == nil {
		panic("graph: cannot detach the last instruction of a method body")
	}
	next := ins.Next

	// 1. sibling relink
	if ins.Prev != nil {
		ins.Prev.Next = next
	}
	next.Prev = ins.Prev

	// 4. head-pointer advance
	if g.Head == ins {
		g.Head = next
	}

	// 2. jump-target redirect
	for _, src := range ins.JumpSources {
		for i, t := range src.Targets {
			if t == ins {
				src.Targets[i] = next
				next.JumpSources = append(next.JumpSources, src)
			}
		}
	}
	ins.JumpSources = nil

	// 3. exception-record redirect
	for i := range g.ExceptionOverlay {
		edge := &g.ExceptionOverlay[i]
		if edge.From == ins {
			edge.From = next
		}
		if edge.To == ins {
			edge.To = next
		}
		if edge.Target == ins {
			edge.Target = next
		}
	}

	ins.Next = nil
	ins.Prev = nil
	ins.Targets = nil
}

// DetachRange detaches every instruction from first through last inclusive,
// in order. first and last must belong to the same graph, with last
// reachable from first by following Next.
func DetachRange(g *abcmodel.Graph, first, last *abcmodel.Instruction) {
	cur := first
	for cur != last {
		toDrop := cur
		cur = cur.Next
		Detach(g, toDrop)
	}
	Detach(g, last)
}
