package graph

import "github.com/obfdofus/abcdeob/internal/abcmodel"

// Walk calls fn for every instruction in g, in order, stopping early if fn
// returns false. fn may detach the current instruction, since the next
// pointer is captured before the call.
func Walk(g *abcmodel.Graph, fn func(*abcmodel.Instruction) bool) {
	cur := g.Head
	for cur != nil {
		next := cur.Next
		if !fn(cur) {
			return
		}
		cur = next
	}
}

// FindFrom scans forward from start (inclusive) for the first instruction
// matching pred, stopping at the end of the graph.
func FindFrom(start *abcmodel.Instruction, pred func(*abcmodel.Instruction) bool) *abcmodel.Instruction {
	for cur := start; cur != nil; cur = cur.Next {
		if pred(cur) {
			return cur
		}
	}
	return nil
}

// Replace swaps ins for repl in place: repl inherits ins's position, jump
// sources and any exception overlay edges that referenced ins.
func Replace(g *abcmodel.Graph, ins, repl *abcmodel.Instruction) {
	repl.Prev, repl.Next = ins.Prev, ins.Next
	if ins.Prev != nil {
		ins.Prev.Next = repl
	}
	if ins.Next != nil {
		ins.Next.Prev = repl
	}
	if g.Head == ins {
		g.Head = repl
	}
	for _, src := range ins.JumpSources {
		for i, t := range src.Targets {
			if t == ins {
				src.Targets[i] = repl
			}
		}
	}
	repl.JumpSources = append(repl.JumpSources, ins.JumpSources...)

	for i := range g.ExceptionOverlay {
		edge := &g.ExceptionOverlay[i]
		if edge.From == ins {
			edge.From = repl
		}
		if edge.To == ins {
			edge.To = repl
		}
		if edge.Target == ins {
			edge.Target = repl
		}
	}

	ins.Next, ins.Prev, ins.Targets, ins.JumpSources = nil, nil, nil, nil
}

// InsertAfter splices repl into g immediately after ins.
func InsertAfter(g *abcmodel.Graph, ins, repl *abcmodel.Instruction) {
	old := ins.Next
	ins.Next = repl
	repl.Prev = ins
	repl.Next = old
	if old != nil {
		old.Prev = repl
	}
}
