package abcmodel

import "sync"

// Pool is the ABC constant pool: append-only tables of ints, uints,
// doubles, strings, namespaces, namespace sets and multinames. Every entry
// is 1-indexed in the real format (index 0 means "absent/any"); this model
// keeps that convention so indices read out of a parsed file need no
// translation.
//
// The unscrambling phase runs one goroutine per method body
// (internal/orchestrator) and every one of them may need to intern a new
// constant when inlining a static-class value. The
// mutex below is the single piece of shared mutable state that phase
// touches concurrently; every other structure in this package is only
// ever written by the single goroutine that owns the enclosing method.
type Pool struct {
	mu sync.Mutex

	Ints       []int32
	UInts      []uint32
	Doubles    []float64
	Strings    []string
	Namespaces []Namespace
	NamespaceSets [][]int
	Multinames []Multiname

	stringIndex map[string]int
	nsIndex     map[NamespaceKey]int
}

// NewPool returns an empty pool with index 0 reserved in every table, as
// the ABC format requires.
func NewPool() *Pool {
	return &Pool{
		Ints:          []int32{0},
		UInts:         []uint32{0},
		Doubles:       []float64{0},
		Strings:       []string{""},
		Namespaces:    []Namespace{{}},
		NamespaceSets: [][]int{nil},
		Multinames:    []Multiname{{}},
		stringIndex:   map[string]int{},
		nsIndex:       map[NamespaceKey]int{},
	}
}

// AppendInt interns v, returning its existing index if already present.
func (p *Pool) AppendInt(v int32) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, e := range p.Ints {
		if e == v {
			return i
		}
	}
	p.Ints = append(p.Ints, v)
	return len(p.Ints) - 1
}

// AppendUInt interns v, returning its existing index if already present.
func (p *Pool) AppendUInt(v uint32) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, e := range p.UInts {
		if e == v {
			return i
		}
	}
	p.UInts = append(p.UInts, v)
	return len(p.UInts) - 1
}

// AppendDouble interns v, returning its existing index if already present.
func (p *Pool) AppendDouble(v float64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, e := range p.Doubles {
		if e == v {
			return i
		}
	}
	p.Doubles = append(p.Doubles, v)
	return len(p.Doubles) - 1
}

// AppendString interns s, returning its existing index if already present.
func (p *Pool) AppendString(s string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i, ok := p.stringIndex[s]; ok {
		return i
	}
	p.Strings = append(p.Strings, s)
	i := len(p.Strings) - 1
	p.stringIndex[s] = i
	return i
}

// AppendNamespace interns a namespace of the given kind and URI string
// index, returning its existing index if an equivalent entry exists.
func (p *Pool) AppendNamespace(kind byte, nameStringIndex int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	name := ""
	if nameStringIndex >= 0 && nameStringIndex < len(p.Strings) {
		name = p.Strings[nameStringIndex]
	}
	key := NamespaceKey{Kind: kind, Name: name}
	if i, ok := p.nsIndex[key]; ok {
		return i
	}
	p.Namespaces = append(p.Namespaces, Namespace{Kind: kind, Name: nameStringIndex})
	i := len(p.Namespaces) - 1
	p.nsIndex[key] = i
	return i
}

// AppendNamespaceSet appends a new namespace set and returns its index.
// Namespace sets are not interned: two sets with identical members but
// different provenance are kept distinct, matching what real AVM2 compilers
// emit.
func (p *Pool) AppendNamespaceSet(nsIndices []int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.NamespaceSets = append(p.NamespaceSets, nsIndices)
	return len(p.NamespaceSets) - 1
}

// AppendMultiname appends a new multiname entry and returns its index.
// Multinames are not interned here: the unscrambler only ever constructs a
// fresh QName when inlining a reference, and deduplicating would require
// comparing namespace-set membership order, which AVM2 treats as
// significant.
func (p *Pool) AppendMultiname(m Multiname) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Multinames = append(p.Multinames, m)
	return len(p.Multinames) - 1
}

// String returns the string at index i, or "" for the reserved index 0.
func (p *Pool) String(i int) string {
	if i <= 0 || i >= len(p.Strings) {
		return ""
	}
	return p.Strings[i]
}

// MultinameString returns the bare name of the multiname at index i,
// resolving through its Name string index. Returns "*" for an any-name
// multiname.
func (p *Pool) MultinameString(i int) string {
	if i <= 0 || i >= len(p.Multinames) {
		return "*"
	}
	m := p.Multinames[i]
	if m.Name <= 0 {
		return "*"
	}
	return p.String(m.Name)
}
