package matcher

import (
	"regexp"

	"github.com/obfdofus/abcdeob/internal/abcmodel"
)

// NamePredicate matches a multiname's bare string, either by exact value
// or by regular expression. An empty NamePredicate is absent (Skip).
type NamePredicate struct {
	Exact   string
	Pattern *regexp.Regexp
	set     bool
}

// UnmarshalYAML accepts either a plain scalar (exact match) or a
// {regex: "..."} mapping.
func (n *NamePredicate) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var exact string
	if err := unmarshal(&exact); err == nil {
		n.Exact = exact
		n.set = true
		return nil
	}
	var m struct {
		Regex string `yaml:"regex"`
	}
	if err := unmarshal(&m); err != nil {
		return err
	}
	re, err := regexp.Compile(m.Regex)
	if err != nil {
		return err
	}
	n.Pattern = re
	n.set = true
	return nil
}

// Match evaluates the predicate against name.
func (n NamePredicate) Match(name string) Result {
	if !n.set {
		return Skip
	}
	if n.Pattern != nil {
		return FromBool(n.Pattern.MatchString(name))
	}
	return FromBool(n.Exact == name)
}

// NumberPredicate matches an integer field (flags, slot count, arity) by
// exact value, or is absent (Skip) if unset. A pointer receiver marks
// "present" by distinguishing a nil pointer (unset in YAML) from an
// explicit zero.
type NumberPredicate struct {
	Value *int
}

func (n NumberPredicate) Match(v int) Result {
	if n.Value == nil {
		return Skip
	}
	return FromBool(*n.Value == v)
}

// BoolPredicate matches a boolean field, or is absent (Skip) if unset.
type BoolPredicate struct {
	Value *bool
}

func (p BoolPredicate) Match(v bool) Result {
	if p.Value == nil {
		return Skip
	}
	return FromBool(*p.Value == v)
}

// ClassFacts is the read-only view of a class the predicates above
// evaluate against, computed once per candidate class so every TraitRule
// in the same ClassRule sees a consistent snapshot.
type ClassFacts struct {
	Name      string
	SuperName string
	Flags     int
}

// Facts extracts a ClassFacts snapshot for c.
func Facts(pool *abcmodel.Pool, c *abcmodel.Class) ClassFacts {
	return ClassFacts{
		Name:      pool.MultinameString(c.Name),
		SuperName: pool.MultinameString(c.SuperName),
		Flags:     int(c.Flags),
	}
}
