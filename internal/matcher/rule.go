package matcher

import "github.com/obfdofus/abcdeob/internal/abcmodel"

// TraitRule matches one trait on a class by kind and name.
type TraitRule struct {
	Kind string `yaml:"kind"`
	Name NamePredicate `yaml:"name"`
	Rename string `yaml:"rename"`
}

func (r TraitRule) matchesKind(t abcmodel.Trait) Result {
	if r.Kind == "" {
		return Skip
	}
	var want abcmodel.TraitKind
	switch r.Kind {
	case "slot":
		want = abcmodel.TraitSlot
	case "const":
		want = abcmodel.TraitConst
	case "method":
		want = abcmodel.TraitMethod
	case "getter":
		want = abcmodel.TraitGetter
	case "setter":
		want = abcmodel.TraitSetter
	case "class":
		want = abcmodel.TraitClass
	case "function":
		want = abcmodel.TraitFunction
	default:
		return NoMatch
	}
	return FromBool(t.Kind == want)
}

// Match evaluates the rule against one trait.
func (r TraitRule) Match(pool *abcmodel.Pool, t abcmodel.Trait) Result {
	return AndAll(r.matchesKind(t), r.Name.Match(pool.MultinameString(t.Name)))
}

// ClassRule is one top-level YAML matcher entry: predicates over a class's
// identity plus an ordered list of trait rules, and the renames to apply
// once every predicate is satisfied.
type ClassRule struct {
	Enabled   bool          `yaml:"enabled"`
	Strict    bool          `yaml:"strict"`
	Name      NamePredicate `yaml:"name"`
	SuperName NamePredicate `yaml:"super_name"`
	Flags     NumberPredicate `yaml:"flags"`
	Traits    []TraitRule   `yaml:"traits"`
	Rename    string        `yaml:"rename"`
	Debug     string        `yaml:"debug"`
}

// UnmarshalYAML defaults Enabled to true, matching the original matcher's
// "bool enabled = true" field default: a rule with no explicit "enabled:"
// key is active, not silently skipped.
func (cr *ClassRule) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain ClassRule
	aux := plain{Enabled: true}
	if err := unmarshal(&aux); err != nil {
		return err
	}
	*cr = ClassRule(aux)
	return nil
}

// Match decides whether c satisfies the rule. Identity predicates combine
// with And (a single failing one fails the whole rule); the trait list is
// matched greedily and in order against c's instance traits, one rule
// consuming one trait before the next rule is tried against what remains
// (class traits are not considered). When Strict is set, every one of c's
// instance traits must be consumed by some rule (an exact
// partition) or the match fails; otherwise leftover unmatched traits are
// tolerated.
func (cr ClassRule) Match(pool *abcmodel.Pool, c *abcmodel.Class) Result {
	if !cr.Enabled {
		return Skip
	}
	facts := Facts(pool, c)
	identity := AndAll(
		cr.Name.Match(facts.Name),
		cr.SuperName.Match(facts.SuperName),
		cr.Flags.Match(facts.Flags),
	)
	if identity == NoMatch {
		return NoMatch
	}

	consumed := make([]bool, len(c.InstanceTraits))
	for _, tr := range cr.Traits {
		found := false
		for i, t := range c.InstanceTraits {
			if consumed[i] {
				continue
			}
			if tr.Match(pool, t) == Match {
				consumed[i] = true
				found = true
				break
			}
		}
		if !found {
			return NoMatch
		}
	}

	if cr.Strict {
		for _, ok := range consumed {
			if !ok {
				return NoMatch
			}
		}
	}

	if identity == Skip && len(cr.Traits) == 0 {
		return Skip
	}
	return Match
}
