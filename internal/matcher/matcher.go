package matcher

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/obfdofus/abcdeob/internal/abcmodel"
)

// RuleSet is a parsed matchers directory: every *.yaml document's top-level
// class rule list, concatenated in file order so rules in an earlier file
// take priority over a later one matching the same class.
type RuleSet struct {
	Rules []ClassRule
}

// LoadDir parses every .yaml/.yml file in dir into a single RuleSet.
func LoadDir(dir string) (RuleSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return RuleSet{}, fmt.Errorf("matcher: reading %s: %w", dir, err)
	}
	var rs RuleSet
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) < 5 || (name[len(name)-5:] != ".yaml" && name[len(name)-4:] != ".yml") {
			continue
		}
		data, err := os.ReadFile(dir + "/" + name)
		if err != nil {
			return RuleSet{}, fmt.Errorf("matcher: reading %s: %w", name, err)
		}
		var doc struct {
			Classes []ClassRule `yaml:"classes"`
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return RuleSet{}, fmt.Errorf("matcher: parsing %s: %w", name, err)
		}
		rs.Rules = append(rs.Rules, doc.Classes...)
	}
	return rs, nil
}

// Apply evaluates every rule against every class in f, renaming the first
// match per class and reporting how many classes were touched.
func Apply(f *abcmodel.File, rs RuleSet) int {
	renamed := 0
	for _, c := range f.Classes {
		for _, rule := range rs.Rules {
			if rule.Match(f.Pool, c) != Match {
				continue
			}
			if rule.Rename != "" {
				applyRename(f.Pool, c, rule.Rename)
				renamed++
			}
			break
		}
	}
	return renamed
}

func applyRename(pool *abcmodel.Pool, c *abcmodel.Class, newName string) {
	idx := pool.AppendString(newName)
	mn := pool.Multinames[c.Name]
	mn.Name = idx
	pool.Multinames[c.Name] = mn
}
