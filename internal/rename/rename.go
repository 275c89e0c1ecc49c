// Package rename assigns printable names to every class, trait, method and
// exception variable the obfuscator left with a garbled (non-printable)
// identifier, using the format-string table in internal/config.
package rename

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/obfdofus/abcdeob/internal/abcmodel"
)

// Formats supplies the printf-style templates used for each renamed
// category, one placeholder for the running counter. internal/config
// constructs this from the user's YAML configuration (or its own
// defaults).
type Formats struct {
	Classes   string
	Consts    string
	Functions string
	Names     string
	Vars      string
	Methods   string
	Errors    string
}

// Counters tracks how many names have been assigned per category so far,
// exposed so a caller processing multiple files with --config can report
// cumulative totals.
type Counters struct {
	Classes, Consts, Functions, Names, Vars, Methods, Errors int
}

// Renamer renames every invalid identifier reachable from an abcmodel.File.
type Renamer struct {
	pool     *abcmodel.Pool
	fmt      Formats
	counters Counters
}

// New returns a Renamer bound to pool and fmt.
func New(pool *abcmodel.Pool, fmt Formats) *Renamer {
	return &Renamer{pool: pool, fmt: fmt}
}

// Counters reports how many identifiers RenameAll has assigned so far, per
// category, so a caller (internal/orchestrator's report, a batch driver
// summing across several files) can surface renamed-identifier totals.
func (r *Renamer) Counters() Counters {
	return r.counters
}

// Invalid reports whether name contains any non-printable rune, the same
// isprint-based test the original renamer used to decide a name needs
// replacing at all.
func Invalid(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return true
		}
	}
	return false
}

// RenameAll renames every class (and its super-class reference), every
// class/instance trait, and every method's exception variables across f.
func (r *Renamer) RenameAll(f *abcmodel.File) {
	for _, c := range f.Classes {
		r.renameClass(c)
	}
	for _, m := range f.Methods {
		r.renameMethod(m)
	}
}

func (r *Renamer) renameClass(c *abcmodel.Class) {
	if c.Name > 0 && Invalid(r.pool.MultinameString(c.Name)) {
		r.counters.Classes++
		r.renameMultiname(c.Name, format(r.fmt.Classes, r.counters.Classes))
	}
	if c.SuperName > 0 && Invalid(r.pool.MultinameString(c.SuperName)) {
		r.counters.Classes++
		r.renameMultiname(c.SuperName, format(r.fmt.Classes, r.counters.Classes))
	}
	for i := range c.ClassTraits {
		r.renameTrait(&c.ClassTraits[i])
	}
	for i := range c.InstanceTraits {
		r.renameTrait(&c.InstanceTraits[i])
	}
}

func (r *Renamer) renameTrait(t *abcmodel.Trait) {
	if t.Name <= 0 || !Invalid(r.pool.MultinameString(t.Name)) {
		return
	}
	var name string
	switch t.Kind {
	case abcmodel.TraitConst:
		r.counters.Consts++
		name = format(r.fmt.Consts, r.counters.Consts)
	case abcmodel.TraitMethod:
		r.counters.Methods++
		name = format(r.fmt.Methods, r.counters.Methods)
	case abcmodel.TraitFunction:
		r.counters.Functions++
		name = format(r.fmt.Functions, r.counters.Functions)
	default:
		r.counters.Names++
		name = format(r.fmt.Names, r.counters.Names)
	}
	r.renameMultiname(t.Name, name)
}

// renameMethod renames a method's exception variable names. When a method
// has exactly one exception record, its variable is renamed "error"
// unconditionally instead of being run through the errors counter/format,
// the same special case the original renamer made for the overwhelmingly
// common single-catch-block shape.
func (r *Renamer) renameMethod(m *abcmodel.Method) {
	if len(m.Exceptions) == 1 {
		r.renameExceptionVar(&m.Exceptions[0], "error")
		return
	}
	counter := 0
	for i := range m.Exceptions {
		counter++
		r.renameExceptionVar(&m.Exceptions[i], format(r.fmt.Errors, counter))
	}
}

func (r *Renamer) renameExceptionVar(e *abcmodel.Exception, name string) {
	if e.VarName <= 0 || !Invalid(r.pool.MultinameString(e.VarName)) {
		return
	}
	r.renameMultiname(e.VarName, name)
}

// renameMultiname rewrites the Name string of the multiname at idx to
// newName. A fresh string is always interned (rather than overwriting the
// shared string table entry in place), since other multinames may still
// reference the original garbled string.
func (r *Renamer) renameMultiname(idx int, newName string) {
	strIdx := r.pool.AppendString(newName)
	mn := r.pool.Multinames[idx]
	mn.Name = strIdx
	r.pool.Multinames[idx] = mn
}

func format(tmpl string, counter int) string {
	if !strings.Contains(tmpl, "%d") {
		return tmpl
	}
	return strings.Replace(tmpl, "%d", strconv.Itoa(counter), 1)
}
