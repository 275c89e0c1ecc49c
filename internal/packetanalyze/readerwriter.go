package packetanalyze

import (
	"strings"

	"github.com/obfdofus/abcdeob/internal/abcmodel"
)

// RenameReaderMethods implements the var-int reader half of §4.7d: a
// zero-parameter instance method returning the boolean type is the reader's
// readBoolean, and a zero-parameter instance method returning one of the
// integer-ish numeric types is its readVarInt — the two primitive decode
// calls every packet class built on this reader composes from.
func RenameReaderMethods(f *abcmodel.File, reader *abcmodel.Class) {
	for i := range reader.InstanceTraits {
		t := &reader.InstanceTraits[i]
		if t.Kind != abcmodel.TraitMethod {
			continue
		}
		m := traitMethod(f, t)
		if m == nil || len(m.ParamTypes) != 0 {
			continue
		}
		retType := f.Pool.MultinameString(m.ReturnType)
		var name string
		switch retType {
		case "Boolean":
			name = "readBoolean"
		case "int", "uint", "Number":
			name = "readVarInt"
		default:
			continue
		}
		renameTraitName(f.Pool, t, name)
	}
}

// RenameWriterMethods implements the serverbound-base half of §4.7d: every
// instance method that returns the base class itself is a fluent writer
// step (`return this` after writing one field), and the single field name
// its body's lone getproperty/callpropvoid pair references names it —
// "write" + that field, capitalized.
func RenameWriterMethods(f *abcmodel.File, base *abcmodel.Class) {
	baseName := f.Pool.MultinameString(base.Name)
	for i := range base.InstanceTraits {
		t := &base.InstanceTraits[i]
		if t.Kind != abcmodel.TraitMethod {
			continue
		}
		m := traitMethod(f, t)
		if m == nil || !m.HasBody || m.Graph == nil {
			continue
		}
		if f.Pool.MultinameString(m.ReturnType) != baseName {
			continue
		}
		field, ok := soleWriterField(f, m.Graph)
		if !ok {
			continue
		}
		renameTraitName(f.Pool, t, "write"+capitalize(field))
	}
}

// soleWriterField requires the body to contain exactly one getproperty and
// exactly one callpropvoid, the getproperty's field naming the one
// primitive this writer step encodes.
func soleWriterField(f *abcmodel.File, g *abcmodel.Graph) (string, bool) {
	var field string
	sawGetProperty, sawCallPropVoid := false, false
	for ins := g.Head; ins != nil; ins = ins.Next {
		switch ins.Op {
		case abcmodel.OpGetProperty:
			if sawGetProperty {
				return "", false
			}
			sawGetProperty = true
			field = f.Pool.MultinameString(int(ins.Operands[0]))
		case abcmodel.OpCallPropVoid:
			if sawCallPropVoid || !sawGetProperty {
				return "", false
			}
			sawCallPropVoid = true
		}
	}
	return field, sawGetProperty && sawCallPropVoid
}

func traitMethod(f *abcmodel.File, t *abcmodel.Trait) *abcmodel.Method {
	if t.Method < 0 || t.Method >= len(f.Methods) {
		return nil
	}
	return f.Methods[t.Method]
}

func renameTraitName(pool *abcmodel.Pool, t *abcmodel.Trait, name string) {
	if t.Name < 0 {
		return
	}
	idx := pool.AppendString(name)
	mn := pool.Multinames[t.Name]
	mn.Name = idx
	pool.Multinames[t.Name] = mn
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
