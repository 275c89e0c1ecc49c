package abcmodel

import "testing"

func TestPoolInternsRepeatedValues(t *testing.T) {
	p := NewPool()

	a := p.AppendString("HASH_FUNCTION")
	b := p.AppendString("HASH_FUNCTION")
	if a != b {
		t.Fatalf("AppendString did not intern: got indices %d and %d", a, b)
	}

	c := p.AppendString("other")
	if c == a {
		t.Fatalf("AppendString interned distinct strings to the same index")
	}

	i1 := p.AppendInt(42)
	i2 := p.AppendInt(42)
	if i1 != i2 {
		t.Fatalf("AppendInt did not intern: got %d and %d", i1, i2)
	}
}

func TestPoolAppendNamespaceInterns(t *testing.T) {
	p := NewPool()
	uri := p.AppendString("com.ankamagames.dofus.network.messages")

	n1 := p.AppendNamespace(0x16, uri)
	n2 := p.AppendNamespace(0x16, uri)
	if n1 != n2 {
		t.Fatalf("equivalent namespaces were not interned: got %d and %d", n1, n2)
	}

	n3 := p.AppendNamespace(0x17, uri)
	if n3 == n1 {
		t.Fatalf("namespaces with different kinds were interned together")
	}
}

func TestMultinameStringResolvesThroughNameIndex(t *testing.T) {
	p := NewPool()
	nameIdx := p.AppendString("GameRolePlayCharacterInformations")
	mIdx := p.AppendMultiname(Multiname{Kind: MultinameQName, Name: nameIdx, Namespace: 0})

	if got := p.MultinameString(mIdx); got != "GameRolePlayCharacterInformations" {
		t.Fatalf("MultinameString = %q, want %q", got, "GameRolePlayCharacterInformations")
	}

	if got := p.MultinameString(0); got != "*" {
		t.Fatalf("MultinameString(0) = %q, want *", got)
	}
}
