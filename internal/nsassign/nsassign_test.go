package nsassign

import (
	"testing"

	"github.com/obfdofus/abcdeob/internal/abcmodel"
)

func TestAssignPatchesQNameNamespace(t *testing.T) {
	pool := abcmodel.NewPool()
	mn := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: pool.AppendString("Foo")})

	a := New(pool)
	a.Assign(mn, PackagePacketsClientbound)

	ns := pool.Namespaces[pool.Multinames[mn].Namespace]
	if pool.String(ns.Name) != "packets.clientbound" {
		t.Fatalf("namespace URI = %q, want the clientbound packets package", pool.String(ns.Name))
	}
}

func TestAssignSharesNamespaceAcrossClasses(t *testing.T) {
	pool := abcmodel.NewPool()
	a := New(pool)
	mn1 := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: pool.AppendString("A")})
	mn2 := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: pool.AppendString("B")})

	a.Assign(mn1, PackagePacketsServerbound)
	a.Assign(mn2, PackagePacketsServerbound)

	if pool.Multinames[mn1].Namespace != pool.Multinames[mn2].Namespace {
		t.Fatalf("two classes in the same package got different namespace entries")
	}
}

// TestAssignPatchesEveryMultinameSharingTheName covers §4.8's post-rename
// multiname-patch walk: a second multiname referencing the same class by
// name (e.g. a getlex/type annotation elsewhere in the movie) must move to
// the same package too, not just the class's own declaration multiname.
func TestAssignPatchesEveryMultinameSharingTheName(t *testing.T) {
	pool := abcmodel.NewPool()
	nameIdx := pool.AppendString("Foo")
	declMn := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: nameIdx})
	refMn := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: nameIdx})

	a := New(pool)
	a.Assign(declMn, PackagePacketsTribulle)

	declNs := pool.Namespaces[pool.Multinames[declMn].Namespace]
	refNs := pool.Namespaces[pool.Multinames[refMn].Namespace]
	if pool.String(declNs.Name) != "packets.tribulle" || pool.String(refNs.Name) != "packets.tribulle" {
		t.Fatalf("both multinames should move to packets.tribulle, got decl=%q ref=%q",
			pool.String(declNs.Name), pool.String(refNs.Name))
	}
}

func TestPackageForDirectionAndTribulle(t *testing.T) {
	cases := []struct {
		isPacket, isServerbound, isTribulle bool
		want                                Package
	}{
		{true, false, false, PackagePacketsClientbound},
		{true, true, false, PackagePacketsServerbound},
		{true, false, true, PackagePacketsTribulleClientbound},
		{true, true, true, PackagePacketsTribulleServerbound},
		{false, false, true, PackagePacketsTribulle},
		{false, false, false, PackageObfuscate},
	}
	for _, c := range cases {
		if got := PackageFor(c.isPacket, c.isServerbound, c.isTribulle); got != c.want {
			t.Fatalf("PackageFor(%v,%v,%v) = %v, want %v", c.isPacket, c.isServerbound, c.isTribulle, got, c.want)
		}
	}
}
