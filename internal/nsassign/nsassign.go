// Package nsassign moves a renamed class into one of the rewriter's own
// synthetic package namespaces, so the rewritten movie's classes group
// the same way a hand-written protocol library would: one namespace per
// concern instead of every class sharing the obfuscator's single
// catch-all package.
package nsassign

import "github.com/obfdofus/abcdeob/internal/abcmodel"

// Package identifies one of the seven synthetic namespaces §4.8 assigns
// renamed classes into.
type Package int

const (
	PackageObfuscate Package = iota
	PackagePackets
	PackagePacketsServerbound
	PackagePacketsClientbound
	PackagePacketsTribulle
	PackagePacketsTribulleServerbound
	PackagePacketsTribulleClientbound
)

var packageURIs = map[Package]string{
	PackageObfuscate:                  "com.obfuscate",
	PackagePackets:                    "packets",
	PackagePacketsServerbound:         "packets.serverbound",
	PackagePacketsClientbound:         "packets.clientbound",
	PackagePacketsTribulle:            "packets.tribulle",
	PackagePacketsTribulleServerbound: "packets.tribulle.serverbound",
	PackagePacketsTribulleClientbound: "packets.tribulle.clientbound",
}

// Assigner rewrites a class's owning namespace in the constant pool,
// caching one namespace-set entry per package so classes assigned to the
// same package share it rather than each minting a fresh set.
type Assigner struct {
	pool  *abcmodel.Pool
	nsOf  map[Package]int
	setOf map[Package]int
}

// New returns an Assigner bound to pool.
func New(pool *abcmodel.Pool) *Assigner {
	return &Assigner{pool: pool, nsOf: map[Package]int{}, setOf: map[Package]int{}}
}

// namespaceIndex returns (interning on first use) the pool namespace index
// for pkg's URI, using kind 0x16 (PackageNamespace) the way every ordinary
// ActionScript package declaration does.
func (a *Assigner) namespaceIndex(pkg Package) int {
	if idx, ok := a.nsOf[pkg]; ok {
		return idx
	}
	uri := a.pool.AppendString(packageURIs[pkg])
	idx := a.pool.AppendNamespace(0x16, uri)
	a.nsOf[pkg] = idx
	return idx
}

func (a *Assigner) namespaceSetIndex(pkg Package) int {
	if idx, ok := a.setOf[pkg]; ok {
		return idx
	}
	idx := a.pool.AppendNamespaceSet([]int{a.namespaceIndex(pkg)})
	a.setOf[pkg] = idx
	return idx
}

// Assign moves the class named by classMultinameIndex into pkg, then walks
// every multiname in the pool per §4.8 and repoints any other multiname
// that shares the same name index (every other QName/RTQName/Multiname
// referring to this class, e.g. from a getlex/getproperty/type annotation
// elsewhere in the movie) at the same package, so the class's new home
// namespace is consistent everywhere it's referenced, not just at its own
// declaration site.
func (a *Assigner) Assign(classMultinameIndex int, pkg Package) {
	nameIdx := a.pool.Multinames[classMultinameIndex].Name
	for i, mn := range a.pool.Multinames {
		if mn.Name != nameIdx || mn.Name < 0 {
			continue
		}
		switch mn.Kind {
		case abcmodel.MultinameQName, abcmodel.MultinameQNameA:
			mn.Namespace = a.namespaceIndex(pkg)
		default:
			mn.NamespaceSet = a.namespaceSetIndex(pkg)
		}
		a.pool.Multinames[i] = mn
	}
}

// PackageFor chooses which synthetic package a class belongs in based on
// the structural role recognize/packetanalyze assigned it: a top-level
// packet class goes in packets.serverbound/packets.clientbound, a tribulle
// sub-protocol packet goes in the matching tribulle direction package, and
// a tribulle class that is not itself a packet goes in packets.tribulle.
// Every other class, including a non-tribulle class that is not a packet,
// stays in com.obfuscate; the bare packets package is never chosen here.
func PackageFor(isPacket, isServerbound, isTribulle bool) Package {
	switch {
	case isPacket && isTribulle && isServerbound:
		return PackagePacketsTribulleServerbound
	case isPacket && isTribulle:
		return PackagePacketsTribulleClientbound
	case isTribulle:
		return PackagePacketsTribulle
	case isPacket && isServerbound:
		return PackagePacketsServerbound
	case isPacket:
		return PackagePacketsClientbound
	default:
		return PackageObfuscate
	}
}
