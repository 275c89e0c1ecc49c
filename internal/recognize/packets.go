package recognize

import "github.com/obfdofus/abcdeob/internal/abcmodel"

// byteArrayTypeName is the qualified name the binary-buffer type's
// multiname carries in every build this engine targets; every typed-slot
// predicate below resolves a trait's declared type against this literal
// rather than against a multiname index, since the buffer type's own
// namespace never survives renaming intact.
const byteArrayTypeName = "ByteArray"

// PacketBase is one of the four optional packet anchor classes: the
// serverbound base, the clientbound base, the var-int reader, or the
// interface proxy (§3/§4.3). Which one a given match came from is implicit
// in which Result field it was appended to.
type PacketBase struct {
	ClassIndex int
}

// MatchServerboundBase reports whether c is the serverbound packet base:
// sealed and protected, with its first instance trait a Slot of the
// binary-buffer type.
func MatchServerboundBase(f *abcmodel.File, c *abcmodel.Class) (PacketBase, bool) {
	if c.Flags&abcmodel.ClassFlagSealed == 0 {
		return PacketBase{}, false
	}
	if c.Flags&abcmodel.ClassFlagProtectedNS == 0 || c.ProtectedNS < 0 {
		return PacketBase{}, false
	}
	if !firstInstanceSlotIsByteArray(f, c) {
		return PacketBase{}, false
	}
	return PacketBase{ClassIndex: c.Name}, true
}

// MatchClientboundBase reports whether c is the clientbound packet base:
// 1-9 class traits, 4-9 instance traits, whose third instance trait is a
// Slot of the binary-buffer type.
func MatchClientboundBase(f *abcmodel.File, c *abcmodel.Class) (PacketBase, bool) {
	if len(c.ClassTraits) < 1 || len(c.ClassTraits) > 9 {
		return PacketBase{}, false
	}
	if len(c.InstanceTraits) < 4 || len(c.InstanceTraits) > 9 {
		return PacketBase{}, false
	}
	third := c.InstanceTraits[2]
	if third.Kind != abcmodel.TraitSlot || f.Pool.MultinameString(third.TypeName) != byteArrayTypeName {
		return PacketBase{}, false
	}
	return PacketBase{ClassIndex: c.Name}, true
}

// MatchVarIntReader reports whether c is the var-int reader: its first
// instance trait is a Slot of the binary-buffer type, and its
// instance-init's first parameter is also the binary-buffer type.
func MatchVarIntReader(f *abcmodel.File, c *abcmodel.Class) (PacketBase, bool) {
	if !firstInstanceSlotIsByteArray(f, c) {
		return PacketBase{}, false
	}
	init := methodAt(f, c.InstanceInit)
	if init == nil || len(init.ParamTypes) == 0 {
		return PacketBase{}, false
	}
	if f.Pool.MultinameString(init.ParamTypes[0]) != byteArrayTypeName {
		return PacketBase{}, false
	}
	return PacketBase{ClassIndex: c.Name}, true
}

// MatchInterfaceProxy reports whether c is the interface proxy: no class
// traits, no instance traits, a protected namespace, and an instance-init
// taking a single parameter equal to the "game" class's name (the first
// class in the movie's own class array).
func MatchInterfaceProxy(f *abcmodel.File, c *abcmodel.Class) (PacketBase, bool) {
	if len(c.ClassTraits) != 0 || len(c.InstanceTraits) != 0 {
		return PacketBase{}, false
	}
	if c.Flags&abcmodel.ClassFlagProtectedNS == 0 || c.ProtectedNS < 0 {
		return PacketBase{}, false
	}
	init := methodAt(f, c.InstanceInit)
	if init == nil || len(init.ParamTypes) != 1 {
		return PacketBase{}, false
	}
	if len(f.Classes) == 0 {
		return PacketBase{}, false
	}
	gameClassName := f.Pool.MultinameString(f.Classes[0].Name)
	if f.Pool.MultinameString(init.ParamTypes[0]) != gameClassName {
		return PacketBase{}, false
	}
	return PacketBase{ClassIndex: c.Name}, true
}

// PacketDispatcher is the packet handler class: no instance traits, with a
// class-side (static) method dense enough to be the dispatcher §4.7 walks.
type PacketDispatcher struct {
	ClassIndex int
	// Method indexes f.Methods: the dense class-trait method §4.7's main
	// dispatch walk mines for (category, code) -> class routes.
	Method int
}

// packetHandlerMaxStackFloor and packetHandlerLocalCountFloor are the
// density thresholds §4.3 gives for recognizing the packet handler's
// dispatch method among a class's other class-trait methods.
const (
	packetHandlerMaxStackFloor   = 30
	packetHandlerLocalCountFloor = 200
)

// MatchPacketDispatcher reports whether c is the packet handler: no
// instance traits, with at least one class-trait method whose single
// parameter is the binary-buffer type and whose max-stack/local-count
// clear the density floor a real dispatch method reaches.
func MatchPacketDispatcher(f *abcmodel.File, c *abcmodel.Class) (PacketDispatcher, bool) {
	if len(c.InstanceTraits) != 0 {
		return PacketDispatcher{}, false
	}
	for _, t := range c.ClassTraits {
		if t.Kind != abcmodel.TraitMethod {
			continue
		}
		m := methodAt(f, t.Method)
		if m == nil || !m.HasBody || m.Graph == nil {
			continue
		}
		if len(m.ParamTypes) != 1 || f.Pool.MultinameString(m.ParamTypes[0]) != byteArrayTypeName {
			continue
		}
		if m.MaxStack < packetHandlerMaxStackFloor || m.LocalCount < packetHandlerLocalCountFloor {
			continue
		}
		return PacketDispatcher{ClassIndex: c.Name, Method: t.Method}, true
	}
	return PacketDispatcher{}, false
}

func firstInstanceSlotIsByteArray(f *abcmodel.File, c *abcmodel.Class) bool {
	if len(c.InstanceTraits) == 0 {
		return false
	}
	first := c.InstanceTraits[0]
	return first.Kind == abcmodel.TraitSlot && f.Pool.MultinameString(first.TypeName) == byteArrayTypeName
}

func methodAt(f *abcmodel.File, idx int) *abcmodel.Method {
	if idx < 0 || idx >= len(f.Methods) {
		return nil
	}
	return f.Methods[idx]
}
