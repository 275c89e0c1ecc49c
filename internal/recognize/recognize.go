package recognize

import "github.com/obfdofus/abcdeob/internal/abcmodel"

// MissingPrimitive names an obfuscation primitive this sweep expected to
// find at least one instance of but did not. internal/orchestrator checks
// two primitives for absence: a missing serverbound base class is fatal
// unless missing primitives are ignored (then a warning), and a missing
// packet dispatcher is a warning. No other primitive is checked.
type MissingPrimitive struct {
	Name string
}

func (m MissingPrimitive) Error() string {
	return "recognize: no " + m.Name + " found in this build"
}

// Result collects every structural primitive found across a single sweep
// of f.Classes: the two non-packet primitives, plus the four optional
// packet anchor classes and the packet handler (§3 "Packet anchors").
type Result struct {
	StaticClasses []StaticClass
	Wrappers      []WrapperClass

	ServerboundBases []PacketBase
	ClientboundBases []PacketBase
	VarIntReaders    []PacketBase
	InterfaceProxies []PacketBase
	Dispatchers      []PacketDispatcher
}

// Sweep runs every recognizer over f.Classes exactly once, classifying
// each class into at most one primitive bucket (the first matcher to
// accept it wins: static classes are checked before wrapper classes
// before packet anchor shapes, per §4.3's "recognizers are mutually
// exclusive").
func Sweep(f *abcmodel.File) Result {
	var res Result
	for _, c := range f.Classes {
		if sc, ok := MatchStaticClass(f, c); ok {
			res.StaticClasses = append(res.StaticClasses, sc)
			continue
		}
		if wc, ok := MatchWrapperClass(f, c); ok {
			res.Wrappers = append(res.Wrappers, wc)
			continue
		}
		if pb, ok := MatchServerboundBase(f, c); ok {
			res.ServerboundBases = append(res.ServerboundBases, pb)
			continue
		}
		if pb, ok := MatchClientboundBase(f, c); ok {
			res.ClientboundBases = append(res.ClientboundBases, pb)
			continue
		}
		if pb, ok := MatchVarIntReader(f, c); ok {
			res.VarIntReaders = append(res.VarIntReaders, pb)
			continue
		}
		if pb, ok := MatchInterfaceProxy(f, c); ok {
			res.InterfaceProxies = append(res.InterfaceProxies, pb)
			continue
		}
		if pd, ok := MatchPacketDispatcher(f, c); ok {
			res.Dispatchers = append(res.Dispatchers, pd)
			continue
		}
	}
	return res
}

// RequireServerboundBase returns the sole recognized serverbound base
// class, or a MissingPrimitive error if the sweep found none. Unlike the
// other primitives, the absence of any serverbound base leaves the
// packet-naming phase with nothing to anchor namespace assignment to, so
// callers that need packet naming treat this one as fatal rather than
// skip-with-warning.
func (r Result) RequireServerboundBase() (PacketBase, error) {
	if len(r.ServerboundBases) == 0 {
		return PacketBase{}, MissingPrimitive{Name: "serverbound base class"}
	}
	return r.ServerboundBases[0], nil
}
