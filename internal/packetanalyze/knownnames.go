package packetanalyze

import (
	"fmt"
	"strings"
)

// Formats is the §6 packet-naming format table, config-driven the same way
// internal/rename.Formats is: one template per packet family, each filled
// in with the route's numeric (category, code) plus an optional descriptor
// suffix mined from a known-name table or a candidate string.
type Formats struct {
	ClientboundPacket        string
	ServerboundPacket        string
	PacketSubhandler         string
	UnknownClientboundPacket string
	TribulleClientboundPacket string
	TribulleServerboundPacket string
}

// DefaultFormats is the built-in table §6 gives when a config document
// omits the packet-naming keys.
func DefaultFormats() Formats {
	return Formats{
		ClientboundPacket:         "CPacket%02x%02x%s",
		ServerboundPacket:         "SPacket%02x%02x%s",
		PacketSubhandler:          "PacketSubHandler_%02x%s",
		UnknownClientboundPacket:  "UnknownCPacket%02x%s",
		TribulleClientboundPacket: "CPacketTribulle%02x%s",
		TribulleServerboundPacket: "SPacketTribulle%02x%s",
	}
}

// Assignment is the final name decided for one packet class, independent
// of whether it came from the outer dispatch or the nested tribulle one.
type Assignment struct {
	ClassMultiname int
	Name           string
}

// knownDescriptors is a deliberately small, non-exhaustive hex->descriptor
// table for (category, code) pairs this engine has seen often enough
// across builds to name confidently. Every pair absent from this table
// still gets a printable name via UnknownClientboundPacket/the numeric
// format alone; growing this table only improves readability, never
// correctness.
var knownDescriptors = map[[2]int32]string{
	{1, 1}:  "HandshakeOk",
	{1, 2}:  "HandshakeError",
	{4, 1}:  "ChannelJoin",
	{4, 2}:  "ChannelLeave",
	{6, 6}:  "PlayerPosition",
	{26, 2}: "RoomChange",
	{28, 6}: "ChatMessage",
	{60, 3}: "Tribulle",
}

// descriptorFor looks a (category, code) pair up in knownDescriptors,
// returning "" when the pair carries no recognized meaning.
func descriptorFor(category, code int32) string {
	return knownDescriptors[[2]int32{category, code}]
}

// normalizeCandidate turns an arbitrary mined candidate string (a field or
// method name pulled off a packet class) into a descriptor suffix: drop
// every non-letter rune, capitalize the first letter after each dropped
// run, lowercase everything else, and prepend an underscore so the result
// always reads as a distinct suffix rather than colliding with the bare
// numeric form.
func normalizeCandidate(raw string) string {
	if raw == "" {
		return ""
	}
	var b strings.Builder
	capNext := true
	for _, r := range raw {
		if !isLetter(r) {
			capNext = true
			continue
		}
		if capNext {
			b.WriteRune(toUpper(r))
			capNext = false
		} else {
			b.WriteRune(toLower(r))
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "_" + b.String()
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// AssignNames turns mined (category, code) routes into packet class names
// using fmts.ClientboundPacket/ServerboundPacket according to each route's
// direction, filling the descriptor suffix from knownDescriptors when the
// pair is recognized and falling back to UnknownClientboundPacket (or the
// bare numeric serverbound form) otherwise.
func AssignNames(routes []Route, fmts Formats) []Assignment {
	out := make([]Assignment, 0, len(routes))
	for _, r := range routes {
		suffix := normalizeCandidate(descriptorFor(r.Category, r.Code))
		var name string
		switch {
		case r.Serverbound:
			name = fmt.Sprintf(fmts.ServerboundPacket, r.Category, r.Code, suffix)
		case suffix == "":
			name = fmt.Sprintf(fmts.UnknownClientboundPacket, r.Code, "")
		default:
			name = fmt.Sprintf(fmts.ClientboundPacket, r.Category, r.Code, suffix)
		}
		out = append(out, Assignment{ClassMultiname: r.ClassName, Name: name})
	}
	return out
}

// AssignTribulleNames names the nested sub-protocol's classes with the
// tribulle-specific templates so they remain distinguishable from
// top-level packets sharing the same numeric range.
func AssignTribulleNames(routes []TribulleRoute, fmts Formats) []Assignment {
	out := make([]Assignment, 0, len(routes))
	for _, r := range routes {
		suffix := normalizeCandidate(descriptorFor(TribulleCategory, r.SubOpcode))
		var name string
		if r.Serverbound {
			name = fmt.Sprintf(fmts.TribulleServerboundPacket, r.SubOpcode, suffix)
		} else {
			name = fmt.Sprintf(fmts.TribulleClientboundPacket, r.SubOpcode, suffix)
		}
		out = append(out, Assignment{ClassMultiname: r.ClassName, Name: name})
	}
	return out
}

// AssignSubhandlerName names a sub-handler class found mid-dispatch (§4.7's
// sub-handler dispatch fingerprint) using fmts.PacketSubhandler, keyed on
// the outer category byte that routes into it.
func AssignSubhandlerName(category int32, fmts Formats) string {
	return fmt.Sprintf(fmts.PacketSubhandler, category, "")
}
