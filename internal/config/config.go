// Package config loads the YAML configuration document that supplies the
// rename format-string table (and the matcher/cache/report defaults built
// on top of it), following the same load-then-validate shape the teacher's
// own internal/ext config loader uses.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/obfdofus/abcdeob/internal/packetanalyze"
	"github.com/obfdofus/abcdeob/internal/rename"
)

// Config is the top-level document --config points at.
type Config struct {
	Formats       Formats       `yaml:"formats"`
	PacketFormats PacketFormats `yaml:"packet_formats"`
	MatchersDir   string        `yaml:"matchers"`
	CachePath     string        `yaml:"cache"`
	ReportAddr    string        `yaml:"report_addr"`
	IgnoreMissing bool          `yaml:"ignore_missing"`
}

// PacketFormats mirrors packetanalyze.Formats with yaml tags and §6's
// defaults, one template per packet-naming family.
type PacketFormats struct {
	ClientboundPacket         string `yaml:"clientbound_packet"`
	ServerboundPacket         string `yaml:"serverbound_packet"`
	PacketSubhandler          string `yaml:"packet_subhandler"`
	UnknownClientboundPacket  string `yaml:"unknown_clientbound_packet"`
	TribulleClientboundPacket string `yaml:"tribulle_clientbound_packet"`
	TribulleServerboundPacket string `yaml:"tribulle_serverbound_packet"`
}

// ToPacketFormats adapts PacketFormats to internal/packetanalyze's Formats
// type.
func (f PacketFormats) ToPacketFormats() packetanalyze.Formats {
	return packetanalyze.Formats{
		ClientboundPacket:         f.ClientboundPacket,
		ServerboundPacket:         f.ServerboundPacket,
		PacketSubhandler:          f.PacketSubhandler,
		UnknownClientboundPacket:  f.UnknownClientboundPacket,
		TribulleClientboundPacket: f.TribulleClientboundPacket,
		TribulleServerboundPacket: f.TribulleServerboundPacket,
	}
}

// DefaultPacketFormats returns the built-in §6 packet-naming format table
// used when no --config is given, or when a config document omits the
// packet_formats key entirely.
func DefaultPacketFormats() PacketFormats {
	d := packetanalyze.DefaultFormats()
	return PacketFormats{
		ClientboundPacket:         d.ClientboundPacket,
		ServerboundPacket:         d.ServerboundPacket,
		PacketSubhandler:          d.PacketSubhandler,
		UnknownClientboundPacket:  d.UnknownClientboundPacket,
		TribulleClientboundPacket: d.TribulleClientboundPacket,
		TribulleServerboundPacket: d.TribulleServerboundPacket,
	}
}

// validate checks that every packet-naming template is non-empty and
// contains at least one % verb. Unlike Formats.validate it does not format
// the template with sample arguments, so a template whose verbs ignore the
// (category, code) values is not rejected.
func (f PacketFormats) validate() error {
	fields := map[string]string{
		"clientbound_packet":          f.ClientboundPacket,
		"serverbound_packet":          f.ServerboundPacket,
		"packet_subhandler":           f.PacketSubhandler,
		"unknown_clientbound_packet":  f.UnknownClientboundPacket,
		"tribulle_clientbound_packet": f.TribulleClientboundPacket,
		"tribulle_serverbound_packet": f.TribulleServerboundPacket,
	}
	for name, tmpl := range fields {
		if tmpl == "" {
			return fmt.Errorf("packet format %q: empty template", name)
		}
		if !strings.Contains(tmpl, "%") {
			return fmt.Errorf("packet format %q: template %q has no verb", name, tmpl)
		}
	}
	return nil
}

// Formats mirrors rename.Formats with yaml tags and per-field defaults,
// one %d-placeholder template per renamed category.
type Formats struct {
	Classes   string `yaml:"classes"`
	Consts    string `yaml:"consts"`
	Functions string `yaml:"functions"`
	Names     string `yaml:"names"`
	Vars      string `yaml:"vars"`
	Methods   string `yaml:"methods"`
	Errors    string `yaml:"errors"`
}

// Defaults returns the built-in format table used when no --config is
// given, or when a config document omits the formats key entirely.
func Defaults() Formats {
	return Formats{
		Classes:   "Class%d",
		Consts:    "CONST_%d",
		Functions: "func%d",
		Names:     "name%d",
		Vars:      "var%d",
		Methods:   "method%d",
		Errors:    "error%d",
	}
}

// Load reads and validates the configuration document at path. A missing
// formats entry for any field falls back to Defaults()'s value for that
// field, so a user only needs to override the categories they care about.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg := Config{Formats: Defaults(), PacketFormats: DefaultPacketFormats()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Formats.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.PacketFormats.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// ToRenameFormats adapts Formats to internal/rename's Formats type.
func (f Formats) ToRenameFormats() rename.Formats {
	return rename.Formats{
		Classes:   f.Classes,
		Consts:    f.Consts,
		Functions: f.Functions,
		Names:     f.Names,
		Vars:      f.Vars,
		Methods:   f.Methods,
		Errors:    f.Errors,
	}
}

// validate checks every template in the table the same way the original
// renamer's Fmt::check_format/valid() did: format it against a sentinel
// counter value and reject it if the result doesn't actually depend on the
// counter (a template missing its %d placeholder would collide every
// renamed identifier in that category onto the same name).
func (f Formats) validate() error {
	fields := map[string]string{
		"classes":   f.Classes,
		"consts":    f.Consts,
		"functions": f.Functions,
		"names":     f.Names,
		"vars":      f.Vars,
		"methods":   f.Methods,
		"errors":    f.Errors,
	}
	for name, tmpl := range fields {
		if tmpl == "" {
			return fmt.Errorf("format %q: empty template", name)
		}
		a := checkFormat(tmpl, 1)
		b := checkFormat(tmpl, 2)
		if a == b {
			return fmt.Errorf("format %q: template %q does not vary with its counter", name, tmpl)
		}
	}
	return nil
}

func checkFormat(tmpl string, counter int) string {
	if !strings.Contains(tmpl, "%d") {
		return tmpl
	}
	return strings.Replace(tmpl, "%d", strconv.Itoa(counter), 1)
}
