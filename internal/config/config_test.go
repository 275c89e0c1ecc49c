package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	if err := Defaults().validate(); err != nil {
		t.Fatalf("Defaults() failed validation: %v", err)
	}
}

func TestValidateRejectsNoOpFormat(t *testing.T) {
	f := Defaults()
	f.Classes = "ObfuscatedClass"
	if err := f.validate(); err == nil {
		t.Fatalf("expected validation error for a %%d-less template")
	}
}

func TestValidateRejectsEmptyTemplate(t *testing.T) {
	f := Defaults()
	f.Methods = ""
	if err := f.validate(); err == nil {
		t.Fatalf("expected validation error for an empty template")
	}
}

func TestLoadFillsDefaultsForOmittedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := "formats:\n  classes: Pkt%d\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Formats.Classes != "Pkt%d" {
		t.Fatalf("Classes = %q, want Pkt%%d", cfg.Formats.Classes)
	}
	if cfg.Formats.Methods != Defaults().Methods {
		t.Fatalf("Methods = %q, want default %q", cfg.Formats.Methods, Defaults().Methods)
	}
}

func TestLoadRejectsBadFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := "formats:\n  vars: staticname\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected Load to reject a no-op vars format")
	}
}
