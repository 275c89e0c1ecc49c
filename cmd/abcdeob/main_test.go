package main

import (
	"testing"

	"github.com/obfdofus/abcdeob/internal/container"
)

func TestParseArgsMinimal(t *testing.T) {
	opts, err := parseArgs([]string{"in.swf", "out.swf"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opts.input != "in.swf" || opts.output != "out.swf" {
		t.Fatalf("unexpected positional parse: %+v", opts)
	}
	if opts.hasCompression || opts.hasProxy || opts.ignoreMissing {
		t.Fatalf("unexpected defaults flipped on: %+v", opts)
	}
}

func TestParseArgsAllFlags(t *testing.T) {
	opts, err := parseArgs([]string{
		"--jobs", "4",
		"--compression", "lzma",
		"--matchers", "rules/",
		"--config", "abcdeob.yaml",
		"--proxy", "8080",
		"--ignore-missing",
		"--cache", "verdicts.db",
		"--report", "summary.json",
		"--report-addr", "127.0.0.1:9000",
		"-vv",
		"in.swf", "out.swf",
	})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opts.jobs != 4 {
		t.Errorf("jobs = %d, want 4", opts.jobs)
	}
	if !opts.hasCompression || opts.compression != container.CompressionLZMA {
		t.Errorf("compression not parsed: %+v", opts)
	}
	if opts.matchersDir != "rules/" || opts.configPath != "abcdeob.yaml" {
		t.Errorf("matchers/config not parsed: %+v", opts)
	}
	if !opts.hasProxy || opts.proxyPort != 8080 {
		t.Errorf("proxy not parsed: %+v", opts)
	}
	if !opts.ignoreMissing {
		t.Errorf("ignore-missing not set")
	}
	if opts.cachePath != "verdicts.db" || opts.reportPath != "summary.json" || opts.reportAddr != "127.0.0.1:9000" {
		t.Errorf("cache/report paths not parsed: %+v", opts)
	}
	if opts.verbosity != 2 {
		t.Errorf("verbosity = %d, want 2", opts.verbosity)
	}
}

func TestParseArgsRejectsWrongArity(t *testing.T) {
	if _, err := parseArgs([]string{"only-one.swf"}); err == nil {
		t.Fatalf("expected an error for a single positional argument")
	}
	if _, err := parseArgs([]string{"a.swf", "b.swf", "c.swf"}); err == nil {
		t.Fatalf("expected an error for three positional arguments")
	}
}

func TestParseArgsRejectsUnknownFlag(t *testing.T) {
	if _, err := parseArgs([]string{"--bogus", "in.swf", "out.swf"}); err == nil {
		t.Fatalf("expected an error for an unknown flag")
	}
}

func TestParseArgsHelp(t *testing.T) {
	_, err := parseArgs([]string{"--help"})
	if err != errHelp {
		t.Fatalf("expected errHelp sentinel, got %v", err)
	}
}

func TestParseCompressionRejectsUnknown(t *testing.T) {
	if _, err := parseCompression("bogus"); err == nil {
		t.Fatalf("expected an error for an unknown compression mode")
	}
}
