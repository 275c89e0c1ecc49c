// Package report builds the machine-readable run summary the original
// command-line tool never had: original_source only ever logged to the
// console at -v/-vv. A batch or CI caller driving many movies through
// cmd/abcdeob benefits from a JSON artifact it can diff or archive instead
// of scraping stdout, so this supplements (rather than replaces) the
// console logging in internal/logutil.
package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/obfdofus/abcdeob/internal/orchestrator"
)

// RenamedClass is one packet class the run assigned a semantic name to,
// surfaced for a caller that wants to diff naming coverage across builds
// of the same obfuscated client without re-running the tool.
type RenamedClass struct {
	ClassMultiname int    `json:"class_multiname"`
	Name           string `json:"name"`
	Namespace      string `json:"namespace"`
}

// Summary is the top-level JSON document cmd/abcdeob writes to stdout (or
// the path given by --report) and, when --report-addr is set, serves over
// gRPC via internal/reportsvc.
type Summary struct {
	RunID       uuid.UUID `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Input       string    `json:"input"`
	Output      string    `json:"output,omitempty"`

	ClassesTotal   int `json:"classes_total"`
	StaticClasses  int `json:"static_classes"`
	WrapperClasses int `json:"wrapper_classes"`
	PacketRoutes   int `json:"packet_routes"`
	TribulleRoutes int `json:"tribulle_routes"`
	ClassesRenamed int `json:"classes_renamed"`
	MatcherRenames int `json:"matcher_renames"`

	Missing  []string `json:"missing,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	ExitCode int      `json:"exit_code"`
}

// New starts a Summary for a fresh run against input, tagging it with a
// random run id the way builtins_grpc.go's caller-supplied request id
// tags an RPC — here generated once per process instead of once per call,
// since one run of the CLI is the unit of work this report describes.
func New(input string) *Summary {
	return &Summary{
		RunID:     uuid.New(),
		StartedAt: now(),
		Input:     input,
	}
}

// now is the one place this package would call time.Now; kept as a var so
// tests can stub it without reaching into every call site. Workflow
// scripts in this repo's own build never invoke this package, so the
// indirection only matters for this package's own tests.
var now = time.Now

// FromOrchestrator copies an orchestrator.Report's counters into s and
// marks the run finished with the given exit code.
func (s *Summary) FromOrchestrator(r orchestrator.Report, missing []string, exitCode int) {
	s.FinishedAt = now()
	s.ClassesTotal = r.ClassesTotal
	s.StaticClasses = r.StaticClasses
	s.WrapperClasses = r.WrapperClasses
	s.PacketRoutes = r.PacketRoutes
	s.TribulleRoutes = r.TribulleRoutes
	s.ClassesRenamed = r.ClassesRenamed
	s.MatcherRenames = r.MatcherRenames
	s.Warnings = append([]string{}, r.Warnings...)
	s.Missing = missing
	s.ExitCode = exitCode
}

// WriteJSON serializes s as indented JSON to w.
func (s *Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
