// Package orchestrator drives the full deobfuscation pipeline: the
// invalid-name renamer runs first so later phases can rely on its
// placeholder names, then a single-threaded class-initializer simplify
// pass, then the recognition sweep, then parallel unscrambling, then the
// remaining single-threaded phases (packet naming, namespace assignment,
// declarative matching).
package orchestrator

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/obfdofus/abcdeob/internal/abcmodel"
	"github.com/obfdofus/abcdeob/internal/matcher"
	"github.com/obfdofus/abcdeob/internal/nsassign"
	"github.com/obfdofus/abcdeob/internal/packetanalyze"
	"github.com/obfdofus/abcdeob/internal/recognize"
	"github.com/obfdofus/abcdeob/internal/rename"
	"github.com/obfdofus/abcdeob/internal/simplify"
	"github.com/obfdofus/abcdeob/internal/unscramble"
)

// Options configures one run of Process.
type Options struct {
	// Jobs is the number of goroutines the unscrambling phase fans out
	// to. Zero selects runtime.NumCPU()+2, a worker count chosen to keep
	// CPUs saturated even while some goroutines block briefly on the
	// constant pool mutex.
	Jobs int

	Formats       rename.Formats
	PacketFormats packetanalyze.Formats
	Matchers      matcher.RuleSet
	IgnoreMissing bool
	OnWarning     func(error)

	// Precomputed, when non-nil, is used instead of running
	// recognize.Sweep again — the recognizer-cache fast path internal/cache
	// supports for repeated runs against the same movie.
	Precomputed *recognize.Result
}

// Report summarizes one completed run, for internal/report to serialize.
type Report struct {
	ClassesTotal   int
	StaticClasses  int
	WrapperClasses int
	PacketRoutes   int
	TribulleRoutes int
	ClassesRenamed int
	MatcherRenames int
	Warnings       []string
}

// Process runs every phase of the pipeline against f, mutating it in
// place, and returns a summary report.
func Process(ctx context.Context, f *abcmodel.File, opts Options) (Report, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU() + 2
	}

	var report Report
	warn := func(err error) {
		report.Warnings = append(report.Warnings, err.Error())
		if opts.OnWarning != nil {
			opts.OnWarning(err)
		}
	}

	// phase 1: invalid-name renamer. §4.9 requires this to run before
	// analysis — §4.7e's interface-proxy rename depends on the
	// method_/name_/const_ placeholder prefixes this phase produces, so it
	// cannot run after the recognizers have already classified anything.
	renamer := rename.New(f.Pool, opts.Formats)
	renamer.RenameAll(f)
	counters := renamer.Counters()
	report.ClassesRenamed = counters.Classes

	// phase 2: class-initializer simplify, single-threaded and scoped to
	// cinit methods only (§4.4/§2) — the constant-folding simplify performs
	// is only sound to apply once, up front, to the straight-line
	// initializer code that builds a static class's constant slots; running
	// it over every method (as the unscrambling loop used to) reached
	// method bodies it has no business touching.
	for _, c := range f.Classes {
		m := methodAt(f, c.ClassInit)
		if m == nil || !m.HasBody || m.Graph == nil {
			continue
		}
		simplify.Simplify(f.Pool, m.Graph)
	}

	// phase 3: recognition sweep (single-threaded: it only reads the
	// model, but classifying each class depends on slot/method content
	// that isn't safe to race against a concurrent rewrite of the same
	// pool).
	var res recognize.Result
	if opts.Precomputed != nil {
		res = *opts.Precomputed
	} else {
		res = recognize.Sweep(f)
	}
	report.ClassesTotal = len(f.Classes)
	report.StaticClasses = len(res.StaticClasses)
	report.WrapperClasses = len(res.Wrappers)

	serverboundBase, err := res.RequireServerboundBase()
	if err != nil {
		if !opts.IgnoreMissing {
			return report, fmt.Errorf("orchestrator: %w", err)
		}
		warn(err)
	}

	if len(res.Dispatchers) == 0 {
		warn(recognize.MissingPrimitive{Name: "packet dispatcher"})
	}

	idx := unscramble.NewIndex(res)

	// phase 4: unscrambling, fanned out across jobs goroutines. Every
	// goroutine only ever touches the Graph of the method it owns; the
	// pool's own mutex (internal/abcmodel.Pool) is the only shared state
	// any of them mutate.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, m := range f.Methods {
		m := m
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			if !m.HasBody || m.Graph == nil {
				return nil
			}
			unscramble.Unscramble(f.Pool, m.Graph, idx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("orchestrator: unscrambling: %w", err)
	}

	// phase 5: packet naming, single-threaded (it builds a single
	// namespace-assignment index across all classes).
	asn := nsassign.New(f.Pool)
	fmts := opts.PacketFormats
	if fmts.ClientboundPacket == "" {
		fmts = packetanalyze.DefaultFormats()
	}

	if err == nil {
		if base := classByMultiname(f, serverboundBase.ClassIndex); base != nil {
			packetanalyze.RenameWriterMethods(f, base)
			sRoutes := packetanalyze.MineServerboundRoutes(f, base)
			report.PacketRoutes += len(sRoutes)
			for _, a := range packetanalyze.AssignNames(sRoutes, fmts) {
				asn.Assign(a.ClassMultiname, nsassign.PackagePacketsServerbound)
			}
		}
	}

	for _, vr := range res.VarIntReaders {
		if c := classByMultiname(f, vr.ClassIndex); c != nil {
			packetanalyze.RenameReaderMethods(f, c)
		}
	}

	for _, proxy := range res.InterfaceProxies {
		if c := classByMultiname(f, proxy.ClassIndex); c != nil {
			rename.RenameInterfaceProxyKeys(f.Pool, methodAt(f, c.InstanceInit), opts.Formats)
		}
	}

	for _, d := range res.Dispatchers {
		m := methodAt(f, d.Method)
		if m == nil || m.Graph == nil {
			continue
		}
		routes := packetanalyze.WalkDispatcher(f, m.Graph)
		report.PacketRoutes += len(routes)
		for _, a := range packetanalyze.AssignNames(routes, fmts) {
			asn.Assign(a.ClassMultiname, nsassign.PackagePacketsClientbound)
		}

		tribulle := packetanalyze.WalkTribulle(f, m.Graph)
		report.TribulleRoutes += len(tribulle)
		for _, a := range packetanalyze.AssignTribulleNames(tribulle, fmts) {
			pkg := nsassign.PackagePacketsTribulleClientbound
			for _, r := range tribulle {
				if r.ClassName == a.ClassMultiname && r.Serverbound {
					pkg = nsassign.PackagePacketsTribulleServerbound
					break
				}
			}
			asn.Assign(a.ClassMultiname, pkg)
		}
	}

	// phase 6: declarative matcher pass.
	report.MatcherRenames = matcher.Apply(f, opts.Matchers)

	return report, nil
}

// Recognize exposes the recognition sweep on its own so a caller (the
// --cache fast path in cmd/abcdeob) can run it once, persist the result,
// and hand it back in via Options.Precomputed on a later run against the
// same movie.
func Recognize(f *abcmodel.File) recognize.Result {
	return recognize.Sweep(f)
}

func methodAt(f *abcmodel.File, idx int) *abcmodel.Method {
	if idx < 0 || idx >= len(f.Methods) {
		return nil
	}
	return f.Methods[idx]
}

func classByMultiname(f *abcmodel.File, nameIdx int) *abcmodel.Class {
	for _, c := range f.Classes {
		if c.Name == nameIdx {
			return c
		}
	}
	return nil
}
