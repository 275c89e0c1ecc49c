// Command abcdeob is the command-line front end for the deobfuscation
// engine: it owns argument parsing, wires the parsed movie through
// internal/orchestrator, and reports the result. Argument parsing is a
// manual scan over os.Args rather than a flag-package Parse call,
// following cmd/funxy/main.go's own hand-rolled subcommand dispatch
// style instead of reaching for a CLI framework.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/obfdofus/abcdeob/internal/abcmodel"
	"github.com/obfdofus/abcdeob/internal/cache"
	"github.com/obfdofus/abcdeob/internal/config"
	"github.com/obfdofus/abcdeob/internal/container"
	"github.com/obfdofus/abcdeob/internal/logutil"
	"github.com/obfdofus/abcdeob/internal/matcher"
	"github.com/obfdofus/abcdeob/internal/orchestrator"
	"github.com/obfdofus/abcdeob/internal/recognize"
	"github.com/obfdofus/abcdeob/internal/report"
	"github.com/obfdofus/abcdeob/internal/reportsvc"
)

const usage = `usage: abcdeob <input.swf> <output.swf> [options]

options:
  --jobs N             unscrambling worker count (default: NumCPU+2)
  --compression MODE   none|zlib|lzma (default: matches input)
  --matchers DIR       directory of declarative matcher rule YAML files
  --config FILE        YAML config overriding rename format strings
  --proxy PORT         rewrite the embedded server endpoint to 127.0.0.1:PORT
  --ignore-missing     continue past a missing obfuscation primitive
  --cache PATH         sqlite recognizer-verdict cache
  --report FILE        write the JSON run summary to FILE (default: stdout)
  --report-addr ADDR   serve the run summary over gRPC at ADDR while running
  -v, -vv              increase log verbosity
  -h, --help           print this message
`

type options struct {
	input, output string
	jobs          int
	compression   container.Compression
	hasCompression bool
	matchersDir   string
	configPath    string
	proxyPort     int
	hasProxy      bool
	ignoreMissing bool
	cachePath     string
	reportPath    string
	reportAddr    string
	verbosity     int
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		if err == errHelp {
			fmt.Fprint(os.Stderr, usage)
			return 0
		}
		fmt.Fprintf(os.Stderr, "abcdeob: %v\n\n%s", err, usage)
		return 1
	}

	logger := logutil.New(os.Stderr, logutil.FromVerbosity(opts.verbosity))
	sum := report.New(opts.input)

	var rsvc *reportsvc.Server
	if opts.reportAddr != "" {
		rsvc, err = reportsvc.New()
		if err != nil {
			logger.Errorf("starting report service: %v", err)
			return 2
		}
		rsvc.SetSummary(sum)
		go func() {
			if err := rsvc.Serve(opts.reportAddr); err != nil {
				logger.Warnf("report service stopped: %v", err)
			}
		}()
		defer rsvc.Stop()
	}

	exitCode := doRun(opts, logger, sum)
	sum.ExitCode = exitCode
	if rsvc != nil {
		rsvc.SetSummary(sum)
	}
	if err := writeReport(opts.reportPath, sum); err != nil {
		logger.Warnf("writing report: %v", err)
	}
	return exitCode
}

var errHelp = fmt.Errorf("help requested")

func parseArgs(args []string) (options, error) {
	opts := options{jobs: 0}
	var positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch a {
		case "-h", "--help":
			return opts, errHelp
		case "-v":
			opts.verbosity = max(opts.verbosity, 1)
		case "-vv":
			opts.verbosity = max(opts.verbosity, 2)
		case "--ignore-missing":
			opts.ignoreMissing = true
		case "--jobs":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("--jobs requires a value")
			}
			if _, err := fmt.Sscanf(args[i], "%d", &opts.jobs); err != nil {
				return opts, fmt.Errorf("--jobs: invalid integer %q", args[i])
			}
		case "--compression":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("--compression requires a value")
			}
			c, err := parseCompression(args[i])
			if err != nil {
				return opts, err
			}
			opts.compression = c
			opts.hasCompression = true
		case "--matchers":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("--matchers requires a value")
			}
			opts.matchersDir = args[i]
		case "--config":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("--config requires a value")
			}
			opts.configPath = args[i]
		case "--proxy":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("--proxy requires a value")
			}
			if _, err := fmt.Sscanf(args[i], "%d", &opts.proxyPort); err != nil {
				return opts, fmt.Errorf("--proxy: invalid port %q", args[i])
			}
			opts.hasProxy = true
		case "--cache":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("--cache requires a value")
			}
			opts.cachePath = args[i]
		case "--report":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("--report requires a value")
			}
			opts.reportPath = args[i]
		case "--report-addr":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("--report-addr requires a value")
			}
			opts.reportAddr = args[i]
		default:
			if len(a) > 0 && a[0] == '-' {
				return opts, fmt.Errorf("unknown flag %q", a)
			}
			positional = append(positional, a)
		}
	}
	if len(positional) != 2 {
		return opts, fmt.Errorf("expected exactly 2 positional arguments (input, output), got %d", len(positional))
	}
	opts.input, opts.output = positional[0], positional[1]
	return opts, nil
}

func parseCompression(s string) (container.Compression, error) {
	switch s {
	case "none":
		return container.CompressionNone, nil
	case "zlib":
		return container.CompressionZlib, nil
	case "lzma":
		return container.CompressionLZMA, nil
	default:
		return 0, fmt.Errorf("--compression: unknown mode %q (want none|zlib|lzma)", s)
	}
}

// doRun performs the actual open/process/save sequence, returning the
// process exit code per spec.md §6: 0 success, 2 I/O or parse error, 3
// missing obfuscation primitive with --ignore-missing not set.
func doRun(opts options, logger *logutil.Logger, sum *report.Summary) int {
	raw, err := os.ReadFile(opts.input)
	if err != nil {
		logger.Errorf("reading %s: %v", opts.input, err)
		return 2
	}

	movie, err := container.Open(opts.input)
	if err != nil {
		logger.Errorf("opening movie: %v", err)
		return 2
	}

	if opts.hasProxy {
		if container.RewriteEndpoint(movie.ABC, opts.proxyPort) {
			logger.Infof("rewrote embedded endpoint to 127.0.0.1:%d", opts.proxyPort)
		} else {
			logger.Warnf("no endpoint string found to rewrite")
		}
	}

	f, err := abcmodel.FromLinked(movie.ABC)
	if err != nil {
		logger.Errorf("adapting ABC model: %v", err)
		return 2
	}

	formats := config.Defaults().ToRenameFormats()
	packetFormats := config.DefaultPacketFormats().ToPacketFormats()
	var rules matcher.RuleSet
	ignoreMissing := opts.ignoreMissing
	if opts.configPath != "" {
		cfg, err := config.Load(opts.configPath)
		if err != nil {
			logger.Errorf("loading config: %v", err)
			return 1
		}
		formats = cfg.Formats.ToRenameFormats()
		packetFormats = cfg.PacketFormats.ToPacketFormats()
		if opts.matchersDir == "" {
			opts.matchersDir = cfg.MatchersDir
		}
		if opts.cachePath == "" {
			opts.cachePath = cfg.CachePath
		}
		ignoreMissing = ignoreMissing || cfg.IgnoreMissing
	}
	if opts.matchersDir != "" {
		rules, err = matcher.LoadDir(opts.matchersDir)
		if err != nil {
			logger.Errorf("loading matchers: %v", err)
			return 1
		}
	}

	var store *cache.Store
	var movieHash string
	var precomputed *recognize.Result
	if opts.cachePath != "" {
		store, err = cache.Open(opts.cachePath)
		if err != nil {
			logger.Errorf("opening cache: %v", err)
			return 2
		}
		defer store.Close()
		movieHash = cache.HashMovie(raw)
		if cached, ok, err := store.Lookup(context.Background(), movieHash); err != nil {
			logger.Warnf("cache lookup: %v", err)
		} else if ok {
			logger.Infof("recognizer verdict cache hit for %s", movieHash[:12])
			precomputed = &cached
		}
	}

	procOpts := orchestrator.Options{
		Jobs:          opts.jobs,
		Formats:       formats,
		PacketFormats: packetFormats,
		Matchers:      rules,
		IgnoreMissing: ignoreMissing,
		Precomputed:   precomputed,
		OnWarning: func(err error) {
			logger.Warnf("%v", err)
		},
	}

	if store != nil && precomputed == nil {
		res := orchestrator.Recognize(f)
		if err := store.Put(context.Background(), movieHash, res, time.Now().Unix()); err != nil {
			logger.Warnf("storing cache verdict: %v", err)
		}
		procOpts.Precomputed = &res
	}

	rep, err := orchestrator.Process(context.Background(), f, procOpts)
	if err != nil {
		logger.Errorf("%v", err)
		var mp recognize.MissingPrimitive
		if errors.As(err, &mp) {
			sum.FromOrchestrator(rep, []string{mp.Name}, 3)
			return 3
		}
		sum.FromOrchestrator(rep, nil, 2)
		return 2
	}

	compression := movie.Compression()
	if opts.hasCompression {
		compression = opts.compression
	}
	if err := movie.Save(opts.output, compression, f); err != nil {
		logger.Errorf("saving %s: %v", opts.output, err)
		sum.FromOrchestrator(rep, nil, 2)
		return 2
	}

	sum.Output = opts.output
	sum.FromOrchestrator(rep, nil, 0)
	logger.Infof("wrote %s: %d classes, %d static classes, %d wrapper classes, %d packet routes",
		opts.output, rep.ClassesTotal, rep.StaticClasses, rep.WrapperClasses, rep.PacketRoutes)
	return 0
}

func writeReport(path string, sum *report.Summary) error {
	if path == "" {
		return sum.WriteJSON(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return sum.WriteJSON(f)
}
