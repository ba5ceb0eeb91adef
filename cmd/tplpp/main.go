// Command tplpp expands template/directive source files into plain text,
// resolving `include` against a shared registry of every file named (or
// discovered under a named directory) on the command line.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tplpp/tplpp/internal/diagnostics"
	"github.com/tplpp/tplpp/internal/environment"
	"github.com/tplpp/tplpp/internal/evaluator"
	"github.com/tplpp/tplpp/internal/parser"
	"github.com/tplpp/tplpp/internal/registry"
	"github.com/tplpp/tplpp/internal/source"
	"github.com/tplpp/tplpp/internal/value"
)

// includeDirs collects repeated -I flags.
type includeDirs []string

func (d *includeDirs) String() string { return strings.Join(*d, ",") }
func (d *includeDirs) Set(v string) error {
	*d = append(*d, v)
	return nil
}

// predefines collects repeated -X name[=value] flags into global bindings
// every generated file starts with, mirroring the teacher's own
// `-D name[=value]` macro-definition convention from its C preprocessor
// front end, adapted from a `map[string]int` of macro values to `Variant`
// globals.
type predefines []string

func (p *predefines) String() string { return strings.Join(*p, ",") }
func (p *predefines) Set(v string) error {
	*p = append(*p, v)
	return nil
}

func (p predefines) toGlobals() (map[string]value.Variant, error) {
	out := make(map[string]value.Variant, len(p))
	for _, def := range p {
		name, rest, hasValue := strings.Cut(def, "=")
		if name == "" {
			return nil, fmt.Errorf("-X %q: missing name", def)
		}
		if !hasValue {
			out[name] = value.BoolValue(true)
			continue
		}
		if n, err := strconv.ParseInt(rest, 10, 32); err == nil {
			out[name] = value.IntValue(int32(n))
		} else {
			out[name] = value.StringValue(rest)
		}
	}
	return out, nil
}

func main() {
	var dirs includeDirs
	var defs predefines
	flag.Var(&dirs, "I", "additional directory to scan for source/header files (repeatable)")
	flag.Var(&defs, "X", "predefine a global as name or name=value, value parsed as int then string (repeatable)")
	sourceExt := flag.String("D", ".tpl", "source file extension: parsed and evaluated")
	headerExt := flag.String("H", ".tph", "header file extension: parsed only, available to `include`")
	flag.Parse()

	roots := append([]string(nil), dirs...)
	roots = append(roots, flag.Args()...)
	if len(roots) == 0 {
		flag.Usage()
		log.Fatal("at least one file or directory argument is required")
	}

	globals, err := defs.toGlobals()
	if err != nil {
		log.Fatal(err)
	}

	files, err := discoverFiles(roots, *sourceExt, *headerExt)
	if err != nil {
		log.Fatalf("discovering input files: %v", err)
	}

	snk := diagnostics.NewSink(os.Stderr)
	reg := registry.New()

	compiled := compileAll(files, snk, reg)
	generateAll(compiled, *sourceExt, globals, snk, reg)
}

type discovered struct {
	path     string
	isSource bool
}

// discoverFiles expands each root: a directory is walked recursively for
// files matching sourceExt or headerExt; a direct file argument is
// classified by its own extension and a warning is printed (to stdout, per
// the informational-vs-diagnostic split) for anything else.
func discoverFiles(roots []string, sourceExt, headerExt string) ([]discovered, error) {
	var out []discovered
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			d, ok := classify(root, sourceExt, headerExt)
			if !ok {
				fmt.Printf("%s: unrecognized extension, skipping\n", root)
				continue
			}
			out = append(out, d)
			continue
		}
		matches, err := doublestar.FilepathGlob(filepath.Join(root, "**", "*"))
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if fi, err := os.Stat(m); err != nil || fi.IsDir() {
				continue
			}
			if d, ok := classify(m, sourceExt, headerExt); ok {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

func classify(path, sourceExt, headerExt string) (discovered, bool) {
	switch {
	case strings.HasSuffix(path, sourceExt):
		return discovered{path: path, isSource: true}, true
	case strings.HasSuffix(path, headerExt):
		return discovered{path: path, isSource: false}, true
	default:
		return discovered{}, false
	}
}

// compileAll lexes and parses every discovered file concurrently, putting
// each success into reg. It returns only the files worth generating
// (sources that compiled cleanly); headers are compiled for their registry
// entry alone. Every compile() call happens-before every generate() call:
// the worker pool below is drained (wg.Wait) before this function returns.
func compileAll(files []discovered, snk *diagnostics.Sink, reg *registry.Registry) []discovered {
	in := make(chan discovered)
	type result struct {
		d  discovered
		ok bool
	}
	results := make(chan result)

	workers := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for d := range in {
				results <- result{d: d, ok: compileOne(d, snk, reg)}
			}
		}()
	}

	go func() {
		for _, d := range files {
			in <- d
		}
		close(in)
		wg.Wait()
		close(results)
	}()

	var sources []discovered
	for r := range results {
		if r.ok && r.d.isSource {
			sources = append(sources, r.d)
		}
	}
	return sources
}

func compileOne(d discovered, snk *diagnostics.Sink, reg *registry.Registry) bool {
	buf, err := source.ReadFile(d.path)
	if err != nil {
		snk.Notice(d.path, fmt.Sprintf("runtime error: %v", err))
		return false
	}
	p := parser.New(buf, snk)
	file, ok := p.ParseFile()
	if !ok {
		return false
	}
	reg.Put(d.path, file, buf)
	return true
}

// generateAll evaluates every compiled source file concurrently and writes
// its output alongside the input with sourceExt stripped.
func generateAll(sources []discovered, sourceExt string, globals map[string]value.Variant, snk *diagnostics.Sink, reg *registry.Registry) {
	in := make(chan discovered)
	var wg sync.WaitGroup
	workers := runtime.GOMAXPROCS(0)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for d := range in {
				generateOne(d, sourceExt, globals, snk, reg)
			}
		}()
	}
	for _, d := range sources {
		in <- d
	}
	close(in)
	wg.Wait()
}

func generateOne(d discovered, sourceExt string, globals map[string]value.Variant, snk *diagnostics.Sink, reg *registry.Registry) {
	entry, ok := reg.Get(d.path)
	if !ok {
		return
	}
	env := environment.New(d.path, snk)
	for name, v := range globals {
		if err := env.PutGlobal(name, v); err != nil {
			snk.Notice(d.path, fmt.Sprintf("runtime error: %v", err))
			return
		}
	}
	ev := evaluator.New(env, reg, entry.Buf)
	out, err := ev.Visit(entry.File)
	if err != nil {
		snk.Notice(d.path, err.Error())
	}
	outPath := strings.TrimSuffix(d.path, sourceExt)
	if werr := os.WriteFile(outPath, []byte(out), 0o644); werr != nil {
		snk.Notice(d.path, fmt.Sprintf("runtime error: %v", werr))
	}
}
