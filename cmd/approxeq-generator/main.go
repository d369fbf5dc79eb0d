// Package main provides the CLI entrypoint for approxeq-generator.
//
// approxeq-generator generates tolerance-based equality procedures for Go
// types:
//   - Parses Go packages (AST + go/types) for types marked //approx:derive
//   - Applies pinned directives from an optional YAML file
//   - Generates AbsDiffEq and RelativeEq procedures next to the types
//
// Usage:
//
//	approxeq-generator gen [flags] <packages>
//	approxeq-generator plan [flags] <packages>
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"approxeq-generator/internal/analyze"
	"approxeq-generator/internal/config"
	"approxeq-generator/internal/descriptor"
	"approxeq-generator/internal/diagnostic"
	"approxeq-generator/internal/gen"
	"approxeq-generator/internal/plan"
)

const usage = `usage: approxeq-generator gen|plan [flags] <packages>

Commands:
  gen    write the generated procedures
  plan   print the resolved comparison plans

Flags:
`

var errUsage = errors.New("invalid usage")

type options struct {
	types  string
	config string
	output string
	file   string
	debug  bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || args[0] != "gen" && args[0] != "plan" {
		fmt.Fprint(os.Stderr, usage)
		newFlagSet(&options{}).PrintDefaults()

		return 2
	}

	cmd := args[0]

	var opts options

	fs := newFlagSet(&opts)
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if fs.NArg() == 0 {
		logger.Error("no packages given")
		return 2
	}

	outputs, dirs, err := resolve(logger, opts, fs.Args())
	if err != nil {
		logger.Error("resolving plans", "err", err)
		return 1
	}

	if cmd == "plan" {
		spew.Fdump(os.Stdout, outputs)
		return 0
	}

	if err := generate(logger, opts, outputs, dirs); err != nil {
		logger.Error("generating code", "err", err)
		return 1
	}

	return 0
}

func newFlagSet(opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet("approxeq-generator", flag.ContinueOnError)
	fs.StringVar(&opts.types, "type", "", "comma-separated type names (default: all //approx:derive types)")
	fs.StringVar(&opts.config, "config", "", "YAML file with pinned directives")
	fs.StringVar(&opts.output, "output", "", "output directory (default: the package directory)")
	fs.StringVar(&opts.file, "file", gen.DefaultGeneratorConfig().Filename, "generated file name")
	fs.BoolVar(&opts.debug, "v", false, "debug logging")

	return fs
}

// resolve runs the front end and synthesis for the given package patterns.
// It returns the outputs in package and declaration order and the directory
// of each package.
func resolve(logger *slog.Logger, opts options, patterns []string) ([]*plan.Output, map[string]string, error) {
	var overrides *config.File

	if opts.config != "" {
		f, err := config.LoadFile(opts.config)
		if err != nil {
			return nil, nil, err
		}

		overrides = f

		logger.Debug("loaded overrides", "path", opts.config, "types", len(f.Types))
	}

	graph, err := analyze.NewAnalyzer().LoadPackages(patterns...)
	if err != nil {
		return nil, nil, err
	}

	var (
		diags diagnostic.Diagnostics
		descs []*descriptor.Descriptor
		dirs  = make(map[string]string)
	)

	for _, pkgPath := range graph.PackagePaths() {
		pkg := graph.Packages[pkgPath]
		dirs[pkgPath] = pkg.Dir

		names := selectNames(graph, pkg, opts.types, overrides)
		if opts.types == "" && len(names) == 0 {
			logger.Debug("no derived types", "pkg", pkgPath)
			continue
		}

		for _, d := range graph.Select(pkgPath, names, &diags) {
			applied, err := overrides.Apply(d, graph)
			if err != nil {
				diags.AddErr(err)
				continue
			}

			diags.Warnings = append(diags.Warnings, analyze.FieldWarnings(applied)...)
			descs = append(descs, applied)
		}
	}

	for _, w := range diags.Warnings {
		logger.Warn(w.Message, "type", w.TypeName, "field", w.FieldPath, "code", w.Code)
	}

	if err := diags.Error(); err != nil {
		return nil, nil, err
	}

	linked, err := plan.Link(descs)
	if err != nil {
		return nil, nil, err
	}

	outputs := make([]*plan.Output, 0, len(linked))

	for _, d := range linked {
		out, err := plan.Synthesize(d)
		if err != nil {
			return nil, nil, err
		}

		logger.Debug("synthesized", "type", d.Name, "tolerance", out.Tolerance.Type, "source", out.Tolerance.Source)

		outputs = append(outputs, out)
	}

	return outputs, dirs, nil
}

// selectNames returns the explicitly requested types, or the types marked
// by a tag or by the overrides file in declaration order.
func selectNames(graph *analyze.TypeGraph, pkg *analyze.PackageInfo, types string, overrides *config.File) []string {
	if types != "" {
		return strings.Split(types, ",")
	}

	all := make([]string, len(pkg.Types))
	for i, id := range pkg.Types {
		all[i] = id.Name
	}

	pinned := make(map[string]bool)
	for _, name := range overrides.DerivedTypes(pkg.Path, all) {
		pinned[name] = true
	}

	var names []string

	for _, id := range pkg.Types {
		if graph.Types[id].IsDerived() || pinned[id.Name] {
			names = append(names, id.Name)
		}
	}

	return names
}

func generate(logger *slog.Logger, opts options, outputs []*plan.Output, dirs map[string]string) error {
	if len(outputs) == 0 {
		return fmt.Errorf("%w: %w", errUsage, gen.ErrNoOutputs)
	}

	cfg := gen.DefaultGeneratorConfig()
	cfg.Filename = opts.file
	cfg.OutputDir = opts.output

	files, err := gen.NewGenerator(cfg).Generate(outputs)
	if err != nil {
		return err
	}

	if opts.output != "" {
		err = gen.WriteFiles(files, opts.output)
	} else {
		err = gen.WritePackageFiles(files, dirs)
	}

	if err != nil {
		return err
	}

	for _, f := range files {
		logger.Info("generated", "pkg", f.PkgPath, "file", f.Filename)
	}

	return nil
}
