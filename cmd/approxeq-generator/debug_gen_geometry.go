//go:build ignore

package main

import (
	"fmt"
	"os"

	"approxeq-generator/internal/analyze"
	"approxeq-generator/internal/diagnostic"
	"approxeq-generator/internal/gen"
	"approxeq-generator/internal/plan"
)

func main() {
	const pkg = "approxeq-generator/examples/geometry"

	gph, err := analyze.NewAnalyzer().LoadPackages(pkg)
	if err != nil {
		fmt.Println("load packages:", err)
		os.Exit(1)
	}

	var diags diagnostic.Diagnostics

	descs := gph.Select(pkg, nil, &diags)
	if diags.HasErrors() {
		fmt.Println("select diagnostics:")
		fmt.Printf("%+v\n", diags)
		os.Exit(1)
	}

	linked, err := plan.Link(descs)
	if err != nil {
		fmt.Println("link error:", err)
		os.Exit(1)
	}

	var outputs []*plan.Output

	for _, d := range linked {
		out, err := plan.Synthesize(d)
		if err != nil {
			fmt.Println("synthesize error:", err)
			os.Exit(1)
		}

		outputs = append(outputs, out)
	}

	generator := gen.NewGenerator(gen.DefaultGeneratorConfig())
	files, genErr := generator.Generate(outputs)
	if genErr != nil {
		fmt.Println("generate error:", genErr)
		for _, f := range files {
			fmt.Println("===", f.Filename, "===")
			fmt.Println(string(f.Content))
		}
		os.Exit(1)
	}

	for _, f := range files {
		fmt.Println("===", f.Filename, "===")
		fmt.Println(string(f.Content))
	}
}
