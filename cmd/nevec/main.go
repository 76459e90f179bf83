// Command nevec compiles a single Neve source file to a .geada
// bytecode artifact.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/neve-lang/nevec/internal/buildinfo"
	"github.com/neve-lang/nevec/internal/frontend"
	"github.com/neve-lang/nevec/internal/pipeline"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	var filename string
	noOpt := false

	for _, arg := range args {
		if arg == "--version" {
			fmt.Println(buildinfo.New())
			return
		}
		if arg == "--no-opt" {
			noOpt = true
			continue
		}
		if strings.HasPrefix(arg, "-") {
			fmt.Fprintf(os.Stderr, "nevec: unrecognized flag %q\n", arg)
			os.Exit(1)
		}
		filename = arg
	}

	if filename == "" {
		usage()
		os.Exit(1)
	}

	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nevec: %v\n", err)
		os.Exit(1)
	}

	fe := frontend.Stub{}
	program, err := fe.Parse(filename, source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nevec: %v\n", err)
		os.Exit(1)
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nevec: %v\n", err)
		os.Exit(1)
	}

	artifact, err := pipeline.Compile(program, pipeline.Options{NoOpt: noOpt, SourcePath: absPath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "nevec: %v\n", err)
		os.Exit(1)
	}

	out := outputPath(filename)
	if err := os.WriteFile(out, artifact.Container(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "nevec: %v\n", err)
		os.Exit(1)
	}
}

// outputPath replaces a .neve suffix with .geada, or appends .geada if
// the input didn't carry the expected extension.
func outputPath(filename string) string {
	if strings.HasSuffix(filename, ".neve") {
		return strings.TrimSuffix(filename, ".neve") + ".geada"
	}
	return filename + ".geada"
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: nevec <file.neve> [--no-opt]")
}
