// Command nevec-dump disassembles one or more .geada bytecode
// containers and prints their constant pool, debug table, and
// instruction stream. It is a read-only inspector, never a writer.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/kr/pretty"
	"github.com/ncruces/go-strftime"
	"golang.org/x/sync/errgroup"

	"github.com/neve-lang/nevec/internal/bytecode"
)

func main() {
	args := os.Args[1:]

	verbose := false
	var files []string
	for _, arg := range args {
		if arg == "--verbose" || arg == "-v" {
			verbose = true
			continue
		}
		files = append(files, arg)
	}

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: nevec-dump <file.geada...> [--verbose]")
		os.Exit(1)
	}

	reports := make([]string, len(files))

	var g errgroup.Group
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			report, err := dumpFile(file, verbose)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "nevec-dump: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(strings.Join(reports, "\n"))
}

// dumpFile reads and renders a single container. Each invocation is
// tagged with a fresh run ID purely so two dumps of the same file in a
// batch can be told apart in piped output.
func dumpFile(path string, verbose bool) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	container, err := bytecode.DecodeContainer(raw)
	if err != nil {
		return "", err
	}

	instrs, err := container.Disassemble()
	if err != nil {
		return "", err
	}

	runID := uuid.New()
	stamp, err := strftime.Format("%Y-%m-%d %H:%M:%S", time.Now())
	if err != nil {
		stamp = time.Now().String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== %s (run %s, dumped %s) ===\n", path, runID, stamp)
	if container.SourcePath != "" {
		fmt.Fprintf(&b, "compiled from: %s\n", container.SourcePath)
	}
	fmt.Fprintf(&b, "size: %s, constants: %d, debug entries: %d, instructions: %d\n",
		humanize.Bytes(uint64(len(raw))), len(container.Consts), len(container.Debug), len(instrs))

	fmt.Fprintln(&b, "-- constants --")
	for i, c := range container.Consts {
		fmt.Fprintf(&b, "  [%d] %s\n", i, c)
	}
	if verbose {
		fmt.Fprintln(&b, "-- constants (verbose) --")
		fmt.Fprintf(&b, "%# v\n", pretty.Formatter(container.Consts))
	}

	fmt.Fprintln(&b, "-- code --")
	offset := 0
	for _, instr := range instrs {
		line := container.LineFor(uint32(offset))
		fmt.Fprintf(&b, "  %04d  L%-4d  %-10s %v\n", offset, line, instr.Op, instr.Operands)
		offset += 1 + len(instr.Operands)
	}

	return b.String(), nil
}
