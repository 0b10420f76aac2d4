// Command kozi is Kozi's reference CLI: a REPL when invoked with no
// arguments, or a file interpreter when given exactly one path
// (spec.md §6). This binary, the REPL loop, and file reading are
// deliberately the only non-core pieces of Kozi — the engine itself is a
// standalone library (spec.md §1).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chazu/kozi/pkg/kozi"
)

const usage = "Usage: kozi <path>"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("kozi", flag.ContinueOnError)
	fs.SetOutput(stderr)
	trace := fs.Bool("trace", false, "print each instruction and the stack before executing it")
	gcStress := fs.Bool("gc-stress", false, "collect before every allocation, to shake out missing GC roots")
	if err := fs.Parse(args); err != nil {
		return 64
	}

	rest := fs.Args()
	if len(rest) > 1 {
		fmt.Fprintln(stderr, usage)
		return 64
	}

	v := kozi.New(stdout, stderr)
	v.SetTrace(*trace)
	v.SetGCStress(*gcStress)

	if len(rest) == 1 {
		return runFile(v, rest[0], stderr)
	}
	return repl(v, stdin, stdout)
}

func runFile(v *kozi.VM, path string, stderr io.Writer) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Could not read file %q: %v\n", path, err)
		return 74
	}

	switch v.Interpret(source) {
	case kozi.ResultCompileError:
		return 65
	case kozi.ResultRuntimeError:
		return 70
	default:
		return 0
	}
}

// repl reads one line at a time and interprets it, matching a complete
// top-level declaration/statement per line (spec.md §6). A line left open
// by an unmatched `{` is joined with the following lines until braces
// balance, so multi-line blocks can be entered interactively
// (SPEC_FULL.md §12 REPL supplement).
func repl(v *kozi.VM, stdin io.Reader, stdout io.Writer) int {
	scanner := bufio.NewScanner(stdin)
	var pending []byte
	depth := 0

	for {
		if depth == 0 {
			fmt.Fprint(stdout, "> ")
		} else {
			fmt.Fprint(stdout, "... ")
		}
		if !scanner.Scan() {
			return 0
		}

		line := scanner.Bytes()
		depth += braceDelta(line)
		pending = append(pending, line...)
		pending = append(pending, '\n')

		if depth > 0 {
			continue
		}

		v.Interpret(pending)
		pending = pending[:0]
		depth = 0
	}
}

func braceDelta(line []byte) int {
	delta := 0
	for _, b := range line {
		switch b {
		case '{':
			delta++
		case '}':
			delta--
		}
	}
	return delta
}
