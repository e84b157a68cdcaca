// Package driver implements the command-line contract: reading a script
// file or running an interactive REPL, compiling and executing it through
// the compiler and machine packages, and translating outcomes into the
// documented exit codes.
package driver

import (
	"bufio"
	"fmt"
	"io"

	"github.com/mna/glox/internal/config"
	"github.com/mna/glox/lang/compiler"
	"github.com/mna/glox/lang/machine"
)

// Exit codes, matching the CLI contract.
const (
	ExitSuccess      = 0
	ExitUsage        = 64
	ExitCompileError = 65
	ExitRuntimeError = 70
)

// Run implements `glox [script]`. With no args it runs an interactive REPL
// on stdin/stdout; with one arg it reads and interprets that file; with
// more than one it prints a usage message to stderr and returns
// ExitUsage.
func Run(stdout, stderr io.Writer, stdin io.Reader, cfg config.Config, args []string) int {
	switch len(args) {
	case 0:
		return runREPL(stdout, stderr, stdin, cfg)
	case 1:
		return runFile(stdout, stderr, cfg, args[0])
	default:
		fmt.Fprintln(stderr, "usage: glox [script]")
		return ExitUsage
	}
}

func runFile(stdout, stderr io.Writer, cfg config.Config, path string) int {
	source, err := readFile(path)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitRuntimeError
	}
	return interpret(stdout, stderr, cfg, source)
}

func runREPL(stdout, stderr io.Writer, stdin io.Reader, cfg config.Config) int {
	vm := machine.New(stdout, stderr, cfg.MaxFrames)
	scanner := bufio.NewScanner(stdin)
	var history []string

	for {
		fmt.Fprint(stdout, cfg.Prompt)
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "" {
			break
		}

		// Record the line unless it repeats the previous one, dropping the
		// oldest entry once HistorySize lines are kept. The REPL does not read
		// this history back.
		if len(history) == 0 || history[len(history)-1] != line {
			if len(history) >= cfg.HistorySize {
				history = history[1:]
			}
			history = append(history, line)
		}

		fn, err := compiler.Compile(line)
		if err != nil {
			fmt.Fprintln(stderr, err)
			continue
		}
		if err := vm.Interpret(fn); err != nil {
			reportRuntimeError(stderr, err)
		}
	}
	return ExitSuccess
}

func interpret(stdout, stderr io.Writer, cfg config.Config, source string) int {
	fn, err := compiler.Compile(source)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitCompileError
	}

	vm := machine.New(stdout, stderr, cfg.MaxFrames)
	if err := vm.Interpret(fn); err != nil {
		reportRuntimeError(stderr, err)
		return ExitRuntimeError
	}
	return ExitSuccess
}

func reportRuntimeError(stderr io.Writer, err error) {
	if rerr, ok := err.(*machine.RuntimeError); ok {
		fmt.Fprintln(stderr, rerr.Report())
		return
	}
	fmt.Fprintln(stderr, err)
}
