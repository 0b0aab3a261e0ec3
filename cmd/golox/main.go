// Entry point for the golox interpreter.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/loxlang/golox/internal/ansi"
	"github.com/loxlang/golox/internal/compiler"
	"github.com/loxlang/golox/internal/interpreter"
	"github.com/loxlang/golox/internal/parser"
	"github.com/loxlang/golox/internal/resolver"
	"github.com/loxlang/golox/internal/vm"
)

var (
	cmd     = flag.String("c", "", "Program passed in as a string")
	useVM   = flag.Bool("vm", false, "Execute with the bytecode VM backend instead of the tree-walking interpreter")
	testRun = flag.Bool("test", false, "Run in test mode: identical behaviour, stdout is the channel compared by the golden-file harness")

	cpuProfile = flag.String("cpuprofile", "", "Write a CPU profile to the specified file before exiting.")
	memProfile = flag.String("memprofile", "", "Write an allocation profile to the file before exiting.")
	traceFile  = flag.String("trace", "", "Write an execution trace to the specified file before exiting.")
)

// nolint:revive
func Usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: golox [options] [script] [--test]\n")
	fmt.Fprintf(flag.CommandLine.Output(), "\n")
	fmt.Fprintf(flag.CommandLine.Output(), "Options:\n")
	flag.PrintDefaults()
}

func main() {
	log.SetFlags(0)

	flag.Usage = Usage
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatalf("failed to create CPU profile: %s", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Fatalf("failed to close CPU profile: %s", err)
			}
		}()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("failed to start CPU profile: %s", err)
		}
		defer pprof.StopCPUProfile()
	}
	if *memProfile != "" {
		defer func() {
			f, err := os.Create(*memProfile)
			if err != nil {
				log.Fatalf("failed to create memory profile: %s", err)
			}
			defer func() {
				if err := f.Close(); err != nil {
					log.Fatalf("failed to close memory profile: %s", err)
				}
			}()
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				log.Fatalf("failed to start memory profile: %s", err)
			}
		}()
	}
	if *traceFile != "" {
		f, err := os.Create(*traceFile)
		if err != nil {
			log.Fatalf("failed to create trace output file: %s", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Fatalf("failed to close trace file: %s", err)
			}
		}()

		if err := trace.Start(f); err != nil {
			log.Fatalf("failed to start trace: %s", err)
		}
		defer trace.Stop()
	}

	if *cmd != "" {
		if err := run([]byte(*cmd), interpreter.New(), vm.New()); err != nil {
			printError(err)
		}
		return
	}

	args := flag.Args()
	if len(args) == 2 && args[1] == "--test" {
		*testRun = true
		args = args[:1]
	}

	switch len(args) {
	case 0:
		if err := runREPL(); err != nil {
			log.Fatal(err)
		}
	case 1:
		if err := runFile(args[0]); err != nil {
			log.Fatal(err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// run parses and executes src with the backend selected by -vm. Both backends share the lexer and
// the same diagnostic formatting.
func run(src []byte, in *interpreter.Interpreter, machine *vm.VM) error {
	if *useVM {
		chunk, err := compiler.Compile(src)
		if err != nil {
			return err
		}
		return machine.Run(chunk)
	}

	prog, err := parser.Parse(src)
	if err != nil {
		return err
	}
	locals, err := resolver.Resolve(prog)
	if err != nil {
		return err
	}
	return in.Interpret(prog, locals)
}

func runREPL() error {
	cfg := &readline.Config{
		Prompt: ansi.Sprintf("${GREEN}>>> ${RESET}"),
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		cfg.HistoryFile = path.Join(homeDir, ".lox_history")
	} else {
		fmt.Fprintf(os.Stderr, "Can't get current user's home directory (%s). Command history will not be saved.\n", err)
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return fmt.Errorf("running Lox REPL: %s", err)
	}
	defer rl.Close()

	fmt.Fprintln(os.Stderr, "Welcome to Lox!")

	in := interpreter.New()
	machine := vm.New()
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				break
			}
			panic(fmt.Sprintf("unexpected error from readline: %s", err))
		}
		if err := run([]byte(line), in, machine); err != nil {
			printError(err)
		}
	}

	return nil
}

func runFile(name string) error {
	src, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	if err := run(src, interpreter.New(), vm.New()); err != nil {
		printError(err)
	}
	return nil
}

// printError writes err to stderr, in bold red when the terminal supports it. --test mode leaves
// stdout as the only channel the golden-file harness inspects, so errors always go to stderr
// regardless of *testRun.
func printError(err error) {
	msg := strings.TrimRight(err.Error(), "\n")
	if ansi.Enabled {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, msg)
		return
	}
	fmt.Fprintln(os.Stderr, msg)
}
