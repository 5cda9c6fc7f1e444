// Package cli implements sdex's command-line front end: flag parsing
// with alecthomas/kong, file resolution, color rendering through
// charmbracelet/lipgloss, and the exit-status policy.
// It is a collaborator of the eval/codec core, never the other way
// around.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
)

// Exit codes: 0 normal, 1 when -e triggers, 2 parse/eval error,
// 3 I/O error.
const (
	ExitOK        = 0
	ExitFalse     = 1
	ExitEvalError = 2
	ExitIOError   = 3
)

// CLI is sdex's entire flag and argument surface: a flat struct kong
// populates directly, with no subcommands (the tool has exactly one
// mode of operation).
type CLI struct {
	InputFormat  string `help:"Parser for input (auto infers from extension, else YAML)." short:"p" name:"input-format" enum:"auto,yaml,json,toml" default:"auto"`
	OutputFormat string `help:"Serializer for output (auto mirrors input)."                short:"o" name:"output-format" enum:"auto,yaml,json,toml" default:"auto"`
	Inplace      bool   `help:"Write result back to each input file atomically."          short:"i" name:"inplace"`
	NullInput    bool   `help:"Skip input reading; evaluate with null as input."          short:"n" name:"null-input"`
	Pretty       bool   `help:"Pretty-print JSON output."                                 short:"P" name:"pretty-print"`
	Color        bool   `help:"Force ANSI color."                                         short:"C" name:"color"`
	NoColor      bool   `help:"Disable ANSI color."                                       short:"M" name:"no-color"`
	Indent       int    `help:"Indentation width."                                        short:"I" name:"indent" default:"2"`
	UnwrapScalar bool   `help:"Print strings without surrounding quotes at top level."    short:"r" name:"unwrap-scalar"`
	FromFile     string `help:"Read expression from file instead of argv."                          name:"from-file"`
	NoDoc        bool   `help:"Suppress YAML document separators."                        short:"N" name:"no-doc"`
	NulOutput    bool   `help:"Delimit outputs with NUL."                                 short:"0" name:"nul-output"`
	ExitStatus   bool   `help:"Exit 1 if all outputs are null/false."                     short:"e" name:"exit-status"`
	Verbose      bool   `help:"Diagnostic trace to stderr."                               short:"v" name:"verbose"`

	Expression string   `arg:"" optional:"" name:"expression" help:"jq-inspired expression to evaluate."`
	Files      []string `arg:"" optional:"" name:"files" help:"Input files, or '-' for stdin."`
}

// Run parses args and executes sdex, returning the process exit code.
// It never calls os.Exit itself, so it can be driven from tests.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var c CLI
	parser, err := kong.New(&c,
		kong.Name("sdex"),
		kong.Description("Query and transform YAML, JSON and TOML documents with a jq-inspired expression language."),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitEvalError
	}
	ktx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitEvalError
	}

	if c.Expression == "" && c.FromFile == "" && !c.NullInput {
		_ = ktx.PrintUsage(false)
		fmt.Fprintln(stderr, "sdex: no expression given and no -n/--null-input; nothing to evaluate")
		return ExitEvalError
	}

	return runCLI(&c, stdin, stdout, stderr)
}

// Main is the entry point cmd/sdex wires up.
func Main() {
	os.Exit(Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
