package cli

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/sdex/sdex/codec"
	"github.com/sdex/sdex/eval"
)

func newLogger(verbose bool, stderr io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// resolveColor implements the -C/-M pair: color is off by default and
// only forced on by -C, with -M always winning if both are given.
// Forcing color also pins lipgloss's profile, since its own detection
// would strip the escapes when stdout is not a terminal.
func resolveColor(c *CLI) bool {
	if c.NoColor {
		return false
	}
	if c.Color {
		lipgloss.SetColorProfile(termenv.ANSI256)
	}
	return c.Color
}

func runCLI(c *CLI, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := newLogger(c.Verbose, stderr)

	exprSrc := c.Expression
	files := c.Files
	if c.FromFile != "" {
		data, err := os.ReadFile(c.FromFile)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return ExitIOError
		}
		exprSrc = string(data)
		// With --from-file, the first positional argument is an input
		// file, not the expression.
		if c.Expression != "" {
			files = append([]string{c.Expression}, c.Files...)
		}
	}

	expr, err := eval.ParseString(exprSrc)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitEvalError
	}

	inFmtFlag, err := codec.ParseFormat(c.InputFormat)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitEvalError
	}
	outFmtFlag, err := codec.ParseFormat(c.OutputFormat)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitEvalError
	}

	opts := codec.Options{
		Indent:   c.Indent,
		Pretty:   c.Pretty,
		Color:    resolveColor(c),
		NoDocSep: c.NoDoc,
	}

	if c.NullInput {
		outFmt := outFmtFlag
		if outFmt == codec.FormatAuto {
			outFmt = codec.FormatYAML
		}
		outputs, err := eval.Eval(expr, eval.Null{})
		if err != nil {
			fmt.Fprintln(stderr, err)
			return ExitEvalError
		}
		if err := writeOutputs(stdout, outputs, outFmt, opts, c.UnwrapScalar, c.NulOutput, false); err != nil {
			fmt.Fprintln(stderr, err)
			return ExitIOError
		}
		return finalStatus(c, outputs)
	}

	sources, err := resolveSources(files, stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitIOError
	}
	if len(sources) == 0 {
		sources = []source{{name: stdinSource, reader: stdin}}
	}

	var allOutputs []eval.Value
	var wroteStdout bool
	for _, src := range sources {
		data, err := io.ReadAll(src.reader)
		if closer, ok := src.reader.(io.Closer); ok {
			closer.Close()
		}
		if err != nil {
			fmt.Fprintln(stderr, fmt.Errorf("%s: %w", src.name, err))
			return ExitIOError
		}

		inFmt := inFmtFlag
		if inFmt == codec.FormatAuto {
			inFmt = codec.DetectFormat(src.name)
		}
		outFmt := outFmtFlag
		if outFmt == codec.FormatAuto {
			outFmt = inFmt
		}

		docs, err := codec.Decode(bytes.NewReader(data), inFmt)
		if err != nil {
			if c.Verbose {
				logger.Error("decode failed", "source", src.name, "error", err)
				continue
			}
			fmt.Fprintln(stderr, fmt.Errorf("%s: %w", src.name, err))
			return ExitEvalError
		}

		var fileOutputs []eval.Value
		for _, doc := range docs {
			outs, err := eval.Eval(expr, doc)
			if err != nil {
				if c.Verbose {
					logger.Error("evaluation failed", "source", src.name, "error", err)
					continue
				}
				fmt.Fprintln(stderr, fmt.Errorf("%s: %w", src.name, err))
				return ExitEvalError
			}
			fileOutputs = append(fileOutputs, outs...)
		}
		allOutputs = append(allOutputs, fileOutputs...)

		if c.Inplace && src.path != "" {
			if err := writeInplace(src.path, fileOutputs, outFmt, opts, c.UnwrapScalar, c.NulOutput); err != nil {
				fmt.Fprintln(stderr, err)
				return ExitIOError
			}
			continue
		}
		if err := writeOutputs(stdout, fileOutputs, outFmt, opts, c.UnwrapScalar, c.NulOutput, wroteStdout); err != nil {
			fmt.Fprintln(stderr, err)
			return ExitIOError
		}
		if len(fileOutputs) > 0 {
			wroteStdout = true
		}
	}

	return finalStatus(c, allOutputs)
}

// writeOutputs renders each of outputs in sequence. -r prints a
// top-level string result unquoted; -0 appends a NUL after each
// rendered value, following the newline the codec already wrote. YAML
// document separators go between documents, never before the first of
// the stream: leadSep says whether w already holds earlier documents.
func writeOutputs(w io.Writer, outputs []eval.Value, format codec.Format, opts codec.Options, unwrapScalar, nulOutput, leadSep bool) error {
	for i, v := range outputs {
		if unwrapScalar {
			if s, ok := v.(eval.String); ok {
				if _, err := fmt.Fprintln(w, string(s)); err != nil {
					return err
				}
				if nulOutput {
					if _, err := w.Write([]byte{0}); err != nil {
						return err
					}
				}
				continue
			}
		}
		o := opts
		if i == 0 && !leadSep {
			o.NoDocSep = true
		}
		if err := codec.Encode(w, v, format, o); err != nil {
			return err
		}
		if nulOutput {
			if _, err := w.Write([]byte{0}); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeInplace renders outputs to a temp file in path's directory and
// renames it over path, so a crash mid-write never corrupts the
// original.
func writeInplace(path string, outputs []eval.Value, format codec.Format, opts codec.Options, unwrapScalar, nulOutput bool) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".sdex-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if info, err := os.Stat(path); err == nil {
		tmp.Chmod(info.Mode().Perm())
	}
	if err := writeOutputs(tmp, outputs, format, opts, unwrapScalar, nulOutput, false); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// finalStatus implements -e/--exit-status: exit 1 when every output
// produced across the whole run is null or false.
func finalStatus(c *CLI, outputs []eval.Value) int {
	if !c.ExitStatus {
		return ExitOK
	}
	for _, v := range outputs {
		if v.True() {
			return ExitOK
		}
	}
	return ExitFalse
}
