package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCapture(t *testing.T, args []string, stdin string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestRunNullInput(t *testing.T) {
	t.Parallel()
	stdout, stderr, code := runCapture(t, []string{"-n", "1 + 1"}, "")
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d; stderr = %s", code, ExitOK, stderr)
	}
	if !strings.Contains(stdout, "2") {
		t.Fatalf("stdout = %q, want to contain 2", stdout)
	}
}

func TestRunStdinJSONToYAML(t *testing.T) {
	t.Parallel()
	stdout, stderr, code := runCapture(t, []string{"-p", "json", "-o", "yaml", ".name"}, `{"name": "ada"}`)
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d; stderr = %s", code, ExitOK, stderr)
	}
	if !strings.Contains(stdout, "ada") {
		t.Fatalf("stdout = %q, want to contain ada", stdout)
	}
}

func TestRunUnwrapScalar(t *testing.T) {
	t.Parallel()
	stdout, stderr, code := runCapture(t, []string{"-p", "json", "-r", ".name"}, `{"name": "ada"}`)
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d; stderr = %s", code, ExitOK, stderr)
	}
	if strings.TrimSpace(stdout) != "ada" {
		t.Fatalf("stdout = %q, want unquoted ada", stdout)
	}
}

func TestRunExitStatusFalseWhenAllOutputsFalsy(t *testing.T) {
	t.Parallel()
	_, stderr, code := runCapture(t, []string{"-e", "-n", "false"}, "")
	if code != ExitFalse {
		t.Fatalf("exit code = %d, want %d; stderr = %s", code, ExitFalse, stderr)
	}
}

func TestRunExitStatusOKWhenAnyOutputTruthy(t *testing.T) {
	t.Parallel()
	_, stderr, code := runCapture(t, []string{"-e", "-n", "true"}, "")
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d; stderr = %s", code, ExitOK, stderr)
	}
}

func TestRunParseErrorExitsWithEvalError(t *testing.T) {
	t.Parallel()
	_, stderr, code := runCapture(t, []string{"-n", "(((("}, "")
	if code != ExitEvalError {
		t.Fatalf("exit code = %d, want %d", code, ExitEvalError)
	}
	if stderr == "" {
		t.Fatal("expected an error message on stderr")
	}
}

func TestRunNoExpressionPrintsUsage(t *testing.T) {
	t.Parallel()
	_, stderr, code := runCapture(t, []string{}, "")
	if code != ExitEvalError {
		t.Fatalf("exit code = %d, want %d", code, ExitEvalError)
	}
	if stderr == "" {
		t.Fatal("expected a usage/error message on stderr")
	}
}

func TestRunFromFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	exprPath := filepath.Join(dir, "expr.sdex")
	if err := os.WriteFile(exprPath, []byte(".a"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	stdout, stderr, code := runCapture(t, []string{"-p", "json", "--from-file", exprPath}, `{"a": 7}`)
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d; stderr = %s", code, ExitOK, stderr)
	}
	if !strings.Contains(stdout, "7") {
		t.Fatalf("stdout = %q, want to contain 7", stdout)
	}
}

func TestRunInplace(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(path, []byte(`{"a": 1}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, stderr, code := runCapture(t, []string{"-i", ".a = 2", path}, "")
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d; stderr = %s", code, ExitOK, stderr)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "2") {
		t.Fatalf("file contents = %q, want to contain updated value 2", string(data))
	}
}

func TestRunNulOutputDelimitsValues(t *testing.T) {
	t.Parallel()
	stdout, stderr, code := runCapture(t, []string{"-p", "json", "-0", ".[]"}, `[1, 2]`)
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d; stderr = %s", code, ExitOK, stderr)
	}
	if !strings.Contains(stdout, "\x00") {
		t.Fatalf("stdout = %q, want NUL-delimited output", stdout)
	}
}

func TestRunEndToEndScenarios(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		args  []string
		stdin string
		want  string
	}{
		{"nested index", []string{"-p", "json", ".a.b[1]"}, `{"a":{"b":[1,2,3]}}`, "2"},
		{"map doubles", []string{"-p", "json", "map(., . * 2)"}, `[1,2,3,4,5]`, "[2, 4, 6, 8, 10]"},
		{"select then project", []string{"-p", "json", ".[] | select(.v > 1) | .n"}, `[{"n":"x","v":1},{"n":"y","v":2}]`, `"y"`},
		{"keys sorted", []string{"-p", "json", "keys"}, `{"a":1,"b":2}`, `["a", "b"]`},
		{"yaml assignment", []string{"-p", "yaml", ".name = \"new\""}, "name: old\n", "name: new"},
		{"unique", []string{"-p", "json", "unique"}, `[3,1,2,1,3]`, "[1, 2, 3]"},
		{"update assign", []string{"-p", "json", ".count |= . + 1"}, `{"count":5}`, `{"count": 6}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			stdout, stderr, code := runCapture(t, tt.args, tt.stdin)
			if code != ExitOK {
				t.Fatalf("exit code = %d, want %d; stderr = %s", code, ExitOK, stderr)
			}
			if got := strings.TrimSpace(stdout); got != tt.want {
				t.Fatalf("stdout = %q, want %q", got, tt.want)
			}
		})
	}
}
