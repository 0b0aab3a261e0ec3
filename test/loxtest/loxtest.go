// Package loxtest implements utilities for running golox against the golden .lox files under
// test/testdata: building the binary once per test run, scanning `// expect:` and
// `// expect runtime error:` comment markers out of a .lox file, and diffing them against what the
// binary actually printed.
package loxtest

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/loxlang/golox/internal/ansi"
)

func init() {
	ansi.Enabled = false
}

var (
	expectRe        = regexp.MustCompile(`(?m)^// expect: (.*)$`)
	expectRuntimeRe = regexp.MustCompile(`(?m)^// expect runtime error: (.*)$`)
	expectErrorRe   = regexp.MustCompile(`(?m)^// expect error: (.*)$`)
)

// Expected is the stdout and stderr that a .lox file's `// expect:` / `// expect runtime error:`
// comments describe.
type Expected struct {
	Stdout []string
	Stderr string // empty if the program isn't expected to raise a runtime error
}

// ParseExpected reads path and extracts its expectation comments.
func ParseExpected(t *testing.T, path string) Expected {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var exp Expected
	for _, m := range expectRe.FindAllStringSubmatch(string(data), -1) {
		exp.Stdout = append(exp.Stdout, m[1])
	}
	if m := expectRuntimeRe.FindStringSubmatch(string(data)); m != nil {
		exp.Stderr = m[1]
	}
	if m := expectErrorRe.FindStringSubmatch(string(data)); m != nil {
		exp.Stderr = m[1]
	}
	return exp
}

// Result is what actually came out of running golox against a .lox file.
type Result struct {
	Stdout string
	Stderr string
}

// MustRun builds golox (once, memoised across the test binary's lifetime) and runs it against
// path, returning what it printed. extraArgs is passed through before the file path, e.g. "-vm"
// to exercise the bytecode backend.
func MustRun(t *testing.T, path string, extraArgs ...string) Result {
	t.Helper()
	binPath := mustBuildGolox(t)

	args := append(append([]string{}, extraArgs...), path)
	cmd := exec.Command(binPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// golox exits 0 even on a reported runtime or compile error; a non-zero exit here means the
	// binary itself misbehaved (e.g. a panic), which should fail the test loudly.
	if err := cmd.Run(); err != nil {
		t.Fatalf("running golox %s: %s\nstdout:\n%s\nstderr:\n%s", strings.Join(args, " "), err, stdout.String(), stderr.String())
	}

	return Result{Stdout: stdout.String(), Stderr: stderr.String()}
}

var (
	buildMu         sync.Mutex
	builtBinaryPath string
)

func mustBuildGolox(t *testing.T) string {
	t.Helper()
	buildMu.Lock()
	defer buildMu.Unlock()
	if builtBinaryPath != "" {
		return builtBinaryPath
	}

	rootDir := mustModuleRoot(t)
	buildDir := filepath.Join(rootDir, "build")
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		t.Fatalf("building golox: %s", err)
	}

	binPath := filepath.Join(buildDir, "golox")
	cmd := exec.Command("go", "build", "-o", binPath, "github.com/loxlang/golox/cmd/golox")
	cmd.Dir = rootDir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("building golox: %s: %v\noutput:\n%s", cmd.String(), err, out)
	}

	builtBinaryPath = binPath
	return binPath
}

func mustModuleRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	for d := wd; d != "/"; d = filepath.Dir(d) {
		if info, err := os.Stat(filepath.Join(d, "go.mod")); err == nil && !info.IsDir() {
			return d
		}
	}
	t.Fatal("no go.mod found above " + wd)
	return ""
}

// ForEachTestdataFile calls fn once for every .lox file found (recursively) under
// test/testdata, naming each subtest after the file's path relative to testdata.
func ForEachTestdataFile(t *testing.T, fn func(t *testing.T, path string)) {
	rootDir := mustModuleRoot(t)
	testdataDir := filepath.Join(rootDir, "test", "testdata")
	walk(t, testdataDir, testdataDir, fn)
}

// ForEachFileIn calls fn once for every .lox file found (recursively) under
// test/testdata/<subdir>.
func ForEachFileIn(t *testing.T, subdir string, fn func(t *testing.T, path string)) {
	rootDir := mustModuleRoot(t)
	dir := filepath.Join(rootDir, "test", "testdata", subdir)
	walk(t, dir, dir, fn)
}

func walk(t *testing.T, base, dir string, fn func(t *testing.T, path string)) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			t.Run(pascalCase(entry.Name()), func(t *testing.T) {
				walk(t, base, full, fn)
			})
			continue
		}
		if filepath.Ext(entry.Name()) != ".lox" {
			continue
		}
		rel, _ := filepath.Rel(base, full)
		name := pascalCase(strings.TrimSuffix(rel, ".lox"))
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			fn(t, full)
		})
	}
}

func pascalCase(s string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '/' || r == os.PathSeparator }) {
		r, size := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(part[size:])
	}
	if b.Len() == 0 {
		return s
	}
	return b.String()
}

// ComputeTextDiff returns a human-readable unified diff between want and got, or an empty string
// if they're equal.
func ComputeTextDiff(want, got string) string {
	if want == got {
		return ""
	}
	edits := myers.ComputeEdits(span.URIFromPath("want"), want, got)
	return fmt.Sprint(gotextdiff.ToUnified("want", "got", want, edits))
}
