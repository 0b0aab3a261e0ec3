// Package test contains golden-file tests that run the golox binary end-to-end against the .lox
// files under testdata, using the `// expect:` / `// expect runtime error:` comment convention.
package test

import (
	"testing"

	"github.com/loxlang/golox/test/loxtest"
)

// TestTreeWalk runs every .lox file under testdata against the default (tree-walking) backend.
func TestTreeWalk(t *testing.T) {
	loxtest.ForEachTestdataFile(t, func(t *testing.T, path string) {
		checkGolden(t, path)
	})
}

// TestVM runs the .lox files under testdata/shared against the bytecode VM backend. Those files
// are restricted to the documented VM subset (no functions, classes, or closures), so this
// exercises invariant 1 from §8: both backends must agree on valid shared-subset programs.
func TestVM(t *testing.T) {
	loxtest.ForEachFileIn(t, "shared", func(t *testing.T, path string) {
		checkGolden(t, path, "-vm")
	})
}

func checkGolden(t *testing.T, path string, extraArgs ...string) {
	t.Helper()
	exp := loxtest.ParseExpected(t, path)
	got := loxtest.MustRun(t, path, extraArgs...)

	wantStdout := ""
	for _, line := range exp.Stdout {
		wantStdout += line + "\n"
	}
	if diff := loxtest.ComputeTextDiff(wantStdout, got.Stdout); diff != "" {
		t.Errorf("stdout didn't match:\n%s", diff)
	}

	if exp.Stderr != "" {
		if got.Stderr != exp.Stderr+"\n" {
			t.Errorf("stderr = %q, want %q", got.Stderr, exp.Stderr+"\n")
		}
	}
}
